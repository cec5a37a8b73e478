/*
Package conversation advances one conversation with a remote agent by exactly one
turn per Send.

A Session is bound to one resolved agent and one ChatSender. It does not own the
transcript: callers pass the current domain.ConversationState in and get the next
one back, so the presentation layer holds the single live value and nothing is
shared across turns implicitly.

# Turn Semantics

  - The pending-input slot, when set, is consumed in place of the freeform input.
  - Blank input is a no-op.
  - Otherwise exactly one user message and exactly one assistant-role message are
    appended: the reply on success, a fixed apology chosen by ErrorClass on failure.
  - A thread token in a success reply replaces the stored one; an absent token
    leaves it untouched.
  - Outcome errors never escape Send; they are reported in Turn for operators.

# Single-flight

A Session accepts one turn at a time. Send and Reset called while a turn is
awaiting its outcome return domain.ErrTurnInFlight and leave the state untouched.
*/
package conversation
