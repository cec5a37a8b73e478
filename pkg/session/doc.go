/*
Package session maps session ids onto live conversations.

A Manager starts a conversation only after the agent directory lookup succeeded,
keeps each ConversationState in a ports.StateStore for as long as the session
lives, and enforces single-flight per session id: while one turn of a session is
awaiting its outcome, further Send, Pend and Reset calls for the same id fail fast
with domain.ErrTurnInFlight. With a DistributedLocker the guarantee extends across
gateway replicas sharing one store.
*/
package session
