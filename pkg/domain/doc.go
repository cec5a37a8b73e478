/*
Package domain contains the core domain models of the palaver conversation client.

It defines the transcript entities, the per-session conversation state and the closed
error taxonomy that the conversation session maps remote outcomes onto. This package
is kept pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Message: One immutable line of the transcript (user or assistant).
  - ConversationState: History plus the server-assigned thread token and the pending-input slot.
  - AgentDescriptor: Read-only reference data for the remote agent being addressed.
  - ErrorClass: The turn-level failure classes and their fixed apology messages.
*/
package domain
