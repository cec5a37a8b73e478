/*
Package ports defines the driven ports (interfaces) of the palaver client.

These interfaces decouple the conversation core from the remote agent API and from
the storage used to hold live sessions, so the same core can sit behind a terminal,
an HTTP gateway or an MCP server.

# Key Interfaces

  - AgentLister: Lists every agent visible to the configured credential.
  - ChatSender: Issues one chat request to a named agent.
  - StateStore: Holds live session records for the lifetime of the session.
  - DistributedLocker: Provides cross-process single-flight for a session.
*/
package ports
