/*
Package remote is the HTTP adapter for the remote agent API.

It implements ports.AgentLister (GET /agents) and ports.ChatSender
(POST /agents/{agentId}/chat) with a pre-formed bearer credential. Each call is a
single attempt; the caller bounds the wait through the request context.

Errors are reported with enough structure for the conversation core to classify them:

  - *StatusError for any non-200 answer (status and raw body kept for operators).
  - ErrTimeout (wrapped) when the bounded wait elapsed.
  - Any other error is a transport failure.
*/
package remote
