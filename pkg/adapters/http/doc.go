/*
Package http exposes conversation sessions over JSON/HTTP for browser and web
presentation layers.

Routes:

	GET    /health
	GET    /info
	GET    /metrics                     (when a metrics handler is configured)
	POST   /sessions                    start a session {"agent_id"?}
	GET    /sessions                    list live session ids
	GET    /sessions/{id}               session record
	DELETE /sessions/{id}               close the session
	POST   /sessions/{id}/messages      run one turn {"message"}
	DELETE /sessions/{id}/messages      reset the conversation
	PUT    /sessions/{id}/pending       queue pending input {"message"}
	GET    /sessions/{id}/suggestions   suggested questions
	POST   /sessions/{id}/suggestions/{n}  queue suggested question n as pending input
	GET    /events?session_id={id}      SSE stream of state diffs

A turn already in flight for the session answers 409 Conflict.
*/
package http
