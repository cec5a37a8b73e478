/*
Package palaver holds a multi-turn conversation with a remote, named AI agent
reachable through a stateless HTTP chat endpoint.

The remote API does not remember anything between calls except an opaque thread
token. palaver keeps the transcript, carries the token from turn to turn, and turns
every failed call into a short apology in the transcript instead of an error, so a
conversation always alternates user and assistant messages.

# Architecture

  - pkg/directory resolves the configured agent id once, before a conversation may start.
  - pkg/conversation advances one conversation by one turn per Send.
  - pkg/session maps session ids onto live conversations held in a StateStore
    (memory or Redis) and keeps each session single-flight.
  - pkg/persistence/middleware masks and encrypts conversations on their way into a StateStore.
  - pkg/runner, pkg/adapters/http and pkg/adapters/mcp are presentation layers:
    terminal, web gateway and MCP tools.

# Usage

	client := remote.NewClient(os.Getenv("MAXIAI_API_KEY"))

	agent, err := directory.Resolve(ctx, client, os.Getenv("MAXIAI_AGENT_ID"))
	if err != nil {
		log.Fatal(err)
	}

	sess := conversation.New(client, agent)
	state, turn, _ := sess.Send(ctx, domain.NewConversationState(), "Hello")
	fmt.Println(turn.Reply, len(state.History))
*/
package palaver
