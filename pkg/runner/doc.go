/*
Package runner implements the interactive turn loop of a terminal conversation.

It acts as the bridge between a conversation.Session and the person typing. The
runner holds the single live ConversationState, reads one line at a time through a
pluggable IOHandler, interprets the chat commands and hands every other line to
Send. It never renders on its own; handlers decide how a turn looks.

# Key Components

  - Runner: the loop. Returns the final state when the user leaves or input ends.
  - IOHandler: decouples how lines are read and turns are shown (text, NDJSON).
  - TextHandler: prompt-based interface for people, with optional markdown rendering.
  - JSONHandler: line-delimited JSON for scripts and other programs.

# Commands

	/clear       reset the conversation (only when there is something to clear)
	/suggest     list the suggested questions while the transcript is empty
	/1 ... /4    send a suggested question
	/q, /quit, /exit  leave

# Usage

	sess := conversation.New(client, agent)
	r := runner.NewRunner(runner.WithIOHandler(runner.NewTextHandler(os.Stdin, os.Stdout)))

	if _, err := r.Run(ctx, sess, domain.NewConversationState()); err != nil {
		log.Fatal(err)
	}
*/
package runner
