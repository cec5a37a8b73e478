package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/palaver/pkg/conversation"
	"github.com/aretw0/palaver/pkg/domain"
)

// TextHandler implements the prompt-based interface for people.
type TextHandler struct {
	Reader *bufio.Reader
	Writer io.Writer

	// Renderer transforms successful replies (e.g. markdown to ANSI).
	Renderer ContentRenderer

	// Highlight styles the apology shown for a failed turn.
	Highlight func(string) string

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerHighlight configures how apologies are styled.
func WithTextHandlerHighlight(fn func(string) string) TextHandlerOption {
	return func(h *TextHandler) {
		h.Highlight = fn
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so Input can honour ctx.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

func (h *TextHandler) Greet(ctx context.Context, agent domain.AgentDescriptor, suggestions []string) error {
	name := agent.Name
	if name == "" {
		name = agent.ID
	}
	fmt.Fprintf(h.Writer, "Chatting with %s\n", name)
	if agent.Description != "" {
		fmt.Fprintln(h.Writer, agent.Description)
	}
	if len(suggestions) > 0 {
		fmt.Fprintln(h.Writer, "\nTry asking:")
		for i, s := range suggestions {
			fmt.Fprintf(h.Writer, "  /%d  %s\n", i+1, s)
		}
	}
	fmt.Fprintln(h.Writer)
	return nil
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, "> ")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) Output(ctx context.Context, state domain.ConversationState, turn conversation.Turn) error {
	output := turn.Reply
	switch {
	case !turn.OK():
		if h.Highlight != nil {
			output = h.Highlight(output)
		}
	case h.Renderer != nil:
		if rendered, err := h.Renderer(output); err == nil {
			output = rendered
		}
	}
	_, err := fmt.Fprintln(h.Writer, strings.TrimSpace(output))
	return err
}

func (h *TextHandler) Signal(ctx context.Context, name string) error {
	if name == SignalThinking {
		fmt.Fprintln(h.Writer, "...")
	}
	return nil
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	fmt.Fprintf(h.Writer, "\n[System] %s\n", msg)
	return nil
}
