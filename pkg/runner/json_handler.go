package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/palaver/pkg/conversation"
	"github.com/aretw0/palaver/pkg/domain"
)

// JSONHandler implements the IOHandler interface for line-delimited JSON.
//
// Each input line is either an object {"message": "..."}, a JSON string, or
// plain text. Every output is one JSON object per line.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

// JSONInput is the object form of an input line.
type JSONInput struct {
	Message string `json:"message"`
}

// JSONGreeting is emitted once at start and after every reset.
type JSONGreeting struct {
	Agent       domain.AgentDescriptor `json:"agent"`
	Suggestions []string               `json:"suggestions,omitempty"`
}

// JSONTurn is emitted after every turn.
type JSONTurn struct {
	State domain.ConversationState `json:"state"`
	Turn  conversation.Turn        `json:"turn"`
}

type jsonSystem struct {
	System string `json:"system,omitempty"`
	Signal string `json:"signal,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (h *JSONHandler) Greet(ctx context.Context, agent domain.AgentDescriptor, suggestions []string) error {
	return h.Encoder.Encode(JSONGreeting{Agent: agent, Suggestions: suggestions})
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		line, err := h.Reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" && err != nil {
			return "", err
		}

		clean, sErr := SanitizeInput(decodeInputLine(line))
		if sErr != nil {
			if encErr := h.Encoder.Encode(jsonSystem{Error: sErr.Error()}); encErr != nil {
				return "", encErr
			}
			if err != nil {
				return "", err
			}
			continue
		}
		return clean, nil
	}
}

func decodeInputLine(line string) string {
	var obj JSONInput
	if strings.HasPrefix(line, "{") && json.Unmarshal([]byte(line), &obj) == nil {
		return obj.Message
	}
	var val string
	if json.Unmarshal([]byte(line), &val) == nil {
		return val
	}
	return line
}

func (h *JSONHandler) Output(ctx context.Context, state domain.ConversationState, turn conversation.Turn) error {
	return h.Encoder.Encode(JSONTurn{State: state, Turn: turn})
}

func (h *JSONHandler) Signal(ctx context.Context, name string) error {
	return h.Encoder.Encode(jsonSystem{Signal: name})
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(jsonSystem{System: msg})
}
