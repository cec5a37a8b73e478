package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	t1 := "t1"
	empty := ""

	hello := []Message{UserMessage("Hello"), AssistantMessage("Hi!")}

	tests := []struct {
		name     string
		old      *ConversationState
		new      ConversationState
		wantDiff *StateDiff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  ConversationState{History: hello, ThreadID: "t1"},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Appended:  hello,
				ThreadID:  &t1,
			},
		},
		{
			name:     "No Changes",
			old:      &ConversationState{History: hello, ThreadID: "t1"},
			new:      ConversationState{History: hello, ThreadID: "t1"},
			wantDiff: nil,
		},
		{
			name: "Turn Appended With New Thread",
			old:  &ConversationState{History: []Message{}},
			new:  ConversationState{History: hello, ThreadID: "t1"},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Appended:  hello,
				ThreadID:  &t1,
			},
		},
		{
			name: "Reset",
			old:  &ConversationState{History: hello, ThreadID: "t1"},
			new:  ConversationState{History: []Message{}},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Reset:     true,
				Appended:  []Message{},
				ThreadID:  &empty,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff("sess-1", tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("Diff() = nil, want diff")
			}
			if got.Reset != tt.wantDiff.Reset {
				t.Errorf("Diff().Reset = %v, want %v", got.Reset, tt.wantDiff.Reset)
			}
			if len(got.Appended) != len(tt.wantDiff.Appended) ||
				(len(got.Appended) > 0 && !reflect.DeepEqual(got.Appended, tt.wantDiff.Appended)) {
				t.Errorf("Diff().Appended = %v, want %v", got.Appended, tt.wantDiff.Appended)
			}
			if !reflect.DeepEqual(got.ThreadID, tt.wantDiff.ThreadID) {
				t.Errorf("Diff().ThreadID = %v, want %v", got.ThreadID, tt.wantDiff.ThreadID)
			}
		})
	}
}

func TestDiff_JSONOmitsUnchangedThread(t *testing.T) {
	old := &ConversationState{History: []Message{}, ThreadID: "t1"}
	next := old.Append(UserMessage("More"), AssistantMessage("Sure"))

	bytes, err := json.Marshal(Diff("sess-1", old, next))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(bytes), "thread_id") {
		t.Errorf("JSON should not contain 'thread_id' when unchanged, got: %s", string(bytes))
	}
	if !strings.Contains(string(bytes), `"content":"More"`) {
		t.Errorf("JSON should contain appended message, got: %s", string(bytes))
	}
}
