package model

import (
	"testing"
	"time"
)

func boolPtr(b bool) *bool           { return &b }
func strPtr(s string) *string        { return &s }
func timePtr(t time.Time) *time.Time { return &t }

func TestTodoPatch_Apply(t *testing.T) {
	t.Parallel()

	earlier := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name            string
		todo            Todo
		patch           TodoPatch
		wantText        string
		wantCompleted   bool
		wantCompletedAt *time.Time
	}{
		{
			name:            "complete open todo stamps now",
			todo:            Todo{Text: "a"},
			patch:           TodoPatch{Completed: boolPtr(true)},
			wantText:        "a",
			wantCompleted:   true,
			wantCompletedAt: &now,
		},
		{
			name:            "complete already completed keeps original stamp",
			todo:            Todo{Text: "a", Completed: true, CompletedAt: timePtr(earlier)},
			patch:           TodoPatch{Completed: boolPtr(true)},
			wantText:        "a",
			wantCompleted:   true,
			wantCompletedAt: &earlier,
		},
		{
			name:            "reopen clears stamp",
			todo:            Todo{Text: "a", Completed: true, CompletedAt: timePtr(earlier)},
			patch:           TodoPatch{Completed: boolPtr(false)},
			wantText:        "a",
			wantCompleted:   false,
			wantCompletedAt: nil,
		},
		{
			name:            "text only leaves completion alone",
			todo:            Todo{Text: "a", Completed: true, CompletedAt: timePtr(earlier)},
			patch:           TodoPatch{Text: strPtr("b")},
			wantText:        "b",
			wantCompleted:   true,
			wantCompletedAt: &earlier,
		},
		{
			name:          "empty patch is a no-op",
			todo:          Todo{Text: "a"},
			patch:         TodoPatch{},
			wantText:      "a",
			wantCompleted: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			todo := tt.todo
			tt.patch.Apply(&todo, now)

			if todo.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", todo.Text, tt.wantText)
			}
			if todo.Completed != tt.wantCompleted {
				t.Errorf("Completed = %v, want %v", todo.Completed, tt.wantCompleted)
			}
			switch {
			case tt.wantCompletedAt == nil && todo.CompletedAt != nil:
				t.Errorf("CompletedAt = %v, want nil", *todo.CompletedAt)
			case tt.wantCompletedAt != nil && todo.CompletedAt == nil:
				t.Errorf("CompletedAt = nil, want %v", *tt.wantCompletedAt)
			case tt.wantCompletedAt != nil && !todo.CompletedAt.Equal(*tt.wantCompletedAt):
				t.Errorf("CompletedAt = %v, want %v", *todo.CompletedAt, *tt.wantCompletedAt)
			}
		})
	}
}

func TestUser_HasToken(t *testing.T) {
	t.Parallel()

	u := &User{Tokens: []Token{{Access: PurposeAuth, Token: "t1"}, {Access: PurposeAuth, Token: "t2"}}}

	if !u.HasToken(PurposeAuth, "t2") {
		t.Error("expected t2 to be held")
	}
	if u.HasToken(PurposeAuth, "t3") {
		t.Error("t3 should not be held")
	}
	if u.HasToken("reset", "t1") {
		t.Error("purpose must match as well as the token")
	}
}
