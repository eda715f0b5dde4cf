package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/ninetyone/TodoApp/internal/model"
)

func TestTodoPatchStage(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	text := "$completed"
	yes, no := true, false

	stamp := bson.D{{Key: "$cond", Value: bson.D{
		{Key: "if", Value: bson.D{{Key: "$eq", Value: bson.A{"$completed", true}}}},
		{Key: "then", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$completedAt", now}}}},
		{Key: "else", Value: now},
	}}}

	tests := []struct {
		name  string
		patch model.TodoPatch
		want  bson.D
	}{
		{
			name:  "empty patch",
			patch: model.TodoPatch{},
			want:  nil,
		},
		{
			name:  "text is wrapped in literal",
			patch: model.TodoPatch{Text: &text},
			want:  bson.D{{Key: "text", Value: bson.D{{Key: "$literal", Value: "$completed"}}}},
		},
		{
			name:  "complete stamps conditionally",
			patch: model.TodoPatch{Completed: &yes},
			want: bson.D{
				{Key: "completed", Value: true},
				{Key: "completedAt", Value: stamp},
			},
		},
		{
			name:  "reopen clears timestamp",
			patch: model.TodoPatch{Completed: &no},
			want: bson.D{
				{Key: "completed", Value: false},
				{Key: "completedAt", Value: nil},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, todoPatchStage(tt.patch, now))
		})
	}
}
