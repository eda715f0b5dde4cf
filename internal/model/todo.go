package model

import "time"

// Todo is a task owned by the user that created it.
type Todo struct {
	ID          string     `json:"id" bson:"_id"`
	Text        string     `json:"text" bson:"text"`
	Completed   bool       `json:"completed" bson:"completed"`
	CompletedAt *time.Time `json:"completedAt" bson:"completedAt"`
	CreatorID   string     `json:"creatorId" bson:"creatorId"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
}

// TodoPatch holds the mutable fields of a todo. Nil fields are left unchanged.
type TodoPatch struct {
	Text      *string
	Completed *bool
}

// Apply mutates t according to the patch.
// CompletedAt is stamped with now only when the todo moves from open to completed,
// and cleared whenever it is reopened.
func (p TodoPatch) Apply(t *Todo, now time.Time) {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Completed == nil {
		return
	}
	if *p.Completed {
		if !t.Completed || t.CompletedAt == nil {
			ts := now
			t.CompletedAt = &ts
		}
		t.Completed = true
		return
	}
	t.Completed = false
	t.CompletedAt = nil
}
