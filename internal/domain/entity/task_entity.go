package entity

import "time"

// Task is a single to-do item living under one tab.
type Task struct {
	UserID      string    `json:"userId" dynamodbav:"userId"`
	TabID       string    `json:"tabId" dynamodbav:"tabId"`
	TaskID      string    `json:"taskId" dynamodbav:"taskId"`
	Text        string    `json:"text" dynamodbav:"text"`
	Description string    `json:"description" dynamodbav:"description"`
	Completed   bool      `json:"completed" dynamodbav:"completed"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" dynamodbav:"updatedAt"`
}

// TaskKey addresses one task inside a user's partition.
type TaskKey struct {
	TabID  string
	TaskID string
}

// Key returns the addressing pair of t.
func (t Task) Key() TaskKey {
	return TaskKey{TabID: t.TabID, TaskID: t.TaskID}
}

// TaskPatch carries a partial update; nil fields are left untouched.
type TaskPatch struct {
	Text        *string
	Description *string
	Completed   *bool
}

// Empty reports whether the patch changes no content field.
func (p TaskPatch) Empty() bool {
	return p.Text == nil && p.Description == nil && p.Completed == nil
}

// Apply copies the present fields of p onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
}
