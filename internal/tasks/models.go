// Package tasks owns the task lifecycle and the delegation-edge ledger that
// decides who may see and act on each task.
package tasks

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fieldverify/verification-portal-backend/internal/apperrors"
)

// TaskStatus is the task lifecycle state. Any status may be written over any
// other; completed and rejected are terminal only for reporting purposes.
type TaskStatus string

const (
	StatusPending             TaskStatus = "pending"
	StatusInProgress          TaskStatus = "in-progress"
	StatusPaused              TaskStatus = "paused"
	StatusAcceptedUnderReview TaskStatus = "accepted-under-review"
	StatusRejectedUnderReview TaskStatus = "rejected-under-review"
	StatusCompleted           TaskStatus = "completed"
	StatusRejected            TaskStatus = "rejected"
)

var knownStatuses = map[TaskStatus]struct{}{
	StatusPending:             {},
	StatusInProgress:          {},
	StatusPaused:              {},
	StatusAcceptedUnderReview: {},
	StatusRejectedUnderReview: {},
	StatusCompleted:           {},
	StatusRejected:            {},
}

func ParseStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if _, ok := knownStatuses[status]; !ok {
		return "", fmt.Errorf("unknown task status %q: %w", s, apperrors.ErrInvalidFields)
	}
	return status, nil
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	}
	return "", fmt.Errorf("unknown priority %q: %w", s, apperrors.ErrInvalidFields)
}

// rank orders priorities for due-date tie-breaking, high first.
func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

type VerificationType string

const (
	TypeBusiness    VerificationType = "business"
	TypeNonBusiness VerificationType = "non-business"
	TypeNRI         VerificationType = "nri"
)

func ParseVerificationType(s string) (VerificationType, error) {
	switch t := VerificationType(s); t {
	case TypeBusiness, TypeNonBusiness, TypeNRI:
		return t, nil
	}
	return "", fmt.Errorf("unknown verification type %q: %w", s, apperrors.ErrInvalidFields)
}

// Task is one applicant's verification case. Its sub-form documents live in
// the forms package, keyed by the task id; visibility is governed entirely by
// the delegation edges, never by fields on the task itself.
type Task struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title            string             `bson:"title" json:"title"`
	Description      string             `bson:"description" json:"description"`
	ApplicantName    string             `bson:"applicantName" json:"applicantName"`
	ApplicationNo    string             `bson:"applicationNo" json:"applicationNo"`
	City             string             `bson:"city" json:"city"`
	VerificationType VerificationType   `bson:"verificationType" json:"verificationType"`
	Priority         Priority           `bson:"priority" json:"priority"`
	Status           TaskStatus         `bson:"status" json:"status"`
	DueDate          time.Time          `bson:"dueDate" json:"dueDate"`
	CompletedAt      *time.Time         `bson:"completedAt" json:"completedAt,omitempty"`
	Attachments      []string           `bson:"attachments" json:"attachments"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"-"`
}

// IsOverdue reports whether the task missed its due date. Completed tasks are
// judged against their completion time, everything else against now.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.Status == StatusCompleted && t.CompletedAt != nil {
		return t.DueDate.Before(*t.CompletedAt)
	}
	return t.DueDate.Before(now)
}

// DelegationEdge is one link of a task's delegation chain. Levels start at 1
// with the creating account and stay contiguous: assignment appends at the
// deepest level plus one, transfer cuts everything below the caller first.
type DelegationEdge struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	AssignedBy primitive.ObjectID `bson:"assignedBy" json:"assignedBy"`
	AssignedTo primitive.ObjectID `bson:"assignedTo" json:"assignedTo"`
	TaskID     primitive.ObjectID `bson:"taskId" json:"taskId"`
	Level      int                `bson:"level" json:"level"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// CreateTaskRequest is the createTask payload.
type CreateTaskRequest struct {
	AssignedTo       string    `json:"assignedTo" binding:"required"`
	Title            string    `json:"title" binding:"required"`
	Description      string    `json:"description"`
	ApplicantName    string    `json:"applicantName" binding:"required"`
	ApplicationNo    string    `json:"applicationNo"`
	City             string    `json:"city"`
	VerificationType string    `json:"verificationType" binding:"required"`
	Priority         string    `json:"priority" binding:"required"`
	DueDate          time.Time `json:"dueDate" binding:"required"`
}

// UpdateTaskRequest carries the mutable task details; nil fields are left
// untouched.
type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
}

// ListFilter narrows the assigned-to-me / assigned-by-me listings.
type ListFilter struct {
	DueAfter  *time.Time
	DueBefore *time.Time
	Priority  *Priority
	Status    *TaskStatus
}

// TaskView is the listing row: the task plus derived display fields.
type TaskView struct {
	Task
	IsOverdue bool `json:"isOverdue"`
}
