package tasks

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"fieldverify/verification-portal-backend/internal/apperrors"
	"fieldverify/verification-portal-backend/internal/auth"
	"fieldverify/verification-portal-backend/internal/forms"
)

// FormManager is the slice of the forms service the task engine drives.
type FormManager interface {
	CreateDefaults(ctx context.Context, taskID primitive.ObjectID, applicantName, verificationType string) error
	Fetch(ctx context.Context, taskID primitive.ObjectID, kind forms.Kind, verificationType string) (map[string]interface{}, error)
	Update(ctx context.Context, taskID primitive.ObjectID, kind forms.Kind, verificationType string, payload map[string]interface{}) error
	DeleteAll(ctx context.Context, taskID primitive.ObjectID) error
}

// AttachmentStore persists attachment blobs under generated names.
type AttachmentStore interface {
	Put(ctx context.Context, name string, body io.Reader, contentType string) error
	Delete(ctx context.Context, name string) error
}

// Service implements the task lifecycle, the delegation chain and the
// edge-checked form facade.
type Service struct {
	repo   Repository
	forms  FormManager
	files  AttachmentStore
	logger *zap.Logger
}

func NewService(repo Repository, formManager FormManager, files AttachmentStore, logger *zap.Logger) *Service {
	return &Service{repo: repo, forms: formManager, files: files, logger: logger}
}

// CreateTask creates the task, its default form documents and the level-1
// delegation edge from the creator to the first assignee. A failure after the
// task insert unwinds everything already created, so the three become visible
// together or not at all.
func (s *Service) CreateTask(ctx context.Context, p auth.Principal, req CreateTaskRequest) (*Task, error) {
	if !p.IsAdminTier() {
		return nil, fmt.Errorf("create task: %w", apperrors.ErrPermissionDenied)
	}
	assignee, err := primitive.ObjectIDFromHex(req.AssignedTo)
	if err != nil {
		return nil, fmt.Errorf("invalid assignee id: %w", apperrors.ErrInvalidFields)
	}
	verificationType, err := ParseVerificationType(req.VerificationType)
	if err != nil {
		return nil, err
	}
	priority, err := ParsePriority(req.Priority)
	if err != nil {
		return nil, err
	}

	task := &Task{
		Title:            req.Title,
		Description:      req.Description,
		ApplicantName:    req.ApplicantName,
		ApplicationNo:    req.ApplicationNo,
		City:             req.City,
		VerificationType: verificationType,
		Priority:         priority,
		Status:           StatusPending,
		DueDate:          req.DueDate,
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	if err := s.forms.CreateDefaults(ctx, task.ID, task.ApplicantName, string(verificationType)); err != nil {
		s.unwindCreate(ctx, task.ID)
		return nil, fmt.Errorf("create forms: %w", err)
	}
	edge := &DelegationEdge{
		AssignedBy: p.AccountID,
		AssignedTo: assignee,
		TaskID:     task.ID,
		Level:      1,
	}
	if err := s.repo.CreateEdge(ctx, edge); err != nil {
		s.unwindCreate(ctx, task.ID)
		return nil, err
	}

	s.logger.Info("task created",
		zap.String("taskId", task.ID.Hex()),
		zap.String("assignedTo", assignee.Hex()),
		zap.String("verificationType", string(verificationType)))
	return task, nil
}

func (s *Service) unwindCreate(ctx context.Context, taskID primitive.ObjectID) {
	if err := s.forms.DeleteAll(ctx, taskID); err != nil {
		s.logger.Error("unwind forms failed", zap.String("taskId", taskID.Hex()), zap.Error(err))
	}
	if err := s.repo.DeleteTask(ctx, taskID); err != nil {
		s.logger.Error("unwind task failed", zap.String("taskId", taskID.Hex()), zap.Error(err))
	}
}

// GetTask returns the task when the caller holds any edge for it.
func (s *Service) GetTask(ctx context.Context, p auth.Principal, taskID primitive.ObjectID) (*Task, error) {
	if _, err := s.anyEdge(ctx, p.AccountID, taskID); err != nil {
		return nil, err
	}
	return s.repo.FindTask(ctx, taskID)
}

// UpdateTask patches the mutable details. Admin tier only, and only within
// the caller's delegation scope.
func (s *Service) UpdateTask(ctx context.Context, p auth.Principal, taskID primitive.ObjectID, req UpdateTaskRequest) error {
	if !p.IsAdminTier() {
		return fmt.Errorf("update task: %w", apperrors.ErrPermissionDenied)
	}
	if _, err := s.anyEdge(ctx, p.AccountID, taskID); err != nil {
		return err
	}
	update := bson.M{}
	if req.Title != nil {
		update["title"] = *req.Title
	}
	if req.Description != nil {
		update["description"] = *req.Description
	}
	if req.Priority != nil {
		priority, err := ParsePriority(*req.Priority)
		if err != nil {
			return err
		}
		update["priority"] = priority
	}
	if req.DueDate != nil {
		update["dueDate"] = *req.DueDate
	}
	if len(update) == 0 {
		return fmt.Errorf("no task fields to update: %w", apperrors.ErrInvalidFields)
	}
	return s.repo.UpdateTask(ctx, taskID, update)
}

// AssignTask appends a new edge one level below the caller's, looping the new
// assignee in without altering any existing edge. Two concurrent assignments
// from the same edge race for the (taskId, level) slot; the loser gets
// ErrConflict and must re-read before retrying.
func (s *Service) AssignTask(ctx context.Context, p auth.Principal, taskID, assignee primitive.ObjectID) error {
	callerEdge, err := s.callerEdge(ctx, p, taskID)
	if err != nil {
		return err
	}
	edge := &DelegationEdge{
		AssignedBy: p.AccountID,
		AssignedTo: assignee,
		TaskID:     taskID,
		Level:      callerEdge.Level + 1,
	}
	if err := s.repo.CreateEdge(ctx, edge); err != nil {
		return err
	}
	s.logger.Info("task assigned",
		zap.String("taskId", taskID.Hex()),
		zap.String("assignedTo", assignee.Hex()),
		zap.Int("level", edge.Level))
	return nil
}

// TransferTask replaces everyone downstream of the caller: every edge deeper
// than the caller's is deleted, then one new edge is appended.
func (s *Service) TransferTask(ctx context.Context, p auth.Principal, taskID, assignee primitive.ObjectID) error {
	callerEdge, err := s.callerEdge(ctx, p, taskID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteEdgesBelow(ctx, taskID, callerEdge.Level); err != nil {
		return err
	}
	edge := &DelegationEdge{
		AssignedBy: p.AccountID,
		AssignedTo: assignee,
		TaskID:     taskID,
		Level:      callerEdge.Level + 1,
	}
	if err := s.repo.CreateEdge(ctx, edge); err != nil {
		return err
	}
	s.logger.Info("task transferred",
		zap.String("taskId", taskID.Hex()),
		zap.String("assignedTo", assignee.Hex()),
		zap.Int("level", edge.Level))
	return nil
}

// UpdateTaskStatus writes the new status. completedAt is set on the move into
// completed and cleared on every other write.
func (s *Service) UpdateTaskStatus(ctx context.Context, p auth.Principal, taskID primitive.ObjectID, status TaskStatus) error {
	if _, err := s.anyEdge(ctx, p.AccountID, taskID); err != nil {
		return err
	}
	var completedAt *time.Time
	if status == StatusCompleted {
		now := time.Now().UTC()
		completedAt = &now
	}
	return s.repo.SetStatus(ctx, taskID, status, completedAt)
}

// AssignedToMe lists the tasks the caller holds an assignedTo edge for.
func (s *Service) AssignedToMe(ctx context.Context, p auth.Principal, filter ListFilter) ([]TaskView, error) {
	ids, err := s.repo.TaskIDsByAssignee(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	return s.listViews(ctx, ids, filter)
}

// AssignedByMe lists the tasks the caller delegated onward.
func (s *Service) AssignedByMe(ctx context.Context, p auth.Principal, filter ListFilter) ([]TaskView, error) {
	ids, err := s.repo.TaskIDsByAssigner(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	return s.listViews(ctx, ids, filter)
}

func (s *Service) listViews(ctx context.Context, ids []primitive.ObjectID, filter ListFilter) ([]TaskView, error) {
	if len(ids) == 0 {
		return []TaskView{}, nil
	}
	tasks, err := s.repo.FindTasks(ctx, ids, filter)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	views := make([]TaskView, 0, len(tasks))
	for i := range tasks {
		views = append(views, TaskView{Task: tasks[i], IsOverdue: tasks[i].IsOverdue(now)})
	}
	return views, nil
}

// FetchFormData returns the requested form documents, edge-checked once for
// the whole batch.
func (s *Service) FetchFormData(ctx context.Context, p auth.Principal, taskID primitive.ObjectID, kinds []forms.Kind) (map[forms.Kind]map[string]interface{}, error) {
	task, err := s.GetTask(ctx, p, taskID)
	if err != nil {
		return nil, err
	}
	out := make(map[forms.Kind]map[string]interface{}, len(kinds))
	for _, kind := range kinds {
		doc, err := s.forms.Fetch(ctx, taskID, kind, string(task.VerificationType))
		if err != nil {
			return nil, err
		}
		out[kind] = doc
	}
	return out, nil
}

// UpdateFormData applies a partial update to one form document. Admin tier
// only, matching the review flow: agents report findings, admins write them.
func (s *Service) UpdateFormData(ctx context.Context, p auth.Principal, taskID primitive.ObjectID, kind forms.Kind, payload map[string]interface{}) error {
	if !p.IsAdminTier() {
		return fmt.Errorf("update form data: %w", apperrors.ErrPermissionDenied)
	}
	task, err := s.GetTask(ctx, p, taskID)
	if err != nil {
		return err
	}
	return s.forms.Update(ctx, taskID, kind, string(task.VerificationType), payload)
}

// UploadAttachment stores the blob under a generated name and records the
// name on the task.
func (s *Service) UploadAttachment(ctx context.Context, p auth.Principal, taskID primitive.ObjectID, originalName string, body io.Reader, contentType string) (string, error) {
	if _, err := s.anyEdge(ctx, p.AccountID, taskID); err != nil {
		return "", err
	}
	name := uuid.NewString() + filepath.Ext(originalName)
	if err := s.files.Put(ctx, name, body, contentType); err != nil {
		return "", fmt.Errorf("store attachment: %w", err)
	}
	if err := s.repo.AddAttachment(ctx, taskID, name); err != nil {
		if delErr := s.files.Delete(ctx, name); delErr != nil {
			s.logger.Warn("orphaned attachment blob", zap.String("name", name), zap.Error(delErr))
		}
		return "", err
	}
	return name, nil
}

// DeleteAttachment removes the name from the task, then the blob. A failed
// blob delete is logged, not surfaced: the reference is already gone.
func (s *Service) DeleteAttachment(ctx context.Context, p auth.Principal, taskID primitive.ObjectID, name string) error {
	if _, err := s.anyEdge(ctx, p.AccountID, taskID); err != nil {
		return err
	}
	if err := s.repo.RemoveAttachment(ctx, taskID, name); err != nil {
		return err
	}
	if err := s.files.Delete(ctx, name); err != nil {
		s.logger.Warn("delete attachment blob failed", zap.String("name", name), zap.Error(err))
	}
	return nil
}

// PauseAndDetach is the task-side half of a cascading account disable: every
// task assigned to one of the accounts is paused, then every edge touching
// them is removed. Pausing before detaching keeps the operation idempotent —
// a re-run after a partial failure still finds the tasks via the remaining
// edges.
func (s *Service) PauseAndDetach(ctx context.Context, accountIDs []primitive.ObjectID) error {
	if len(accountIDs) == 0 {
		return nil
	}
	taskIDs, err := s.repo.TaskIDsAssignedToAny(ctx, accountIDs)
	if err != nil {
		return err
	}
	if err := s.repo.PauseTasks(ctx, taskIDs); err != nil {
		return err
	}
	if err := s.repo.DeleteEdgesTouching(ctx, accountIDs); err != nil {
		return err
	}
	s.logger.Info("tasks detached",
		zap.Int("accounts", len(accountIDs)),
		zap.Int("pausedTasks", len(taskIDs)))
	return nil
}

// callerEdge resolves the edge a delegation operation acts from: the caller's
// received edge, their own position in the chain. Admin-tier callers with no
// received edge (the task creator) fall back to the deepest edge they created.
func (s *Service) callerEdge(ctx context.Context, p auth.Principal, taskID primitive.ObjectID) (*DelegationEdge, error) {
	edge, err := s.repo.EdgeByAssignee(ctx, taskID, p.AccountID)
	if err == nil {
		return edge, nil
	}
	if p.IsAdminTier() {
		return s.repo.EdgeByAssigner(ctx, taskID, p.AccountID)
	}
	return nil, err
}

// anyEdge checks visibility: the caller must touch the task on either end of
// some edge.
func (s *Service) anyEdge(ctx context.Context, accountID, taskID primitive.ObjectID) (*DelegationEdge, error) {
	if edge, err := s.repo.EdgeByAssignee(ctx, taskID, accountID); err == nil {
		return edge, nil
	}
	return s.repo.EdgeByAssigner(ctx, taskID, accountID)
}
