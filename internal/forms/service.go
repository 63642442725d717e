package forms

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"fieldverify/verification-portal-backend/internal/apperrors"
)

// Service guards form reads and writes: a kind that does not apply to the
// task's verification type does not exist as far as callers can tell.
type Service struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// CreateDefaults seeds every applicable form for a freshly created task.
func (s *Service) CreateDefaults(ctx context.Context, taskID primitive.ObjectID, applicantName, verificationType string) error {
	return s.store.CreateDefaults(ctx, taskID, applicantName, verificationType)
}

// Fetch returns the stored document for the kind, or ErrNotFound when the
// kind does not apply to the task's verification type.
func (s *Service) Fetch(ctx context.Context, taskID primitive.ObjectID, kind Kind, verificationType string) (map[string]interface{}, error) {
	if !kindApplies(kind, verificationType) {
		return nil, fmt.Errorf("%s form for %s task: %w", kind, verificationType, apperrors.ErrNotFound)
	}
	return s.store.Fetch(ctx, taskID, kind)
}

// Update validates and applies a partial update to one form document.
// Unknown keys and out-of-vocabulary enum values reject the whole payload;
// task_id, _id and type are silently dropped so a round-tripped fetch result
// is always a legal payload.
func (s *Service) Update(ctx context.Context, taskID primitive.ObjectID, kind Kind, verificationType string, payload map[string]interface{}) error {
	if !kindApplies(kind, verificationType) {
		return fmt.Errorf("%s form for %s task: %w", kind, verificationType, apperrors.ErrNotFound)
	}
	delete(payload, "task_id")
	delete(payload, "_id")
	delete(payload, "type")
	if len(payload) == 0 {
		return fmt.Errorf("empty form payload: %w", apperrors.ErrInvalidFields)
	}
	def := registry[kind]
	for key := range payload {
		if _, ok := def.fields[key]; !ok {
			return fmt.Errorf("unknown field %q on %s form: %w", key, kind, apperrors.ErrInvalidFields)
		}
	}
	if err := def.validate(payload); err != nil {
		return err
	}
	if err := s.store.Update(ctx, taskID, kind, payload); err != nil {
		return err
	}
	s.logger.Info("form updated",
		zap.String("taskId", taskID.Hex()),
		zap.String("kind", string(kind)),
		zap.Int("fields", len(payload)))
	return nil
}

// DeleteAll removes the task's form documents. Used when task creation has to
// be unwound and when a task is deleted outright.
func (s *Service) DeleteAll(ctx context.Context, taskID primitive.ObjectID) error {
	return s.store.DeleteAll(ctx, taskID)
}
