package accounts

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"fieldverify/verification-portal-backend/internal/apperrors"
	"fieldverify/verification-portal-backend/internal/auth"
)

// TaskDetacher pauses and detaches every task held by the given accounts.
// Implemented by the tasks service; invoked from the disable cascade.
type TaskDetacher interface {
	PauseAndDetach(ctx context.Context, accountIDs []primitive.ObjectID) error
}

// CredentialMailer delivers generated login credentials to a new account.
type CredentialMailer interface {
	SendLoginCredentials(ctx context.Context, email, password string) error
}

// Service provides account hierarchy operations.
type Service struct {
	repo   Repository
	tasks  TaskDetacher
	mailer CredentialMailer
	logger *zap.Logger
}

// NewService creates a new accounts service
func NewService(repo Repository, tasks TaskDetacher, mailer CredentialMailer, logger *zap.Logger) *Service {
	return &Service{repo: repo, tasks: tasks, mailer: mailer, logger: logger}
}

// CreateAdmin registers an Admin under a Master principal.
func (s *Service) CreateAdmin(ctx context.Context, p auth.Principal, req CreateAccountRequest) (*AccountSummary, error) {
	if !p.IsMaster() {
		return nil, apperrors.ErrPermissionDenied
	}
	return s.register(ctx, p.AccountID, auth.LevelAdmin, req)
}

// CreateAgent registers an agent one tier below the caller: Master and Admin
// principals create field agents, agents create dummy agents.
func (s *Service) CreateAgent(ctx context.Context, p auth.Principal, req CreateAccountRequest) (*AccountSummary, error) {
	var level auth.RoleLevel
	switch {
	case p.IsAdminTier():
		level = auth.LevelAgent
	case p.RoleLevel == auth.LevelAgent:
		level = auth.LevelDummyAgent
	default:
		return nil, apperrors.ErrPermissionDenied
	}
	return s.register(ctx, p.AccountID, level, req)
}

func (s *Service) register(ctx context.Context, parent primitive.ObjectID, level auth.RoleLevel, req CreateAccountRequest) (*AccountSummary, error) {
	password, err := generatePassword()
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &Account{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		UserLevel:    level,
		Parent:       &parent,
	}

	if err := s.repo.Create(ctx, account); err != nil {
		// A previously disabled account with the same email is revived under
		// its original parent instead of rejecting the registration.
		if errors.Is(err, apperrors.ErrConflict) {
			return s.reviveDisabled(ctx, req.Email)
		}
		return nil, err
	}

	if s.mailer != nil {
		if mailErr := s.mailer.SendLoginCredentials(ctx, account.Email, password); mailErr != nil {
			s.logger.Warn("failed to send credential email",
				zap.String("email", account.Email), zap.Error(mailErr))
		}
	}

	s.logger.Info("account created",
		zap.String("account_id", account.ID.Hex()),
		zap.Int("user_level", int(level)))

	summary := summarize(*account)
	return &summary, nil
}

func (s *Service) reviveDisabled(ctx context.Context, email string) (*AccountSummary, error) {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.ErrConflict
	}
	if !existing.Disabled {
		return nil, apperrors.ErrConflict
	}
	if err := s.repo.SetDisabled(ctx, []primitive.ObjectID{existing.ID}, false); err != nil {
		return nil, err
	}
	summary := summarize(*existing)
	return &summary, nil
}

// ListAdmins lists admins created by the Master caller.
func (s *Service) ListAdmins(ctx context.Context, p auth.Principal) ([]AccountSummary, error) {
	if !p.IsMaster() {
		return nil, apperrors.ErrPermissionDenied
	}
	return s.listChildren(ctx, p.AccountID, auth.LevelAdmin)
}

// ListAgents lists the agents directly under the caller: field agents for
// Master/Admin callers, dummy agents for agent callers.
func (s *Service) ListAgents(ctx context.Context, p auth.Principal) ([]AccountSummary, error) {
	level := auth.LevelAgent
	if !p.IsAdminTier() {
		level = auth.LevelDummyAgent
	}
	return s.listChildren(ctx, p.AccountID, level)
}

func (s *Service) listChildren(ctx context.Context, parent primitive.ObjectID, level auth.RoleLevel) ([]AccountSummary, error) {
	children, err := s.repo.ListByParent(ctx, parent, level)
	if err != nil {
		return nil, err
	}
	out := make([]AccountSummary, 0, len(children))
	for _, child := range children {
		out = append(out, summarize(child))
	}
	return out, nil
}

// GetAgent returns one direct child of the caller, not-found otherwise.
func (s *Service) GetAgent(ctx context.Context, p auth.Principal, id primitive.ObjectID) (*Account, error) {
	return s.repo.FindChild(ctx, id, p.AccountID)
}

// UpdateAgentDetails applies a partial contact-detail update to a direct child.
func (s *Service) UpdateAgentDetails(ctx context.Context, p auth.Principal, id primitive.ObjectID, req UpdateDetailsRequest) (*AccountSummary, error) {
	if _, err := s.repo.FindChild(ctx, id, p.AccountID); err != nil {
		return nil, err
	}

	update := bson.M{}
	if req.Name != nil {
		update["name"] = *req.Name
	}
	if req.Email != nil {
		update["email"] = *req.Email
	}
	if req.Phone != nil {
		update["phone"] = *req.Phone
	}
	if len(update) > 0 {
		if err := s.repo.UpdateDetails(ctx, id, update); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.FindChild(ctx, id, p.AccountID)
	if err != nil {
		return nil, err
	}
	summary := summarize(*updated)
	return &summary, nil
}

// UpdateOwnDetails updates the caller's contact details.
func (s *Service) UpdateOwnDetails(ctx context.Context, p auth.Principal, req UpdateDetailsRequest) error {
	update := bson.M{}
	if req.Name != nil {
		update["name"] = *req.Name
	}
	if req.Email != nil {
		update["email"] = *req.Email
	}
	if req.Phone != nil {
		update["phone"] = *req.Phone
	}
	if len(update) == 0 {
		return nil
	}
	return s.repo.UpdateDetails(ctx, p.AccountID, update)
}

// DisableAccount disables a direct child of the caller and cascades: every
// descendant reachable through parent pointers is disabled, their tasks are
// paused and their delegation edges removed. The traversal is an explicit
// queue because the hierarchy depth is unbounded, and the whole sequence is
// safe to re-run after an interruption.
func (s *Service) DisableAccount(ctx context.Context, p auth.Principal, id primitive.ObjectID) error {
	target, err := s.repo.FindChild(ctx, id, p.AccountID)
	if err != nil {
		return err
	}

	closure := []primitive.ObjectID{target.ID}
	frontier := []primitive.ObjectID{target.ID}
	for len(frontier) > 0 {
		children, err := s.repo.ChildrenOf(ctx, frontier)
		if err != nil {
			return fmt.Errorf("failed to expand disable closure: %w", err)
		}
		frontier = frontier[:0]
		for _, child := range children {
			closure = append(closure, child.ID)
			frontier = append(frontier, child.ID)
		}
	}

	if err := s.repo.SetDisabled(ctx, closure, true); err != nil {
		return fmt.Errorf("failed to disable accounts: %w", err)
	}
	if err := s.tasks.PauseAndDetach(ctx, closure); err != nil {
		return fmt.Errorf("failed to detach tasks: %w", err)
	}

	s.logger.Info("account disabled with cascade",
		zap.String("account_id", target.ID.Hex()),
		zap.Int("affected", len(closure)))
	return nil
}

func generatePassword() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
