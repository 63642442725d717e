package tasks

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"fieldverify/verification-portal-backend/internal/apperrors"
	"fieldverify/verification-portal-backend/internal/auth"
	"fieldverify/verification-portal-backend/internal/forms"
)

// MockRepository is a mock task repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateTask(ctx context.Context, task *Task) error {
	args := m.Called(ctx, task)
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	return args.Error(0)
}

func (m *MockRepository) FindTask(ctx context.Context, id primitive.ObjectID) (*Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Task), args.Error(1)
}

func (m *MockRepository) FindTasks(ctx context.Context, ids []primitive.ObjectID, filter ListFilter) ([]Task, error) {
	args := m.Called(ctx, ids, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Task), args.Error(1)
}

func (m *MockRepository) UpdateTask(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	return m.Called(ctx, id, update).Error(0)
}

func (m *MockRepository) DeleteTask(ctx context.Context, id primitive.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status TaskStatus, completedAt *time.Time) error {
	return m.Called(ctx, id, status, completedAt).Error(0)
}

func (m *MockRepository) PauseTasks(ctx context.Context, ids []primitive.ObjectID) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *MockRepository) AddAttachment(ctx context.Context, id primitive.ObjectID, name string) error {
	return m.Called(ctx, id, name).Error(0)
}

func (m *MockRepository) RemoveAttachment(ctx context.Context, id primitive.ObjectID, name string) error {
	return m.Called(ctx, id, name).Error(0)
}

func (m *MockRepository) CreateEdge(ctx context.Context, edge *DelegationEdge) error {
	return m.Called(ctx, edge).Error(0)
}

func (m *MockRepository) EdgeByAssignee(ctx context.Context, taskID, accountID primitive.ObjectID) (*DelegationEdge, error) {
	args := m.Called(ctx, taskID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DelegationEdge), args.Error(1)
}

func (m *MockRepository) EdgeByAssigner(ctx context.Context, taskID, accountID primitive.ObjectID) (*DelegationEdge, error) {
	args := m.Called(ctx, taskID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DelegationEdge), args.Error(1)
}

func (m *MockRepository) DeleteEdgesBelow(ctx context.Context, taskID primitive.ObjectID, level int) error {
	return m.Called(ctx, taskID, level).Error(0)
}

func (m *MockRepository) TaskIDsByAssignee(ctx context.Context, accountID primitive.ObjectID) ([]primitive.ObjectID, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]primitive.ObjectID), args.Error(1)
}

func (m *MockRepository) TaskIDsByAssigner(ctx context.Context, accountID primitive.ObjectID) ([]primitive.ObjectID, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]primitive.ObjectID), args.Error(1)
}

func (m *MockRepository) TaskIDsAssignedToAny(ctx context.Context, accountIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]primitive.ObjectID), args.Error(1)
}

func (m *MockRepository) DeleteEdgesTouching(ctx context.Context, accountIDs []primitive.ObjectID) error {
	return m.Called(ctx, accountIDs).Error(0)
}

// MockFormManager is a mock form facade
type MockFormManager struct {
	mock.Mock
}

func (m *MockFormManager) CreateDefaults(ctx context.Context, taskID primitive.ObjectID, applicantName, verificationType string) error {
	return m.Called(ctx, taskID, applicantName, verificationType).Error(0)
}

func (m *MockFormManager) Fetch(ctx context.Context, taskID primitive.ObjectID, kind forms.Kind, verificationType string) (map[string]interface{}, error) {
	args := m.Called(ctx, taskID, kind, verificationType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *MockFormManager) Update(ctx context.Context, taskID primitive.ObjectID, kind forms.Kind, verificationType string, payload map[string]interface{}) error {
	return m.Called(ctx, taskID, kind, verificationType, payload).Error(0)
}

func (m *MockFormManager) DeleteAll(ctx context.Context, taskID primitive.ObjectID) error {
	return m.Called(ctx, taskID).Error(0)
}

// MockAttachmentStore is a mock blob store
type MockAttachmentStore struct {
	mock.Mock
}

func (m *MockAttachmentStore) Put(ctx context.Context, name string, body io.Reader, contentType string) error {
	return m.Called(ctx, name, body, contentType).Error(0)
}

func (m *MockAttachmentStore) Delete(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func newTestService() (*Service, *MockRepository, *MockFormManager, *MockAttachmentStore) {
	repo := new(MockRepository)
	formManager := new(MockFormManager)
	files := new(MockAttachmentStore)
	return NewService(repo, formManager, files, zap.NewNop()), repo, formManager, files
}

func adminPrincipal() auth.Principal {
	return auth.Principal{AccountID: primitive.NewObjectID(), RoleLevel: auth.LevelAdmin}
}

func agentPrincipal() auth.Principal {
	return auth.Principal{AccountID: primitive.NewObjectID(), RoleLevel: auth.LevelAgent}
}

func validCreateRequest(assignee primitive.ObjectID) CreateTaskRequest {
	return CreateTaskRequest{
		AssignedTo:       assignee.Hex(),
		Title:            "KYC field check",
		ApplicantName:    "R. Sharma",
		ApplicationNo:    "APP-1042",
		City:             "Pune",
		VerificationType: "business",
		Priority:         "high",
		DueDate:          time.Now().Add(72 * time.Hour),
	}
}

func TestCreateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("creates task, forms and level-1 edge", func(t *testing.T) {
		service, repo, formManager, _ := newTestService()
		admin := adminPrincipal()
		assignee := primitive.NewObjectID()

		repo.On("CreateTask", ctx, mock.AnythingOfType("*tasks.Task")).Return(nil)
		formManager.On("CreateDefaults", ctx, mock.AnythingOfType("primitive.ObjectID"), "R. Sharma", "business").Return(nil)
		repo.On("CreateEdge", ctx, mock.MatchedBy(func(edge *DelegationEdge) bool {
			return edge.Level == 1 && edge.AssignedBy == admin.AccountID && edge.AssignedTo == assignee
		})).Return(nil)

		task, err := service.CreateTask(ctx, admin, validCreateRequest(assignee))
		require.NoError(t, err)
		assert.Equal(t, StatusPending, task.Status)
		assert.Equal(t, TypeBusiness, task.VerificationType)
		repo.AssertExpectations(t)
		formManager.AssertExpectations(t)
	})

	t.Run("rejects non-admin caller", func(t *testing.T) {
		service, _, _, _ := newTestService()

		_, err := service.CreateTask(ctx, agentPrincipal(), validCreateRequest(primitive.NewObjectID()))
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})

	t.Run("unwinds when form creation fails", func(t *testing.T) {
		service, repo, formManager, _ := newTestService()
		admin := adminPrincipal()

		repo.On("CreateTask", ctx, mock.AnythingOfType("*tasks.Task")).Return(nil)
		formManager.On("CreateDefaults", ctx, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("insert failed"))
		formManager.On("DeleteAll", ctx, mock.Anything).Return(nil)
		repo.On("DeleteTask", ctx, mock.Anything).Return(nil)

		_, err := service.CreateTask(ctx, admin, validCreateRequest(primitive.NewObjectID()))
		require.Error(t, err)
		repo.AssertCalled(t, "DeleteTask", ctx, mock.Anything)
		formManager.AssertCalled(t, "DeleteAll", ctx, mock.Anything)
	})

	t.Run("unwinds when edge creation fails", func(t *testing.T) {
		service, repo, formManager, _ := newTestService()
		admin := adminPrincipal()

		repo.On("CreateTask", ctx, mock.AnythingOfType("*tasks.Task")).Return(nil)
		formManager.On("CreateDefaults", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		repo.On("CreateEdge", ctx, mock.Anything).Return(apperrors.ErrConflict)
		formManager.On("DeleteAll", ctx, mock.Anything).Return(nil)
		repo.On("DeleteTask", ctx, mock.Anything).Return(nil)

		_, err := service.CreateTask(ctx, admin, validCreateRequest(primitive.NewObjectID()))
		assert.ErrorIs(t, err, apperrors.ErrConflict)
		repo.AssertCalled(t, "DeleteTask", ctx, mock.Anything)
	})

	t.Run("rejects unknown verification type", func(t *testing.T) {
		service, _, _, _ := newTestService()
		req := validCreateRequest(primitive.NewObjectID())
		req.VerificationType = "salaried"

		_, err := service.CreateTask(ctx, adminPrincipal(), req)
		assert.ErrorIs(t, err, apperrors.ErrInvalidFields)
	})
}

func TestAssignTask(t *testing.T) {
	ctx := context.Background()

	t.Run("appends edge one level below the caller", func(t *testing.T) {
		service, repo, _, _ := newTestService()
		agent := agentPrincipal()
		taskID := primitive.NewObjectID()
		next := primitive.NewObjectID()

		repo.On("EdgeByAssignee", ctx, taskID, agent.AccountID).
			Return(&DelegationEdge{TaskID: taskID, AssignedTo: agent.AccountID, Level: 2}, nil)
		repo.On("CreateEdge", ctx, mock.MatchedBy(func(edge *DelegationEdge) bool {
			return edge.Level == 3 && edge.AssignedBy == agent.AccountID && edge.AssignedTo == next
		})).Return(nil)

		require.NoError(t, service.AssignTask(ctx, agent, taskID, next))
		repo.AssertExpectations(t)
	})

	t.Run("caller without an edge gets not found", func(t *testing.T) {
		service, repo, _, _ := newTestService()
		agent := agentPrincipal()
		taskID := primitive.NewObjectID()

		repo.On("EdgeByAssignee", ctx, taskID, agent.AccountID).Return(nil, apperrors.ErrNotFound)

		err := service.AssignTask(ctx, agent, taskID, primitive.NewObjectID())
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("losing a level race surfaces conflict", func(t *testing.T) {
		service, repo, _, _ := newTestService()
		agent := agentPrincipal()
		taskID := primitive.NewObjectID()

		repo.On("EdgeByAssignee", ctx, taskID, agent.AccountID).
			Return(&DelegationEdge{TaskID: taskID, Level: 1}, nil)
		repo.On("CreateEdge", ctx, mock.Anything).Return(apperrors.ErrConflict)

		err := service.AssignTask(ctx, agent, taskID, primitive.NewObjectID())
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})
}

func TestTransferTask(t *testing.T) {
	ctx := context.Background()

	// Master assigned to A1, A1 assigned to G1. A1 transfers to G2: the G1
	// edge is cut and G2 takes its place at the same level.
	t.Run("cuts the downstream chain before appending", func(t *testing.T) {
		service, repo, _, _ := newTestService()
		admin := adminPrincipal()
		taskID := primitive.NewObjectID()
		replacement := primitive.NewObjectID()

		repo.On("EdgeByAssignee", ctx, taskID, admin.AccountID).
			Return(&DelegationEdge{TaskID: taskID, AssignedTo: admin.AccountID, Level: 1}, nil)
		repo.On("DeleteEdgesBelow", ctx, taskID, 1).Return(nil)
		repo.On("CreateEdge", ctx, mock.MatchedBy(func(edge *DelegationEdge) bool {
			return edge.Level == 2 && edge.AssignedTo == replacement
		})).Return(nil)

		require.NoError(t, service.TransferTask(ctx, admin, taskID, replacement))
		repo.AssertExpectations(t)
	})

	// The caller holds both a received edge (level 1) and one it created
	// (level 2). The received edge is the acting position: the level-2 edge
	// must be cut and the replacement appended at level 2, not level 3.
	t.Run("received edge wins over an edge the admin created", func(t *testing.T) {
		service, repo, _, _ := newTestService()
		admin := adminPrincipal()
		taskID := primitive.NewObjectID()
		master := primitive.NewObjectID()
		replacement := primitive.NewObjectID()

		repo.On("EdgeByAssignee", ctx, taskID, admin.AccountID).
			Return(&DelegationEdge{TaskID: taskID, AssignedBy: master, AssignedTo: admin.AccountID, Level: 1}, nil)
		repo.On("DeleteEdgesBelow", ctx, taskID, 1).Return(nil)
		repo.On("CreateEdge", ctx, mock.MatchedBy(func(edge *DelegationEdge) bool {
			return edge.Level == 2 && edge.AssignedBy == admin.AccountID && edge.AssignedTo == replacement
		})).Return(nil)

		require.NoError(t, service.TransferTask(ctx, admin, taskID, replacement))
		repo.AssertExpectations(t)
		repo.AssertNotCalled(t, "EdgeByAssigner", ctx, taskID, admin.AccountID)
	})

	t.Run("creator without a received edge acts from the edge it created", func(t *testing.T) {
		service, repo, _, _ := newTestService()
		admin := adminPrincipal()
		taskID := primitive.NewObjectID()
		replacement := primitive.NewObjectID()

		repo.On("EdgeByAssignee", ctx, taskID, admin.AccountID).Return(nil, apperrors.ErrNotFound)
		repo.On("EdgeByAssigner", ctx, taskID, admin.AccountID).
			Return(&DelegationEdge{TaskID: taskID, AssignedBy: admin.AccountID, Level: 1}, nil)
		repo.On("DeleteEdgesBelow", ctx, taskID, 1).Return(nil)
		repo.On("CreateEdge", ctx, mock.MatchedBy(func(edge *DelegationEdge) bool {
			return edge.Level == 2 && edge.AssignedTo == replacement
		})).Return(nil)

		require.NoError(t, service.TransferTask(ctx, admin, taskID, replacement))
		repo.AssertExpectations(t)
	})

	t.Run("agent without a received edge gets not found", func(t *testing.T) {
		service, repo, _, _ := newTestService()
		agent := agentPrincipal()
		taskID := primitive.NewObjectID()

		repo.On("EdgeByAssignee", ctx, taskID, agent.AccountID).Return(nil, apperrors.ErrNotFound)

		err := service.TransferTask(ctx, agent, taskID, primitive.NewObjectID())
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		repo.AssertNotCalled(t, "EdgeByAssigner", ctx, taskID, agent.AccountID)
		repo.AssertNotCalled(t, "DeleteEdgesBelow", ctx, taskID, mock.Anything)
	})
}

func TestUpdateTaskStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("completed sets completedAt", func(t *testing.T) {
		service, repo, _, _ := newTestService()
		agent := agentPrincipal()
		taskID := primitive.NewObjectID()

		repo.On("EdgeByAssignee", ctx, taskID, agent.AccountID).
			Return(&DelegationEdge{TaskID: taskID, Level: 1}, nil)
		repo.On("SetStatus", ctx, taskID, StatusCompleted, mock.MatchedBy(func(ts *time.Time) bool {
			return ts != nil && !ts.IsZero()
		})).Return(nil)

		require.NoError(t, service.UpdateTaskStatus(ctx, agent, taskID, StatusCompleted))
		repo.AssertExpectations(t)
	})

	t.Run("any other status clears completedAt", func(t *testing.T) {
		service, repo, _, _ := newTestService()
		agent := agentPrincipal()
		taskID := primitive.NewObjectID()

		repo.On("EdgeByAssignee", ctx, taskID, agent.AccountID).
			Return(&DelegationEdge{TaskID: taskID, Level: 1}, nil)
		repo.On("SetStatus", ctx, taskID, StatusInProgress, (*time.Time)(nil)).Return(nil)

		require.NoError(t, service.UpdateTaskStatus(ctx, agent, taskID, StatusInProgress))
		repo.AssertExpectations(t)
	})

	t.Run("caller outside the chain gets not found", func(t *testing.T) {
		service, repo, _, _ := newTestService()
		agent := agentPrincipal()
		taskID := primitive.NewObjectID()

		repo.On("EdgeByAssignee", ctx, taskID, agent.AccountID).Return(nil, apperrors.ErrNotFound)
		repo.On("EdgeByAssigner", ctx, taskID, agent.AccountID).Return(nil, apperrors.ErrNotFound)

		err := service.UpdateTaskStatus(ctx, agent, taskID, StatusPaused)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestListings(t *testing.T) {
	ctx := context.Background()

	t.Run("no edges means an empty listing, not an error", func(t *testing.T) {
		service, repo, _, _ := newTestService()
		agent := agentPrincipal()

		repo.On("TaskIDsByAssignee", ctx, agent.AccountID).Return([]primitive.ObjectID{}, nil)

		views, err := service.AssignedToMe(ctx, agent, ListFilter{})
		require.NoError(t, err)
		assert.Empty(t, views)
		repo.AssertNotCalled(t, "FindTasks", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("overdue flag derives from due date and status", func(t *testing.T) {
		service, repo, _, _ := newTestService()
		agent := agentPrincipal()
		taskID := primitive.NewObjectID()
		overdue := Task{ID: taskID, Status: StatusInProgress, DueDate: time.Now().Add(-48 * time.Hour)}

		repo.On("TaskIDsByAssignee", ctx, agent.AccountID).Return([]primitive.ObjectID{taskID}, nil)
		repo.On("FindTasks", ctx, []primitive.ObjectID{taskID}, ListFilter{}).Return([]Task{overdue}, nil)

		views, err := service.AssignedToMe(ctx, agent, ListFilter{})
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.True(t, views[0].IsOverdue)
	})
}

func TestPauseAndDetach(t *testing.T) {
	ctx := context.Background()

	t.Run("pauses tasks before deleting edges", func(t *testing.T) {
		service, repo, _, _ := newTestService()
		accounts := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}
		taskIDs := []primitive.ObjectID{primitive.NewObjectID()}

		paused := false
		repo.On("TaskIDsAssignedToAny", ctx, accounts).Return(taskIDs, nil)
		repo.On("PauseTasks", ctx, taskIDs).Run(func(mock.Arguments) { paused = true }).Return(nil)
		repo.On("DeleteEdgesTouching", ctx, accounts).Run(func(mock.Arguments) {
			assert.True(t, paused, "edges must not be deleted before tasks are paused")
		}).Return(nil)

		require.NoError(t, service.PauseAndDetach(ctx, accounts))
		repo.AssertExpectations(t)
	})

	t.Run("empty account set is a no-op", func(t *testing.T) {
		service, repo, _, _ := newTestService()

		require.NoError(t, service.PauseAndDetach(ctx, nil))
		repo.AssertNotCalled(t, "PauseTasks", mock.Anything, mock.Anything)
	})
}

func TestAttachments(t *testing.T) {
	ctx := context.Background()

	t.Run("upload stores the blob under a generated name", func(t *testing.T) {
		service, repo, _, files := newTestService()
		agent := agentPrincipal()
		taskID := primitive.NewObjectID()

		repo.On("EdgeByAssignee", ctx, taskID, agent.AccountID).
			Return(&DelegationEdge{TaskID: taskID, Level: 1}, nil)
		files.On("Put", ctx, mock.MatchedBy(func(name string) bool {
			return len(name) > len(".pdf") && name[len(name)-4:] == ".pdf"
		}), mock.Anything, "application/pdf").Return(nil)
		repo.On("AddAttachment", ctx, taskID, mock.AnythingOfType("string")).Return(nil)

		name, err := service.UploadAttachment(ctx, agent, taskID, "scan.pdf", nil, "application/pdf")
		require.NoError(t, err)
		assert.NotEqual(t, "scan.pdf", name)
		files.AssertExpectations(t)
	})

	t.Run("failed reference write removes the stored blob", func(t *testing.T) {
		service, repo, _, files := newTestService()
		agent := agentPrincipal()
		taskID := primitive.NewObjectID()

		repo.On("EdgeByAssignee", ctx, taskID, agent.AccountID).
			Return(&DelegationEdge{TaskID: taskID, Level: 1}, nil)
		files.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		repo.On("AddAttachment", ctx, taskID, mock.Anything).Return(apperrors.ErrNotFound)
		files.On("Delete", ctx, mock.Anything).Return(nil)

		_, err := service.UploadAttachment(ctx, agent, taskID, "scan.pdf", nil, "")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		files.AssertCalled(t, "Delete", ctx, mock.Anything)
	})
}
