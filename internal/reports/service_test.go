package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"fieldverify/verification-portal-backend/internal/apperrors"
	"fieldverify/verification-portal-backend/internal/auth"
	"fieldverify/verification-portal-backend/internal/forms"
	"fieldverify/verification-portal-backend/internal/tasks"
)

// MockRepository is a mock report repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ManagedTaskIDs(ctx context.Context, accountID primitive.ObjectID) ([]primitive.ObjectID, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]primitive.ObjectID), args.Error(1)
}

func (m *MockRepository) FindJoined(ctx context.Context, scope []primitive.ObjectID, filter Filter) ([]joinedTask, error) {
	args := m.Called(ctx, scope, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]joinedTask), args.Error(1)
}

func (m *MockRepository) RecentTasks(ctx context.Context, scope []primitive.ObjectID, limit int) ([]tasks.Task, error) {
	args := m.Called(ctx, scope, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tasks.Task), args.Error(1)
}

func (m *MockRepository) CityGroups(ctx context.Context, scope []primitive.ObjectID) ([]cityGroup, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cityGroup), args.Error(1)
}

func (m *MockRepository) CompletedByMonth(ctx context.Context, scope []primitive.ObjectID, year int) (map[int]int, error) {
	args := m.Called(ctx, scope, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]int), args.Error(1)
}

func (m *MockRepository) StatusCounts(ctx context.Context, scope []primitive.ObjectID, from, to *time.Time) (map[tasks.TaskStatus]int, error) {
	args := m.Called(ctx, scope, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[tasks.TaskStatus]int), args.Error(1)
}

func newTestService() (*Service, *MockRepository) {
	repo := new(MockRepository)
	return NewService(repo, zap.NewNop()), repo
}

func masterPrincipal() auth.Principal {
	return auth.Principal{AccountID: primitive.NewObjectID(), RoleLevel: auth.LevelMaster}
}

func adminPrincipal() auth.Principal {
	return auth.Principal{AccountID: primitive.NewObjectID(), RoleLevel: auth.LevelAdmin}
}

func TestScoping(t *testing.T) {
	ctx := context.Background()

	t.Run("master bypasses edge scoping", func(t *testing.T) {
		service, repo := newTestService()
		repo.On("StatusCounts", ctx, []primitive.ObjectID(nil), (*time.Time)(nil), (*time.Time)(nil)).
			Return(map[tasks.TaskStatus]int{}, nil)

		_, err := service.Summary(ctx, masterPrincipal())
		require.NoError(t, err)
		repo.AssertNotCalled(t, "ManagedTaskIDs", mock.Anything, mock.Anything)
	})

	t.Run("admin is scoped to delegated tasks", func(t *testing.T) {
		service, repo := newTestService()
		admin := adminPrincipal()
		managed := []primitive.ObjectID{primitive.NewObjectID()}

		repo.On("ManagedTaskIDs", ctx, admin.AccountID).Return(managed, nil)
		repo.On("StatusCounts", ctx, managed, (*time.Time)(nil), (*time.Time)(nil)).
			Return(map[tasks.TaskStatus]int{}, nil)

		_, err := service.Summary(ctx, admin)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("admin with no edges still queries an empty scope", func(t *testing.T) {
		service, repo := newTestService()
		admin := adminPrincipal()

		repo.On("ManagedTaskIDs", ctx, admin.AccountID).Return([]primitive.ObjectID(nil), nil)
		repo.On("StatusCounts", ctx, []primitive.ObjectID{}, (*time.Time)(nil), (*time.Time)(nil)).
			Return(map[tasks.TaskStatus]int{}, nil)

		summary, err := service.Summary(ctx, admin)
		require.NoError(t, err)
		assert.Zero(t, summary.Total)
	})
}

func TestGenerateReport(t *testing.T) {
	ctx := context.Background()

	t.Run("agents may not generate the report", func(t *testing.T) {
		service, _ := newTestService()
		agent := auth.Principal{AccountID: primitive.NewObjectID(), RoleLevel: auth.LevelAgent}

		_, err := service.GenerateReport(ctx, agent, Filter{})
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})

	t.Run("flattens a business task with its forms", func(t *testing.T) {
		service, repo := newTestService()
		received := time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC)
		joined := joinedTask{
			Task: tasks.Task{
				ID:               primitive.NewObjectID(),
				ApplicationNo:    "APP-9",
				City:             "Nagpur",
				VerificationType: tasks.TypeBusiness,
			},
			Cover: []forms.VerificationForm{{
				ApplicantName:     "S. Iyer",
				CoApplicantName:   "V. Iyer",
				Telephone:         "9822000000",
				Residence:         "14 MG Road",
				DateOfApplication: received,
			}},
			Businesses: []forms.BusinessVerificationForm{{
				BusinessDetails: forms.BusinessDetails{CompanyName: "Iyer Traders", Designation: "Proprietor"},
				OfficeAddress:   "Market Yard",
				Recommended:     "Recommended",
			}},
			Banks: []forms.BankVerificationForm{{
				Applicant: forms.BankDetails{BankName: "HDFC", Remarks: "Recommended"},
			}},
			Teles: []forms.TeleVerificationForm{{VerificationResult: "Positive"}},
		}
		repo.On("FindJoined", ctx, []primitive.ObjectID(nil), Filter{}).Return([]joinedTask{joined}, nil)

		rows, err := service.GenerateReport(ctx, masterPrincipal(), Filter{})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		row := rows[0]
		assert.Equal(t, "Business", row.VerificationType)
		assert.Equal(t, "07/03/2026", row.ReceivedDate)
		assert.Equal(t, "Iyer Traders / Proprietor", row.BusinessName)
		assert.Equal(t, "Market Yard", row.Posted)
		assert.Equal(t, "HDFC", row.BankName)
		assert.Equal(t, "Positive", row.Status.TeleVerification)
		assert.Equal(t, "Recommended", row.Status.BusinessVerification)
	})

	t.Run("absent forms default every field to N/A", func(t *testing.T) {
		service, repo := newTestService()
		joined := joinedTask{
			Task: tasks.Task{ID: primitive.NewObjectID(), VerificationType: tasks.TypeNonBusiness},
		}
		repo.On("FindJoined", ctx, []primitive.ObjectID(nil), Filter{}).Return([]joinedTask{joined}, nil)

		rows, err := service.GenerateReport(ctx, masterPrincipal(), Filter{})
		require.NoError(t, err)
		row := rows[0]
		assert.Equal(t, "Service", row.VerificationType)
		assert.Equal(t, "N/A", row.ApplicationNo)
		assert.Equal(t, "N/A", row.City)
		assert.Equal(t, "N/A", row.ReceivedDate)
		assert.Equal(t, "N/A", row.ApplicantName)
		assert.Equal(t, "N/A", row.BusinessName)
		assert.Equal(t, "N/A", row.BankName)
	})

	t.Run("nri tasks report the pensioner placeholders", func(t *testing.T) {
		service, repo := newTestService()
		joined := joinedTask{
			Task: tasks.Task{ID: primitive.NewObjectID(), VerificationType: tasks.TypeNRI},
		}
		repo.On("FindJoined", ctx, []primitive.ObjectID(nil), Filter{}).Return([]joinedTask{joined}, nil)

		rows, err := service.GenerateReport(ctx, masterPrincipal(), Filter{})
		require.NoError(t, err)
		assert.Equal(t, "Pensioner", rows[0].VerificationType)
		assert.Equal(t, "Pensioner", rows[0].BusinessName)
		assert.Equal(t, "Pensioner", rows[0].Posted)
	})
}

func TestCityBasedSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("percentage is rounded to two decimals", func(t *testing.T) {
		service, repo := newTestService()
		repo.On("CityGroups", ctx, []primitive.ObjectID(nil)).Return([]cityGroup{
			{City: "Pune", Total: 4, Verified: 3},
			{City: "Satara", Total: 3, Verified: 1},
		}, nil)

		summaries, err := service.CityBasedSummary(ctx, masterPrincipal(), 0)
		require.NoError(t, err)
		require.Len(t, summaries, 2)
		assert.Equal(t, "75.00", summaries[0].VerifiedPercentage)
		assert.Equal(t, "33.33", summaries[1].VerifiedPercentage)
	})

	t.Run("limit truncates the city list", func(t *testing.T) {
		service, repo := newTestService()
		groups := make([]cityGroup, 8)
		for i := range groups {
			groups[i] = cityGroup{City: string(rune('A' + i)), Total: 1}
		}
		repo.On("CityGroups", ctx, []primitive.ObjectID(nil)).Return(groups, nil)

		summaries, err := service.CityBasedSummary(ctx, masterPrincipal(), 0)
		require.NoError(t, err)
		assert.Len(t, summaries, defaultCityLimit)
	})
}

func TestMonthlyReport(t *testing.T) {
	ctx := context.Background()

	service, repo := newTestService()
	repo.On("CompletedByMonth", ctx, []primitive.ObjectID(nil), 2026).
		Return(map[int]int{3: 4, 1: 2}, nil)

	series, err := service.MonthlyReport(ctx, masterPrincipal(), 2026)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, MonthlyCount{Month: "January", Count: 2}, series[0])
	assert.Equal(t, MonthlyCount{Month: "March", Count: 4}, series[1])
}

func TestMonthReport(t *testing.T) {
	ctx := context.Background()

	service, repo := newTestService()
	from := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	repo.On("StatusCounts", ctx, []primitive.ObjectID(nil), &from, &to).
		Return(map[tasks.TaskStatus]int{
			tasks.StatusCompleted: 3,
			tasks.StatusPending:   1,
		}, nil)

	counts, err := service.MonthReport(ctx, masterPrincipal(), 2, 2026)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, StatusCount{Status: tasks.StatusCompleted, Count: 3}, counts[0])
	assert.Equal(t, StatusCount{Status: tasks.StatusPending, Count: 1}, counts[1])
}

func TestSummary(t *testing.T) {
	ctx := context.Background()

	service, repo := newTestService()
	repo.On("StatusCounts", ctx, []primitive.ObjectID(nil), (*time.Time)(nil), (*time.Time)(nil)).
		Return(map[tasks.TaskStatus]int{
			tasks.StatusCompleted:           5,
			tasks.StatusPending:             2,
			tasks.StatusRejectedUnderReview: 1,
			tasks.StatusInProgress:          4,
		}, nil)

	summary, err := service.Summary(ctx, masterPrincipal())
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 12, Verified: 5, NotStarted: 2, ReKYCRequired: 1}, summary)
}

func TestPreviousRecordsSummary(t *testing.T) {
	ctx := context.Background()

	service, repo := newTestService()
	due := time.Date(2026, time.August, 9, 0, 0, 0, 0, time.UTC)
	repo.On("RecentTasks", ctx, []primitive.ObjectID(nil), defaultRecentLimit).
		Return([]tasks.Task{{
			ApplicantName:    "K. Rao",
			Status:           tasks.StatusInProgress,
			DueDate:          due,
			VerificationType: tasks.TypeNRI,
		}}, nil)

	records, err := service.PreviousRecordsSummary(ctx, masterPrincipal(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, RecentRecord{
		Name:             "K. Rao",
		Status:           "in-progress",
		DueDate:          "09 Aug 2026",
		VerificationType: "nri",
	}, records[0])
}
