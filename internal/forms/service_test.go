package forms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"fieldverify/verification-portal-backend/internal/apperrors"
)

// MockStore is a mock form store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateDefaults(ctx context.Context, taskID primitive.ObjectID, applicantName, verificationType string) error {
	return m.Called(ctx, taskID, applicantName, verificationType).Error(0)
}

func (m *MockStore) Fetch(ctx context.Context, taskID primitive.ObjectID, kind Kind) (map[string]interface{}, error) {
	args := m.Called(ctx, taskID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, taskID primitive.ObjectID, kind Kind, payload map[string]interface{}) error {
	return m.Called(ctx, taskID, kind, payload).Error(0)
}

func (m *MockStore) DeleteAll(ctx context.Context, taskID primitive.ObjectID) error {
	return m.Called(ctx, taskID).Error(0)
}

func newTestService() (*Service, *MockStore) {
	store := new(MockStore)
	return NewService(store, zap.NewNop()), store
}

func TestKindsFor(t *testing.T) {
	t.Run("business tasks get business and income forms", func(t *testing.T) {
		kinds := KindsFor("business")
		assert.Contains(t, kinds, KindBusiness)
		assert.Contains(t, kinds, KindIncomeTax)
		assert.NotContains(t, kinds, KindEmployment)
	})

	t.Run("non-business and nri tasks get the employment form", func(t *testing.T) {
		for _, vt := range []string{"non-business", "nri"} {
			kinds := KindsFor(vt)
			assert.Contains(t, kinds, KindEmployment, vt)
			assert.NotContains(t, kinds, KindBusiness, vt)
			assert.NotContains(t, kinds, KindIncomeTax, vt)
		}
	})

	t.Run("every type carries the four common forms", func(t *testing.T) {
		for _, vt := range []string{"business", "non-business", "nri"} {
			kinds := KindsFor(vt)
			for _, common := range []Kind{KindVerification, KindResidence, KindTele, KindBank} {
				assert.Contains(t, kinds, common, vt)
			}
		}
	})
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	taskID := primitive.NewObjectID()

	t.Run("inapplicable kind is not found", func(t *testing.T) {
		service, store := newTestService()

		_, err := service.Fetch(ctx, taskID, KindBusiness, "non-business")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		store.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("applicable kind delegates to the store", func(t *testing.T) {
		service, store := newTestService()
		store.On("Fetch", ctx, taskID, KindResidence).
			Return(map[string]interface{}{"nature": "Polite"}, nil)

		doc, err := service.Fetch(ctx, taskID, KindResidence, "nri")
		require.NoError(t, err)
		assert.Equal(t, "Polite", doc["nature"])
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	taskID := primitive.NewObjectID()

	t.Run("strips internal keys before validating", func(t *testing.T) {
		service, store := newTestService()
		store.On("Update", ctx, taskID, KindResidence, map[string]interface{}{
			"nature": "Cooperative",
		}).Return(nil)

		err := service.Update(ctx, taskID, KindResidence, "business", map[string]interface{}{
			"task_id": "64f1c7f2a1b2c3d4e5f60718",
			"_id":     "123",
			"type":    "residence",
			"nature":  "Cooperative",
		})
		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		service, store := newTestService()

		err := service.Update(ctx, taskID, KindBank, "business", map[string]interface{}{
			"swiftCode": "HDFC0001",
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidFields)
		store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects out-of-vocabulary enum values", func(t *testing.T) {
		service, _ := newTestService()

		err := service.Update(ctx, taskID, KindResidence, "business", map[string]interface{}{
			"nature": "Friendly",
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidFields)
	})

	t.Run("keeps the stored neighbourhood vocabulary", func(t *testing.T) {
		service, store := newTestService()
		store.On("Update", ctx, taskID, KindResidence, mock.Anything).Return(nil)

		// "Positve" is the value persisted by every existing client.
		err := service.Update(ctx, taskID, KindResidence, "nri", map[string]interface{}{
			"neighbourhood": "Positve",
		})
		require.NoError(t, err)

		err = service.Update(ctx, taskID, KindResidence, "nri", map[string]interface{}{
			"neighbourhood": "Positive",
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidFields)
	})

	t.Run("validates nested enum paths", func(t *testing.T) {
		service, store := newTestService()

		err := service.Update(ctx, taskID, KindBank, "business", map[string]interface{}{
			"applicant": map[string]interface{}{"remarks": "Maybe"},
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidFields)

		store.On("Update", ctx, taskID, KindBank, mock.Anything).Return(nil)
		err = service.Update(ctx, taskID, KindBank, "business", map[string]interface{}{
			"applicant": map[string]interface{}{"remarks": "Recommended", "bankName": "HDFC"},
		})
		assert.NoError(t, err)
	})

	t.Run("validates income record remarks per financial year", func(t *testing.T) {
		service, _ := newTestService()

		err := service.Update(ctx, taskID, KindIncomeTax, "business", map[string]interface{}{
			"financialRecords": []interface{}{
				map[string]interface{}{
					"financialYear":   "2024-25",
					"incomeTaxRecord": map[string]interface{}{"remarks": "Neutral"},
				},
			},
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidFields)
	})

	t.Run("inapplicable kind is not found", func(t *testing.T) {
		service, _ := newTestService()

		err := service.Update(ctx, taskID, KindEmployment, "business", map[string]interface{}{
			"designation": "Manager",
		})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("payload with only internal keys is invalid", func(t *testing.T) {
		service, _ := newTestService()

		err := service.Update(ctx, taskID, KindTele, "nri", map[string]interface{}{
			"task_id": "abc",
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidFields)
	})
}
