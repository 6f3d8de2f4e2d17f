package demominutes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mindwell/internal/auth"
	"mindwell/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockDemoRepo struct{ mock.Mock }

func (m *MockDemoRepo) Remaining(ctx context.Context, patientID, psychologistID, allowance int) (int, error) {
	args := m.Called(ctx, patientID, psychologistID, allowance)
	return args.Int(0), args.Error(1)
}

func (m *MockDemoRepo) Consume(ctx context.Context, patientID, psychologistID, allowance, requested int) (int, error) {
	args := m.Called(ctx, patientID, psychologistID, allowance, requested)
	return args.Int(0), args.Error(1)
}

func (m *MockDemoRepo) Reset(ctx context.Context, patientID, psychologistID int) error {
	return m.Called(ctx, patientID, psychologistID).Error(0)
}

type MockUserRepo struct{ mock.Mock }

func (m *MockUserRepo) Create(ctx context.Context, name, email, passwordHash, role string, hourlyRateCents int64, demoMinutes int) (*user.User, error) {
	args := m.Called(ctx, name, email, passwordHash, role, hourlyRateCents, demoMinutes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) FindByID(ctx context.Context, id int) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepo) SoftDelete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func setupDemoRouter(repo Repository, users user.Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", 1)
		c.Next()
	})

	h := NewHandler(repo, users)
	router.GET("/psychologists/:psychologistID/demo-minutes", h.GetRemaining)
	router.POST("/admin/demo-minutes/reset", h.ResetUsage)
	return router
}

func TestGetRemaining(t *testing.T) {
	t.Run("reports the caller's remaining allowance", func(t *testing.T) {
		repo := new(MockDemoRepo)
		users := new(MockUserRepo)
		router := setupDemoRouter(repo, users)

		users.On("FindByID", mock.Anything, 2).
			Return(&user.User{ID: 2, Role: auth.RolePsychologist, DemoMinutes: 15}, nil)
		repo.On("Remaining", mock.Anything, 1, 2, 15).Return(9, nil)

		req := httptest.NewRequest("GET", "/psychologists/2/demo-minutes", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var got RemainingResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, 15, got.AllowanceMinutes)
		assert.Equal(t, 9, got.RemainingMinutes)
	})

	t.Run("patients are not demo providers", func(t *testing.T) {
		repo := new(MockDemoRepo)
		users := new(MockUserRepo)
		router := setupDemoRouter(repo, users)

		users.On("FindByID", mock.Anything, 3).
			Return(&user.User{ID: 3, Role: auth.RolePatient}, nil)

		req := httptest.NewRequest("GET", "/psychologists/3/demo-minutes", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		repo.AssertNotCalled(t, "Remaining", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestResetUsage(t *testing.T) {
	t.Run("resets the pair's usage", func(t *testing.T) {
		repo := new(MockDemoRepo)
		users := new(MockUserRepo)
		router := setupDemoRouter(repo, users)

		repo.On("Reset", mock.Anything, 1, 2).Return(nil)

		payload, _ := json.Marshal(ResetRequest{PatientID: 1, PsychologistID: 2})
		req := httptest.NewRequest("POST", "/admin/demo-minutes/reset", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		repo.AssertExpectations(t)
	})

	t.Run("both ids are required", func(t *testing.T) {
		repo := new(MockDemoRepo)
		users := new(MockUserRepo)
		router := setupDemoRouter(repo, users)

		payload, _ := json.Marshal(map[string]int{"patient_id": 1})
		req := httptest.NewRequest("POST", "/admin/demo-minutes/reset", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		repo.AssertNotCalled(t, "Reset", mock.Anything, mock.Anything, mock.Anything)
	})
}
