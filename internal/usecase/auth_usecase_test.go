package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Create(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserRepositoryMock) FindByID(ctx context.Context, userID int64) (model.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserRepositoryMock) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserRepositoryMock) UpdateLastLogin(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type stubIssuer struct {
	token string
}

func (s *stubIssuer) Issue(userID int64, role model.Role, now time.Time) (string, time.Time, error) {
	return s.token, now.Add(15 * time.Minute), nil
}

func TestAuthUsecase_Login_Success(t *testing.T) {
	repoMock := new(UserRepositoryMock)

	hasher := usecase.NewBcryptPasswordHasher(4)
	hashed, err := hasher.Hash("correct-password")
	assert.NoError(t, err)

	repoMock.On("FindByEmail", mock.Anything, "admin@example.com").Return(model.User{
		ID:           7,
		Email:        "admin@example.com",
		PasswordHash: hashed,
		Role:         model.RoleAdmin,
		IsActive:     true,
	}, nil)
	repoMock.On("UpdateLastLogin", mock.Anything, int64(7)).Return(nil)

	uc := usecase.NewAuthUsecase(repoMock, usecase.NewBcryptPasswordVerifier(), &stubIssuer{token: "tok"}, zap.NewNop())

	out, err := uc.Login(context.Background(), usecase.LoginInput{
		Email:    "admin@example.com",
		Password: "correct-password",
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(7), out.UserID)
	assert.Equal(t, model.RoleAdmin, out.Role)
	assert.Equal(t, "tok", out.AccessToken)
	repoMock.AssertExpectations(t)
}

func TestAuthUsecase_Login_WrongPassword(t *testing.T) {
	repoMock := new(UserRepositoryMock)

	hasher := usecase.NewBcryptPasswordHasher(4)
	hashed, _ := hasher.Hash("correct-password")

	repoMock.On("FindByEmail", mock.Anything, "admin@example.com").Return(model.User{
		ID:           7,
		Email:        "admin@example.com",
		PasswordHash: hashed,
		IsActive:     true,
	}, nil)

	uc := usecase.NewAuthUsecase(repoMock, usecase.NewBcryptPasswordVerifier(), &stubIssuer{}, zap.NewNop())

	_, err := uc.Login(context.Background(), usecase.LoginInput{
		Email:    "admin@example.com",
		Password: "wrong",
	})
	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Status)
	assert.Equal(t, "invalid credentials", he.Message)
}

// 未知のメールでも同じメッセージ（ユーザー列挙対策）
func TestAuthUsecase_Login_UnknownEmail(t *testing.T) {
	repoMock := new(UserRepositoryMock)
	repoMock.On("FindByEmail", mock.Anything, "who@example.com").Return(model.User{}, repo.ErrNotFound)

	uc := usecase.NewAuthUsecase(repoMock, usecase.NewBcryptPasswordVerifier(), &stubIssuer{}, zap.NewNop())

	_, err := uc.Login(context.Background(), usecase.LoginInput{
		Email:    "who@example.com",
		Password: "whatever",
	})
	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Status)
	assert.Equal(t, "invalid credentials", he.Message)
}

func TestAuthUsecase_Login_InactiveUser(t *testing.T) {
	repoMock := new(UserRepositoryMock)
	repoMock.On("FindByEmail", mock.Anything, "old@example.com").Return(model.User{
		ID:       3,
		Email:    "old@example.com",
		IsActive: false,
	}, nil)

	uc := usecase.NewAuthUsecase(repoMock, usecase.NewBcryptPasswordVerifier(), &stubIssuer{}, zap.NewNop())

	_, err := uc.Login(context.Background(), usecase.LoginInput{
		Email:    "old@example.com",
		Password: "whatever",
	})
	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Status)
}

func TestAuthUsecase_Login_InvalidInput(t *testing.T) {
	uc := usecase.NewAuthUsecase(new(UserRepositoryMock), usecase.NewBcryptPasswordVerifier(), &stubIssuer{}, zap.NewNop())
	ctx := context.Background()

	_, err := uc.Login(ctx, usecase.LoginInput{Email: "", Password: "x"})
	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, http.StatusBadRequest, he.Status)

	_, err = uc.Login(ctx, usecase.LoginInput{Email: "not-an-email", Password: "x"})
	he, _ = usecase.AsHTTPError(err)
	assert.Equal(t, http.StatusBadRequest, he.Status)
}

func TestEnsureAdminUser_CreatesWhenMissing(t *testing.T) {
	repoMock := new(UserRepositoryMock)
	repoMock.On("FindByEmail", mock.Anything, "admin@example.com").Return(model.User{}, repo.ErrNotFound)
	repoMock.On("Create", mock.Anything, mock.MatchedBy(func(u model.User) bool {
		return u.Email == "admin@example.com" && u.Role == model.RoleAdmin && u.IsActive
	})).Return(model.User{ID: 1, Email: "admin@example.com"}, nil)

	err := usecase.EnsureAdminUser(context.Background(), repoMock, usecase.NewBcryptPasswordHasher(4), "admin@example.com", "secret", zap.NewNop())
	assert.NoError(t, err)
	repoMock.AssertExpectations(t)
}

func TestEnsureAdminUser_SkipsWhenExists(t *testing.T) {
	repoMock := new(UserRepositoryMock)
	repoMock.On("FindByEmail", mock.Anything, "admin@example.com").Return(model.User{ID: 1}, nil)

	err := usecase.EnsureAdminUser(context.Background(), repoMock, usecase.NewBcryptPasswordHasher(4), "admin@example.com", "secret", zap.NewNop())
	assert.NoError(t, err)
	repoMock.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
