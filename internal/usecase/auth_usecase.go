package usecase

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// アクセストークンを発行する約束
type TokenIssuer interface {
	Issue(userID int64, role model.Role, now time.Time) (token string, expiresAt time.Time, err error)
}

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// bcryptハッシュと平文を比較
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

// bcryptハッシュ化
type BcryptPasswordHasher struct {
	cost int
}

// DI
func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost}
}

func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

type BcryptPasswordVerifier struct{}

// DI
func NewBcryptPasswordVerifier() *BcryptPasswordVerifier {
	return &BcryptPasswordVerifier{}
}

// 平文(plain)をbcryptで比較
func (v *BcryptPasswordVerifier) Verify(plain string, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}

// ログインだけの認証ユースケース。
// リフレッシュトークンやセッション管理は持たない。
type AuthUsecase struct {
	userRepo repo.UserRepository
	verifier PasswordVerifier
	issuer   TokenIssuer
	logger   *zap.Logger
}

// DI
func NewAuthUsecase(
	userRepo repo.UserRepository,
	verifier PasswordVerifier,
	issuer TokenIssuer,
	logger *zap.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		userRepo: userRepo,
		verifier: verifier,
		issuer:   issuer,
		logger:   logger,
	}
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginOutput struct {
	UserID      int64      `json:"user_id"`
	Email       string     `json:"email"`
	Role        model.Role `json:"role"`
	AccessToken string     `json:"access_token"`
	ExpiresAt   time.Time  `json:"expires_at"`
}

func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (LoginOutput, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return LoginOutput{}, NewHTTPError(http.StatusBadRequest, "email and password required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusBadRequest, "invalid email")
	}

	user, err := u.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		//存在しないユーザーでも同じメッセージで返す
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !user.IsActive {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !u.verifier.Verify(in.Password, user.PasswordHash) {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	now := time.Now()
	token, expiresAt, err := u.issuer.Issue(user.ID, user.Role, now)
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "token error")
	}

	if err := u.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		//ログイン自体は成功なので失敗しても落とさない
		u.logger.Warn("failed to update last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	return LoginOutput{
		UserID:      user.ID,
		Email:       user.Email,
		Role:        user.Role,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}

// 起動時に管理者ユーザーがいなければ作る（DBシード）。
func EnsureAdminUser(ctx context.Context, userRepo repo.UserRepository, hasher PasswordHasher, email string, password string, logger *zap.Logger) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil
	}

	_, err := userRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return err
	}

	hashed, err := hasher.Hash(password)
	if err != nil {
		return err
	}

	now := time.Now()
	created, err := userRepo.Create(ctx, model.User{
		Email:        email,
		PasswordHash: hashed,
		Role:         model.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		//同時起動で先に作られていたら何もしない
		if errors.Is(err, repo.ErrConflict) {
			return nil
		}
		return err
	}

	logger.Info("admin user created", zap.Int64("user_id", created.ID), zap.String("email", email))
	return nil
}
