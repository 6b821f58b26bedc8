package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"app/internal/config"
	"app/internal/middleware"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type mwErrorResponse struct {
	Error string `json:"error"`
}

type mwOKResponse struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

func testConfig() config.Config {
	return config.Config{JWTSecret: "test-secret"}
}

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	assert.NoError(t, err)
	return s
}

// ミドルウェアを通過したらcontextの中身を返すハンドラ
func echoHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, mwOKResponse{
		UserID: c.Get(middleware.CtxUserIDKey).(int64),
		Role:   c.Get(middleware.CtxUserRoleKey).(string),
	})
}

func doRequest(t *testing.T, cfg config.Config, authz string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := middleware.AuthJWT(cfg)(echoHandler)
	err := h(c)
	assert.NoError(t, err)
	return rec
}

func TestAuthJWT_ValidToken(t *testing.T) {
	cfg := testConfig()
	now := time.Now()
	token := signedToken(t, cfg.JWTSecret, jwt.MapClaims{
		"sub":  "7",
		"role": "ADMIN",
		"iat":  now.Unix(),
		"exp":  now.Add(15 * time.Minute).Unix(),
	})

	rec := doRequest(t, cfg, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body mwOKResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(7), body.UserID)
	assert.Equal(t, "ADMIN", body.Role)
}

func TestAuthJWT_MissingHeader(t *testing.T) {
	rec := doRequest(t, testConfig(), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body mwErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unauthorized", body.Error)
}

func TestAuthJWT_NotBearer(t *testing.T) {
	rec := doRequest(t, testConfig(), "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_WrongSecret(t *testing.T) {
	cfg := testConfig()
	now := time.Now()
	token := signedToken(t, "other-secret", jwt.MapClaims{
		"sub":  "7",
		"role": "ADMIN",
		"iat":  now.Unix(),
		"exp":  now.Add(15 * time.Minute).Unix(),
	})

	rec := doRequest(t, cfg, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_ExpiredToken(t *testing.T) {
	cfg := testConfig()
	now := time.Now()
	token := signedToken(t, cfg.JWTSecret, jwt.MapClaims{
		"sub":  "7",
		"role": "ADMIN",
		"iat":  now.Add(-time.Hour).Unix(),
		"exp":  now.Add(-30 * time.Minute).Unix(),
	})

	rec := doRequest(t, cfg, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_MissingRole(t *testing.T) {
	cfg := testConfig()
	now := time.Now()
	token := signedToken(t, cfg.JWTSecret, jwt.MapClaims{
		"sub": "7",
		"iat": now.Unix(),
		"exp": now.Add(15 * time.Minute).Unix(),
	})

	rec := doRequest(t, cfg, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
