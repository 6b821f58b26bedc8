package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"app/internal/middleware"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func doGuardRequest(t *testing.T, role interface{}) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set(middleware.CtxUserRoleKey, role)
	}

	h := middleware.AdminRoleGuard()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	assert.NoError(t, h(c))
	return rec
}

func TestAdminRoleGuard_Admin(t *testing.T) {
	rec := doGuardRequest(t, "ADMIN")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoleGuard_User(t *testing.T) {
	rec := doGuardRequest(t, "USER")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRoleGuard_NoRole(t *testing.T) {
	rec := doGuardRequest(t, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
