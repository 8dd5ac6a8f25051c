package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) (*gin.Engine, UserService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := NewUserService(NewUserRepository(testDB(t)), zap.NewNop())
	h := NewUserHandler(svc, zap.NewNop())

	router := gin.New()
	h.RegisterAdmin(router)
	return router, svc
}

func TestReadUserByID(t *testing.T) {
	router, svc := newTestRouter(t)
	account, err := svc.CreateUser(context.Background(), "bob@example.com", "digest", "Bob")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/"+account.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "bob@example.com", body["email"])
	assert.NotContains(t, body, "password_hash")
	assert.NotContains(t, body, "PasswordHash")
}

func TestReadUserByID_Errors(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/9b2f7a8e-0000-4000-8000-000000000000", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReadCurrentUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewUserHandler(nil, zap.NewNop())
	account := &Account{ID: "id-1", Email: "me@example.com", Role: User}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if c.GetHeader("X-Test-Auth") == "yes" {
			c.Set(ContextUserKey, account)
		}
		c.Next()
	})
	h.RegisterSelf(router)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("X-Test-Auth", "yes")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "me@example.com")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteUserByID(t *testing.T) {
	router, svc := newTestRouter(t)
	account, err := svc.CreateUser(context.Background(), "carol@example.com", "digest", "Carol")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/users/"+account.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/users/"+account.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/users/42", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
