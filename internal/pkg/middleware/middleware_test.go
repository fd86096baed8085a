package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"socialgraph/internal/pkg/config"
	"socialgraph/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Delete(ctx context.Context, userID string) error {
	return m.Called(userID).Error(0)
}

func (m *MockProvider) IsRevoked(ctx context.Context, userID string) (bool, error) {
	args := m.Called(userID)
	return args.Bool(0), args.Error(1)
}

func newAuthRouter(p *MockProvider) *gin.Engine {
	r := gin.New()
	r.Use(TraceMiddleware(), AuthMiddleware(p))
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c))
	})
	return r
}

func doRequest(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	config.GlobalConfig.JWT.Secret = "middleware-test-secret-0123456789abcdef"
	config.GlobalConfig.JWT.Expire = 1
	token, _, err := utils.GenerateToken("user-42")
	require.NoError(t, err)

	t.Run("missing header", func(t *testing.T) {
		w := doRequest(newAuthRouter(new(MockProvider)), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		w := doRequest(newAuthRouter(new(MockProvider)), "Token abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		p := new(MockProvider)
		p.On("IsRevoked", "user-42").Return(false, nil)

		w := doRequest(newAuthRouter(p), "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-42", w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
		p.AssertExpectations(t)
	})

	t.Run("revoked identity", func(t *testing.T) {
		p := new(MockProvider)
		p.On("IsRevoked", "user-42").Return(true, nil)

		w := doRequest(newAuthRouter(p), "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("revocation lookup failure", func(t *testing.T) {
		p := new(MockProvider)
		p.On("IsRevoked", "user-42").Return(false, errors.New("redis down"))

		w := doRequest(newAuthRouter(p), "Bearer "+token)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(NewIPRateLimiter(1, 2)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestIPRateLimiterCleanup(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	l.GetLimiter("10.0.0.1")
	assert.Equal(t, 0, l.Cleanup(1<<62))
	assert.Equal(t, 1, l.Cleanup(-1))
}
