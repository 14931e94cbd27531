package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsightlab/finsight-go/internal/api/handlers"
	"github.com/finsightlab/finsight-go/internal/middleware"
	"github.com/finsightlab/finsight-go/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testRouter() (*gin.Engine, *middleware.AuthMiddleware) {
	auth := middleware.NewAuthMiddleware("test-secret")
	sessions := services.NewSessionManager(func(ownerID string) (*services.SessionContext, error) {
		return services.NewSessionContext(ownerID, nil, services.NewMemoryWatchlistRepository(), nil, time.Minute), nil
	}, time.Hour)

	h := Handlers{
		Health:    handlers.NewHealthHandler(nil, nil, "test"),
		Users:     handlers.NewUserHandler(nil, auth, time.Hour, 4, newTestLogger()),
		Portfolio: handlers.NewPortfolioHandler(sessions, nil, nil, newTestLogger()),
		Watchlist: handlers.NewWatchlistHandler(sessions, newTestLogger()),
		Market:    handlers.NewMarketHandler(sessions, nil, time.Minute, time.Minute, newTestLogger()),
		Research:  handlers.NewResearchHandler(sessions, nil, nil, nil, nil, time.Minute, time.Minute, newTestLogger()),
		Advisor:   handlers.NewAdvisorHandler(sessions, nil, nil, newTestLogger()),
	}

	router := gin.New()
	SetupRoutes(router, h, auth)
	return router, auth
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router, _ := testRouter()

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/portfolio"},
		{http.MethodGet, "/api/v1/watchlist"},
		{http.MethodGet, "/api/v1/market/trends"},
		{http.MethodGet, "/api/v1/news"},
		{http.MethodGet, "/api/v1/report"},
	}
	for _, p := range paths {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(p.method, p.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", p.method, p.path)
	}
}

func TestHealthIsPublic(t *testing.T) {
	router, _ := testRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthedRequestReachesHandler(t *testing.T) {
	router, auth := testRouter()
	token, err := auth.GenerateToken("user-1", "alice@example.com", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/watchlist", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
