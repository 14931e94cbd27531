package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/finsightlab/finsight-go/internal/middleware"
	"github.com/finsightlab/finsight-go/internal/models"
	"github.com/finsightlab/finsight-go/internal/services"
	"github.com/finsightlab/finsight-go/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testUserID = "user-1"

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// asUser injects the authenticated user id the way RequireAuth would.
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Next()
	}
}

func newSessionManager() *services.SessionManager {
	factory := func(ownerID string) (*services.SessionContext, error) {
		return services.NewSessionContext(ownerID, nil, services.NewMemoryWatchlistRepository(), nil, time.Minute), nil
	}
	return services.NewSessionManager(factory, time.Hour)
}

// fakeMarket serves canned quotes and histories and counts calls.
type fakeMarket struct {
	mu         sync.Mutex
	quotes     map[string]decimal.Decimal
	histories  map[string]models.RawTable
	quoteCalls int
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		quotes:    make(map[string]decimal.Decimal),
		histories: make(map[string]models.RawTable),
	}
}

func (m *fakeMarket) Quote(_ context.Context, symbol string) (models.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quoteCalls++
	price, ok := m.quotes[symbol]
	if !ok {
		return models.Quote{}, utils.NewFetchError("market-data", fmt.Errorf("no quote for %s", symbol))
	}
	return models.Quote{Symbol: symbol, Price: price, Timestamp: time.Now()}, nil
}

func (m *fakeMarket) History(_ context.Context, symbol, _ string) (models.RawTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table, ok := m.histories[symbol]
	if !ok {
		return models.RawTable{}, utils.NewFetchError("market-data", fmt.Errorf("no history for %s", symbol))
	}
	return table, nil
}

// closesTable builds a single-symbol raw table of consecutive daily
// closes starting 2026-01-01.
func closesTable(symbol string, closes ...float64) models.RawTable {
	table := models.RawTable{
		Columns: []models.RawColumn{{Field: "close", Symbol: symbol}},
	}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, close := range closes {
		table.Rows = append(table.Rows, models.RawRow{
			Date:  start.AddDate(0, 0, i).Format("2006-01-02"),
			Cells: []interface{}{close},
		})
	}
	return table
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}
