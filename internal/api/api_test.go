package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/flarelog/backend/internal/service"
	"github.com/flarelog/backend/internal/testhelpers"
)

// setupTestRouter wires the full route table against an in-memory
// database. Redis, S3 and the classifier are left out, matching a
// deployment with those collaborators down.
func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupSQLiteDB(t)
	authService := service.NewAuthService(db, "test-secret")
	engagementService := service.NewEngagementService(db)
	entryService := service.NewEntryService(db, engagementService, nil, nil)
	reportService := service.NewReportService(db, nil)

	router := gin.New()
	RegisterRoutes(router, Deps{
		DB:         db,
		Auth:       authService,
		Email:      service.NewEmailService(),
		Entries:    entryService,
		Engagement: engagementService,
		Reports:    reportService,
	})
	return router, db
}

// CreateTestUserAndToken registers a fresh user through the API and
// returns the session token.
func CreateTestUserAndToken(t *testing.T, router *gin.Engine) string {
	t.Helper()

	w := performRequest(t, router, "POST", "/api/v1/auth/register", "", map[string]interface{}{
		"name":     "Test User",
		"email":    "test@example.com",
		"password": "password123",
	})
	require.Equal(t, 201, w.Code, w.Body.String())

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	token, ok := response["token"].(string)
	require.True(t, ok, "register response missing token")
	return token
}

func performRequest(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}
