package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := performRequest(t, router, "POST", "/api/v1/auth/register", "", map[string]interface{}{
		"name":     "Alex",
		"email":    "alex@example.com",
		"password": "password123",
		"timezone": "Europe/Berlin",
	})
	assert.Equal(t, 201, w.Code, w.Body.String())

	response := decodeBody(t, w)
	assert.Contains(t, response, "token")
	user := response["user"].(map[string]interface{})
	assert.Equal(t, "alex@example.com", user["email"])
	assert.Equal(t, false, user["email_verified"])

	t.Run("duplicate email", func(t *testing.T) {
		w := performRequest(t, router, "POST", "/api/v1/auth/register", "", map[string]interface{}{
			"name":     "Alex Again",
			"email":    "alex@example.com",
			"password": "password456",
		})
		assert.Equal(t, 409, w.Code)
	})

	t.Run("short password rejected by binding", func(t *testing.T) {
		w := performRequest(t, router, "POST", "/api/v1/auth/register", "", map[string]interface{}{
			"name":     "Sam",
			"email":    "sam@example.com",
			"password": "short",
		})
		assert.Equal(t, 400, w.Code)
	})
}

func TestLogin(t *testing.T) {
	router, _ := setupTestRouter(t)
	CreateTestUserAndToken(t, router)

	t.Run("valid credentials", func(t *testing.T) {
		w := performRequest(t, router, "POST", "/api/v1/auth/login", "", map[string]interface{}{
			"email":    "test@example.com",
			"password": "password123",
		})
		assert.Equal(t, 200, w.Code)

		response := decodeBody(t, w)
		assert.Contains(t, response, "token")
		assert.Contains(t, response, "profile")
	})

	t.Run("wrong password", func(t *testing.T) {
		w := performRequest(t, router, "POST", "/api/v1/auth/login", "", map[string]interface{}{
			"email":    "test@example.com",
			"password": "wrong-password",
		})
		assert.Equal(t, 401, w.Code)
	})
}

func TestProfile(t *testing.T) {
	router, _ := setupTestRouter(t)
	token := CreateTestUserAndToken(t, router)

	t.Run("requires auth", func(t *testing.T) {
		w := performRequest(t, router, "GET", "/api/v1/profile", "", nil)
		assert.Equal(t, 401, w.Code)
	})

	t.Run("get defaults", func(t *testing.T) {
		w := performRequest(t, router, "GET", "/api/v1/profile", token, nil)
		require.Equal(t, 200, w.Code)
		response := decodeBody(t, w)
		assert.Equal(t, "UTC", response["timezone"])
	})

	t.Run("update and read back", func(t *testing.T) {
		w := performRequest(t, router, "PUT", "/api/v1/profile", token, map[string]interface{}{
			"timezone":        "America/New_York",
			"conditions":      []string{"migraine"},
			"clinician_email": "doc@clinic.example",
		})
		require.Equal(t, 200, w.Code, w.Body.String())

		w = performRequest(t, router, "GET", "/api/v1/profile", token, nil)
		require.Equal(t, 200, w.Code)
		response := decodeBody(t, w)
		assert.Equal(t, "America/New_York", response["timezone"])
		assert.Equal(t, "doc@clinic.example", response["clinician_email"])
	})

	t.Run("invalid timezone", func(t *testing.T) {
		w := performRequest(t, router, "PUT", "/api/v1/profile", token, map[string]interface{}{
			"timezone": "Mars/Olympus_Mons",
		})
		assert.Equal(t, 400, w.Code)
	})

	t.Run("empty update", func(t *testing.T) {
		w := performRequest(t, router, "PUT", "/api/v1/profile", token, map[string]interface{}{})
		assert.Equal(t, 400, w.Code)
	})
}
