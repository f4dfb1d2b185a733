package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarelog/backend/internal/models"
)

func classifierServer(t *testing.T, content string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		response := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
}

func TestClassifierService_ClassifyEntry(t *testing.T) {
	content := `{"type":"flare","severity":"moderate","energy_level":0,"symptoms":["headache"],"medications":[],"triggers":["red wine"],"note":"Headache after wine"}`
	server := classifierServer(t, content)
	defer server.Close()

	t.Setenv("CLASSIFIER_API_KEY", "test-key")
	t.Setenv("CLASSIFIER_API_URL", server.URL)

	svc, err := NewClassifierService(nil)
	require.NoError(t, err)

	draft, err := svc.ClassifyEntry(context.Background(), "headache after two glasses of wine")
	require.NoError(t, err)

	assert.True(t, draft.Classified)
	assert.Equal(t, models.EntryTypeFlare, draft.Type)
	assert.Equal(t, models.SeverityModerate, draft.Severity)
	assert.Equal(t, []string{"headache"}, draft.Symptoms)
	assert.Equal(t, []string{"red wine"}, draft.Triggers)
}

func TestClassifierService_RejectsUnknownType(t *testing.T) {
	server := classifierServer(t, `{"type":"mood","note":"feeling odd"}`)
	defer server.Close()

	t.Setenv("CLASSIFIER_API_KEY", "test-key")
	t.Setenv("CLASSIFIER_API_URL", server.URL)

	svc, err := NewClassifierService(nil)
	require.NoError(t, err)

	_, err = svc.ClassifyEntry(context.Background(), "feeling odd")
	assert.Error(t, err)
}

func TestClassifierService_RequiresAPIKey(t *testing.T) {
	t.Setenv("CLASSIFIER_API_KEY", "")
	t.Setenv("CLASSIFIER_API_KEY_FILE", "")

	_, err := NewClassifierService(nil)
	assert.Error(t, err)
}

func TestUnclassifiedDraft(t *testing.T) {
	draft := UnclassifiedDraft("too vague to parse")

	assert.False(t, draft.Classified)
	assert.Equal(t, models.EntryTypeNote, draft.Type)
	assert.Equal(t, "too vague to parse", draft.Note)
	assert.Empty(t, draft.Symptoms)
}
