package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/flarelog/backend/internal/models"
)

// EntryDraft is an AI-classified, not-yet-confirmed entry. Drafts
// live in Redis for 24 hours; confirming one materializes a real
// entry row.
type EntryDraft struct {
	ID          string           `json:"id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	UserID      string           `json:"user_id"`
	Type        models.EntryType `json:"type"`
	Severity    models.Severity  `json:"severity"`
	EnergyLevel int              `json:"energy_level"`
	Symptoms    []string         `json:"symptoms"`
	Medications []string         `json:"medications"`
	Triggers    []string         `json:"triggers"`
	Note        string           `json:"note"`
	// Classified is false when the model could not produce a
	// structured result and the draft only carries the raw note.
	Classified bool `json:"classified"`
}

// ClassifierService turns free-text descriptions into structured
// entry drafts using a chat-completions API.
type ClassifierService struct {
	apiKey string
	apiURL string
	redis  *redis.Client
}

// Ensure ClassifierService implements IClassifierService
var _ IClassifierService = (*ClassifierService)(nil)

// NewClassifierService creates a new ClassifierService instance
func NewClassifierService(redisClient *redis.Client) (*ClassifierService, error) {
	apiKey := os.Getenv("CLASSIFIER_API_KEY")
	if apiKey == "" {
		apiKeyFile := os.Getenv("CLASSIFIER_API_KEY_FILE")
		if apiKeyFile == "" {
			return nil, fmt.Errorf("CLASSIFIER_API_KEY or CLASSIFIER_API_KEY_FILE must be set")
		}

		apiKeyBytes, err := os.ReadFile(apiKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read API key file: %w", err)
		}

		apiKey = strings.TrimSpace(string(apiKeyBytes))
		if apiKey == "" {
			return nil, fmt.Errorf("API key file is empty")
		}
	}

	apiURL := os.Getenv("CLASSIFIER_API_URL")
	if apiURL == "" {
		apiURL = "https://api.deepseek.com/v1/chat/completions"
	}

	return &ClassifierService{
		apiKey: apiKey,
		apiURL: apiURL,
		redis:  redisClient,
	}, nil
}

// Message represents a message in the chat
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request represents a chat-completions request
type Request struct {
	Model          string            `json:"model"`
	Messages       []Message         `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Temperature    float64           `json:"temperature"`
}

const classifierSystemPrompt = `You classify a patient's free-text health note into a structured log entry. Respond only with JSON:
{
    "type": "one of: flare, medication, trigger, recovery, energy, note",
    "severity": "for flare only, one of: none, mild, moderate, severe; otherwise empty string",
    "energy_level": 0,
    "symptoms": ["headache"],
    "medications": ["ibuprofen 400mg"],
    "triggers": ["red wine"],
    "note": "cleaned-up note text"
}
The severity field MUST be empty unless type is flare.
The energy_level field MUST be 0 unless type is energy (then 1-10).
Lists may be empty. Never invent symptoms that are not in the text.`

// ClassifyEntry sends the text to the model and parses the structured
// result. Errors are returned so the caller can fall back to a blank,
// unclassified draft; classification must never be required to save
// an entry.
func (s *ClassifierService) ClassifyEntry(ctx context.Context, text string) (*EntryDraft, error) {
	messages := []Message{
		{Role: "system", Content: classifierSystemPrompt},
		{Role: "user", Content: text},
	}

	reqBody := Request{
		Model:    "deepseek-chat",
		Messages: messages,
		ResponseFormat: map[string]string{
			"type": "json_object",
		},
		Temperature: 0.1, // Classification should be near-deterministic
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("no response from API")
	}

	var draft EntryDraft
	if err := json.Unmarshal([]byte(result.Choices[0].Message.Content), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse classification: %w", err)
	}
	if !models.ValidEntryType(draft.Type) {
		return nil, fmt.Errorf("classifier returned unknown entry type %q", draft.Type)
	}

	draft.Classified = true
	if draft.Note == "" {
		draft.Note = text
	}
	return &draft, nil
}

// UnclassifiedDraft is the deterministic fallback: the raw text kept
// as a note with every structured field left blank.
func UnclassifiedDraft(text string) *EntryDraft {
	return &EntryDraft{
		Type:       models.EntryTypeNote,
		Note:       text,
		Classified: false,
	}
}

// SaveDraft stores an entry draft in Redis for 24 hours.
func (s *ClassifierService) SaveDraft(ctx context.Context, draft *EntryDraft) error {
	draft.ID = uuid.New().String()
	draft.CreatedAt = time.Now()
	draft.UpdatedAt = time.Now()

	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	key := fmt.Sprintf("entry:draft:%s", draft.ID)
	if err := s.redis.Set(ctx, key, data, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to save draft to Redis: %w", err)
	}
	return nil
}

// GetDraft retrieves an entry draft from Redis.
func (s *ClassifierService) GetDraft(ctx context.Context, id string) (*EntryDraft, error) {
	key := fmt.Sprintf("entry:draft:%s", id)
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to get draft from Redis: %w", err)
	}

	var draft EntryDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	return &draft, nil
}

// DeleteDraft removes an entry draft from Redis.
func (s *ClassifierService) DeleteDraft(ctx context.Context, id string) error {
	key := fmt.Sprintf("entry:draft:%s", id)
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete draft from Redis: %w", err)
	}
	return nil
}
