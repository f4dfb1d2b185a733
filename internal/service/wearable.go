package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/flarelog/backend/internal/models"
)

var (
	ErrWearableNotLinked   = errors.New("no wearable account linked")
	ErrWearableUnavailable = errors.New("wearable provider unavailable")
)

// WearableService pulls resting heart rate, HRV, sleep and steps from
// a linked wearable account. Expired access tokens are refreshed once;
// a second 401 is surfaced as unavailable.
type WearableService struct {
	db       *gorm.DB
	apiURL   string
	tokenURL string
	clientID string
	secret   string
	client   *http.Client
}

func NewWearableService(db *gorm.DB) *WearableService {
	apiURL := os.Getenv("WEARABLE_API_URL")
	if apiURL == "" {
		apiURL = "https://api.fitbit.com/1/user/-"
	}
	tokenURL := os.Getenv("WEARABLE_TOKEN_URL")
	if tokenURL == "" {
		tokenURL = "https://api.fitbit.com/oauth2/token"
	}
	return &WearableService{
		db:       db,
		apiURL:   apiURL,
		tokenURL: tokenURL,
		clientID: readSecret("wearable_client_id"),
		secret:   readSecret("wearable_client_secret"),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type wearableSummary struct {
	RestingHeartRate int `json:"resting_heart_rate"`
	HRVMillis        int `json:"hrv_ms"`
	SleepMinutes     int `json:"sleep_minutes"`
	Steps            int `json:"steps"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Snapshot fetches today's summary for the user's linked wearable.
func (s *WearableService) Snapshot(ctx context.Context, profile *models.UserProfile) (*models.PhysiologicalData, error) {
	if profile.WearableAccessToken == "" {
		return nil, ErrWearableNotLinked
	}

	summary, status, err := s.fetchSummary(ctx, profile.WearableAccessToken)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		if err := s.refreshTokens(ctx, profile); err != nil {
			return nil, err
		}
		summary, status, err = s.fetchSummary(ctx, profile.WearableAccessToken)
		if err != nil {
			return nil, err
		}
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrWearableUnavailable, status)
	}

	return &models.PhysiologicalData{
		RestingHeartRate: summary.RestingHeartRate,
		HRVMillis:        summary.HRVMillis,
		SleepMinutes:     summary.SleepMinutes,
		Steps:            summary.Steps,
	}, nil
}

func (s *WearableService) fetchSummary(ctx context.Context, accessToken string) (*wearableSummary, int, error) {
	day := time.Now().UTC().Format("2006-01-02")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/activities/date/%s.json", s.apiURL, day), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build wearable request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrWearableUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var summary wearableSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode wearable response: %w", err)
	}
	return &summary, resp.StatusCode, nil
}

// refreshTokens exchanges the refresh token and persists the new pair.
func (s *WearableService) refreshTokens(ctx context.Context, profile *models.UserProfile) error {
	if profile.WearableRefreshToken == "" {
		return ErrWearableNotLinked
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", profile.WearableRefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.clientID, s.secret)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWearableUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: token refresh status %d", ErrWearableUnavailable, resp.StatusCode)
	}

	var tokens tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}

	profile.WearableAccessToken = tokens.AccessToken
	profile.WearableRefreshToken = tokens.RefreshToken
	if err := s.db.WithContext(ctx).Model(profile).Updates(map[string]interface{}{
		"wearable_access_token":  tokens.AccessToken,
		"wearable_refresh_token": tokens.RefreshToken,
	}).Error; err != nil {
		log.Printf("[WearableService] Failed to persist refreshed tokens: %v", err)
	}
	return nil
}
