package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/flarelog/backend/internal/models"
)

var ErrWeatherUnavailable = errors.New("weather provider unavailable")

// WeatherService fetches current conditions from an Open-Meteo style
// endpoint. A failed fetch never blocks entry creation; callers log
// and continue without environmental context.
type WeatherService struct {
	apiURL string
	client *http.Client
}

func NewWeatherService() *WeatherService {
	apiURL := os.Getenv("WEATHER_API_URL")
	if apiURL == "" {
		apiURL = "https://api.open-meteo.com/v1/forecast"
	}
	return &WeatherService{
		apiURL: apiURL,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

type weatherResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		Pressure    float64 `json:"surface_pressure"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
}

// Snapshot returns the conditions at the given coordinates. A single
// attempt only; the caller treats failure as missing context.
func (s *WeatherService) Snapshot(ctx context.Context, lat, lon float64) (*models.EnvironmentalData, error) {
	url := fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&current=temperature_2m,relative_humidity_2m,surface_pressure,weather_code",
		s.apiURL, lat, lon)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeatherUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrWeatherUnavailable, resp.StatusCode)
	}

	var payload weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}

	return &models.EnvironmentalData{
		TemperatureC: payload.Current.Temperature,
		HumidityPct:  payload.Current.Humidity,
		PressureHPa:  payload.Current.Pressure,
		Condition:    conditionFromCode(payload.Current.WeatherCode),
	}, nil
}

// conditionFromCode maps WMO weather codes to coarse labels.
func conditionFromCode(code int) string {
	switch {
	case code == 0:
		return "clear"
	case code <= 3:
		return "cloudy"
	case code >= 45 && code <= 48:
		return "fog"
	case code >= 51 && code <= 67:
		return "rain"
	case code >= 71 && code <= 77:
		return "snow"
	case code >= 80 && code <= 82:
		return "rain"
	case code >= 95:
		return "storm"
	default:
		return "unknown"
	}
}
