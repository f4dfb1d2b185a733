package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/flarelog/backend/internal/models"
	"github.com/flarelog/backend/internal/types"
)

var (
	ErrInvalidEntryType   = errors.New("invalid entry type")
	ErrSeverityNotAllowed = errors.New("severity is only valid on flare entries")
	ErrEnergyNotAllowed   = errors.New("energy level is only valid on energy entries")
	ErrEntryNotFound      = errors.New("entry not found")
)

// EntryService handles entry CRUD plus the best-effort environmental
// and physiological enrichment performed at creation time.
type EntryService struct {
	db         *gorm.DB
	engagement IEngagementService
	weather    IWeatherService
	wearable   IWearableService
}

// Ensure EntryService implements IEntryService
var _ IEntryService = (*EntryService)(nil)

// NewEntryService creates a new EntryService instance. The weather and
// wearable collaborators may be nil, in which case entries are simply
// created without snapshots.
func NewEntryService(db *gorm.DB, engagement IEngagementService, weather IWeatherService, wearable IWearableService) *EntryService {
	return &EntryService{
		db:         db,
		engagement: engagement,
		weather:    weather,
		wearable:   wearable,
	}
}

func validateEntryInvariants(entryType models.EntryType, severity models.Severity, energyLevel int) error {
	if !models.ValidEntryType(entryType) {
		return ErrInvalidEntryType
	}
	if severity != "" {
		if !models.ValidSeverity(severity) {
			return ErrSeverityNotAllowed
		}
		if entryType != models.EntryTypeFlare {
			return ErrSeverityNotAllowed
		}
	}
	if energyLevel != 0 && entryType != models.EntryTypeEnergy {
		return ErrEnergyNotAllowed
	}
	return nil
}

// CreateEntry validates and saves a new entry, attaches best-effort
// snapshots, and updates the user's engagement row. Snapshot failures
// never block the save; the engagement update's badge result is
// returned for notification purposes.
func (s *EntryService) CreateEntry(ctx context.Context, userID uuid.UUID, req *types.CreateEntryRequest) (*models.Entry, *models.Engagement, []Badge, error) {
	if err := validateEntryInvariants(req.Type, req.Severity, req.EnergyLevel); err != nil {
		return nil, nil, nil, err
	}

	timestamp := req.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	entry := models.Entry{
		UserID:      userID,
		Timestamp:   timestamp,
		Type:        req.Type,
		Severity:    req.Severity,
		EnergyLevel: req.EnergyLevel,
		Symptoms:    normalizeLabels(req.Symptoms),
		Medications: normalizeLabels(req.Medications),
		Triggers:    normalizeLabels(req.Triggers),
		Note:        req.Note,
		FollowUps:   models.FollowUpList{},
		Embedding:   GenerateEmbedding(req.Note + " " + strings.Join(req.Symptoms, " ")),
	}

	profile, loc := s.loadProfileAndLocation(ctx, userID)
	s.enrichEntry(ctx, &entry, profile)

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, nil, nil, err
	}

	engagement, earned, err := s.engagement.RecordEntry(ctx, userID, entry, loc)
	if err != nil {
		// The entry itself is saved; a failed engagement update is
		// logged and the save still succeeds for the user.
		log.Printf("[EntryService] engagement update failed for user %s: %v", userID, err)
		return &entry, nil, nil, nil
	}

	return &entry, engagement, earned, nil
}

// loadProfileAndLocation resolves the user's profile and timezone.
// Both degrade to nil/UTC when unavailable.
func (s *EntryService) loadProfileAndLocation(ctx context.Context, userID uuid.UUID) (*models.UserProfile, *time.Location) {
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, time.UTC
	}
	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return &profile, loc
}

// enrichEntry attaches weather and wearable snapshots when the
// collaborators and profile allow it. A missing snapshot is nil, not
// an error: the primary save must always succeed.
func (s *EntryService) enrichEntry(ctx context.Context, entry *models.Entry, profile *models.UserProfile) {
	if profile == nil {
		return
	}

	if s.weather != nil && (profile.Latitude != 0 || profile.Longitude != 0) {
		snapshot, err := s.weather.Snapshot(ctx, profile.Latitude, profile.Longitude)
		if err != nil {
			log.Printf("[EntryService] weather snapshot unavailable: %v", err)
		} else {
			entry.EnvironmentalData = snapshot
		}
	}

	if s.wearable != nil && profile.WearableAccessToken != "" {
		snapshot, err := s.wearable.Snapshot(ctx, profile)
		if err != nil {
			log.Printf("[EntryService] wearable snapshot unavailable: %v", err)
		} else {
			entry.PhysiologicalData = snapshot
		}
	}
}

func normalizeLabels(labels []string) models.JSONBStringArray {
	normalized := make(models.JSONBStringArray, 0, len(labels))
	seen := make(map[string]struct{})
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		normalized = append(normalized, label)
	}
	return normalized
}

func (s *EntryService) GetEntry(ctx context.Context, userID, id uuid.UUID) (*models.Entry, error) {
	var entry models.Entry
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateEntry edits an entry's mutable fields. Snapshots are immutable
// and follow-ups go through AppendFollowUp.
func (s *EntryService) UpdateEntry(ctx context.Context, userID, id uuid.UUID, req *types.UpdateEntryRequest) (*models.Entry, error) {
	entry, err := s.GetEntry(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Timestamp != nil {
		entry.Timestamp = *req.Timestamp
	}
	if req.Severity != nil {
		entry.Severity = *req.Severity
	}
	if req.EnergyLevel != nil {
		entry.EnergyLevel = *req.EnergyLevel
	}
	if req.Symptoms != nil {
		entry.Symptoms = normalizeLabels(*req.Symptoms)
	}
	if req.Medications != nil {
		entry.Medications = normalizeLabels(*req.Medications)
	}
	if req.Triggers != nil {
		entry.Triggers = normalizeLabels(*req.Triggers)
	}
	if req.Note != nil {
		entry.Note = *req.Note
	}

	if err := validateEntryInvariants(entry.Type, entry.Severity, entry.EnergyLevel); err != nil {
		return nil, err
	}

	entry.Embedding = GenerateEmbedding(entry.Note + " " + strings.Join(entry.Symptoms, " "))

	if err := s.db.WithContext(ctx).Save(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *EntryService) DeleteEntry(ctx context.Context, userID, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Entry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// AppendFollowUp appends one timestamped note to an entry. Follow-ups
// are append-only.
func (s *EntryService) AppendFollowUp(ctx context.Context, userID, id uuid.UUID, note string) (*models.Entry, error) {
	entry, err := s.GetEntry(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	entry.FollowUps = append(entry.FollowUps, models.FollowUp{
		Timestamp: time.Now().UTC(),
		Note:      note,
	})

	if err := s.db.WithContext(ctx).Save(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntries returns a user's entries in [from, to), newest first
// for display.
func (s *EntryService) ListEntries(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.Entry, error) {
	var entries []models.Entry
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if !from.IsZero() {
		query = query.Where("timestamp >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("timestamp < ?", to)
	}
	if err := query.Order("timestamp DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// SearchEntries searches a user's entries. On postgres the results are
// ordered by embedding distance; elsewhere it falls back to a keyword
// match over notes and symptoms.
func (s *EntryService) SearchEntries(ctx context.Context, userID uuid.UUID, query string) ([]models.Entry, error) {
	var entries []models.Entry
	dbQuery := s.db.WithContext(ctx).Where("user_id = ?", userID)

	if query != "" {
		if s.db.Dialector.Name() == "postgres" {
			vec := GenerateEmbedding(query)
			dbQuery = dbQuery.Clauses(clause.OrderBy{
				Expression: clause.Expr{SQL: "embedding <-> ?", Vars: []interface{}{vec}},
			})
		} else {
			like := "%" + strings.ToLower(query) + "%"
			dbQuery = dbQuery.Where("LOWER(note) LIKE ? OR LOWER(symptoms) LIKE ?", like, like)
		}
	}

	if err := dbQuery.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
