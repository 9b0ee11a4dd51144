package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeremiapane/restaurant-floor/apperrors"
	"github.com/yeremiapane/restaurant-floor/board"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/utils"
)

// PreferenceStore persists the area and slot filters per operator.
type PreferenceStore interface {
	Load(ctx context.Context, operatorKey string) (models.FilterPreference, error)
	Save(ctx context.Context, pref models.FilterPreference) error
}

func defaultPreference(operatorKey string) models.FilterPreference {
	return models.FilterPreference{OperatorKey: operatorKey, AreaID: board.All, Slot: string(board.SlotAll)}
}

type GormPreferenceStore struct {
	db *gorm.DB
}

func NewGormPreferenceStore(db *gorm.DB) *GormPreferenceStore {
	return &GormPreferenceStore{db: db}
}

func (s *GormPreferenceStore) Load(ctx context.Context, operatorKey string) (models.FilterPreference, error) {
	var pref models.FilterPreference
	err := s.db.WithContext(ctx).Where("operator_key = ?", operatorKey).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return defaultPreference(operatorKey), nil
	}
	if err != nil {
		return models.FilterPreference{}, err
	}
	return pref, nil
}

func (s *GormPreferenceStore) Save(ctx context.Context, pref models.FilterPreference) error {
	pref.ID = 0
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "operator_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"area_id", "slot", "updated_at"}),
	}).Create(&pref).Error
}

// RedisPreferenceStore keeps one hash per operator under floor:prefs:<key>.
type RedisPreferenceStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPreferenceStore(client *redis.Client, ttl time.Duration) *RedisPreferenceStore {
	return &RedisPreferenceStore{client: client, ttl: ttl}
}

func preferenceKey(operatorKey string) string {
	return "floor:prefs:" + operatorKey
}

func (s *RedisPreferenceStore) Load(ctx context.Context, operatorKey string) (models.FilterPreference, error) {
	values, err := s.client.HGetAll(ctx, preferenceKey(operatorKey)).Result()
	if err != nil {
		return models.FilterPreference{}, err
	}

	pref := defaultPreference(operatorKey)
	if v, ok := values["area"]; ok && v != "" {
		pref.AreaID = v
	}
	if v, ok := values["slot"]; ok && v != "" {
		pref.Slot = v
	}
	if v, ok := values["updated_at"]; ok {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			pref.UpdatedAt = ts
		}
	}
	return pref, nil
}

func (s *RedisPreferenceStore) Save(ctx context.Context, pref models.FilterPreference) error {
	key := preferenceKey(pref.OperatorKey)
	if pref.UpdatedAt.IsZero() {
		pref.UpdatedAt = time.Now()
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"area", pref.AreaID,
		"slot", pref.Slot,
		"updated_at", pref.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// PreferenceService restores and records the area and slot filters. Both
// survive restarts; the other filters are per request only.
type PreferenceService struct {
	store PreferenceStore
}

func NewPreferenceService(store PreferenceStore) *PreferenceService {
	return &PreferenceService{store: store}
}

func (p *PreferenceService) Get(ctx context.Context, operatorKey string) (models.FilterPreference, error) {
	return p.store.Load(ctx, operatorKey)
}

// Update stores a validated area and slot pair.
func (p *PreferenceService) Update(ctx context.Context, operatorKey, area string, slot board.Slot) (models.FilterPreference, error) {
	if area == "" {
		area = board.All
	}
	if slot == "" {
		slot = board.SlotAll
	}
	if !slot.Valid() {
		return models.FilterPreference{}, apperrors.NewValidation("slot", fmt.Sprintf("unknown time slot %q", slot), nil)
	}

	pref := models.FilterPreference{
		OperatorKey: operatorKey,
		AreaID:      area,
		Slot:        string(slot),
		UpdatedAt:   time.Now(),
	}
	if err := p.store.Save(ctx, pref); err != nil {
		return models.FilterPreference{}, err
	}
	return pref, nil
}

// Apply fills area and slot from the stored preference when the query
// leaves them out, and records them when the query sets them. Storage
// errors are logged; the board still renders with the requested filters.
func (p *PreferenceService) Apply(ctx context.Context, operatorKey string, q url.Values, f board.Filters) board.Filters {
	hasArea, hasSlot := board.HasArea(q), board.HasSlot(q)

	if hasArea && hasSlot {
		if _, err := p.Update(ctx, operatorKey, f.AreaID, f.Slot); err != nil {
			utils.ErrorLogger.WithField("operator", operatorKey).Errorf("Error saving filter preference: %v", err)
		}
		return f
	}

	stored, err := p.store.Load(ctx, operatorKey)
	if err != nil {
		utils.ErrorLogger.WithField("operator", operatorKey).Errorf("Error loading filter preference: %v", err)
		return f
	}
	if !hasArea {
		f.AreaID = stored.AreaID
	}
	if !hasSlot {
		if s := board.Slot(stored.Slot); s.Valid() {
			f.Slot = s
		}
	}
	if hasArea || hasSlot {
		if _, err := p.Update(ctx, operatorKey, f.AreaID, f.Slot); err != nil {
			utils.ErrorLogger.WithField("operator", operatorKey).Errorf("Error saving filter preference: %v", err)
		}
	}
	return f
}
