package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nara-edu/timetable-api/internal/models"
	"github.com/nara-edu/timetable-api/pkg/config"
	appErrors "github.com/nara-edu/timetable-api/pkg/errors"
)

type planSettingReader interface {
	FindByID(ctx context.Context, id string) (*models.PlanSetting, error)
	FindDefaultByOrganization(ctx context.Context, organizationID string) (*models.PlanSetting, error)
}

type periodReader interface {
	ListByOrganization(ctx context.Context, organizationID string) ([]models.Period, error)
}

type capacityCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

type cacheObserver interface {
	RecordCacheOperation(hit bool, duration time.Duration)
}

// CapacityService derives weekly slot capacity from plan settings and the
// period catalog.
type CapacityService struct {
	planSettings   planSettingReader
	periods        periodReader
	cache          capacityCache
	cacheTTL       time.Duration
	fallbackDays   int
	fallbackPerDay int
	metrics        cacheObserver
	logger         *zap.Logger
}

// NewCapacityService wires the capacity calculator. cache and metrics may be
// nil.
func NewCapacityService(planSettings planSettingReader, periods periodReader, cache capacityCache, cfg config.SchedulingConfig, metrics cacheObserver, logger *zap.Logger) *CapacityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CapacityCacheTTL <= 0 {
		cfg.CapacityCacheTTL = 5 * time.Minute
	}
	if cfg.DefaultDaysPerWeek <= 0 {
		cfg.DefaultDaysPerWeek = models.DefaultDaysPerWeek
	}
	if cfg.DefaultPeriodsPerDay <= 0 {
		cfg.DefaultPeriodsPerDay = models.DefaultPeriodsPerDay
	}
	return &CapacityService{
		planSettings:   planSettings,
		periods:        periods,
		cache:          cache,
		cacheTTL:       cfg.CapacityCacheTTL,
		fallbackDays:   cfg.DefaultDaysPerWeek,
		fallbackPerDay: cfg.DefaultPeriodsPerDay,
		metrics:        metrics,
		logger:         logger,
	}
}

// MaxTeachingPeriodsPerWeek estimates the weekly teaching ceiling for an
// organization: default plan-setting days (fallback 5) times the number of
// teaching periods in the catalog per day (fallback: plan-setting
// periodsPerDay, then 8). The estimate deliberately ignores which specific
// days each period applies to; it is a ceiling heuristic, not a slot count.
// A missing organization or plan setting yields the unconstrained default of
// 40, never an error.
func (s *CapacityService) MaxTeachingPeriodsPerWeek(ctx context.Context, organizationID string) (int, error) {
	cacheKey := fmt.Sprintf("capacity:org:%s", organizationID)
	if hit, value := s.fromCache(ctx, cacheKey); hit {
		return value, nil
	}

	days := s.fallbackDays
	perDay := 0

	setting, err := s.planSettings.FindDefaultByOrganization(ctx, organizationID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load plan setting")
	}
	if setting != nil && setting.DaysPerWeek > 0 {
		days = setting.DaysPerWeek
	}

	periods, err := s.periods.ListByOrganization(ctx, organizationID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period catalog")
	}
	for _, period := range periods {
		if period.IsTeaching() {
			perDay++
		}
	}
	if perDay == 0 {
		if setting != nil && setting.PeriodsPerDay > 0 {
			perDay = setting.PeriodsPerDay
		} else {
			perDay = s.fallbackPerDay
		}
	}

	capacity := days * perDay
	s.toCache(ctx, cacheKey, capacity)
	return capacity, nil
}

// TotalSlots returns daysPerWeek x periodsPerDay for a specific plan setting,
// defaulting to 40 when the row is missing or carries non-positive values.
// This is the precise variant every availability comparison uses; both sides
// of a comparison must use the same plan-setting scope.
func (s *CapacityService) TotalSlots(ctx context.Context, planSettingsID string) (int, error) {
	cacheKey := fmt.Sprintf("capacity:plan:%s", planSettingsID)
	if hit, value := s.fromCache(ctx, cacheKey); hit {
		return value, nil
	}

	setting, err := s.planSettings.FindByID(ctx, planSettingsID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.fallbackDays * s.fallbackPerDay, nil
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load plan setting")
	}

	slots := setting.TotalSlots()
	s.toCache(ctx, cacheKey, slots)
	return slots, nil
}

// InvalidateOrganization drops cached capacity figures for an organization.
// Callers use it after plan-setting or period-catalog writes.
func (s *CapacityService) InvalidateOrganization(ctx context.Context, organizationID string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("capacity:org:%s", organizationID)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate capacity cache")
	}
	return nil
}

// InvalidatePlanSetting drops the cached slot total for one plan setting.
func (s *CapacityService) InvalidatePlanSetting(ctx context.Context, planSettingsID string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("capacity:plan:%s", planSettingsID)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate capacity cache")
	}
	return nil
}

func (s *CapacityService) fromCache(ctx context.Context, key string) (bool, int) {
	if s.cache == nil {
		return false, 0
	}
	start := time.Now()
	var value int
	err := s.cache.Get(ctx, key, &value)
	hit := err == nil
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit, time.Since(start))
	}
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("capacity cache read failed", zap.String("key", key), zap.Error(err))
	}
	return hit, value
}

func (s *CapacityService) toCache(ctx context.Context, key string, value int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("capacity cache write failed", zap.String("key", key), zap.Error(err))
	}
}
