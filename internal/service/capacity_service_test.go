package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nara-edu/timetable-api/internal/models"
	"github.com/nara-edu/timetable-api/pkg/config"
	appErrors "github.com/nara-edu/timetable-api/pkg/errors"
)

type planSettingReaderStub struct {
	byID      map[string]*models.PlanSetting
	byOrg     map[string]*models.PlanSetting
	byOrgErr  error
	byIDError error
}

func (s *planSettingReaderStub) FindByID(ctx context.Context, id string) (*models.PlanSetting, error) {
	if s.byIDError != nil {
		return nil, s.byIDError
	}
	if setting, ok := s.byID[id]; ok {
		return setting, nil
	}
	return nil, sql.ErrNoRows
}

func (s *planSettingReaderStub) FindDefaultByOrganization(ctx context.Context, organizationID string) (*models.PlanSetting, error) {
	if s.byOrgErr != nil {
		return nil, s.byOrgErr
	}
	if setting, ok := s.byOrg[organizationID]; ok {
		return setting, nil
	}
	return nil, sql.ErrNoRows
}

type periodReaderStub struct {
	periods []models.Period
	err     error
}

func (s *periodReaderStub) ListByOrganization(ctx context.Context, organizationID string) ([]models.Period, error) {
	return s.periods, s.err
}

type cacheStub struct {
	values map[string]int
	sets   map[string]int
}

func newCacheStub() *cacheStub {
	return &cacheStub{values: make(map[string]int), sets: make(map[string]int)}
}

func (s *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	value, ok := s.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*int)) = value
	return nil
}

func (s *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s.sets[key] = value.(int)
	return nil
}

func (s *cacheStub) Invalidate(ctx context.Context, pattern string) error {
	delete(s.values, pattern)
	return nil
}

func teachingPeriods(n int) []models.Period {
	periods := make([]models.Period, 0, n+2)
	for i := 0; i < n; i++ {
		periods = append(periods, models.Period{ID: "p", PeriodNumber: i + 1, PeriodType: "Regular"})
	}
	periods = append(periods,
		models.Period{PeriodType: models.PeriodTypeBreak},
		models.Period{PeriodType: models.PeriodTypeLunch},
	)
	return periods
}

func TestCapacityServiceDefaultsToFortyForUnknownOrganization(t *testing.T) {
	svc := NewCapacityService(&planSettingReaderStub{}, &periodReaderStub{}, nil, config.SchedulingConfig{}, nil, nil)

	capacity, err := svc.MaxTeachingPeriodsPerWeek(context.Background(), "missing-org")
	require.NoError(t, err)
	assert.Equal(t, 40, capacity)
}

func TestCapacityServiceCountsTeachingPeriodsOnly(t *testing.T) {
	planSettings := &planSettingReaderStub{byOrg: map[string]*models.PlanSetting{
		"org-1": {ID: "plan-1", DaysPerWeek: 6},
	}}
	periods := &periodReaderStub{periods: teachingPeriods(7)}
	svc := NewCapacityService(planSettings, periods, nil, config.SchedulingConfig{}, nil, nil)

	capacity, err := svc.MaxTeachingPeriodsPerWeek(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, 42, capacity)
}

func TestCapacityServiceFallsBackToPlanSettingPeriodsPerDay(t *testing.T) {
	planSettings := &planSettingReaderStub{byOrg: map[string]*models.PlanSetting{
		"org-1": {ID: "plan-1", DaysPerWeek: 5, PeriodsPerDay: 6},
	}}
	svc := NewCapacityService(planSettings, &periodReaderStub{}, nil, config.SchedulingConfig{}, nil, nil)

	capacity, err := svc.MaxTeachingPeriodsPerWeek(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, 30, capacity)
}

func TestCapacityServiceTotalSlots(t *testing.T) {
	planSettings := &planSettingReaderStub{byID: map[string]*models.PlanSetting{
		"plan-1": {ID: "plan-1", DaysPerWeek: 6, PeriodsPerDay: 7},
	}}
	svc := NewCapacityService(planSettings, &periodReaderStub{}, nil, config.SchedulingConfig{}, nil, nil)

	slots, err := svc.TotalSlots(context.Background(), "plan-1")
	require.NoError(t, err)
	assert.Equal(t, 42, slots)

	slots, err = svc.TotalSlots(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, 40, slots)
}

func TestCapacityServiceUsesCache(t *testing.T) {
	cache := newCacheStub()
	cache.values["capacity:plan:plan-1"] = 35
	planSettings := &planSettingReaderStub{byIDError: sql.ErrConnDone}
	svc := NewCapacityService(planSettings, &periodReaderStub{}, cache, config.SchedulingConfig{}, nil, nil)

	slots, err := svc.TotalSlots(context.Background(), "plan-1")
	require.NoError(t, err)
	assert.Equal(t, 35, slots)
}

func TestCapacityServiceWritesThroughCache(t *testing.T) {
	cache := newCacheStub()
	planSettings := &planSettingReaderStub{byID: map[string]*models.PlanSetting{
		"plan-1": {ID: "plan-1", DaysPerWeek: 5, PeriodsPerDay: 8},
	}}
	svc := NewCapacityService(planSettings, &periodReaderStub{}, cache, config.SchedulingConfig{}, nil, nil)

	slots, err := svc.TotalSlots(context.Background(), "plan-1")
	require.NoError(t, err)
	assert.Equal(t, 40, slots)
	assert.Equal(t, 40, cache.sets["capacity:plan:plan-1"])
}

func TestCapacityServiceConfiguredFallbacks(t *testing.T) {
	cfg := config.SchedulingConfig{DefaultDaysPerWeek: 4, DefaultPeriodsPerDay: 9}
	svc := NewCapacityService(&planSettingReaderStub{}, &periodReaderStub{}, nil, cfg, nil, nil)

	slots, err := svc.TotalSlots(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, 36, slots)
}
