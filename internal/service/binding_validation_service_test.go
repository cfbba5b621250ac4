package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nara-edu/timetable-api/internal/models"
	appErrors "github.com/nara-edu/timetable-api/pkg/errors"
)

type resolverStub struct {
	resolved *ResolvedBinding
	err      error
}

func (s *resolverStub) Resolve(ctx context.Context, req BindingRequest) (*ResolvedBinding, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := *s.resolved
	out.PeriodsPerWeek = req.PeriodsPerWeek
	return &out, nil
}

type bindingCountsStub struct {
	tripleClassCount int
	tripleBandCount  int
	classSubject     int
	bandSubject      int
	byID             map[string]*models.Binding
}

func (s *bindingCountsStub) CountByTeacherSubjectClass(ctx context.Context, teacherID, subjectID, classID string) (int, error) {
	return s.tripleClassCount, nil
}

func (s *bindingCountsStub) CountByTeacherSubjectClassBand(ctx context.Context, teacherID, subjectID, classBandID string) (int, error) {
	return s.tripleBandCount, nil
}

func (s *bindingCountsStub) CountByClassSubject(ctx context.Context, classID, subjectID, excludeID string) (int, error) {
	return s.classSubject, nil
}

func (s *bindingCountsStub) CountByClassBandSubject(ctx context.Context, classBandID, subjectID, excludeID string) (int, error) {
	return s.bandSubject, nil
}

func (s *bindingCountsStub) FindByID(ctx context.Context, id string) (*models.Binding, error) {
	if binding, ok := s.byID[id]; ok {
		return binding, nil
	}
	return nil, sql.ErrNoRows
}

type rosterStub struct {
	rooms   map[string]*models.Room
	classes map[string]*models.Class
}

func (s *rosterStub) FindRoomByID(ctx context.Context, id string) (*models.Room, error) {
	if room, ok := s.rooms[id]; ok {
		return room, nil
	}
	return nil, sql.ErrNoRows
}

func (s *rosterStub) FindClassByID(ctx context.Context, id string) (*models.Class, error) {
	if class, ok := s.classes[id]; ok {
		return class, nil
	}
	return nil, sql.ErrNoRows
}

type workloadStub struct {
	committed map[models.ScopeKind]int
	calls     []models.Scope
}

func (s *workloadStub) CommittedPeriods(ctx context.Context, scope models.Scope) (int, error) {
	s.calls = append(s.calls, scope)
	return s.committed[scope.Kind], nil
}

type slotsStub struct {
	total int
}

func (s *slotsStub) TotalSlots(ctx context.Context, planSettingsID string) (int, error) {
	return s.total, nil
}

type outcomeRecorderStub struct {
	codes []string
}

func (s *outcomeRecorderStub) RecordValidationOutcome(code string) {
	s.codes = append(s.codes, code)
}

func validationFixture() (*resolverStub, *bindingCountsStub, *workloadStub, *slotsStub, *outcomeRecorderStub, BindingRequest) {
	classID := "class-1"
	plan := "plan-1"
	resolver := &resolverStub{resolved: &ResolvedBinding{
		OrganizationID: "org-1",
		TeacherID:      "teacher-1",
		SubjectID:      "subject-1",
		RoomID:         "room-1",
		ClassID:        &classID,
		PlanSettingsID: &plan,
	}}
	counts := &bindingCountsStub{byID: map[string]*models.Binding{}}
	workload := &workloadStub{committed: map[models.ScopeKind]int{}}
	slots := &slotsStub{total: 40}
	metrics := &outcomeRecorderStub{}
	classUUID := "22222222-2222-2222-2222-222222222222"
	req := BindingRequest{
		OrganizationUUID: "11111111-1111-1111-1111-111111111111",
		ClassUUID:        &classUUID,
		PlanSettingsID:   &plan,
		PeriodsPerWeek:   2,
	}
	return resolver, counts, workload, slots, metrics, req
}

func newValidationService(resolver *resolverStub, counts *bindingCountsStub, workload *workloadStub, slots *slotsStub, metrics *outcomeRecorderStub) *BindingValidationService {
	return NewBindingValidationService(resolver, counts, &rosterStub{}, workload, slots, metrics, nil)
}

func TestValidateCreateHappyPath(t *testing.T) {
	resolver, counts, workload, slots, metrics, req := validationFixture()
	workload.committed[models.ScopeTeacher] = 38
	svc := newValidationService(resolver, counts, workload, slots, metrics)

	resolved, err := svc.ValidateCreate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", resolved.TeacherID)
	assert.Equal(t, []string{"OK"}, metrics.codes)
}

func TestValidateCreateRejectsDuplicateTriple(t *testing.T) {
	resolver, counts, workload, slots, metrics, req := validationFixture()
	counts.tripleClassCount = 1
	svc := newValidationService(resolver, counts, workload, slots, metrics)

	_, err := svc.ValidateCreate(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDuplicateAssignment.Code, appErr.Code)
	assert.Equal(t, []string{appErrors.ErrDuplicateAssignment.Code}, metrics.codes)
}

func TestValidateCreateRejectsClassSubjectDuplicate(t *testing.T) {
	resolver, counts, workload, slots, metrics, req := validationFixture()
	counts.classSubject = 1
	svc := newValidationService(resolver, counts, workload, slots, metrics)

	_, err := svc.ValidateCreate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrClassSubjectDuplicate.Code, appErrors.FromError(err).Code)
}

func TestValidateCreateTeacherAtTheBoundary(t *testing.T) {
	resolver, counts, workload, slots, metrics, req := validationFixture()
	workload.committed[models.ScopeTeacher] = 38
	svc := newValidationService(resolver, counts, workload, slots, metrics)

	req.PeriodsPerWeek = 2
	_, err := svc.ValidateCreate(context.Background(), req)
	assert.NoError(t, err)

	req.PeriodsPerWeek = 3
	_, err = svc.ValidateCreate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTeacherExceedsAvailableSchedules.Code, appErrors.FromError(err).Code)
}

func TestValidateCreateRoomOverflow(t *testing.T) {
	resolver, counts, workload, slots, metrics, req := validationFixture()
	workload.committed[models.ScopeRoom] = 40
	svc := newValidationService(resolver, counts, workload, slots, metrics)

	_, err := svc.ValidateCreate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRoomExceedsAvailableSchedules.Code, appErrors.FromError(err).Code)
}

func TestValidateCreateSkipsAvailabilityWithoutPlanSetting(t *testing.T) {
	resolver, counts, workload, slots, metrics, req := validationFixture()
	resolver.resolved.PlanSettingsID = nil
	req.PlanSettingsID = nil
	workload.committed[models.ScopeTeacher] = 400
	svc := newValidationService(resolver, counts, workload, slots, metrics)

	_, err := svc.ValidateCreate(context.Background(), req)
	assert.NoError(t, err)
	for _, scope := range workload.calls {
		assert.NotEqual(t, models.ScopeTeacher, scope.Kind)
		assert.NotEqual(t, models.ScopeRoom, scope.Kind)
	}
}

func TestValidateUpdateSubtractsPriorContribution(t *testing.T) {
	resolver, counts, workload, slots, metrics, req := validationFixture()
	workload.committed[models.ScopeTeacher] = 40
	counts.byID["binding-1"] = &models.Binding{ID: "binding-1", PeriodsPerWeek: 4}
	svc := newValidationService(resolver, counts, workload, slots, metrics)

	req.PeriodsPerWeek = 4
	_, err := svc.ValidateUpdate(context.Background(), req, "binding-1")
	assert.NoError(t, err)

	req.PeriodsPerWeek = 5
	_, err = svc.ValidateUpdate(context.Background(), req, "binding-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTeacherExceedsAvailableSchedules.Code, appErrors.FromError(err).Code)
}

func TestValidateUpdateSkipsTripleDuplicateCheck(t *testing.T) {
	resolver, counts, workload, slots, metrics, req := validationFixture()
	counts.tripleClassCount = 1
	counts.byID["binding-1"] = &models.Binding{ID: "binding-1", PeriodsPerWeek: 2}
	svc := newValidationService(resolver, counts, workload, slots, metrics)

	_, err := svc.ValidateUpdate(context.Background(), req, "binding-1")
	assert.NoError(t, err)
}

func TestValidateUpdateRequiresExistingID(t *testing.T) {
	resolver, counts, workload, slots, metrics, req := validationFixture()
	svc := newValidationService(resolver, counts, workload, slots, metrics)

	_, err := svc.ValidateUpdate(context.Background(), req, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestValidateCreatePropagatesResolverFailure(t *testing.T) {
	resolver := &resolverStub{err: appErrors.Clone(appErrors.ErrOrganizationNotFound, "")}
	counts := &bindingCountsStub{byID: map[string]*models.Binding{}}
	metrics := &outcomeRecorderStub{}
	svc := newValidationService(resolver, counts, &workloadStub{committed: map[models.ScopeKind]int{}}, &slotsStub{total: 40}, metrics)

	_, err := svc.ValidateCreate(context.Background(), BindingRequest{OrganizationUUID: "11111111-1111-1111-1111-111111111111", PeriodsPerWeek: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOrganizationNotFound.Code, appErrors.FromError(err).Code)
	assert.Equal(t, []string{appErrors.ErrOrganizationNotFound.Code}, metrics.codes)
}

func TestValidateCreateClassBandDuplicate(t *testing.T) {
	resolver, counts, workload, slots, metrics, req := validationFixture()
	bandID := "band-1"
	resolver.resolved.ClassID = nil
	resolver.resolved.ClassBandID = &bandID
	counts.bandSubject = 1
	bandUUID := "33333333-3333-3333-3333-333333333333"
	req.ClassUUID = nil
	req.ClassBandUUID = &bandUUID
	svc := newValidationService(resolver, counts, workload, slots, metrics)

	_, err := svc.ValidateCreate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrClassBandSubjectDuplicate.Code, appErrors.FromError(err).Code)
}
