package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nara-edu/timetable-api/internal/models"
	appErrors "github.com/nara-edu/timetable-api/pkg/errors"
)

type bindingWriterStub struct {
	byUUID  map[string]*models.Binding
	created []*models.Binding
	updated []*models.Binding
	deleted []string
}

func newBindingWriterStub() *bindingWriterStub {
	return &bindingWriterStub{byUUID: make(map[string]*models.Binding)}
}

func (s *bindingWriterStub) FindByID(ctx context.Context, id string) (*models.Binding, error) {
	for _, binding := range s.byUUID {
		if binding.ID == id {
			return binding, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *bindingWriterStub) FindByUUID(ctx context.Context, publicID string) (*models.Binding, error) {
	if binding, ok := s.byUUID[publicID]; ok {
		return binding, nil
	}
	return nil, sql.ErrNoRows
}

func (s *bindingWriterStub) List(ctx context.Context, filter models.BindingFilter) ([]models.BindingDetail, int, error) {
	return nil, 0, nil
}

func (s *bindingWriterStub) Create(ctx context.Context, binding *models.Binding) error {
	binding.ID = fmt.Sprintf("binding-%d", len(s.created)+1)
	binding.UUID = fmt.Sprintf("uuid-%d", len(s.created)+1)
	s.created = append(s.created, binding)
	return nil
}

func (s *bindingWriterStub) Update(ctx context.Context, binding *models.Binding) error {
	s.updated = append(s.updated, binding)
	return nil
}

func (s *bindingWriterStub) SoftDelete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type admissionStub struct {
	resolved *ResolvedBinding
	err      error
	calls    int
}

func (s *admissionStub) ValidateCreate(ctx context.Context, req BindingRequest) (*ResolvedBinding, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := *s.resolved
	out.PeriodsPerWeek = req.PeriodsPerWeek
	return &out, nil
}

func (s *admissionStub) ValidateUpdate(ctx context.Context, req BindingRequest, existingID string) (*ResolvedBinding, error) {
	return s.ValidateCreate(ctx, req)
}

func validBindingRequest() BindingRequest {
	classUUID := "22222222-2222-2222-2222-222222222222"
	return BindingRequest{
		OrganizationUUID: "11111111-1111-1111-1111-111111111111",
		TeacherUUID:      "33333333-3333-3333-3333-333333333333",
		SubjectUUID:      "44444444-4444-4444-4444-444444444444",
		RoomUUID:         "55555555-5555-5555-5555-555555555555",
		ClassUUID:        &classUUID,
		PeriodsPerWeek:   4,
	}
}

func defaultAdmission() *admissionStub {
	classID := "class-1"
	return &admissionStub{resolved: &ResolvedBinding{
		OrganizationID: "org-1",
		TeacherID:      "teacher-1",
		SubjectID:      "subject-1",
		RoomID:         "room-1",
		ClassID:        &classID,
	}}
}

func TestBindingServiceCreate(t *testing.T) {
	writer := newBindingWriterStub()
	svc := NewBindingService(writer, defaultAdmission(), nil, nil, nil)

	binding, err := svc.Create(context.Background(), validBindingRequest())
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", binding.TeacherID)
	assert.Equal(t, 4, binding.PeriodsPerWeek)
	assert.NotEmpty(t, binding.ID)
	require.Len(t, writer.created, 1)
}

func TestBindingServiceCreateRejectsBothClassAndBand(t *testing.T) {
	admission := defaultAdmission()
	svc := NewBindingService(newBindingWriterStub(), admission, nil, nil, nil)

	req := validBindingRequest()
	bandUUID := "66666666-6666-6666-6666-666666666666"
	req.ClassBandUUID = &bandUUID
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, admission.calls)
}

func TestBindingServiceCreateRejectsNeitherClassNorBand(t *testing.T) {
	svc := NewBindingService(newBindingWriterStub(), defaultAdmission(), nil, nil, nil)

	req := validBindingRequest()
	req.ClassUUID = nil
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBindingServiceCreatePropagatesAdmissionFailure(t *testing.T) {
	writer := newBindingWriterStub()
	admission := defaultAdmission()
	admission.err = appErrors.Clone(appErrors.ErrTeacherExceedsAvailableSchedules, "")
	svc := NewBindingService(writer, admission, nil, nil, nil)

	_, err := svc.Create(context.Background(), validBindingRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTeacherExceedsAvailableSchedules.Code, appErrors.FromError(err).Code)
	assert.Empty(t, writer.created)
}

func TestBindingServiceUpdateKeepsIdentity(t *testing.T) {
	writer := newBindingWriterStub()
	writer.byUUID["uuid-1"] = &models.Binding{ID: "binding-1", UUID: "uuid-1", PeriodsPerWeek: 2}
	svc := NewBindingService(writer, defaultAdmission(), nil, nil, nil)

	req := validBindingRequest()
	req.PeriodsPerWeek = 6
	binding, err := svc.Update(context.Background(), "uuid-1", req)
	require.NoError(t, err)
	assert.Equal(t, "binding-1", binding.ID)
	assert.Equal(t, "uuid-1", binding.UUID)
	assert.Equal(t, 6, binding.PeriodsPerWeek)
	require.Len(t, writer.updated, 1)
}

func TestBindingServiceUpdateUnknownUUID(t *testing.T) {
	svc := NewBindingService(newBindingWriterStub(), defaultAdmission(), nil, nil, nil)

	_, err := svc.Update(context.Background(), "missing", validBindingRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBindingServiceDelete(t *testing.T) {
	writer := newBindingWriterStub()
	writer.byUUID["uuid-1"] = &models.Binding{ID: "binding-1", UUID: "uuid-1"}
	svc := NewBindingService(writer, defaultAdmission(), nil, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "uuid-1"))
	assert.Equal(t, []string{"binding-1"}, writer.deleted)

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRequestScopeKeysCoverEveryScope(t *testing.T) {
	req := validBindingRequest()
	plan := "plan-1"
	req.PlanSettingsID = &plan

	keys := requestScopeKeys(req)
	require.Len(t, keys, 4)
	assert.Contains(t, keys, fmt.Sprintf("teacher|%s|plan-1", req.TeacherUUID))
	assert.Contains(t, keys, fmt.Sprintf("room|%s|plan-1", req.RoomUUID))
	assert.Contains(t, keys, fmt.Sprintf("class|%s|plan-1", *req.ClassUUID))
}
