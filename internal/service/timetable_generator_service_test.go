package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nara-edu/timetable-api/internal/models"
	appErrors "github.com/nara-edu/timetable-api/pkg/errors"
)

type organizationReaderStub struct {
	orgs map[string]*models.Organization
}

func (s *organizationReaderStub) FindByUUID(ctx context.Context, publicID string) (*models.Organization, error) {
	if org, ok := s.orgs[publicID]; ok {
		return org, nil
	}
	return nil, sql.ErrNoRows
}

type generatorBindingsStub struct {
	details []models.BindingDetail
	byUUID  map[string]*models.Binding
}

func (s *generatorBindingsStub) List(ctx context.Context, filter models.BindingFilter) ([]models.BindingDetail, int, error) {
	return s.details, len(s.details), nil
}

func (s *generatorBindingsStub) FindByUUID(ctx context.Context, publicID string) (*models.Binding, error) {
	if binding, ok := s.byUUID[publicID]; ok {
		return binding, nil
	}
	return nil, sql.ErrNoRows
}

type generatorPrefsStub struct {
	byOwner map[string][]models.SchedulePreference
}

func (s *generatorPrefsStub) ListActiveByOwner(ctx context.Context, owner models.PreferenceOwner) ([]models.SchedulePreference, error) {
	return s.byOwner[owner.ID], nil
}

type completerStub struct {
	response string
	err      error
	prompts  []string
}

func (s *completerStub) Complete(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

type proposalCounterStub struct {
	count int
}

func (s *proposalCounterStub) RecordProposal() {
	s.count++
}

const orgUUID = "11111111-1111-1111-1111-111111111111"

func generatorFixture(completer Completer) (*TimetableGeneratorService, *generatorBindingsStub, *generatorPrefsStub, *proposalCounterStub) {
	orgs := &organizationReaderStub{orgs: map[string]*models.Organization{
		orgUUID: {ID: "org-1", Name: "Nara North"},
	}}
	bindings := &generatorBindingsStub{byUUID: map[string]*models.Binding{
		"binding-uuid-1": {ID: "binding-1", UUID: "binding-uuid-1", TeacherID: "teacher-1"},
	}}
	prefs := &generatorPrefsStub{byOwner: map[string][]models.SchedulePreference{}}
	metrics := &proposalCounterStub{}
	svc := NewTimetableGeneratorService(orgs, bindings, &periodReaderStub{}, prefs, completer, nil, metrics, nil, time.Minute)
	return svc, bindings, prefs, metrics
}

func TestGenerateParsesFencedCompletion(t *testing.T) {
	completer := &completerStub{response: "Here you go:\n```json\n" +
		`{"slots":[{"binding_uuid":"binding-uuid-1","period_id":"period-1","day_of_week":2}]}` +
		"\n```"}
	svc, _, _, metrics := generatorFixture(completer)

	proposal, err := svc.Generate(context.Background(), GenerateTimetableRequest{OrganizationUUID: orgUUID})
	require.NoError(t, err)
	require.Len(t, proposal.Slots, 1)
	assert.Equal(t, "binding-uuid-1", proposal.Slots[0].BindingUUID)
	assert.False(t, proposal.Slots[0].Blocked)
	assert.Equal(t, "org-1", proposal.OrganizationID)
	assert.Equal(t, 1, metrics.count)

	fetched, err := svc.GetProposal(proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, proposal.ID, fetched.ID)
}

func TestGenerateBlocksForbiddenSlots(t *testing.T) {
	completer := &completerStub{response: `{"slots":[` +
		`{"binding_uuid":"binding-uuid-1","period_id":"period-1","day_of_week":2},` +
		`{"binding_uuid":"binding-uuid-1","period_id":"period-2","day_of_week":3}]}`}
	svc, _, prefs, _ := generatorFixture(completer)
	prefs.byOwner["teacher-1"] = []models.SchedulePreference{
		{PeriodID: "period-1", DayOfWeek: 2, MustNotScheduleClass: true},
		{PeriodID: "period-2", DayOfWeek: 3, CannotTeach: true},
	}

	proposal, err := svc.Generate(context.Background(), GenerateTimetableRequest{OrganizationUUID: orgUUID})
	require.NoError(t, err)
	require.Len(t, proposal.Slots, 2)
	assert.True(t, proposal.Slots[0].Blocked)
	assert.Equal(t, "teacher must not be scheduled in this slot", proposal.Slots[0].BlockReason)
	assert.True(t, proposal.Slots[1].Blocked)
	assert.Equal(t, "teacher cannot teach in this slot", proposal.Slots[1].BlockReason)
}

func TestGenerateBlocksUnknownBinding(t *testing.T) {
	completer := &completerStub{response: `{"slots":[{"binding_uuid":"ghost","period_id":"period-1","day_of_week":1}]}`}
	svc, _, _, _ := generatorFixture(completer)

	proposal, err := svc.Generate(context.Background(), GenerateTimetableRequest{OrganizationUUID: orgUUID})
	require.NoError(t, err)
	require.Len(t, proposal.Slots, 1)
	assert.True(t, proposal.Slots[0].Blocked)
	assert.Equal(t, "unknown binding", proposal.Slots[0].BlockReason)
}

func TestGenerateRejectsMalformedCompletion(t *testing.T) {
	cases := map[string]string{
		"not json":    "sorry, I cannot do that",
		"empty slots": `{"slots":[]}`,
		"bad day":     `{"slots":[{"binding_uuid":"b","period_id":"p","day_of_week":9}]}`,
		"missing ids": `{"slots":[{"day_of_week":1}]}`,
	}
	for name, response := range cases {
		t.Run(name, func(t *testing.T) {
			svc, _, _, _ := generatorFixture(&completerStub{response: response})
			_, err := svc.Generate(context.Background(), GenerateTimetableRequest{OrganizationUUID: orgUUID})
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestGenerateWithoutCompleter(t *testing.T) {
	svc, _, _, _ := generatorFixture(nil)

	_, err := svc.Generate(context.Background(), GenerateTimetableRequest{OrganizationUUID: orgUUID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestGenerateUnknownOrganization(t *testing.T) {
	svc, _, _, _ := generatorFixture(&completerStub{response: "{}"})

	_, err := svc.Generate(context.Background(), GenerateTimetableRequest{OrganizationUUID: "99999999-9999-9999-9999-999999999999"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOrganizationNotFound.Code, appErrors.FromError(err).Code)
}

func TestGetProposalMiss(t *testing.T) {
	svc, _, _, _ := generatorFixture(&completerStub{})

	_, err := svc.GetProposal("missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
