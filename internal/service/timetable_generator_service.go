package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nara-edu/timetable-api/internal/models"
	appErrors "github.com/nara-edu/timetable-api/pkg/errors"
)

// Completer is an opaque text-completion call against an external LLM
// provider. The service forwards one prompt and parses whatever text comes
// back; provider selection, retries and transport live behind this interface.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type generatorBindingReader interface {
	List(ctx context.Context, filter models.BindingFilter) ([]models.BindingDetail, int, error)
	FindByUUID(ctx context.Context, publicID string) (*models.Binding, error)
}

type generatorPreferenceReader interface {
	ListActiveByOwner(ctx context.Context, owner models.PreferenceOwner) ([]models.SchedulePreference, error)
}

type generatorOrganizationReader interface {
	FindByUUID(ctx context.Context, publicID string) (*models.Organization, error)
}

type proposalObserver interface {
	RecordProposal()
}

// GenerateTimetableRequest asks for a proposal for one organization scope.
type GenerateTimetableRequest struct {
	OrganizationUUID string  `json:"organization_uuid" validate:"required,uuid"`
	PlanSettingsID   *string `json:"plan_settings_id,omitempty"`
	Instructions     string  `json:"instructions"`
}

// ProposedSlot is one timetable cell parsed out of the completion.
type ProposedSlot struct {
	BindingUUID string `json:"binding_uuid"`
	PeriodID    string `json:"period_id"`
	DayOfWeek   int    `json:"day_of_week"`

	// Blocked flags slots the preference store forbids; the proposal keeps
	// them visible rather than silently dropping them.
	Blocked     bool   `json:"blocked,omitempty"`
	BlockReason string `json:"block_reason,omitempty"`
}

// TimetableProposal is a parsed, preference-gated generation result held in
// memory until it expires.
type TimetableProposal struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id"`
	Slots          []ProposedSlot `json:"slots"`
	RawCompletion  string         `json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
	ExpiresAt      time.Time      `json:"expires_at"`
}

type completionPayload struct {
	Slots []ProposedSlot `json:"slots"`
}

// TimetableGeneratorService is a thin wrapper around an external completion
// call: build prompt, forward, parse JSON, gate slots against the preference
// store. It performs no solving of its own.
type TimetableGeneratorService struct {
	organizations generatorOrganizationReader
	bindings      generatorBindingReader
	periods       preferencePeriodReader
	prefs         generatorPreferenceReader
	completer     Completer
	validator     *validator.Validate
	metrics       proposalObserver
	logger        *zap.Logger
	store         *proposalStore
}

// NewTimetableGeneratorService wires the generator.
func NewTimetableGeneratorService(
	organizations generatorOrganizationReader,
	bindings generatorBindingReader,
	periods preferencePeriodReader,
	prefs generatorPreferenceReader,
	completer Completer,
	validate *validator.Validate,
	metrics proposalObserver,
	logger *zap.Logger,
	proposalTTL time.Duration,
) *TimetableGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if proposalTTL <= 0 {
		proposalTTL = 30 * time.Minute
	}
	return &TimetableGeneratorService{
		organizations: organizations,
		bindings:      bindings,
		periods:       periods,
		prefs:         prefs,
		completer:     completer,
		validator:     validate,
		metrics:       metrics,
		logger:        logger,
		store:         newProposalStore(proposalTTL),
	}
}

// Generate forwards the prompt and returns the parsed, gated proposal.
func (s *TimetableGeneratorService) Generate(ctx context.Context, req GenerateTimetableRequest) (*TimetableProposal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}
	if s.completer == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "timetable generator is not configured")
	}

	org, err := s.organizations.FindByUUID(ctx, req.OrganizationUUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrOrganizationNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load organization")
	}

	prompt, err := s.buildPrompt(ctx, org, req)
	if err != nil {
		return nil, err
	}

	completion, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "timetable completion failed")
	}

	slots, err := parseCompletion(completion)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "completion was not a valid timetable payload")
	}

	s.gateSlots(ctx, slots)

	proposal := &TimetableProposal{
		ID:             uuid.NewString(),
		OrganizationID: org.ID,
		Slots:          slots,
		RawCompletion:  completion,
		CreatedAt:      time.Now().UTC(),
	}
	s.store.put(proposal)
	if s.metrics != nil {
		s.metrics.RecordProposal()
	}
	s.logger.Info("timetable proposal generated",
		zap.String("proposal_id", proposal.ID),
		zap.Int("slots", len(slots)))
	return proposal, nil
}

// GetProposal returns a previously generated, unexpired proposal.
func (s *TimetableGeneratorService) GetProposal(id string) (*TimetableProposal, error) {
	proposal, ok := s.store.get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	return proposal, nil
}

func (s *TimetableGeneratorService) buildPrompt(ctx context.Context, org *models.Organization, req GenerateTimetableRequest) (string, error) {
	filter := models.BindingFilter{OrganizationID: org.ID, PageSize: 200}
	if req.PlanSettingsID != nil {
		filter.PlanSettingsID = *req.PlanSettingsID
	}
	bindings, _, err := s.bindings.List(ctx, filter)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bindings")
	}
	periods, err := s.periods.ListByOrganization(ctx, org.ID)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period catalog")
	}

	var b strings.Builder
	b.WriteString("You are a school timetabling assistant. Produce a weekly timetable as JSON only,\n")
	b.WriteString(`matching {"slots":[{"binding_uuid":"...","period_id":"...","day_of_week":1}]}.` + "\n")
	b.WriteString("Days are 1=Monday..7=Sunday. Schedule each binding exactly its periods_per_week times.\n\n")

	b.WriteString("Periods:\n")
	for _, period := range periods {
		if !period.IsTeaching() {
			continue
		}
		fmt.Fprintf(&b, "- id=%s number=%d days=%v\n", period.ID, period.PeriodNumber, period.DayNumbers())
	}

	b.WriteString("\nBindings:\n")
	for _, binding := range bindings {
		target := ""
		if binding.ClassName != nil {
			target = "class " + *binding.ClassName
		} else if binding.ClassBandName != nil {
			target = "band " + *binding.ClassBandName
		}
		fmt.Fprintf(&b, "- uuid=%s teacher=%s subject=%s %s room=%s periods_per_week=%d fixed=%t priority=%d\n",
			binding.UUID, binding.TeacherName, binding.SubjectName, target, binding.RoomName,
			binding.PeriodsPerWeek, binding.IsFixed, binding.Priority)
	}

	if req.Instructions != "" {
		b.WriteString("\nAdditional instructions: " + req.Instructions + "\n")
	}
	return b.String(), nil
}

// gateSlots marks slots the preference store forbids: a teacher with
// must-not-schedule or cannot-teach on the slot blocks it.
func (s *TimetableGeneratorService) gateSlots(ctx context.Context, slots []ProposedSlot) {
	prefCache := make(map[string][]models.SchedulePreference)
	for i := range slots {
		binding, err := s.bindings.FindByUUID(ctx, slots[i].BindingUUID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				s.logger.Warn("failed to resolve proposed binding", zap.String("uuid", slots[i].BindingUUID), zap.Error(err))
			}
			slots[i].Blocked = true
			slots[i].BlockReason = "unknown binding"
			continue
		}

		prefs, ok := prefCache[binding.TeacherID]
		if !ok {
			owner := models.PreferenceOwner{Kind: models.OwnerTeacher, ID: binding.TeacherID}
			prefs, err = s.prefs.ListActiveByOwner(ctx, owner)
			if err != nil {
				s.logger.Warn("failed to load teacher preferences", zap.String("teacher_id", binding.TeacherID), zap.Error(err))
				prefs = nil
			}
			prefCache[binding.TeacherID] = prefs
		}

		for _, pref := range prefs {
			if pref.PeriodID != slots[i].PeriodID || pref.DayOfWeek != slots[i].DayOfWeek {
				continue
			}
			if pref.SchedulingDirective() == models.MustNotSchedule {
				slots[i].Blocked = true
				slots[i].BlockReason = "teacher must not be scheduled in this slot"
			} else if pref.TeachingDirective() == models.CannotTeach {
				slots[i].Blocked = true
				slots[i].BlockReason = "teacher cannot teach in this slot"
			}
		}
	}
}

// parseCompletion extracts the JSON payload, tolerating markdown fences
// around it.
func parseCompletion(raw string) ([]ProposedSlot, error) {
	text := strings.TrimSpace(raw)
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+3:]
		text = strings.TrimPrefix(text, "json")
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
		text = strings.TrimSpace(text)
	}
	var payload completionPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}
	if len(payload.Slots) == 0 {
		return nil, fmt.Errorf("completion contained no slots")
	}
	for _, slot := range payload.Slots {
		if slot.BindingUUID == "" || slot.PeriodID == "" || slot.DayOfWeek < 1 || slot.DayOfWeek > 7 {
			return nil, fmt.Errorf("completion contained a malformed slot")
		}
	}
	return payload.Slots, nil
}

// proposalStore keeps generated proposals in memory until they expire.
type proposalStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	proposals map[string]*TimetableProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{ttl: ttl, proposals: make(map[string]*TimetableProposal)}
}

func (p *proposalStore) put(proposal *TimetableProposal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	proposal.ExpiresAt = proposal.CreatedAt.Add(p.ttl)
	p.proposals[proposal.ID] = proposal
	p.evictLocked()
}

func (p *proposalStore) get(id string) (*TimetableProposal, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evictLocked()
	proposal, ok := p.proposals[id]
	return proposal, ok
}

func (p *proposalStore) evictLocked() {
	now := time.Now().UTC()
	for id, proposal := range p.proposals {
		if now.After(proposal.ExpiresAt) {
			delete(p.proposals, id)
		}
	}
}
