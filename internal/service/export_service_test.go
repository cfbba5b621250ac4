package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nara-edu/timetable-api/internal/models"
)

type exportBindingsStub struct {
	details []models.BindingDetail
	filters []models.BindingFilter
}

func (s *exportBindingsStub) List(ctx context.Context, filter models.BindingFilter) ([]models.BindingDetail, int, error) {
	s.filters = append(s.filters, filter)
	return s.details, len(s.details), nil
}

func exportFixtureRows() []models.BindingDetail {
	className := "1A"
	bandName := "Upper"
	return []models.BindingDetail{
		{
			Binding:     models.Binding{PeriodsPerWeek: 4, IsFixed: true, Priority: 1},
			TeacherName: "Sato",
			SubjectName: "Math",
			RoomName:    "101",
			ClassName:   &className,
		},
		{
			Binding:       models.Binding{PeriodsPerWeek: 2},
			TeacherName:   "Tanaka",
			SubjectName:   "Music",
			RoomName:      "Hall",
			ClassBandName: &bandName,
		},
	}
}

func TestExportBindingsCSV(t *testing.T) {
	bindings := &exportBindingsStub{details: exportFixtureRows()}
	svc := NewExportService(bindings, nil)

	payload, err := svc.BindingsCSV(context.Background(), "org-1")
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace(payload), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Equal(t, "Teacher,Subject,Target,Room,Periods/Week,Fixed,Priority", string(bytes.TrimSpace(lines[0])))
	assert.Contains(t, string(lines[1]), "Sato")
	assert.Contains(t, string(lines[1]), "1A")
	assert.Contains(t, string(lines[2]), "Upper (band)")

	require.Len(t, bindings.filters, 1)
	assert.Equal(t, "org-1", bindings.filters[0].OrganizationID)
}

func TestExportBindingsCSVEmptyRoster(t *testing.T) {
	svc := NewExportService(&exportBindingsStub{}, nil)

	payload, err := svc.BindingsCSV(context.Background(), "org-1")
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(payload), []byte("\n"))
	assert.Len(t, lines, 1)
}

func TestExportBindingsPDF(t *testing.T) {
	svc := NewExportService(&exportBindingsStub{details: exportFixtureRows()}, nil)

	payload, err := svc.BindingsPDF(context.Background(), "org-1")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}
