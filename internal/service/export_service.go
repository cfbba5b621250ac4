package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/nara-edu/timetable-api/internal/models"
	appErrors "github.com/nara-edu/timetable-api/pkg/errors"
	"github.com/nara-edu/timetable-api/pkg/export"
)

type exportBindingReader interface {
	List(ctx context.Context, filter models.BindingFilter) ([]models.BindingDetail, int, error)
}

// ExportService renders an organization's binding roster as CSV or PDF.
type ExportService struct {
	bindings exportBindingReader
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(bindings exportBindingReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		bindings: bindings,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// BindingsCSV renders the roster as CSV bytes.
func (s *ExportService) BindingsCSV(ctx context.Context, organizationID string) ([]byte, error) {
	dataset, err := s.dataset(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(*dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}
	return payload, nil
}

// BindingsPDF renders the roster as PDF bytes.
func (s *ExportService) BindingsPDF(ctx context.Context, organizationID string) ([]byte, error) {
	dataset, err := s.dataset(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	payload, err := s.pdf.Render(*dataset, "Binding roster")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
	}
	return payload, nil
}

func (s *ExportService) dataset(ctx context.Context, organizationID string) (*export.Dataset, error) {
	bindings, _, err := s.bindings.List(ctx, models.BindingFilter{OrganizationID: organizationID, PageSize: 200})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bindings for export")
	}

	dataset := &export.Dataset{
		Headers: []string{"Teacher", "Subject", "Target", "Room", "Periods/Week", "Fixed", "Priority"},
	}
	for _, binding := range bindings {
		target := ""
		if binding.ClassName != nil {
			target = *binding.ClassName
		} else if binding.ClassBandName != nil {
			target = fmt.Sprintf("%s (band)", *binding.ClassBandName)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Teacher":      binding.TeacherName,
			"Subject":      binding.SubjectName,
			"Target":       target,
			"Room":         binding.RoomName,
			"Periods/Week": strconv.Itoa(binding.PeriodsPerWeek),
			"Fixed":        strconv.FormatBool(binding.IsFixed),
			"Priority":     strconv.Itoa(binding.Priority),
		})
	}
	return dataset, nil
}
