package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/nara-edu/timetable-api/pkg/errors"
	"github.com/nara-edu/timetable-api/pkg/jobs"
	"github.com/nara-edu/timetable-api/pkg/storage"
)

// ArchiveStatus tracks the lifecycle of a queued export job.
type ArchiveStatus string

const (
	ArchivePending   ArchiveStatus = "pending"
	ArchiveCompleted ArchiveStatus = "completed"
	ArchiveFailed    ArchiveStatus = "failed"
)

// ArchiveJob is the visible state of one queued roster export.
type ArchiveJob struct {
	ID             string        `json:"id"`
	OrganizationID string        `json:"organization_id"`
	Format         string        `json:"format"`
	Status         ArchiveStatus `json:"status"`
	FileName       string        `json:"file_name,omitempty"`
	DownloadToken  string        `json:"download_token,omitempty"`
	TokenExpiresAt *time.Time    `json:"token_expires_at,omitempty"`
	Error          string        `json:"error,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
}

type archiveRenderer interface {
	BindingsCSV(ctx context.Context, organizationID string) ([]byte, error)
	BindingsPDF(ctx context.Context, organizationID string) ([]byte, error)
}

// ExportArchiveService renders roster exports in the background, persists
// them on disk and hands out signed download tokens.
type ExportArchiveService struct {
	renderer  archiveRenderer
	store     *storage.LocalStorage
	signer    *storage.DownloadSigner
	queue     *jobs.Queue
	retention time.Duration
	logger    *zap.Logger

	mu      sync.Mutex
	entries map[string]*ArchiveJob
}

// NewExportArchiveService wires the archive pipeline. Start must be called
// before RequestArchive.
func NewExportArchiveService(renderer archiveRenderer, store *storage.LocalStorage, signer *storage.DownloadSigner, retention time.Duration, logger *zap.Logger) *ExportArchiveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retention <= 0 {
		retention = 72 * time.Hour
	}
	s := &ExportArchiveService{
		renderer:  renderer,
		store:     store,
		signer:    signer,
		retention: retention,
		logger:    logger,
		entries:   make(map[string]*ArchiveJob),
	}
	s.queue = jobs.NewQueue("binding-exports", s.process, jobs.QueueConfig{
		Workers:    2,
		MaxRetries: 2,
		RetryDelay: 5 * time.Second,
		Logger:     logger,
	})
	return s
}

// Start launches the background workers and the retention sweep.
func (s *ExportArchiveService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	go s.sweep(ctx)
}

func (s *ExportArchiveService) sweep(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.store.CleanupOlderThan(s.retention)
			if err != nil {
				s.logger.Warn("export retention sweep failed", zap.Error(err))
				continue
			}
			if len(deleted) > 0 {
				s.logger.Info("expired export files removed", zap.Int("count", len(deleted)))
			}
		}
	}
}

// Stop drains the workers.
func (s *ExportArchiveService) Stop() {
	s.queue.Stop()
}

// RequestArchive enqueues a roster export and returns the pending job.
func (s *ExportArchiveService) RequestArchive(organizationID, format string) (*ArchiveJob, error) {
	if organizationID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "organization_id is required")
	}
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	job := &ArchiveJob{
		ID:             uuid.NewString(),
		OrganizationID: organizationID,
		Format:         format,
		Status:         ArchivePending,
		CreatedAt:      time.Now().UTC(),
	}
	s.mu.Lock()
	s.entries[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "bindings-export"}); err != nil {
		s.mu.Lock()
		delete(s.entries, job.ID)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export")
	}
	return s.snapshot(job.ID), nil
}

// Status returns the current state of an archive job.
func (s *ExportArchiveService) Status(jobID string) (*ArchiveJob, error) {
	job := s.snapshot(jobID)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return job, nil
}

// OpenDownload validates the token and opens the archived file.
func (s *ExportArchiveService) OpenDownload(token string) (io.ReadCloser, string, error) {
	_, relPath, _, err := s.signer.Verify(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file not found")
	}
	return file, relPath, nil
}

func (s *ExportArchiveService) process(ctx context.Context, job jobs.Job) error {
	entry := s.snapshot(job.ID)
	if entry == nil {
		return nil
	}

	var payload []byte
	var err error
	switch entry.Format {
	case "pdf":
		payload, err = s.renderer.BindingsPDF(ctx, entry.OrganizationID)
	default:
		payload, err = s.renderer.BindingsCSV(ctx, entry.OrganizationID)
	}
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	fileName := fmt.Sprintf("%s/bindings.%s", job.ID, entry.Format)
	if _, err := s.store.Save(fileName, payload); err != nil {
		s.fail(job.ID, err)
		return err
	}

	token, expiresAt, err := s.signer.Sign(job.ID, fileName)
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	now := time.Now().UTC()
	s.mu.Lock()
	if entry, ok := s.entries[job.ID]; ok {
		entry.Status = ArchiveCompleted
		entry.FileName = fileName
		entry.DownloadToken = token
		entry.TokenExpiresAt = &expiresAt
		entry.CompletedAt = &now
		entry.Error = ""
	}
	s.mu.Unlock()

	s.logger.Info("export archive completed",
		zap.String("job_id", job.ID),
		zap.String("file", fileName))
	return nil
}

func (s *ExportArchiveService) fail(jobID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[jobID]; ok {
		entry.Status = ArchiveFailed
		entry.Error = err.Error()
	}
}

func (s *ExportArchiveService) snapshot(jobID string) *ArchiveJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[jobID]
	if !ok {
		return nil
	}
	copied := *entry
	return &copied
}
