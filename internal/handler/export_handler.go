package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nara-edu/timetable-api/internal/service"
	appErrors "github.com/nara-edu/timetable-api/pkg/errors"
	"github.com/nara-edu/timetable-api/pkg/response"
)

type exportService interface {
	BindingsCSV(ctx context.Context, organizationID string) ([]byte, error)
	BindingsPDF(ctx context.Context, organizationID string) ([]byte, error)
}

type exportArchiveService interface {
	RequestArchive(organizationID, format string) (*service.ArchiveJob, error)
	Status(jobID string) (*service.ArchiveJob, error)
	OpenDownload(token string) (io.ReadCloser, string, error)
}

// ExportHandler streams binding roster exports and manages archive jobs.
type ExportHandler struct {
	service  exportService
	archives exportArchiveService
}

// NewExportHandler constructs the handler. archives may be nil when the
// background pipeline is disabled.
func NewExportHandler(service exportService, archives exportArchiveService) *ExportHandler {
	return &ExportHandler{service: service, archives: archives}
}

// Bindings godoc
// @Summary Export the binding roster
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param organization_id query string false "Organization ID"
// @Param format query string false "Export format" Enums(csv, pdf) default(csv)
// @Success 200 {file} byte
// @Security BearerAuth
// @Router /exports/bindings [get]
func (h *ExportHandler) Bindings(c *gin.Context) {
	organizationID := c.Query("organization_id")
	if organizationID == "" {
		if claims := claimsFromContext(c); claims != nil {
			organizationID = claims.OrganizationID
		}
	}
	if organizationID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "organization_id is required"))
		return
	}

	format := c.DefaultQuery("format", "csv")
	stamp := time.Now().UTC().Format("20060102-150405")
	switch format {
	case "csv":
		payload, err := h.service.BindingsCSV(c.Request.Context(), organizationID)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=bindings-%s.csv", stamp))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.service.BindingsPDF(c.Request.Context(), organizationID)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=bindings-%s.pdf", stamp))
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

type archiveRequest struct {
	OrganizationID string `json:"organization_id"`
	Format         string `json:"format"`
}

// RequestArchive godoc
// @Summary Queue a background roster export
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body archiveRequest true "Archive payload"
// @Success 202 {object} response.Envelope
// @Security BearerAuth
// @Router /exports/bindings/archives [post]
func (h *ExportHandler) RequestArchive(c *gin.Context) {
	if h.archives == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "export archives are disabled"))
		return
	}
	var req archiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid archive payload"))
		return
	}
	if req.OrganizationID == "" {
		if claims := claimsFromContext(c); claims != nil {
			req.OrganizationID = claims.OrganizationID
		}
	}
	if req.Format == "" {
		req.Format = "csv"
	}
	job, err := h.archives.RequestArchive(req.OrganizationID, req.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// ArchiveStatus godoc
// @Summary Get the state of a queued export
// @Tags Exports
// @Produce json
// @Param id path string true "Archive job ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exports/bindings/archives/{id} [get]
func (h *ExportHandler) ArchiveStatus(c *gin.Context) {
	if h.archives == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "export archives are disabled"))
		return
	}
	job, err := h.archives.Status(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download an archived export by signed token
// @Tags Exports
// @Produce application/octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} byte
// @Router /exports/files [get]
func (h *ExportHandler) Download(c *gin.Context) {
	if h.archives == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "export archives are disabled"))
		return
	}
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, relPath, err := h.archives.OpenDownload(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	contentType := "text/csv"
	if path.Ext(relPath) == ".pdf" {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", path.Base(relPath)))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		_ = c.Error(err)
	}
}
