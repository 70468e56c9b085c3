package handler

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/measurement-map-go/internal/artifact"
	"github.com/jengzang/measurement-map-go/internal/dataset"
	"github.com/jengzang/measurement-map-go/internal/models"
	"github.com/jengzang/measurement-map-go/internal/render"
	"github.com/jengzang/measurement-map-go/internal/service"
	"github.com/jengzang/measurement-map-go/internal/tiles"
	"github.com/jengzang/measurement-map-go/pkg/response"
)

// MapHandler handles HTTP requests for measurement maps
type MapHandler struct {
	service *service.MapService
}

// NewMapHandler creates a new map handler
func NewMapHandler(service *service.MapService) *MapHandler {
	return &MapHandler{service: service}
}

// CreateMap handles POST /api/v1/maps
func (h *MapHandler) CreateMap(c *gin.Context) {
	var req models.RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.service.CreateMap(c.Request.Context(), req)
	if err != nil {
		status, message := statusForError(err)
		if result != nil {
			c.JSON(status, response.Response{Code: status, Message: message, Error: err.Error(), Data: result})
			return
		}
		response.Error(c, status, message, err)
		return
	}

	response.Created(c, result)
}

// PreviewMap handles POST /api/v1/maps/preview
func (h *MapHandler) PreviewMap(c *gin.Context) {
	var req models.RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var buf bytes.Buffer
	contentType, summary, err := h.service.Preview(c.Request.Context(), req, &buf)
	if err != nil {
		status, message := statusForError(err)
		response.Error(c, status, message, err)
		return
	}

	c.Header("X-Point-Count", strconv.Itoa(summary.PointCount))
	c.Header("X-Value-Field", summary.ValueField)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// GetExample handles GET /api/v1/maps/example
func (h *MapHandler) GetExample(c *gin.Context) {
	response.Success(c, gin.H{
		"points": dataset.OsloRoute(),
		"options": models.RenderOptions{
			Title:      "Oslo Walking Route",
			ValueLabel: "Latency",
			ValueUnit:  "ms",
		},
	})
}

// ListJobs handles GET /api/v1/maps/jobs
func (h *MapHandler) ListJobs(c *gin.Context) {
	var filter models.RenderJobFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	jobs, total, err := h.service.ListJobs(filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to list render jobs", err)
		return
	}

	// Calculate pagination info
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	totalPages := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPages++
	}

	response.Success(c, gin.H{
		"data":       jobs,
		"total":      total,
		"page":       filter.Page,
		"pageSize":   filter.PageSize,
		"totalPages": totalPages,
	})
}

// GetJob handles GET /api/v1/maps/jobs/:id
func (h *MapHandler) GetJob(c *gin.Context) {
	job, err := h.service.GetJob(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get render job", err)
		return
	}
	if job == nil {
		response.NotFound(c, "Render job not found")
		return
	}

	response.Success(c, job)
}

// GetJobImage handles GET /api/v1/maps/jobs/:id/image
func (h *MapHandler) GetJobImage(c *gin.Context) {
	job, err := h.service.GetJob(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get render job", err)
		return
	}
	if job == nil || job.OutputPath == "" {
		response.NotFound(c, "Render image not found")
		return
	}
	if _, err := os.Stat(job.OutputPath); err != nil {
		response.NotFound(c, "Render image not found")
		return
	}

	c.Header("Content-Type", artifact.ContentType(job.Format))
	c.File(job.OutputPath)
}

// DeleteJob handles DELETE /api/v1/maps/jobs/:id
func (h *MapHandler) DeleteJob(c *gin.Context) {
	deleted, err := h.service.DeleteJob(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to delete render job", err)
		return
	}
	if !deleted {
		response.NotFound(c, "Render job not found")
		return
	}

	response.Success(c, gin.H{"deleted": c.Param("id")})
}

// statusForError maps render pipeline errors to HTTP status codes
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, render.ErrInput):
		return http.StatusBadRequest, "Invalid render input"
	case errors.Is(err, tiles.ErrTileFetch):
		return http.StatusBadGateway, "Failed to fetch map tiles"
	case errors.Is(err, artifact.ErrPersistence):
		return http.StatusInternalServerError, "Failed to save map"
	default:
		return http.StatusInternalServerError, "Failed to render map"
	}
}
