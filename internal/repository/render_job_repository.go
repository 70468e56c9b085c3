package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jengzang/measurement-map-go/internal/models"
)

const renderJobColumns = `id, title, value_label, value_unit, value_field, zoom_level,
	padding_meters, dpi, format, status, error_message,
	point_count, min_value, max_value, route_meters, tile_count,
	output_path, duration_ms, created_at, updated_at`

// RenderJobRepository handles database operations for render jobs
type RenderJobRepository struct {
	db *sql.DB
}

// NewRenderJobRepository creates a new render job repository
func NewRenderJobRepository(db *sql.DB) *RenderJobRepository {
	return &RenderJobRepository{db: db}
}

// Create inserts a new job
func (r *RenderJobRepository) Create(job *models.RenderJob) error {
	query := `INSERT INTO render_jobs (` + renderJobColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		job.ID, job.Title, job.ValueLabel, job.ValueUnit, job.ValueField, job.ZoomLevel,
		job.PaddingMeters, job.DPI, job.Format, job.Status, job.ErrorMessage,
		job.PointCount, job.MinValue, job.MaxValue, job.RouteMeters, job.TileCount,
		job.OutputPath, job.DurationMs, job.CreatedAt.UTC(), job.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create render job: %w", err)
	}
	return nil
}

// Update stores the status and results of a job
func (r *RenderJobRepository) Update(job *models.RenderJob) error {
	query := `UPDATE render_jobs SET
		value_field = ?, status = ?, error_message = ?,
		point_count = ?, min_value = ?, max_value = ?, route_meters = ?, tile_count = ?,
		output_path = ?, duration_ms = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.Exec(query,
		job.ValueField, job.Status, job.ErrorMessage,
		job.PointCount, job.MinValue, job.MaxValue, job.RouteMeters, job.TileCount,
		job.OutputPath, job.DurationMs, job.UpdatedAt.UTC(),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update render job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("render job not found: %s", job.ID)
	}
	return nil
}

// GetByID returns the job, or nil when it does not exist
func (r *RenderJobRepository) GetByID(id string) (*models.RenderJob, error) {
	query := `SELECT ` + renderJobColumns + ` FROM render_jobs WHERE id = ?`

	job, err := scanRenderJob(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get render job: %w", err)
	}
	return job, nil
}

// List retrieves jobs with filtering and pagination, newest first
func (r *RenderJobRepository) List(filter models.RenderJobFilter) ([]models.RenderJob, int64, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	// Get total count
	var total int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM render_jobs"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count render jobs: %w", err)
	}

	// Add pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	offset := (filter.Page - 1) * filter.PageSize

	query := `SELECT ` + renderJobColumns + ` FROM render_jobs` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query render jobs: %w", err)
	}
	defer rows.Close()

	jobs := []models.RenderJob{}
	for rows.Next() {
		job, err := scanRenderJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan render job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate render jobs: %w", err)
	}

	return jobs, total, nil
}

// Delete removes a job record
func (r *RenderJobRepository) Delete(id string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM render_jobs WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete render job: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRenderJob(s rowScanner) (*models.RenderJob, error) {
	var j models.RenderJob
	err := s.Scan(
		&j.ID, &j.Title, &j.ValueLabel, &j.ValueUnit, &j.ValueField, &j.ZoomLevel,
		&j.PaddingMeters, &j.DPI, &j.Format, &j.Status, &j.ErrorMessage,
		&j.PointCount, &j.MinValue, &j.MaxValue, &j.RouteMeters, &j.TileCount,
		&j.OutputPath, &j.DurationMs, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}
