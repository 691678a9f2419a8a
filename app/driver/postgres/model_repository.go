package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"modelhub/app/domain"
	"modelhub/app/port"
)

// ModelRepository implements port.ModelRepository for PostgreSQL
type ModelRepository struct {
	db     Querier
	logger *slog.Logger
}

// NewModelRepository creates a new PostgreSQL model repository
func NewModelRepository(db Querier, logger *slog.Logger) port.ModelRepository {
	return &ModelRepository{
		db:     db,
		logger: logger.With("component", "model_repository"),
	}
}

const modelColumns = `id, name, framework, use_case, dataset, description, image_url, price, created_by, created_at, updated_at`

// Create inserts a new model
func (r *ModelRepository) Create(ctx context.Context, model *domain.Model) error {
	query := `
		INSERT INTO models (` + modelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(ctx, query,
		model.ID, model.Name, model.Framework, model.UseCase, model.Dataset,
		model.Description, model.ImageURL, model.Price, model.CreatedBy,
		model.CreatedAt, model.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert model: %w", err)
	}

	r.logger.Info("model created", "model_id", model.ID, "created_by", model.CreatedBy)
	return nil
}

// GetByID fetches a single model
func (r *ModelRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Model, error) {
	query := `SELECT ` + modelColumns + ` FROM models WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	model, err := scanModel(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrModelNotFound
		}
		return nil, fmt.Errorf("failed to fetch model: %w", err)
	}

	return model, nil
}

// List fetches models matching the filter, newest first
func (r *ModelRepository) List(ctx context.Context, filter port.ModelFilter) ([]*domain.Model, error) {
	query := `SELECT ` + modelColumns + ` FROM models`

	var conditions []string
	var args []any

	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)))
	}
	if filter.Framework != "" {
		args = append(args, filter.Framework)
		conditions = append(conditions, fmt.Sprintf("framework = $%d", len(args)))
	}
	if filter.CreatedBy != "" {
		args = append(args, strings.ToLower(filter.CreatedBy))
		conditions = append(conditions, fmt.Sprintf("LOWER(created_by) = $%d", len(args)))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	models := make([]*domain.Model, 0)
	for rows.Next() {
		model, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan model row: %w", err)
		}
		models = append(models, model)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("model row iteration failed: %w", err)
	}

	return models, nil
}

// ListFrameworks returns the distinct frameworks in the catalog
func (r *ModelRepository) ListFrameworks(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT framework FROM models ORDER BY framework`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list frameworks: %w", err)
	}
	defer rows.Close()

	frameworks := make([]string, 0)
	for rows.Next() {
		var framework string
		if err := rows.Scan(&framework); err != nil {
			return nil, fmt.Errorf("failed to scan framework row: %w", err)
		}
		frameworks = append(frameworks, framework)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("framework row iteration failed: %w", err)
	}

	return frameworks, nil
}

// Update overwrites a model's mutable fields
func (r *ModelRepository) Update(ctx context.Context, model *domain.Model) error {
	query := `
		UPDATE models
		SET name = $2, framework = $3, use_case = $4, dataset = $5,
		    description = $6, image_url = $7, price = $8, updated_at = $9
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		model.ID, model.Name, model.Framework, model.UseCase, model.Dataset,
		model.Description, model.ImageURL, model.Price, model.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update model: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrModelNotFound
	}

	r.logger.Info("model updated", "model_id", model.ID)
	return nil
}

// Delete removes a model
func (r *ModelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM models WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete model: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrModelNotFound
	}

	r.logger.Info("model deleted", "model_id", id)
	return nil
}

func scanModel(row pgx.Row) (*domain.Model, error) {
	var model domain.Model
	err := row.Scan(
		&model.ID, &model.Name, &model.Framework, &model.UseCase, &model.Dataset,
		&model.Description, &model.ImageURL, &model.Price, &model.CreatedBy,
		&model.CreatedAt, &model.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &model, nil
}
