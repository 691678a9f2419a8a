package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"modelhub/app/domain"
	"modelhub/app/port"
)

// CatalogUseCase implements catalog business logic
type CatalogUseCase struct {
	modelRepo port.ModelRepository
	logger    *slog.Logger
}

// NewCatalogUseCase creates a new CatalogUseCase instance
func NewCatalogUseCase(modelRepo port.ModelRepository, logger *slog.Logger) *CatalogUseCase {
	return &CatalogUseCase{
		modelRepo: modelRepo,
		logger:    logger.With("component", "catalog_usecase"),
	}
}

// featuredLimit caps the home screen's featured selection.
const featuredLimit = 6

// ListModels returns the catalog, optionally filtered
func (uc *CatalogUseCase) ListModels(ctx context.Context, filter port.ModelFilter) ([]*domain.Model, error) {
	return uc.modelRepo.List(ctx, filter)
}

// FeaturedModels returns the newest models for the home screen.
func (uc *CatalogUseCase) FeaturedModels(ctx context.Context) ([]*domain.Model, error) {
	return uc.modelRepo.List(ctx, port.ModelFilter{Limit: featuredLimit})
}

// ListFrameworks returns the distinct frameworks in the catalog
func (uc *CatalogUseCase) ListFrameworks(ctx context.Context) ([]string, error) {
	return uc.modelRepo.ListFrameworks(ctx)
}

// GetModel fetches one model by ID
func (uc *CatalogUseCase) GetModel(ctx context.Context, id uuid.UUID) (*domain.Model, error) {
	return uc.modelRepo.GetByID(ctx, id)
}

// CreateModel validates and stores a new model owned by createdBy
func (uc *CatalogUseCase) CreateModel(ctx context.Context, patch domain.ModelPatch, createdBy string) (*domain.Model, error) {
	model, err := domain.NewModel(patch, createdBy)
	if err != nil {
		return nil, err
	}

	if err := uc.modelRepo.Create(ctx, model); err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	uc.logger.Info("model published", "model_id", model.ID, "created_by", createdBy)
	return model, nil
}

// UpdateModel applies the patch to an existing model. Only the owner
// may update.
func (uc *CatalogUseCase) UpdateModel(ctx context.Context, id uuid.UUID, patch domain.ModelPatch, requester string) (*domain.Model, error) {
	model, err := uc.modelRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !model.IsOwnedBy(requester) {
		return nil, domain.ErrNotModelOwner
	}

	if err := model.Apply(patch); err != nil {
		return nil, err
	}

	if err := uc.modelRepo.Update(ctx, model); err != nil {
		return nil, fmt.Errorf("failed to update model: %w", err)
	}

	return model, nil
}

// DeleteModel removes a model. Only the owner may delete. Existing
// purchase records survive because they snapshot the model's fields.
func (uc *CatalogUseCase) DeleteModel(ctx context.Context, id uuid.UUID, requester string) error {
	model, err := uc.modelRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !model.IsOwnedBy(requester) {
		return domain.ErrNotModelOwner
	}

	if err := uc.modelRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete model: %w", err)
	}

	uc.logger.Info("model removed", "model_id", id, "requester", requester)
	return nil
}
