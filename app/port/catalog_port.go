package port

import (
	"context"

	"modelhub/app/domain"
	"github.com/google/uuid"
)

// ModelFilter narrows a catalog listing. Zero values mean "no filter".
type ModelFilter struct {
	// Search matches case-insensitively against the model name.
	Search string
	// Framework restricts to a single framework.
	Framework string
	// CreatedBy restricts to models owned by the given email.
	CreatedBy string
	// Limit caps the number of returned models. Zero means no cap.
	Limit int
}

// ModelRepository defines catalog data access
type ModelRepository interface {
	Create(ctx context.Context, model *domain.Model) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Model, error)
	List(ctx context.Context, filter ModelFilter) ([]*domain.Model, error)
	ListFrameworks(ctx context.Context) ([]string, error)
	Update(ctx context.Context, model *domain.Model) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PurchaseRepository defines purchase data access
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *domain.Purchase) error
	Exists(ctx context.Context, modelID uuid.UUID, purchaserEmail string) (bool, error)
	ListByPurchaser(ctx context.Context, purchaserEmail string) ([]*domain.Purchase, error)
}

// CatalogUsecase defines catalog business logic
type CatalogUsecase interface {
	ListModels(ctx context.Context, filter ModelFilter) ([]*domain.Model, error)
	FeaturedModels(ctx context.Context) ([]*domain.Model, error)
	ListFrameworks(ctx context.Context) ([]string, error)
	GetModel(ctx context.Context, id uuid.UUID) (*domain.Model, error)
	CreateModel(ctx context.Context, patch domain.ModelPatch, createdBy string) (*domain.Model, error)
	UpdateModel(ctx context.Context, id uuid.UUID, patch domain.ModelPatch, requester string) (*domain.Model, error)
	DeleteModel(ctx context.Context, id uuid.UUID, requester string) error
}

// PurchaseUsecase defines purchase business logic
type PurchaseUsecase interface {
	PurchaseModel(ctx context.Context, modelID uuid.UUID, purchaserEmail string) (*domain.Purchase, error)
	CheckStatus(ctx context.Context, modelID uuid.UUID, userEmail string) (*domain.PurchaseStatus, error)
	ListPurchases(ctx context.Context, purchaserEmail string) ([]*domain.Purchase, error)
}
