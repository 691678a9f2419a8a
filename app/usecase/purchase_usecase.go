package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"modelhub/app/domain"
	"modelhub/app/port"
)

// PurchaseUseCase implements purchase business logic
type PurchaseUseCase struct {
	modelRepo    port.ModelRepository
	purchaseRepo port.PurchaseRepository
	logger       *slog.Logger
}

// NewPurchaseUseCase creates a new PurchaseUseCase instance
func NewPurchaseUseCase(modelRepo port.ModelRepository, purchaseRepo port.PurchaseRepository, logger *slog.Logger) *PurchaseUseCase {
	return &PurchaseUseCase{
		modelRepo:    modelRepo,
		purchaseRepo: purchaseRepo,
		logger:       logger.With("component", "purchase_usecase"),
	}
}

// PurchaseModel records a purchase of the model by purchaserEmail.
// Buying your own model or buying a model twice both succeed without
// creating a second record.
func (uc *PurchaseUseCase) PurchaseModel(ctx context.Context, modelID uuid.UUID, purchaserEmail string) (*domain.Purchase, error) {
	model, err := uc.modelRepo.GetByID(ctx, modelID)
	if err != nil {
		return nil, err
	}

	purchase, err := domain.NewPurchase(model, purchaserEmail)
	if err != nil {
		return nil, err
	}

	// Creators already have access to their own models, so there is
	// nothing to record.
	if model.IsOwnedBy(purchaserEmail) {
		uc.logger.Info("owner purchase skipped", "model_id", modelID, "purchaser", purchaserEmail)
		return purchase, nil
	}

	if err := uc.purchaseRepo.Create(ctx, purchase); err != nil {
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	uc.logger.Info("model purchased", "model_id", modelID, "purchaser", purchaserEmail)
	return purchase, nil
}

// CheckStatus reports whether userEmail already has access to the
// model. Owners count as purchased without a purchase record.
func (uc *PurchaseUseCase) CheckStatus(ctx context.Context, modelID uuid.UUID, userEmail string) (*domain.PurchaseStatus, error) {
	if err := domain.ValidateEmail(userEmail); err != nil {
		return nil, err
	}

	status := &domain.PurchaseStatus{
		ModelID:   modelID,
		UserEmail: userEmail,
	}

	model, err := uc.modelRepo.GetByID(ctx, modelID)
	if err != nil {
		return nil, err
	}

	if model.IsOwnedBy(userEmail) {
		status.IsOwner = true
		status.IsPurchased = true
		return status, nil
	}

	purchased, err := uc.purchaseRepo.Exists(ctx, modelID, userEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to check purchase status: %w", err)
	}

	status.IsPurchased = purchased
	return status, nil
}

// ListPurchases returns the user's purchase history, newest first
func (uc *PurchaseUseCase) ListPurchases(ctx context.Context, purchaserEmail string) ([]*domain.Purchase, error) {
	if err := domain.ValidateEmail(purchaserEmail); err != nil {
		return nil, err
	}

	return uc.purchaseRepo.ListByPurchaser(ctx, purchaserEmail)
}
