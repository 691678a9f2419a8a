package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"modelhub/app/domain"
	"modelhub/app/port"
)

// PurchaseRepository implements port.PurchaseRepository for PostgreSQL
type PurchaseRepository struct {
	db     Querier
	logger *slog.Logger
}

// NewPurchaseRepository creates a new PostgreSQL purchase repository
func NewPurchaseRepository(db Querier, logger *slog.Logger) port.PurchaseRepository {
	return &PurchaseRepository{
		db:     db,
		logger: logger.With("component", "purchase_repository"),
	}
}

// Create records a purchase. Repeat purchases of the same model by the
// same user are idempotent.
func (r *PurchaseRepository) Create(ctx context.Context, purchase *domain.Purchase) error {
	query := `
		INSERT INTO purchases (id, model_id, purchaser_email, creator_email,
		                       model_name, framework, image_url, price, purchased_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (model_id, purchaser_email) DO NOTHING`

	_, err := r.db.Exec(ctx, query,
		purchase.ID, purchase.ModelID, strings.ToLower(purchase.PurchaserEmail),
		purchase.CreatorEmail, purchase.ModelName, purchase.Framework,
		purchase.ImageURL, purchase.Price, purchase.PurchasedAt)
	if err != nil {
		return fmt.Errorf("failed to insert purchase: %w", err)
	}

	r.logger.Info("purchase recorded", "model_id", purchase.ModelID, "purchaser", purchase.PurchaserEmail)
	return nil
}

// Exists reports whether the user has purchased the model
func (r *PurchaseRepository) Exists(ctx context.Context, modelID uuid.UUID, purchaserEmail string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM purchases WHERE model_id = $1 AND purchaser_email = $2)`

	var exists bool
	err := r.db.QueryRow(ctx, query, modelID, strings.ToLower(purchaserEmail)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check purchase existence: %w", err)
	}

	return exists, nil
}

// ListByPurchaser fetches the user's purchases, newest first
func (r *PurchaseRepository) ListByPurchaser(ctx context.Context, purchaserEmail string) ([]*domain.Purchase, error) {
	query := `
		SELECT id, model_id, purchaser_email, creator_email,
		       model_name, framework, image_url, price, purchased_at
		FROM purchases
		WHERE purchaser_email = $1
		ORDER BY purchased_at DESC`

	rows, err := r.db.Query(ctx, query, strings.ToLower(purchaserEmail))
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	purchases := make([]*domain.Purchase, 0)
	for rows.Next() {
		var p domain.Purchase
		err := rows.Scan(
			&p.ID, &p.ModelID, &p.PurchaserEmail, &p.CreatorEmail,
			&p.ModelName, &p.Framework, &p.ImageURL, &p.Price, &p.PurchasedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase row: %w", err)
		}
		purchases = append(purchases, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("purchase row iteration failed: %w", err)
	}

	return purchases, nil
}
