package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Purchase records a user's paid access to a model's contact and
// download details. The model fields are snapshotted at purchase time
// so a later edit or deletion does not revoke what was bought.
type Purchase struct {
	ID             uuid.UUID `json:"id"`
	ModelID        uuid.UUID `json:"model_id"`
	PurchaserEmail string    `json:"purchaser_email"`
	CreatorEmail   string    `json:"creator_email"`
	ModelName      string    `json:"model_name"`
	Framework      string    `json:"framework"`
	ImageURL       string    `json:"image_url"`
	Price          float64   `json:"price"`
	PurchasedAt    time.Time `json:"purchased_at"`
}

// NewPurchase creates a purchase record from a model snapshot
func NewPurchase(model *Model, purchaserEmail string) (*Purchase, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: model is required", ErrInvalidInput)
	}
	if err := ValidateEmail(purchaserEmail); err != nil {
		return nil, fmt.Errorf("invalid purchaser email: %w", err)
	}

	return &Purchase{
		ID:             uuid.New(),
		ModelID:        model.ID,
		PurchaserEmail: purchaserEmail,
		CreatorEmail:   model.CreatedBy,
		ModelName:      model.Name,
		Framework:      model.Framework,
		ImageURL:       model.ImageURL,
		Price:          model.Price,
		PurchasedAt:    time.Now(),
	}, nil
}

// PurchaseStatus reports whether a user already has access to a model.
// Owners count as purchased without a purchase record.
type PurchaseStatus struct {
	ModelID     uuid.UUID `json:"model_id"`
	UserEmail   string    `json:"user_email"`
	IsPurchased bool      `json:"is_purchased"`
	IsOwner     bool      `json:"is_owner"`
}
