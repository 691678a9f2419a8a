package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Model represents a cataloged AI model
type Model struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Framework   string    `json:"framework"`
	UseCase     string    `json:"use_case"`
	Dataset     string    `json:"dataset"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	Price       float64   `json:"price"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ModelPatch carries the mutable fields of a model for updates.
type ModelPatch struct {
	Name        string  `json:"name"`
	Framework   string  `json:"framework"`
	UseCase     string  `json:"use_case"`
	Dataset     string  `json:"dataset"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	Price       float64 `json:"price"`
}

// NewModel creates a new model with validation
func NewModel(patch ModelPatch, createdBy string) (*Model, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	if err := ValidateEmail(createdBy); err != nil {
		return nil, fmt.Errorf("invalid creator email: %w", err)
	}

	now := time.Now()

	model := &Model{
		ID:          uuid.New(),
		Name:        patch.Name,
		Framework:   patch.Framework,
		UseCase:     patch.UseCase,
		Dataset:     patch.Dataset,
		Description: patch.Description,
		ImageURL:    patch.ImageURL,
		Price:       patch.Price,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return model, nil
}

// Validate checks the patch fields
func (p ModelPatch) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: model name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(p.Framework) == "" {
		return fmt.Errorf("%w: framework is required", ErrInvalidInput)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if p.ImageURL != "" {
		parsed, err := url.Parse(p.ImageURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%w: image URL must be absolute", ErrInvalidInput)
		}
	}
	return nil
}

// Apply overwrites the model's mutable fields from the patch
func (m *Model) Apply(patch ModelPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	m.Name = patch.Name
	m.Framework = patch.Framework
	m.UseCase = patch.UseCase
	m.Dataset = patch.Dataset
	m.Description = patch.Description
	m.ImageURL = patch.ImageURL
	m.Price = patch.Price
	m.UpdatedAt = time.Now()
	return nil
}

// IsOwnedBy returns true if the model was created by the given email
func (m *Model) IsOwnedBy(email string) bool {
	return strings.EqualFold(m.CreatedBy, email)
}
