package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"modelhub/app/port"
)

// PurchaseHandler handles purchase HTTP requests
type PurchaseHandler struct {
	purchases port.PurchaseUsecase
	logger    *slog.Logger
}

// NewPurchaseHandler creates a new purchase handler
func NewPurchaseHandler(purchases port.PurchaseUsecase, logger *slog.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		purchases: purchases,
		logger:    logger.With("component", "purchase_handler"),
	}
}

type PurchaseStatusRequest struct {
	ModelID uuid.UUID `json:"model_id"`
}

// Purchase records a purchase of the model by the authenticated
// identity.
// @Summary Purchase a model
// @Tags purchases
// @Produce json
// @Param modelID path string true "Model ID"
// @Success 201 {object} domain.Purchase
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /v1/purchases/{modelID} [post]
func (h *PurchaseHandler) Purchase(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return respondError(c, err)
	}

	modelID, err := uuid.Parse(c.Param("modelID"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid model ID"})
	}

	purchase, err := h.purchases.PurchaseModel(c.Request().Context(), modelID, identity.Email)
	if err != nil {
		h.logger.Warn("purchase failed", "model_id", modelID, "error", err)
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, purchase)
}

// Status reports whether the authenticated identity already has
// access to the model. Owners count as purchased.
// @Summary Check purchase status
// @Tags purchases
// @Accept json
// @Produce json
// @Success 200 {object} domain.PurchaseStatus
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /v1/purchases/status [post]
func (h *PurchaseHandler) Status(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return respondError(c, err)
	}

	var req PurchaseStatusRequest
	if err := c.Bind(&req); err != nil || req.ModelID == uuid.Nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "model_id is required"})
	}

	status, err := h.purchases.CheckStatus(c.Request().Context(), req.ModelID, identity.Email)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, status)
}

// MyPurchases returns the authenticated identity's purchase history
// @Summary List own purchases
// @Tags purchases
// @Produce json
// @Success 200 {array} domain.Purchase
// @Failure 401 {object} ErrorResponse
// @Router /v1/my-purchases [get]
func (h *PurchaseHandler) MyPurchases(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return respondError(c, err)
	}

	purchases, err := h.purchases.ListPurchases(c.Request().Context(), identity.Email)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, purchases)
}
