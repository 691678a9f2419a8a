package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"modelhub/app/domain"
	"modelhub/app/port"
)

// identityKey is where the authorization middleware stores the
// authenticated identity on the echo context.
const identityKey = "identity"

// ModelHandler handles catalog HTTP requests
type ModelHandler struct {
	catalog port.CatalogUsecase
	logger  *slog.Logger
}

// NewModelHandler creates a new model handler
func NewModelHandler(catalog port.CatalogUsecase, logger *slog.Logger) *ModelHandler {
	return &ModelHandler{
		catalog: catalog,
		logger:  logger.With("component", "model_handler"),
	}
}

// List returns the catalog, optionally filtered by search term,
// framework and creator.
// @Summary List models
// @Tags catalog
// @Produce json
// @Param search query string false "Case-insensitive name search"
// @Param framework query string false "Framework filter"
// @Param created_by query string false "Creator email filter"
// @Success 200 {array} domain.Model
// @Router /v1/models [get]
func (h *ModelHandler) List(c echo.Context) error {
	filter := port.ModelFilter{
		Search:    c.QueryParam("search"),
		Framework: c.QueryParam("framework"),
		CreatedBy: c.QueryParam("created_by"),
	}

	models, err := h.catalog.ListModels(c.Request().Context(), filter)
	if err != nil {
		h.logger.Error("failed to list models", "error", err)
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models)
}

// Featured returns the newest models for the home screen
// @Summary List featured models
// @Tags catalog
// @Produce json
// @Success 200 {array} domain.Model
// @Router /v1/models/featured [get]
func (h *ModelHandler) Featured(c echo.Context) error {
	models, err := h.catalog.FeaturedModels(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to list featured models", "error", err)
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models)
}

// Frameworks returns the distinct frameworks present in the catalog
// @Summary List frameworks
// @Tags catalog
// @Produce json
// @Success 200 {array} string
// @Router /v1/models/frameworks [get]
func (h *ModelHandler) Frameworks(c echo.Context) error {
	frameworks, err := h.catalog.ListFrameworks(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to list frameworks", "error", err)
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, frameworks)
}

// Get returns a single model
// @Summary Get a model
// @Tags catalog
// @Produce json
// @Param id path string true "Model ID"
// @Success 200 {object} domain.Model
// @Failure 404 {object} ErrorResponse
// @Router /v1/models/{id} [get]
func (h *ModelHandler) Get(c echo.Context) error {
	id, err := modelIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid model ID"})
	}

	model, err := h.catalog.GetModel(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, model)
}

// Create publishes a new model owned by the authenticated identity
// @Summary Publish a model
// @Tags catalog
// @Accept json
// @Produce json
// @Success 201 {object} domain.Model
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /v1/models [post]
func (h *ModelHandler) Create(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return respondError(c, err)
	}

	var patch domain.ModelPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	model, err := h.catalog.CreateModel(c.Request().Context(), patch, identity.Email)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, model)
}

// Update edits a model's listing. Only the owner may edit.
// @Summary Update a model
// @Tags catalog
// @Accept json
// @Produce json
// @Param id path string true "Model ID"
// @Success 200 {object} domain.Model
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /v1/models/{id} [put]
func (h *ModelHandler) Update(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return respondError(c, err)
	}

	id, err := modelIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid model ID"})
	}

	var patch domain.ModelPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	model, err := h.catalog.UpdateModel(c.Request().Context(), id, patch, identity.Email)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, model)
}

// Delete removes a model. Only the owner may delete.
// @Summary Delete a model
// @Tags catalog
// @Param id path string true "Model ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /v1/models/{id} [delete]
func (h *ModelHandler) Delete(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return respondError(c, err)
	}

	id, err := modelIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid model ID"})
	}

	if err := h.catalog.DeleteModel(c.Request().Context(), id, identity.Email); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// MyModels returns the models owned by the authenticated identity
// @Summary List own models
// @Tags catalog
// @Produce json
// @Success 200 {array} domain.Model
// @Failure 401 {object} ErrorResponse
// @Router /v1/my-models [get]
func (h *ModelHandler) MyModels(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return respondError(c, err)
	}

	models, err := h.catalog.ListModels(c.Request().Context(), port.ModelFilter{CreatedBy: identity.Email})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models)
}

func modelIDParam(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

// identityFrom reads the authenticated identity set by the
// authorization middleware.
func identityFrom(c echo.Context) (*domain.Identity, error) {
	identity, ok := c.Get(identityKey).(*domain.Identity)
	if !ok || identity == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return identity, nil
}
