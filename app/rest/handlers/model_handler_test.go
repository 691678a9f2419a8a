package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelhub/app/domain"
	"modelhub/app/port"
)

// stubCatalog implements port.CatalogUsecase with canned results.
type stubCatalog struct {
	models     []*domain.Model
	model      *domain.Model
	frameworks []string
	err        error

	gotFilter    port.ModelFilter
	gotPatch     domain.ModelPatch
	gotRequester string
}

func (s *stubCatalog) ListModels(_ context.Context, filter port.ModelFilter) ([]*domain.Model, error) {
	s.gotFilter = filter
	return s.models, s.err
}

func (s *stubCatalog) FeaturedModels(context.Context) ([]*domain.Model, error) {
	return s.models, s.err
}

func (s *stubCatalog) ListFrameworks(context.Context) ([]string, error) {
	return s.frameworks, s.err
}

func (s *stubCatalog) GetModel(context.Context, uuid.UUID) (*domain.Model, error) {
	return s.model, s.err
}

func (s *stubCatalog) CreateModel(_ context.Context, patch domain.ModelPatch, createdBy string) (*domain.Model, error) {
	s.gotPatch = patch
	s.gotRequester = createdBy
	if s.err != nil {
		return nil, s.err
	}
	return domain.NewModel(patch, createdBy)
}

func (s *stubCatalog) UpdateModel(_ context.Context, _ uuid.UUID, patch domain.ModelPatch, requester string) (*domain.Model, error) {
	s.gotPatch = patch
	s.gotRequester = requester
	return s.model, s.err
}

func (s *stubCatalog) DeleteModel(_ context.Context, _ uuid.UUID, requester string) error {
	s.gotRequester = requester
	return s.err
}

func handlerTestModel(t *testing.T) *domain.Model {
	t.Helper()

	model, err := domain.NewModel(domain.ModelPatch{
		Name:      "sentiment-classifier",
		Framework: "PyTorch",
		Price:     49.99,
	}, "creator@example.com")
	require.NoError(t, err)
	return model
}

func newCatalogRequest(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withIdentity(c echo.Context) *domain.Identity {
	identity := &domain.Identity{ID: uuid.NewString(), Email: "creator@example.com"}
	c.Set(identityKey, identity)
	return identity
}

func TestModelHandler_List(t *testing.T) {
	catalog := &stubCatalog{models: []*domain.Model{handlerTestModel(t)}}
	handler := NewModelHandler(catalog, slog.Default())

	c, rec := newCatalogRequest(http.MethodGet, "/v1/models?search=sentiment&framework=PyTorch&created_by=creator@example.com", "")

	require.NoError(t, handler.List(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sentiment", catalog.gotFilter.Search)
	assert.Equal(t, "PyTorch", catalog.gotFilter.Framework)
	assert.Equal(t, "creator@example.com", catalog.gotFilter.CreatedBy)

	var models []domain.Model
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &models))
	require.Len(t, models, 1)
	assert.Equal(t, "sentiment-classifier", models[0].Name)
}

func TestModelHandler_Featured(t *testing.T) {
	catalog := &stubCatalog{models: []*domain.Model{handlerTestModel(t)}}
	handler := NewModelHandler(catalog, slog.Default())

	c, rec := newCatalogRequest(http.MethodGet, "/v1/models/featured", "")

	require.NoError(t, handler.Featured(c))

	assert.Equal(t, http.StatusOK, rec.Code)

	var models []domain.Model
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &models))
	require.Len(t, models, 1)
	assert.Equal(t, "sentiment-classifier", models[0].Name)
}

func TestModelHandler_Frameworks(t *testing.T) {
	catalog := &stubCatalog{frameworks: []string{"PyTorch", "TensorFlow"}}
	handler := NewModelHandler(catalog, slog.Default())

	c, rec := newCatalogRequest(http.MethodGet, "/v1/models/frameworks", "")

	require.NoError(t, handler.Frameworks(c))

	assert.Equal(t, http.StatusOK, rec.Code)

	var frameworks []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &frameworks))
	assert.Equal(t, []string{"PyTorch", "TensorFlow"}, frameworks)
}

func TestModelHandler_Get(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		catalog        *stubCatalog
		expectedStatus int
	}{
		{
			name:           "existing model",
			id:             uuid.NewString(),
			catalog:        &stubCatalog{},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "malformed id",
			id:             "not-a-uuid",
			catalog:        &stubCatalog{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown model",
			id:             uuid.NewString(),
			catalog:        &stubCatalog{err: domain.ErrModelNotFound},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.catalog.err == nil {
				tt.catalog.model = handlerTestModel(t)
			}
			handler := NewModelHandler(tt.catalog, slog.Default())

			c, rec := newCatalogRequest(http.MethodGet, "/v1/models/"+tt.id, "")
			c.SetParamNames("id")
			c.SetParamValues(tt.id)

			require.NoError(t, handler.Get(c))
			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestModelHandler_Create(t *testing.T) {
	catalog := &stubCatalog{}
	handler := NewModelHandler(catalog, slog.Default())

	body := `{"name":"image-segmenter","framework":"TensorFlow","price":120}`
	c, rec := newCatalogRequest(http.MethodPost, "/v1/models", body)
	identity := withIdentity(c)

	require.NoError(t, handler.Create(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, identity.Email, catalog.gotRequester)

	var model domain.Model
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &model))
	assert.Equal(t, "image-segmenter", model.Name)
	assert.Equal(t, identity.Email, model.CreatedBy)
}

func TestModelHandler_Create_RequiresIdentity(t *testing.T) {
	handler := NewModelHandler(&stubCatalog{}, slog.Default())

	c, rec := newCatalogRequest(http.MethodPost, "/v1/models", `{"name":"x","framework":"y","price":1}`)

	require.NoError(t, handler.Create(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestModelHandler_Update_NotOwner(t *testing.T) {
	catalog := &stubCatalog{err: domain.ErrNotModelOwner}
	handler := NewModelHandler(catalog, slog.Default())

	c, rec := newCatalogRequest(http.MethodPut, "/v1/models/"+uuid.NewString(), `{"name":"x","framework":"y","price":1}`)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())
	withIdentity(c)

	require.NoError(t, handler.Update(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestModelHandler_Delete(t *testing.T) {
	catalog := &stubCatalog{}
	handler := NewModelHandler(catalog, slog.Default())

	c, rec := newCatalogRequest(http.MethodDelete, "/v1/models/"+uuid.NewString(), "")
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())
	identity := withIdentity(c)

	require.NoError(t, handler.Delete(c))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, identity.Email, catalog.gotRequester)
}

func TestModelHandler_MyModels(t *testing.T) {
	catalog := &stubCatalog{models: []*domain.Model{handlerTestModel(t)}}
	handler := NewModelHandler(catalog, slog.Default())

	c, rec := newCatalogRequest(http.MethodGet, "/v1/my-models", "")
	identity := withIdentity(c)

	require.NoError(t, handler.MyModels(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, identity.Email, catalog.gotFilter.CreatedBy)
	assert.Empty(t, catalog.gotFilter.Search)
}
