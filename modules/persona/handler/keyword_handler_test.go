package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andreypavlenko/crmcore/modules/persona/model"
	"github.com/andreypavlenko/crmcore/modules/persona/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type mockKeywordRepository struct {
	keywords   []*model.Keyword
	priorities []*model.Priority
}

func (m *mockKeywordRepository) AllKeywords(ctx context.Context) ([]*model.Keyword, error) {
	return m.keywords, nil
}
func (m *mockKeywordRepository) AllPriorities(ctx context.Context) ([]*model.Priority, error) {
	return m.priorities, nil
}
func (m *mockKeywordRepository) GetByKeyword(ctx context.Context, keywordNormalized string) (*model.Keyword, error) {
	for _, k := range m.keywords {
		if k.KeywordNormalized == keywordNormalized {
			return k, nil
		}
	}
	return nil, nil
}
func (m *mockKeywordRepository) Create(ctx context.Context, kw *model.Keyword) error {
	m.keywords = append(m.keywords, kw)
	return nil
}
func (m *mockKeywordRepository) Replace(ctx context.Context, kw *model.Keyword) error { return nil }
func (m *mockKeywordRepository) Delete(ctx context.Context, id string) error          { return nil }
func (m *mockKeywordRepository) List(ctx context.Context, personaID string) ([]*model.Keyword, error) {
	return m.keywords, nil
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestKeywordHandler_Create(t *testing.T) {
	t.Run("creates keyword successfully", func(t *testing.T) {
		repo := &mockKeywordRepository{priorities: []*model.Priority{{PersonaID: "sofia", Priority: 1}}}
		classifier := service.NewClassifierService(repo, nil, nil)
		handler := NewKeywordHandler(classifier)

		router := setupTestRouter()
		router.POST("/persona/keywords", handler.Create)

		body := `{"keyword":"CFO","persona_id":"sofia","persona_name":"Sofia"}`
		req, _ := http.NewRequest(http.MethodPost, "/persona/keywords", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("returns 409 when owned by a higher priority persona", func(t *testing.T) {
		repo := &mockKeywordRepository{
			keywords:   []*model.Keyword{{KeywordNormalized: "cfo", PersonaID: "sofia", PersonaName: "Sofia"}},
			priorities: []*model.Priority{{PersonaID: "sofia", Priority: 1}, {PersonaID: "mateo", Priority: 99}},
		}
		classifier := service.NewClassifierService(repo, nil, nil)
		handler := NewKeywordHandler(classifier)

		router := setupTestRouter()
		router.POST("/persona/keywords", handler.Create)

		body := `{"keyword":"cfo","persona_id":"mateo","persona_name":"Mateo"}`
		req, _ := http.NewRequest(http.MethodPost, "/persona/keywords", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestKeywordHandler_Classify(t *testing.T) {
	repo := &mockKeywordRepository{
		keywords:   []*model.Keyword{{KeywordNormalized: "cfo", PersonaID: "sofia", PersonaName: "Sofia"}},
		priorities: []*model.Priority{{PersonaID: "sofia", Priority: 1}},
	}
	classifier := service.NewClassifierService(repo, nil, nil)
	handler := NewKeywordHandler(classifier)

	router := setupTestRouter()
	router.POST("/persona/classify", handler.Classify)

	body := `{"job_title":"Chief Financial Officer"}`
	req, _ := http.NewRequest(http.MethodPost, "/persona/classify", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestKeywordHandler_RegisterRoutes(t *testing.T) {
	repo := &mockKeywordRepository{}
	classifier := service.NewClassifierService(repo, nil, nil)
	handler := NewKeywordHandler(classifier)

	router := setupTestRouter()
	v1 := router.Group("/api/v1")
	handler.RegisterRoutes(v1, func(c *gin.Context) { c.Next() })

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/persona/keywords", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
