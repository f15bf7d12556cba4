package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andreypavlenko/crmcore/modules/aggregator/model"
	"github.com/andreypavlenko/crmcore/modules/aggregator/service"
	"github.com/gin-gonic/gin"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func newTestHandler(t *testing.T) (*Handler, *gin.Engine) {
	t.Helper()
	log, err := testLogger()
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	cases := newFakeCaseRepository()
	svc := service.NewService(cases, &fakeKeywordRepository{}, &fakeContactRepository{}, &fakeAlertRepository{}, &fakeEventRepository{}, &fakeNewsletterRepository{}, 5, log)
	h := NewHandler(svc)
	router := setupTestRouter()
	h.RegisterRoutes(router.Group(""), func(c *gin.Context) { c.Next() })
	return h, router
}

func TestAggregatorHandler_UpdateChecklistCell_RequiresChecked(t *testing.T) {
	_, router := newTestHandler(t)

	body := `{"group_id":"g1","contact_id":"c1","column_id":"col1"}`
	req, _ := http.NewRequest(http.MethodPatch, "/cases/case-1/checklist/cell", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for missing checked field, got %d", w.Code)
	}
}

func TestAggregatorHandler_UpdateStatus_ValidatesStatus(t *testing.T) {
	_, router := newTestHandler(t)

	body := `{"status":"bogus"}`
	req, _ := http.NewRequest(http.MethodPatch, "/cases/case-1/status", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid status, got %d", w.Code)
	}
}

func TestAggregatorHandler_UpdateStatus_NotFound(t *testing.T) {
	_, router := newTestHandler(t)

	body := `{"status":"` + model.CaseStatusConcluidos + `"}`
	req, _ := http.NewRequest(http.MethodPatch, "/cases/missing-case/status", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown case, got %d", w.Code)
	}
}

func TestAggregatorHandler_SetCaseRoles(t *testing.T) {
	_, router := newTestHandler(t)

	body := `{"case_id":"case-1","contact_id":"contact-1","roles":["decision_maker"]}`
	req, _ := http.NewRequest(http.MethodPut, "/todays-focus/case-roles", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAggregatorHandler_Sections(t *testing.T) {
	_, router := newTestHandler(t)

	req, _ := http.NewRequest(http.MethodGet, "/aggregator/sections", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAggregatorHandler_GanadosCases(t *testing.T) {
	_, router := newTestHandler(t)

	req, _ := http.NewRequest(http.MethodGet, "/cases/delivery/ganados", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}
