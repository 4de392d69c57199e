package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lysyi3m/adcomb/app/content"
)

func (e *testEnv) scheduled(t *testing.T, query string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/scheduled-update"+query, nil)
	req.Header.Set("X-API-Key", schedulerKey)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestScheduledUpdateRequiresUser(t *testing.T) {
	env := newTestEnv(t, 0)

	w := env.scheduled(t, "")

	expectStatus(t, w, http.StatusBadRequest)
}

func TestScheduledUpdateRejectsMalformedUser(t *testing.T) {
	env := newTestEnv(t, 0)

	w := env.scheduled(t, "?user_id=owner")

	expectStatus(t, w, http.StatusBadRequest)
	body := decode[errorResponse](t, w)
	if body.Kind != "validation" {
		t.Errorf("Expected validation, got %q", body.Kind)
	}
}

func TestScheduledUpdateRejectsBadForceFlag(t *testing.T) {
	env := newTestEnv(t, 0)

	w := env.scheduled(t, "?user_id="+ownerID+"&force_update=maybe")

	expectStatus(t, w, http.StatusBadRequest)
}

func TestScheduledUpdateNothingDue(t *testing.T) {
	env := newTestEnv(t, 3)
	env.addCampaign(t, ownerID)

	w := env.scheduled(t, "?user_id="+ownerID)

	expectStatus(t, w, http.StatusOK)
	summary := decode[content.UpdateSummary](t, w)
	if summary.Processed != 0 || summary.Failed != 0 {
		t.Errorf("Expected nothing processed, got %+v", summary)
	}
}

func TestScheduledUpdateAllFailed(t *testing.T) {
	env := newTestEnv(t, 3)
	campaign := env.addCampaign(t, ownerID)
	campaign.UpdateSchedule = true
	if err := env.store.UpdateCampaign(context.Background(), campaign); err != nil {
		t.Fatalf("Failed to update campaign: %v", err)
	}

	w := env.scheduled(t, "?user_id="+ownerID+"&force_update=true")

	expectStatus(t, w, http.StatusInternalServerError)
	body := decode[errorResponse](t, w)
	if body.Kind != "upstream" {
		t.Errorf("Expected upstream kind, got %q", body.Kind)
	}
}
