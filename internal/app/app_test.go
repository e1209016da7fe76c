package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sequenceit/proposaldesk/internal/config"
	"github.com/sequenceit/proposaldesk/internal/test_utils"
	"github.com/sequenceit/proposaldesk/pkg/budget"
	"github.com/sequenceit/proposaldesk/pkg/draft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const document = `{
  "projectTitle": "Tour Guide Website",
  "executiveSummary": "Summary",
  "infrastructureCosts": [{"item": "Server", "qty": 2, "cost": 5000}, {"item": "Router", "qty": 1, "cost": 3000}],
  "developmentCosts": [{"task": "Platform", "cost": 100000}],
  "maintenanceCosts": {"include": "yes", "costs": [{"service": "Support", "cost": 10000}]},
  "riskControl": {"include": false, "budget": [{"risk": "Delay", "mitigation": 20000}]}
}`

func setupRouter(t *testing.T) http.Handler {
	db := test_utils.SetupTestDB(t)
	deps := BuildDependencies(draft.NewSQLiteRepository(db), config.Defaults())
	r := mux.NewRouter()
	SetupMiddleware(r, deps)
	RegisterRoutes(r, deps)
	return r
}

func request(h http.Handler, method, path, body, uid string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if uid != "" {
		req.Header.Set(userIdHeader, uid)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRoutes_DraftLifecycle(t *testing.T) {
	h := setupRouter(t)

	// save
	rr := request(h, "POST", "/api/drafts", document, "alice")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var saved draft.DraftDTO
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&saved))
	assert.Regexp(t, `^PROP-\d{4}-001$`, saved.DocumentId)

	// other users do not see it
	rr = request(h, "GET", "/api/drafts/"+saved.Id, "", "bob")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// edit the budget
	rr = request(h, "PUT", "/api/drafts/"+saved.Id+"/budget/risk/enabled", `{"enabled": true}`, "alice")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var state draft.BudgetDTO
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&state))
	assert.Equal(t, 143000.0, state.Totals.Grand)

	// export
	rr = request(h, "GET", "/api/drafts/"+saved.Id+"/export?format=csv", "", "alice")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Total Budget,,,,,143000.00,,")

	// delete
	rr = request(h, "DELETE", "/api/drafts/"+saved.Id, "", "alice")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	// metrics saw all of it
	rr = request(h, "GET", "/metrics", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `proposaldesk_drafts_saved_total{created="true"} 1`)
	assert.Contains(t, rr.Body.String(), `proposaldesk_exports_total{format="csv"} 1`)
	assert.Contains(t, rr.Body.String(), "proposaldesk_drafts_deleted_total 1")
}

func TestRoutes_RequireUser(t *testing.T) {
	h := setupRouter(t)

	rr := request(h, "GET", "/api/drafts", "", "")

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRoutes_Totals(t *testing.T) {
	h := setupRouter(t)

	rr := request(h, "POST", "/api/budget/totals", document, "")

	require.Equal(t, http.StatusOK, rr.Code)
	var state budget.StateDTO
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&state))
	assert.Equal(t, budget.Snapshot{Infrastructure: 13000, Development: 100000, Maintenance: 10000, Grand: 123000}, state.Totals)
}

func TestRoutes_GeneratorMethodNotAllowed(t *testing.T) {
	h := setupRouter(t)

	rr := request(h, "GET", "/api/generate-proposal", "", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.JSONEq(t, `{"error":{"message":"Method Not Allowed"}}`, rr.Body.String())
}

func TestRoutes_GeneratorMissingDescription(t *testing.T) {
	h := setupRouter(t)

	rr := request(h, "POST", "/api/generate-proposal", `{"projectDescription": ""}`, "")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":{"message":"Missing projectDescription"}}`, rr.Body.String())
}
