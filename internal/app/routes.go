package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sequenceit/proposaldesk/pkg/generator"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Drafts
	r.HandleFunc("/api/drafts", deps.DraftHandler.List).Methods("GET")
	r.HandleFunc("/api/drafts", deps.DraftHandler.Save).Methods("POST")
	r.HandleFunc("/api/drafts/new", deps.DraftHandler.New).Methods("GET")
	r.HandleFunc("/api/drafts/file", deps.DraftHandler.Upload).Methods("POST")
	r.HandleFunc("/api/drafts/{draftId}", deps.DraftHandler.Get).Methods("GET")
	r.HandleFunc("/api/drafts/{draftId}", deps.DraftHandler.Delete).Methods("DELETE")
	r.HandleFunc("/api/drafts/{draftId}/file", deps.DraftHandler.Download).Methods("GET")

	// Draft budget
	r.HandleFunc("/api/drafts/{draftId}/budget", deps.DraftHandler.GetBudget).Methods("GET")
	r.HandleFunc("/api/drafts/{draftId}/budget/{category}/rows", deps.DraftHandler.AddRow).Methods("POST")
	r.HandleFunc("/api/drafts/{draftId}/budget/{category}/rows/{position}", deps.DraftHandler.SetField).Methods("PATCH")
	r.HandleFunc("/api/drafts/{draftId}/budget/{category}/rows/{position}", deps.DraftHandler.RemoveRow).Methods("DELETE")
	r.HandleFunc("/api/drafts/{draftId}/budget/{category}/enabled", deps.DraftHandler.SetEnabled).Methods("PUT")

	// Export
	r.HandleFunc("/api/drafts/{draftId}/export", deps.ExportHandler.ExportDraft).Methods("GET")
	r.HandleFunc("/api/export", deps.ExportHandler.ExportDocument).Methods("POST")

	// Stateless budget totals
	r.HandleFunc("/api/budget/totals", deps.BudgetHandler.Totals).Methods("POST")

	// AI generator
	r.HandleFunc("/api/generate-proposal", deps.GeneratorHandler.Generate).Methods("POST")
	r.HandleFunc("/api/generate-proposal/draft", deps.GeneratorHandler.GenerateDocument).Methods("POST")

	r.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")

	r.MethodNotAllowedHandler = http.HandlerFunc(generator.MethodNotAllowed)
}
