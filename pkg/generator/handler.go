package generator

import (
	"encoding/json"
	"net/http"

	"github.com/sequenceit/proposaldesk/pkg/budget"
	"github.com/sequenceit/proposaldesk/pkg/proposal"
	log "github.com/sirupsen/logrus"
)

type GenerateRequestDTO struct {
	ProjectDescription string `json:"projectDescription"`
}

type GenerateResponseDTO struct {
	Content string `json:"content"`
}

type DocumentResponseDTO struct {
	Document proposal.Document `json:"document"`
	Totals   budget.Snapshot   `json:"totals"`
}

type ErrorDTO struct {
	Error ErrorMessageDTO `json:"error"`
}

type ErrorMessageDTO struct {
	Message string `json:"message"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Generate godoc
// @Summary Generate a proposal
// @Description Send a project description to the language model and return its raw answer
// @Tags Generator
// @Accept json
// @Produce json
// @Param request body GenerateRequestDTO true "Project description"
// @Success 200 {object} GenerateResponseDTO
// @Failure 400 {object} ErrorDTO "Missing projectDescription"
// @Failure 500 {object} ErrorDTO "Invalid API response"
// @Router /api/generate-proposal [post]
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	log.Debug("Generating proposal")
	description, ok := readDescription(w, r)
	if !ok {
		return
	}
	content, err := h.service.Generate(r.Context(), description)
	if err != nil {
		WriteError(w, StatusOf(err), MessageOf(err))
		return
	}
	writeJSON(w, http.StatusOK, GenerateResponseDTO{Content: content})
}

// GenerateDocument godoc
// @Summary Generate a proposal document
// @Description Generate a proposal and return it parsed, with totalBudget matching its cost tables
// @Tags Generator
// @Accept json
// @Produce json
// @Param request body GenerateRequestDTO true "Project description"
// @Success 200 {object} DocumentResponseDTO
// @Failure 400 {object} ErrorDTO "Missing projectDescription"
// @Failure 422 {object} ErrorDTO "Model answer is not a proposal"
// @Router /api/generate-proposal/draft [post]
func (h *Handler) GenerateDocument(w http.ResponseWriter, r *http.Request) {
	log.Debug("Generating proposal document")
	description, ok := readDescription(w, r)
	if !ok {
		return
	}
	doc, totals, err := h.service.GenerateDocument(r.Context(), description)
	if err != nil {
		WriteError(w, StatusOf(err), MessageOf(err))
		return
	}
	writeJSON(w, http.StatusOK, DocumentResponseDTO{Document: doc, Totals: totals})
}

// MethodNotAllowed answers non-POST requests to the generator routes.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

// A body that is not JSON is treated like a missing description.
func readDescription(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req GenerateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debugf("unreadable generate request: %v", err)
	}
	if req.ProjectDescription == "" {
		WriteError(w, http.StatusBadRequest, ErrMissingDescription.Error())
		return "", false
	}
	return req.ProjectDescription, true
}

func WriteError(w http.ResponseWriter, status int, message string) {
	if status >= http.StatusInternalServerError {
		log.Errorf("proposal generation failed: %d %s", status, message)
	}
	writeJSON(w, status, ErrorDTO{Error: ErrorMessageDTO{Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}
