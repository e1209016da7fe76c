package draft

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sequenceit/proposaldesk/internal/lenient"
	"github.com/sequenceit/proposaldesk/internal/utils"
	"github.com/sequenceit/proposaldesk/pkg/budget"
	"github.com/sequenceit/proposaldesk/pkg/proposal"
	"github.com/sequenceit/proposaldesk/pkg/user"
	log "github.com/sirupsen/logrus"
)

type SummaryDTO struct {
	Id            string    `json:"id"`
	DocumentId    string    `json:"documentId"`
	ProjectTitle  string    `json:"projectTitle"`
	DocumentOwner string    `json:"documentOwner"`
	IssueDate     string    `json:"issueDate"`
	StartingDate  string    `json:"startingDate"`
	HandoverDate  string    `json:"handoverDate"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type DraftDTO struct {
	SummaryDTO
	Content proposal.Document `json:"content"`
}

type BudgetDTO struct {
	DraftId string `json:"draftId"`
	budget.StateDTO
}

type SetFieldDTO struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

type SetEnabledDTO struct {
	Enabled lenient.Flag `json:"enabled"`
}

func DraftToSummaryDTO(d Draft) SummaryDTO {
	return SummaryDTO{
		Id:            d.Id,
		DocumentId:    d.DocumentId,
		ProjectTitle:  d.ProjectTitle,
		DocumentOwner: d.DocumentOwner,
		IssueDate:     d.IssueDate,
		StartingDate:  d.StartingDate,
		HandoverDate:  d.HandoverDate,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func DraftToDTO(d Draft) DraftDTO {
	return DraftDTO{SummaryDTO: DraftToSummaryDTO(d), Content: d.Document}
}

func DraftToBudgetDTO(d Draft, totals budget.Snapshot) BudgetDTO {
	return BudgetDTO{DraftId: d.Id, StateDTO: budget.StateToDTO(d.Document.Draft.Sections(), totals)}
}

type Handler struct {
	service Service
	clock   utils.Clock
}

func NewHandler(service Service, clock utils.Clock) *Handler {
	return &Handler{service: service, clock: clock}
}

// List godoc
// @Summary List drafts
// @Description List the current user's drafts, most recently updated first
// @Tags Draft
// @Produce json
// @Success 200 {array} SummaryDTO
// @Failure 403 {string} string "User not found"
// @Router /api/drafts [get]
// @Security XUserId
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing drafts")
	drafts, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]SummaryDTO, 0, len(drafts))
	for _, d := range drafts {
		dtos = append(dtos, DraftToSummaryDTO(d))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Save godoc
// @Summary Save a draft
// @Description Store a proposal document. A draft with the same project title is overwritten.
// @Tags Draft
// @Accept json
// @Produce json
// @Param document body proposal.Document true "Proposal document"
// @Success 200 {object} DraftDTO
// @Failure 400 {string} string "Bad Request"
// @Failure 403 {string} string "User not found"
// @Router /api/drafts [post]
// @Security XUserId
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	log.Debug("Saving draft")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := proposal.Parse(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	d, err := h.service.Save(r.Context(), doc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DraftToDTO(d))
}

// New godoc
// @Summary Start a new draft
// @Description Return a blank proposal with a fresh document id and today's issue date. Nothing is stored.
// @Tags Draft
// @Produce json
// @Success 200 {object} proposal.Document
// @Router /api/drafts/new [get]
func (h *Handler) New(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating blank draft")
	writeJSON(w, http.StatusOK, h.service.NewDraft(r.Context()))
}

// Get godoc
// @Summary Get a draft
// @Tags Draft
// @Produce json
// @Param draftId path string true "Draft ID"
// @Success 200 {object} DraftDTO
// @Failure 403 {string} string "User not found"
// @Failure 404 {string} string "Draft not found"
// @Router /api/drafts/{draftId} [get]
// @Security XUserId
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["draftId"]
	log.Debugf("Getting draft %s", id)
	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DraftToDTO(d))
}

// Delete godoc
// @Summary Delete a draft
// @Tags Draft
// @Param draftId path string true "Draft ID"
// @Success 204
// @Failure 403 {string} string "User not found"
// @Failure 404 {string} string "Draft not found"
// @Router /api/drafts/{draftId} [delete]
// @Security XUserId
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["draftId"]
	log.Debugf("Deleting draft %s", id)
	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		http.Error(w, ErrDraftNotFound.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Download godoc
// @Summary Download a draft file
// @Description Download a stored draft as a local draft file
// @Tags Draft
// @Produce json
// @Param draftId path string true "Draft ID"
// @Success 200 {object} LocalFile
// @Failure 404 {string} string "Draft not found"
// @Router /api/drafts/{draftId}/file [get]
// @Security XUserId
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["draftId"]
	log.Debugf("Downloading draft %s", id)
	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	file := NewLocalFile(d.Document, h.clock.Now())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName()))
	if err := file.Write(w); err != nil {
		log.Errorf("failed to write draft file: %v", err)
	}
}

// Upload godoc
// @Summary Import a draft file
// @Description Store the proposal carried by a local draft file
// @Tags Draft
// @Accept json
// @Produce json
// @Param file body LocalFile true "Draft file"
// @Success 200 {object} DraftDTO
// @Failure 400 {string} string "Bad Request"
// @Router /api/drafts/file [post]
// @Security XUserId
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	log.Debug("Importing draft file")
	file, err := ReadLocalFile(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	d, err := h.service.Import(r.Context(), file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DraftToDTO(d))
}

// GetBudget godoc
// @Summary Get a draft's budget
// @Tags Budget
// @Produce json
// @Param draftId path string true "Draft ID"
// @Success 200 {object} BudgetDTO
// @Failure 404 {string} string "Draft not found"
// @Router /api/drafts/{draftId}/budget [get]
// @Security XUserId
func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["draftId"]
	log.Debugf("Getting budget of draft %s", id)
	d, totals, err := h.service.Budget(r.Context(), id)
	h.writeBudget(w, d, totals, err)
}

// AddRow godoc
// @Summary Add a budget row
// @Tags Budget
// @Produce json
// @Param draftId path string true "Draft ID"
// @Param category path string true "infrastructure, development, maintenance or risk"
// @Success 200 {object} BudgetDTO
// @Failure 400 {string} string "Unknown category"
// @Failure 404 {string} string "Draft not found"
// @Router /api/drafts/{draftId}/budget/{category}/rows [post]
// @Security XUserId
func (h *Handler) AddRow(w http.ResponseWriter, r *http.Request) {
	id, category, ok := budgetTarget(w, r)
	if !ok {
		return
	}
	log.Debugf("Adding %s row to draft %s", category, id)
	d, totals, err := h.service.AddRow(r.Context(), id, category)
	h.writeBudget(w, d, totals, err)
}

// SetField godoc
// @Summary Edit a budget cell
// @Tags Budget
// @Accept json
// @Produce json
// @Param draftId path string true "Draft ID"
// @Param category path string true "infrastructure, development, maintenance or risk"
// @Param position path int true "1-based row number"
// @Param cell body SetFieldDTO true "Field and value"
// @Success 200 {object} BudgetDTO
// @Failure 400 {string} string "Bad Request"
// @Failure 404 {string} string "Draft not found"
// @Router /api/drafts/{draftId}/budget/{category}/rows/{position} [patch]
// @Security XUserId
func (h *Handler) SetField(w http.ResponseWriter, r *http.Request) {
	id, category, ok := budgetTarget(w, r)
	if !ok {
		return
	}
	position, err := strconv.Atoi(mux.Vars(r)["position"])
	if err != nil {
		http.Error(w, "invalid row position", http.StatusBadRequest)
		return
	}
	var dto SetFieldDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	field, ok := budget.ParseField(dto.Field)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown field %q", dto.Field), http.StatusBadRequest)
		return
	}
	log.Debugf("Setting %s of %s row %d in draft %s", field, category, position, id)
	d, totals, err := h.service.SetField(r.Context(), id, category, position, field, rawValue(dto.Value))
	h.writeBudget(w, d, totals, err)
}

// RemoveRow godoc
// @Summary Remove a budget row
// @Tags Budget
// @Produce json
// @Param draftId path string true "Draft ID"
// @Param category path string true "infrastructure, development, maintenance or risk"
// @Param position path int true "1-based row number"
// @Success 200 {object} BudgetDTO
// @Failure 404 {string} string "Draft not found"
// @Router /api/drafts/{draftId}/budget/{category}/rows/{position} [delete]
// @Security XUserId
func (h *Handler) RemoveRow(w http.ResponseWriter, r *http.Request) {
	id, category, ok := budgetTarget(w, r)
	if !ok {
		return
	}
	position, err := strconv.Atoi(mux.Vars(r)["position"])
	if err != nil {
		http.Error(w, "invalid row position", http.StatusBadRequest)
		return
	}
	log.Debugf("Removing %s row %d from draft %s", category, position, id)
	d, totals, err := h.service.RemoveRow(r.Context(), id, category, position)
	h.writeBudget(w, d, totals, err)
}

// SetEnabled godoc
// @Summary Include or exclude an optional budget section
// @Tags Budget
// @Accept json
// @Produce json
// @Param draftId path string true "Draft ID"
// @Param category path string true "maintenance or risk"
// @Param enabled body SetEnabledDTO true "Section flag"
// @Success 200 {object} BudgetDTO
// @Failure 404 {string} string "Draft not found"
// @Router /api/drafts/{draftId}/budget/{category}/enabled [put]
// @Security XUserId
func (h *Handler) SetEnabled(w http.ResponseWriter, r *http.Request) {
	id, category, ok := budgetTarget(w, r)
	if !ok {
		return
	}
	var dto SetEnabledDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Debugf("Setting %s enabled=%t in draft %s", category, dto.Enabled, id)
	d, totals, err := h.service.SetSectionEnabled(r.Context(), id, category, bool(dto.Enabled))
	h.writeBudget(w, d, totals, err)
}

func (h *Handler) writeBudget(w http.ResponseWriter, d Draft, totals budget.Snapshot, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DraftToBudgetDTO(d, totals))
}

func budgetTarget(w http.ResponseWriter, r *http.Request) (string, budget.Category, bool) {
	vars := mux.Vars(r)
	category, ok := budget.ParseCategory(vars["category"])
	if !ok {
		http.Error(w, fmt.Sprintf("unknown budget category %q", vars["category"]), http.StatusBadRequest)
		return "", "", false
	}
	return vars["draftId"], category, true
}

// rawValue turns a JSON cell value into the text the engine parses: strings
// are used as they are, numbers keep their literal form, null is empty.
func rawValue(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	if string(v) == "null" {
		return ""
	}
	return string(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrDraftNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.Errorf("draft request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}
