package export

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sequenceit/proposaldesk/pkg/draft"
	"github.com/sequenceit/proposaldesk/pkg/proposal"
	"github.com/sequenceit/proposaldesk/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ExportDraft godoc
// @Summary Export a draft
// @Description Render a stored draft as PDF, Excel workbook or CSV budget sheet
// @Tags Export
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Param draftId path string true "Draft ID"
// @Param format query string false "pdf (default), xlsx or csv"
// @Success 200 {file} file
// @Failure 400 {string} string "Unknown format"
// @Failure 404 {string} string "Draft not found"
// @Router /api/drafts/{draftId}/export [get]
// @Security XUserId
func (h *Handler) ExportDraft(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["draftId"]
	log.Debugf("Exporting draft %s", id)
	f, err := ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	file, err := h.service.ExportDraft(r.Context(), id, f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeFile(w, file)
}

// ExportDocument godoc
// @Summary Export a document
// @Description Render the posted proposal document without storing it
// @Tags Export
// @Accept json
// @Produce application/pdf
// @Param format query string false "pdf (default), xlsx or csv"
// @Param document body proposal.Document true "Proposal document"
// @Success 200 {file} file
// @Failure 400 {string} string "Bad Request"
// @Router /api/export [post]
func (h *Handler) ExportDocument(w http.ResponseWriter, r *http.Request) {
	log.Debug("Exporting posted document")
	f, err := ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
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
	file, err := h.service.ExportDocument(r.Context(), doc, f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeFile(w, file)
}

func writeFile(w http.ResponseWriter, file File) {
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Content); err != nil {
		log.Errorf("failed to write export: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, draft.ErrDraftNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrUnknownFormat):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("export failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
