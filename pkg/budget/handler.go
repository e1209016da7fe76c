package budget

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type RowDTO struct {
	Ordinal  int      `json:"ordinal"`
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity,omitempty"`
	Cost     float64  `json:"cost"`
	Currency string   `json:"currency"`
	Amount   float64  `json:"amount"`
}

type SectionDTO struct {
	Category string   `json:"category"`
	Enabled  bool     `json:"enabled"`
	Total    float64  `json:"total"`
	Rows     []RowDTO `json:"rows"`
}

// StateDTO is what the editor renders after every change: the totals and the
// numbered rows of each section.
type StateDTO struct {
	Totals   Snapshot     `json:"totals"`
	Sections []SectionDTO `json:"sections"`
}

func SectionToDTO(s Section) SectionDTO {
	dto := SectionDTO{
		Category: string(s.Category),
		Enabled:  s.Counts(),
		Total:    s.Total(),
		Rows:     make([]RowDTO, 0, len(s.Items)),
	}
	for _, row := range s.Rows() {
		r := RowDTO{
			Ordinal:  row.Ordinal,
			Name:     row.Name,
			Cost:     row.Cost,
			Currency: string(row.Currency),
			Amount:   row.Amount(s.Category),
		}
		if s.Category == Infrastructure {
			qty := row.Quantity
			r.Quantity = &qty
		}
		dto.Rows = append(dto.Rows, r)
	}
	return dto
}

func StateToDTO(sections []Section, totals Snapshot) StateDTO {
	dto := StateDTO{Totals: totals, Sections: make([]SectionDTO, 0, len(sections))}
	for _, s := range sections {
		dto.Sections = append(dto.Sections, SectionToDTO(s))
	}
	return dto
}

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Totals godoc
// @Summary Calculate budget totals
// @Description Calculate section and grand totals for a posted draft or proposal without storing it
// @Tags Budget
// @Accept json
// @Produce json
// @Success 200 {object} StateDTO
// @Failure 400 {string} string "Bad Request"
// @Router /api/budget/totals [post]
func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	log.Debug("Calculating budget totals")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	d, err := ParseDraft(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	engine := NewEngine(r.Context(), nil)
	engine.Import(d)

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(StateToDTO(engine.Sections(), engine.Recompute())); err != nil {
		log.Errorf("failed to encode budget totals: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Errorf("failed to write budget totals: %v", err)
	}
}
