package proposal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sequenceit/proposaldesk/internal/lenient"
	"github.com/sequenceit/proposaldesk/pkg/budget"
	log "github.com/sirupsen/logrus"
)

var ErrIncompleteDocument = errors.New("proposal is missing projectTitle or executiveSummary")

const UntitledDraft = "Untitled Draft"

// Document is a complete proposal as produced by the generator and edited by
// the user. The budget keys are promoted from the embedded budget.Draft.
type Document struct {
	DocumentId       string                    `json:"documentId"`
	DocumentOwner    string                    `json:"documentOwner"`
	IssueDate        string                    `json:"issueDate"`
	ProjectTitle     string                    `json:"projectTitle"`
	StartingDate     string                    `json:"startingDate"`
	HandoverDate     string                    `json:"handoverDate"`
	DocumentHistory  lenient.List[Revision]    `json:"documentHistory"`
	DocumentApproval lenient.List[Approval]    `json:"documentApproval"`
	ExecutiveSummary string                    `json:"executiveSummary"`
	Background       string                    `json:"background"`
	Requirements     Requirements              `json:"requirements"`
	Proposal         Vision                    `json:"proposal"`
	Deliverables     lenient.List[Deliverable] `json:"deliverables"`
	Timeframe        lenient.List[Task]        `json:"timeframe"`

	budget.Draft

	TotalBudget    lenient.Number          `json:"totalBudget"`
	Ownership      string                  `json:"ownership"`
	OwnershipTable lenient.List[Ownership] `json:"ownershipTable"`
}

type Revision struct {
	Version string `json:"version"`
	Date    string `json:"date"`
	Changes string `json:"changes"`
}

type Approval struct {
	Role string `json:"role"`
	Name string `json:"name"`
	Date string `json:"date"`
}

type Requirements struct {
	BusinessProblem string `json:"businessProblem"`
	Solution        string `json:"solution"`
}

type Vision struct {
	VisionAndGoal       string       `json:"visionAndGoal"`
	IncludeDeliverables lenient.Flag `json:"includeDeliverables"`
}

type Deliverable struct {
	Feature     string `json:"feature"`
	Description string `json:"description"`
}

type Task struct {
	Task     string `json:"task"`
	Duration string `json:"duration"`
}

type Ownership struct {
	Role    string `json:"role"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// Parse decodes a proposal document. Fields with the wrong JSON type are left
// empty; only a syntactically broken document is an error.
func Parse(data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Document{}, fmt.Errorf("invalid proposal document: expected a JSON object")
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return Document{}, fmt.Errorf("invalid proposal document: %w", err)
		}
		log.Debugf("proposal partially decoded: %v", err)
	}
	return doc, nil
}

// Validate checks the fields every generated proposal must carry.
func (d Document) Validate() error {
	if strings.TrimSpace(d.ProjectTitle) == "" || strings.TrimSpace(d.ExecutiveSummary) == "" {
		return ErrIncompleteDocument
	}
	return nil
}

func (d Document) Title() string {
	if t := strings.TrimSpace(d.ProjectTitle); t != "" {
		return t
	}
	return UntitledDraft
}

// TaskRow is a timeframe task with its displayed 1-based ordinal.
type TaskRow struct {
	Ordinal int
	Task
}

func (d Document) TimeframeRows() []TaskRow {
	rows := make([]TaskRow, 0, len(d.Timeframe))
	for i, t := range d.Timeframe {
		rows = append(rows, TaskRow{Ordinal: i + 1, Task: t})
	}
	return rows
}

// VisibleDeliverables returns the deliverables unless the section is switched off.
func (d Document) VisibleDeliverables() []Deliverable {
	if !bool(d.Proposal.IncludeDeliverables) {
		return nil
	}
	return d.Deliverables
}

// New returns a blank proposal: one empty row per cost table, an initial
// history entry and the optional cost sections switched off.
func New(documentId, issueDate string) Document {
	qty := lenient.Number(0)
	return Document{
		DocumentId:       documentId,
		IssueDate:        issueDate,
		DocumentHistory:  lenient.List[Revision]{{Version: "1.0", Date: issueDate, Changes: "Initial Draft"}},
		DocumentApproval: lenient.List[Approval]{},
		Proposal:         Vision{IncludeDeliverables: true},
		Deliverables:     lenient.List[Deliverable]{},
		Timeframe:        lenient.List[Task]{},
		Draft: budget.Draft{
			InfrastructureCosts: lenient.List[budget.InfrastructureCost]{{Qty: &qty, Currency: string(budget.DefaultCurrency)}},
			DevelopmentCosts:    lenient.List[budget.DevelopmentCost]{{Currency: string(budget.DefaultCurrency)}},
			MaintenanceCosts: &budget.MaintenanceCosts{
				Costs: lenient.List[budget.MaintenanceCost]{{Currency: string(budget.DefaultCurrency)}},
			},
			RiskControl: &budget.RiskControl{
				Budget: lenient.List[budget.RiskCost]{{Currency: string(budget.DefaultCurrency)}},
			},
		},
		OwnershipTable: lenient.List[Ownership]{},
	}
}
