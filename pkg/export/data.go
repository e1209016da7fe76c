package export

import (
	"context"
	"time"

	"github.com/sequenceit/proposaldesk/pkg/budget"
	"github.com/sequenceit/proposaldesk/pkg/proposal"
)

var sectionTitles = map[budget.Category]string{
	budget.Infrastructure: "Infrastructure Costs",
	budget.Development:    "Development Costs",
	budget.Maintenance:    "Maintenance Costs",
	budget.Risk:           "Risk Control Budget",
}

// Data is everything a renderer needs, with totals already computed.
type Data struct {
	DocumentId    string
	Title         string
	DocumentOwner string
	IssueDate     string
	StartingDate  string
	HandoverDate  string

	ExecutiveSummary string
	Background       string
	BusinessProblem  string
	Solution         string
	VisionAndGoal    string
	Deliverables     []proposal.Deliverable
	Timeframe        []proposal.TaskRow
	Ownership        string
	OwnershipTable   []proposal.Ownership

	Sections  []SectionData
	Totals    budget.Snapshot
	Generated time.Time
}

type SectionData struct {
	Category budget.Category
	Title    string
	Enabled  bool
	Rows     []RowData
	Total    float64
}

type RowData struct {
	Ordinal  int
	Name     string
	Quantity float64
	Cost     float64
	Amount   float64
	Currency budget.Currency
}

// HasQuantity reports whether the section's rows carry a quantity column.
func (s SectionData) HasQuantity() bool {
	return s.Category == budget.Infrastructure
}

// Build loads doc's cost tables into a budget engine and captures the result.
// Disabled optional sections are kept with Enabled false and a zero total.
func Build(ctx context.Context, doc proposal.Document, generated time.Time) Data {
	editor := proposal.NewEditor(ctx, doc, nil)
	totals := editor.Budget.Recompute()

	data := Data{
		DocumentId:       doc.DocumentId,
		Title:            doc.Title(),
		DocumentOwner:    doc.DocumentOwner,
		IssueDate:        doc.IssueDate,
		StartingDate:     doc.StartingDate,
		HandoverDate:     doc.HandoverDate,
		ExecutiveSummary: doc.ExecutiveSummary,
		Background:       doc.Background,
		BusinessProblem:  doc.Requirements.BusinessProblem,
		Solution:         doc.Requirements.Solution,
		VisionAndGoal:    doc.Proposal.VisionAndGoal,
		Deliverables:     doc.VisibleDeliverables(),
		Timeframe:        doc.TimeframeRows(),
		Ownership:        doc.Ownership,
		OwnershipTable:   doc.OwnershipTable,
		Totals:           totals,
		Generated:        generated,
	}

	for _, s := range editor.Budget.Sections() {
		section := SectionData{
			Category: s.Category,
			Title:    sectionTitles[s.Category],
			Enabled:  s.Counts(),
			Total:    totals.Of(s.Category),
		}
		for _, r := range s.Rows() {
			section.Rows = append(section.Rows, RowData{
				Ordinal:  r.Ordinal,
				Name:     r.Name,
				Quantity: r.Quantity,
				Cost:     r.Cost,
				Amount:   r.Amount(s.Category),
				Currency: r.Currency,
			})
		}
		data.Sections = append(data.Sections, section)
	}
	return data
}
