package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/sequenceit/proposaldesk/pkg/budget"
)

var (
	grey       = &props.Color{Red: 90, Green: 90, Blue: 90}
	lightGrey  = &props.Color{Red: 150, Green: 150, Blue: 150}
	headerFill = &props.Cell{BackgroundColor: &props.Color{Red: 33, Green: 37, Blue: 41}}
	totalFill  = &props.Cell{BackgroundColor: &props.Color{Red: 240, Green: 240, Blue: 240}}
)

// charsPerLine approximates how much 9pt body text fits on one A4 line.
const charsPerLine = 105

// GeneratePDF renders the printable proposal.
func GeneratePDF(data Data) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   lightGrey,
		}).
		Build()

	m := maroto.New(cfg)

	addTitle(m, data)
	addParagraph(m, "Executive Summary", data.ExecutiveSummary)
	addParagraph(m, "Background", data.Background)
	addParagraph(m, "Business Problem", data.BusinessProblem)
	addParagraph(m, "Proposed Solution", data.Solution)
	addParagraph(m, "Vision and Goal", data.VisionAndGoal)
	addDeliverables(m, data)
	addTimeframe(m, data)

	addHeading(m, "Budget")
	for _, s := range data.Sections {
		addBudgetSection(m, s)
	}
	addGrandTotal(m, data)

	addParagraph(m, "Ownership", data.Ownership)
	addOwnership(m, data)
	addFooter(m, data.Generated)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func addTitle(m core.Maroto, data Data) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(text.New(data.Title, props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Center})),
		),
	)
	meta := props.Text{Size: 9, Color: grey}
	metaRight := meta
	metaRight.Align = align.Right
	m.AddRows(
		row.New(6).Add(
			col.New(6).Add(text.New("Document: "+data.DocumentId, meta)),
			col.New(6).Add(text.New("Issued: "+data.IssueDate, metaRight)),
		),
		row.New(6).Add(
			col.New(6).Add(text.New("Owner: "+data.DocumentOwner, meta)),
			col.New(6).Add(text.New(fmt.Sprintf("Schedule: %s to %s", data.StartingDate, data.HandoverDate), metaRight)),
		),
		row.New(4),
	)
}

func addHeading(m core.Maroto, title string) {
	m.AddRows(
		row.New(4),
		row.New(8).Add(col.New(12).Add(text.New(title, props.Text{Size: 12, Style: fontstyle.Bold}))),
	)
}

// addParagraph skips empty sections.
func addParagraph(m core.Maroto, title, body string) {
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}
	addHeading(m, title)
	m.AddRows(row.New(paragraphHeight(body)).Add(col.New(12).Add(text.New(body, props.Text{Size: 9}))))
}

func paragraphHeight(body string) float64 {
	lines := 0
	for _, l := range strings.Split(body, "\n") {
		lines += len(l)/charsPerLine + 1
	}
	return float64(lines) * 4.5
}

func addDeliverables(m core.Maroto, data Data) {
	if len(data.Deliverables) == 0 {
		return
	}
	addHeading(m, "Deliverables")
	addTableHeader(m, []string{"#", "Feature", "Description"}, []int{1, 3, 8})
	for i, d := range data.Deliverables {
		m.AddRows(row.New(paragraphHeight(d.Description)+2).Add(
			col.New(1).Add(text.New(fmt.Sprint(i+1), props.Text{Size: 8, Align: align.Center})),
			col.New(3).Add(text.New(d.Feature, props.Text{Size: 8, Style: fontstyle.Bold})),
			col.New(8).Add(text.New(d.Description, props.Text{Size: 8})),
		))
	}
}

func addTimeframe(m core.Maroto, data Data) {
	if len(data.Timeframe) == 0 {
		return
	}
	addHeading(m, "Timeframe")
	addTableHeader(m, []string{"#", "Task", "Duration"}, []int{1, 8, 3})
	for _, t := range data.Timeframe {
		m.AddRows(row.New(6).Add(
			col.New(1).Add(text.New(fmt.Sprint(t.Ordinal), props.Text{Size: 8, Align: align.Center})),
			col.New(8).Add(text.New(t.Task.Task, props.Text{Size: 8})),
			col.New(3).Add(text.New(t.Duration, props.Text{Size: 8})),
		))
	}
}

func addTableHeader(m core.Maroto, labels []string, widths []int) {
	cols := make([]core.Col, len(labels))
	for i, l := range labels {
		cols[i] = col.New(widths[i]).Add(
			text.New(l, props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Center, Color: &props.Color{Red: 255, Green: 255, Blue: 255}}),
		).WithStyle(headerFill)
	}
	m.AddRows(row.New(7).Add(cols...))
}

func addBudgetSection(m core.Maroto, s SectionData) {
	title := s.Title
	if !s.Enabled {
		title += " (not included)"
	}
	m.AddRows(row.New(7).Add(col.New(12).Add(text.New(title, props.Text{Size: 10, Style: fontstyle.Bold}))))

	costLabel := "Cost"
	if s.HasQuantity() {
		costLabel = "Unit Cost"
	}
	addTableHeader(m, []string{"#", "Description", "Qty", costLabel, "Amount"}, []int{1, 5, 1, 2, 3})

	cell := props.Text{Size: 8}
	if !s.Enabled {
		cell.Color = lightGrey
	}
	center, right := cell, cell
	center.Align = align.Center
	right.Align = align.Right
	for _, r := range s.Rows {
		qty := ""
		if s.HasQuantity() {
			qty = FormatQuantity(r.Quantity)
		}
		m.AddRows(row.New(6).Add(
			col.New(1).Add(text.New(fmt.Sprint(r.Ordinal), center)),
			col.New(5).Add(text.New(r.Name, cell)),
			col.New(1).Add(text.New(qty, center)),
			col.New(2).Add(text.New(FormatAmountCode(r.Cost, r.Currency), right)),
			col.New(3).Add(text.New(FormatAmountCode(r.Amount, r.Currency), right)),
		))
	}

	bold := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Right}
	m.AddRows(
		row.New(7).Add(
			col.New(9).Add(text.New("Subtotal", bold)).WithStyle(totalFill),
			col.New(3).Add(text.New(FormatAmountCode(s.Total, budget.DefaultCurrency), bold)).WithStyle(totalFill),
		),
		row.New(3),
	)
}

func addGrandTotal(m core.Maroto, data Data) {
	bold := props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}
	m.AddRows(row.New(9).Add(
		col.New(9).Add(text.New("Total Budget", bold)).WithStyle(totalFill),
		col.New(3).Add(text.New(FormatAmountCode(data.Totals.Grand, budget.DefaultCurrency), bold)).WithStyle(totalFill),
	))
}

func addOwnership(m core.Maroto, data Data) {
	if len(data.OwnershipTable) == 0 {
		return
	}
	addTableHeader(m, []string{"Role", "Name", "Contact"}, []int{4, 4, 4})
	for _, o := range data.OwnershipTable {
		m.AddRows(row.New(6).Add(
			col.New(4).Add(text.New(o.Role, props.Text{Size: 8})),
			col.New(4).Add(text.New(o.Name, props.Text{Size: 8})),
			col.New(4).Add(text.New(o.Contact, props.Text{Size: 8})),
		))
	}
}

func addFooter(m core.Maroto, generated time.Time) {
	m.AddRows(
		row.New(6),
		row.New(6).Add(col.New(12).Add(
			text.New("Generated on "+generated.Format("2006-01-02 15:04"), props.Text{Size: 7, Color: lightGrey}),
		)),
	)
}
