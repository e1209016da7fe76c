package proposal

import (
	"context"

	"github.com/sequenceit/proposaldesk/internal/event_bus"
	"github.com/sequenceit/proposaldesk/internal/lenient"
	"github.com/sequenceit/proposaldesk/pkg/budget"
)

// Editor pairs a Document with a budget engine loaded from its cost tables.
// Budget changes go through Budget; Capture folds them back into the document.
type Editor struct {
	doc    Document
	Budget *budget.Engine
}

func NewEditor(ctx context.Context, doc Document, bus *event_bus.EventBus) *Editor {
	engine := budget.NewEngine(ctx, bus)
	engine.Import(doc.Draft)
	return &Editor{doc: doc, Budget: engine}
}

// Capture writes the engine's rows and flags into the document and sets
// totalBudget to the current grand total.
func (e *Editor) Capture() Document {
	e.doc.Draft = e.Budget.Export()
	e.doc.TotalBudget = lenient.Number(e.Budget.Recompute().Grand)
	return e.doc
}

func (e *Editor) Document() Document {
	return e.doc
}
