package event_bus

const (
	BudgetRecomputedEvent  EventType = "budget.recomputed"
	DraftSavedEvent        EventType = "draft.saved"
	DraftDeletedEvent      EventType = "draft.deleted"
	ProposalGeneratedEvent EventType = "proposal.generated"
	DocumentExportedEvent  EventType = "document.exported"
)

// BudgetRecomputed is published after every change to a proposal's budget.
type BudgetRecomputed struct {
	InfraTotal         float64
	DevTotal           float64
	MaintTotal         float64
	RiskTotal          float64
	GrandTotal         float64
	MaintenanceEnabled bool
	RiskEnabled        bool
}

type DraftSaved struct {
	UserId       string
	DocumentId   string
	ProjectTitle string
	TotalBudget  float64
	// Created is false when an existing draft with the same title was overwritten.
	Created bool
}

type DraftDeleted struct {
	UserId  string
	DraftId string
}

// ProposalGenerated is published after every call to the completions API.
// Status is the HTTP status reported to the caller.
type ProposalGenerated struct {
	Status   int
	Duration float64
}

type DocumentExported struct {
	DocumentId string
	Format     string
}
