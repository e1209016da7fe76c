package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sequenceit/proposaldesk/internal/event_bus"
	"github.com/sequenceit/proposaldesk/internal/utils"
	"github.com/sequenceit/proposaldesk/pkg/budget"
	"github.com/sequenceit/proposaldesk/pkg/proposal"
	log "github.com/sirupsen/logrus"
)

var (
	ErrMissingDescription = errors.New("Missing projectDescription")
	ErrNoDocument         = errors.New("model answer does not contain a JSON object")
)

// Completer sends a system and a user message to a chat model.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

type Service interface {
	// Generate returns the raw model answer for a project description.
	Generate(ctx context.Context, description string) (string, error)
	// GenerateDocument parses the model answer into a proposal whose
	// totalBudget matches its cost tables.
	GenerateDocument(ctx context.Context, description string) (proposal.Document, budget.Snapshot, error)
}

type ServiceImpl struct {
	completer Completer
	eventBus  *event_bus.EventBus
	clock     utils.Clock
}

func NewService(completer Completer, eventBus *event_bus.EventBus, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{completer: completer, eventBus: eventBus, clock: clock}
}

func (s *ServiceImpl) Generate(ctx context.Context, description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", ErrMissingDescription
	}

	start := s.clock.Now()
	content, err := s.completer.Complete(ctx, systemPrompt, buildPrompt(description, utils.Today(s.clock)))
	s.published(ctx, StatusOf(err), s.clock.Now().Sub(start))
	if err != nil {
		return "", err
	}
	return content, nil
}

func (s *ServiceImpl) GenerateDocument(ctx context.Context, description string) (proposal.Document, budget.Snapshot, error) {
	content, err := s.Generate(ctx, description)
	if err != nil {
		return proposal.Document{}, budget.Snapshot{}, err
	}

	raw := ExtractJSON(content)
	if raw == "" {
		return proposal.Document{}, budget.Snapshot{}, ErrNoDocument
	}
	doc, err := proposal.Parse([]byte(raw))
	if err != nil {
		return proposal.Document{}, budget.Snapshot{}, fmt.Errorf("failed to parse generated proposal: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return proposal.Document{}, budget.Snapshot{}, err
	}
	if doc.IssueDate == "" {
		doc.IssueDate = utils.Today(s.clock)
	}
	doc.Draft = doc.Draft.HideEmptyOptional()

	editor := proposal.NewEditor(ctx, doc, s.eventBus)
	stated := doc.TotalBudget.Float()
	doc = editor.Capture()
	totals := editor.Budget.Recompute()
	if stated != totals.Grand {
		log.Infof("generated proposal stated total %.2f, cost tables add up to %.2f", stated, totals.Grand)
	}
	return doc, totals, nil
}

func (s *ServiceImpl) published(ctx context.Context, status int, took time.Duration) {
	if s.eventBus == nil {
		return
	}
	err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.ProposalGeneratedEvent, event_bus.ProposalGenerated{
		Status:   status,
		Duration: took.Seconds(),
	}))
	if err != nil {
		log.Warnf("failed to publish generation event: %v", err)
	}
}

// StatusOf maps a generation error to the HTTP status returned to the caller.
func StatusOf(err error) int {
	var upstream *UpstreamError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMissingDescription):
		return http.StatusBadRequest
	case errors.As(err, &upstream):
		return upstream.Status
	case errors.Is(err, ErrNoDocument), errors.Is(err, proposal.ErrIncompleteDocument):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// MessageOf is the message reported to the caller for a generation error.
func MessageOf(err error) string {
	var upstream *UpstreamError
	switch {
	case errors.As(err, &upstream):
		return upstream.Message
	case err == nil:
		return ""
	case err.Error() == "":
		return "Server error"
	default:
		return err.Error()
	}
}
