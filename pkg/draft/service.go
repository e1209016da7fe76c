package draft

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sequenceit/proposaldesk/internal/event_bus"
	"github.com/sequenceit/proposaldesk/internal/utils"
	"github.com/sequenceit/proposaldesk/pkg/budget"
	"github.com/sequenceit/proposaldesk/pkg/proposal"
	"github.com/sequenceit/proposaldesk/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	// Save stores doc as a draft of the current user, replacing the draft with
	// the same project title if there is one.
	Save(ctx context.Context, doc proposal.Document) (Draft, error)
	Get(ctx context.Context, id string) (Draft, error)
	List(ctx context.Context) ([]Draft, error)
	Delete(ctx context.Context, id string) (bool, error)
	NewDocumentId(ctx context.Context) string
	NewDraft(ctx context.Context) proposal.Document
	Import(ctx context.Context, file LocalFile) (Draft, error)

	Budget(ctx context.Context, id string) (Draft, budget.Snapshot, error)
	AddRow(ctx context.Context, id string, category budget.Category) (Draft, budget.Snapshot, error)
	RemoveRow(ctx context.Context, id string, category budget.Category, position int) (Draft, budget.Snapshot, error)
	SetField(ctx context.Context, id string, category budget.Category, position int, field budget.Field, value string) (Draft, budget.Snapshot, error)
	SetSectionEnabled(ctx context.Context, id string, category budget.Category, enabled bool) (Draft, budget.Snapshot, error)
}

const (
	documentIdAttempts = 5
	documentIdBackoff  = 100 * time.Millisecond

	editLockStripes = 64
)

var sequentialId = regexp.MustCompile(`^PROP-\d{4}-(\d{3,})$`)

type ServiceImpl struct {
	repo     Repository
	eventBus *event_bus.EventBus
	clock    utils.Clock
	sleep    func(time.Duration)

	// locks serialise budget edits; drafts share a stripe by id hash.
	locks [editLockStripes]sync.Mutex
}

func NewService(repo Repository, eventBus *event_bus.EventBus, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{
		repo:     repo,
		eventBus: eventBus,
		clock:    clock,
		sleep:    time.Sleep,
	}
}

func (s *ServiceImpl) Save(ctx context.Context, doc proposal.Document) (Draft, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Draft{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if doc.DocumentId == "" {
		doc.DocumentId = s.NewDocumentId(ctx)
	}
	if doc.IssueDate == "" {
		doc.IssueDate = utils.Today(s.clock)
	}

	draft := fromDocument(doc)
	draft.UpdatedAt = s.clock.Now().UTC()

	existing, err := s.repo.FindByTitle(ctx, userId, draft.ProjectTitle)
	created := false
	switch {
	case errors.Is(err, ErrDraftNotFound):
		created = true
		draft.Id = uuid.NewString()
		draft.CreatedAt = draft.UpdatedAt
		draft, err = s.repo.Create(ctx, userId, draft)
	case err == nil:
		draft.Id = existing.Id
		draft, err = s.repo.Update(ctx, userId, draft)
	}
	if err != nil {
		return Draft{}, err
	}

	log.Infof("draft %q (%s) saved for user %s", draft.ProjectTitle, draft.DocumentId, userId)
	s.publish(ctx, event_bus.DraftSavedEvent, event_bus.DraftSaved{
		UserId:       userId,
		DocumentId:   draft.DocumentId,
		ProjectTitle: draft.ProjectTitle,
		TotalBudget:  draft.Document.TotalBudget.Float(),
		Created:      created,
	})
	return draft, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id string) (Draft, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Draft{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Get(ctx, userId, id)
}

func (s *ServiceImpl) List(ctx context.Context) ([]Draft, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.List(ctx, userId)
}

func (s *ServiceImpl) Delete(ctx context.Context, id string) (bool, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get current user: %w", err)
	}
	deleted, err := s.repo.Delete(ctx, userId, id)
	if err != nil || !deleted {
		return deleted, err
	}
	s.publish(ctx, event_bus.DraftDeletedEvent, event_bus.DraftDeleted{UserId: userId, DraftId: id})
	return true, nil
}

// NewDocumentId returns the next sequential id of the current year, e.g.
// PROP-2026-007. When no free sequential id can be confirmed the id falls back
// to PROP-<year>-T followed by the last six digits of the unix millisecond time.
func (s *ServiceImpl) NewDocumentId(ctx context.Context) string {
	now := s.clock.Now()
	prefix := fmt.Sprintf("PROP-%d-", now.Year())

	for attempt := 0; attempt < documentIdAttempts; attempt++ {
		candidate, err := s.nextSequentialId(ctx, prefix)
		if err == nil {
			exists, err := s.repo.DocumentIdExists(ctx, candidate)
			if err == nil && !exists {
				return candidate
			}
			log.Warnf("document id %s is taken, retrying", candidate)
		}
		s.sleep(documentIdBackoff * time.Duration(attempt))
	}

	millis := strconv.FormatInt(now.UnixMilli(), 10)
	fallback := prefix + "T" + millis[len(millis)-6:]
	log.Warnf("could not allocate a sequential document id, using %s", fallback)
	return fallback
}

func (s *ServiceImpl) nextSequentialId(ctx context.Context, prefix string) (string, error) {
	ids, err := s.repo.DocumentIds(ctx, prefix)
	if err != nil {
		return "", err
	}
	highest := 0
	for _, id := range ids {
		m := sequentialId.FindStringSubmatch(id)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, highest+1), nil
}

func (s *ServiceImpl) NewDraft(ctx context.Context) proposal.Document {
	return proposal.New(s.NewDocumentId(ctx), utils.Today(s.clock))
}

// Import saves the document carried by a local draft file.
func (s *ServiceImpl) Import(ctx context.Context, file LocalFile) (Draft, error) {
	doc := file.Data
	if doc.ProjectTitle == "" && file.Title != proposal.UntitledDraft {
		doc.ProjectTitle = file.Title
	}
	return s.Save(ctx, doc)
}

func (s *ServiceImpl) Budget(ctx context.Context, id string) (Draft, budget.Snapshot, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return Draft{}, budget.Snapshot{}, err
	}
	return d, proposal.NewEditor(ctx, d.Document, nil).Budget.Recompute(), nil
}

func (s *ServiceImpl) AddRow(ctx context.Context, id string, category budget.Category) (Draft, budget.Snapshot, error) {
	return s.editBudget(ctx, id, func(e *budget.Engine) { e.AddRow(category) })
}

func (s *ServiceImpl) RemoveRow(ctx context.Context, id string, category budget.Category, position int) (Draft, budget.Snapshot, error) {
	return s.editBudget(ctx, id, func(e *budget.Engine) { e.RemoveRow(category, position) })
}

func (s *ServiceImpl) SetField(ctx context.Context, id string, category budget.Category, position int, field budget.Field, value string) (Draft, budget.Snapshot, error) {
	return s.editBudget(ctx, id, func(e *budget.Engine) { e.SetField(category, position, field, value) })
}

func (s *ServiceImpl) SetSectionEnabled(ctx context.Context, id string, category budget.Category, enabled bool) (Draft, budget.Snapshot, error) {
	return s.editBudget(ctx, id, func(e *budget.Engine) { e.SetSectionEnabled(category, enabled) })
}

// editBudget loads a draft, applies one engine operation and stores the result.
// Edits of the same draft are serialised within this process.
func (s *ServiceImpl) editBudget(ctx context.Context, id string, edit func(*budget.Engine)) (Draft, budget.Snapshot, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Draft{}, budget.Snapshot{}, fmt.Errorf("failed to get current user: %w", err)
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	d, err := s.repo.Get(ctx, userId, id)
	if err != nil {
		return Draft{}, budget.Snapshot{}, err
	}

	editor := proposal.NewEditor(ctx, d.Document, s.eventBus)
	edit(editor.Budget)
	d.Document = editor.Capture()
	d.UpdatedAt = s.clock.Now().UTC()

	d, err = s.repo.Update(ctx, userId, d)
	if err != nil {
		return Draft{}, budget.Snapshot{}, err
	}
	return d, editor.Budget.Recompute(), nil
}

func (s *ServiceImpl) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.locks[h.Sum32()%editLockStripes]
}

func (s *ServiceImpl) publish(ctx context.Context, eventType event_bus.EventType, data any) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(event_bus.NewEvent(ctx, eventType, data)); err != nil {
		log.Warnf("failed to publish %s: %v", eventType, err)
	}
}
