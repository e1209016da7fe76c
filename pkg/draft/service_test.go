package draft

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sequenceit/proposaldesk/internal/event_bus"
	"github.com/sequenceit/proposaldesk/internal/test_utils"
	"github.com/sequenceit/proposaldesk/internal/utils"
	"github.com/sequenceit/proposaldesk/pkg/budget"
	"github.com/sequenceit/proposaldesk/pkg/proposal"
	"github.com/sequenceit/proposaldesk/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = test_utils.UserContext()

var repoStub = NewRepositoryStub()

var clock = &utils.MockClock{}

var service *ServiceImpl

var sleeps []time.Duration

func setup(t *testing.T) func() {
	clock.SetNow(time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC))
	sleeps = nil
	service = NewService(repoStub, event_bus.NewEventBus(), clock)
	service.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return func() {
		repoStub.Cleanup()
	}
}

func sampleDocument(title string) proposal.Document {
	doc, err := proposal.Parse([]byte(`{
	  "projectTitle": "` + title + `",
	  "executiveSummary": "Summary",
	  "infrastructureCosts": [{"item": "Server", "qty": 2, "cost": 5000}, {"item": "Router", "qty": 1, "cost": 3000}],
	  "developmentCosts": [{"task": "Platform", "cost": 100000}],
	  "maintenanceCosts": {"include": false, "costs": [{"service": "Support", "cost": 10000}]},
	  "riskControl": {"include": true, "budget": [{"risk": "Delay", "mitigation": 20000}]}
	}`))
	if err != nil {
		panic(err)
	}
	return doc
}

func TestServiceImpl_Save(t *testing.T) {
	t.Run("should create a draft with a generated document id", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		d, err := service.Save(ctx, sampleDocument("Tour Guide Website"))

		// then
		require.NoError(t, err)
		assert.NotEmpty(t, d.Id)
		assert.Equal(t, "PROP-2026-001", d.DocumentId)
		assert.Equal(t, "PROP-2026-001", d.Document.DocumentId)
		assert.Equal(t, "2026-10-16", d.IssueDate)
		assert.Equal(t, clock.Now(), d.CreatedAt)
	})

	t.Run("should overwrite the draft with the same title", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		first, err := service.Save(ctx, sampleDocument("Tour Guide Website"))
		require.NoError(t, err)
		clock.Advance(time.Hour)
		updated := first.Document
		updated.Background = "New background"

		// when
		second, err := service.Save(ctx, updated)

		// then
		require.NoError(t, err)
		assert.Equal(t, first.Id, second.Id)
		assert.Equal(t, first.CreatedAt, second.CreatedAt)
		assert.Equal(t, clock.Now(), second.UpdatedAt)
		drafts, err := service.List(ctx)
		require.NoError(t, err)
		require.Len(t, drafts, 1)
		assert.Equal(t, "New background", drafts[0].Document.Background)
	})

	t.Run("should store untitled documents under the placeholder title", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		d, err := service.Save(ctx, proposal.Document{})

		require.NoError(t, err)
		assert.Equal(t, proposal.UntitledDraft, d.ProjectTitle)
	})

	t.Run("should publish draft.saved", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		bus := event_bus.NewEventBus()
		var saved []event_bus.DraftSaved
		event_bus.SubscribeTyped(bus, event_bus.DraftSavedEvent, func(e event_bus.EventT[event_bus.DraftSaved]) error {
			saved = append(saved, e.Data)
			return nil
		})
		service.eventBus = bus

		// when
		_, err := service.Save(ctx, sampleDocument("A"))
		require.NoError(t, err)
		_, err = service.Save(ctx, sampleDocument("A"))
		require.NoError(t, err)

		// then
		require.Len(t, saved, 2)
		assert.True(t, saved[0].Created)
		assert.False(t, saved[1].Created)
		assert.Equal(t, test_utils.TestUserId, saved[0].UserId)
	})

	t.Run("should return error when context has no user", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.Save(context.Background(), sampleDocument("A"))

		assert.ErrorIs(t, err, user.ErrNoUser)
		assert.Contains(t, err.Error(), "failed to get current user")
	})
}

func TestServiceImpl_GetAndDelete(t *testing.T) {
	teardown := setup(t)
	defer teardown()

	// given
	d, err := service.Save(ctx, sampleDocument("Tour Guide Website"))
	require.NoError(t, err)
	otherUser := user.WithId(context.Background(), "someone-else")

	// when
	_, errOther := service.Get(otherUser, d.Id)
	deletedOther, _ := service.Delete(otherUser, d.Id)
	deleted, errDelete := service.Delete(ctx, d.Id)
	_, errGone := service.Get(ctx, d.Id)

	// then
	assert.ErrorIs(t, errOther, ErrDraftNotFound)
	assert.False(t, deletedOther)
	assert.NoError(t, errDelete)
	assert.True(t, deleted)
	assert.ErrorIs(t, errGone, ErrDraftNotFound)
}

func TestServiceImpl_List(t *testing.T) {
	teardown := setup(t)
	defer teardown()

	// given
	_, err := service.Save(ctx, sampleDocument("Older"))
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = service.Save(ctx, sampleDocument("Newer"))
	require.NoError(t, err)

	// when
	drafts, err := service.List(ctx)

	// then
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, "Newer", drafts[0].ProjectTitle)
	assert.Equal(t, "Older", drafts[1].ProjectTitle)
}

func TestServiceImpl_NewDocumentId(t *testing.T) {
	t.Run("should continue after the highest id of the year", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		for _, id := range []string{"PROP-2026-002", "PROP-2026-011", "PROP-2026-T123456", "PROP-2025-050"} {
			doc := sampleDocument(id)
			doc.DocumentId = id
			_, err := service.Save(ctx, doc)
			require.NoError(t, err)
		}

		// when
		id := service.NewDocumentId(ctx)

		// then
		assert.Equal(t, "PROP-2026-012", id)
		assert.Empty(t, sleeps)
	})

	t.Run("should fall back to a timestamp id when the repository fails", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		service.repo = failingIdsRepo{RepositoryStub: repoStub}

		// when
		id := service.NewDocumentId(ctx)

		// then
		millis := strconv.FormatInt(clock.Now().UnixMilli(), 10)
		assert.Equal(t, "PROP-2026-T"+millis[len(millis)-6:], id)
		assert.Equal(t, []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 400 * time.Millisecond}, sleeps)
	})
}

type failingIdsRepo struct {
	*RepositoryStub
}

func (failingIdsRepo) DocumentIds(ctx context.Context, prefix string) ([]string, error) {
	return nil, assert.AnError
}

func TestServiceImpl_NewDraft(t *testing.T) {
	teardown := setup(t)
	defer teardown()

	doc := service.NewDraft(ctx)

	assert.Equal(t, "PROP-2026-001", doc.DocumentId)
	assert.Equal(t, "2026-10-16", doc.IssueDate)
	require.Len(t, doc.InfrastructureCosts, 1)
}

func TestServiceImpl_Import(t *testing.T) {
	teardown := setup(t)
	defer teardown()

	// given
	doc := sampleDocument("")
	file := LocalFile{Title: "From Disk", Data: doc}

	// when
	d, err := service.Import(ctx, file)

	// then
	require.NoError(t, err)
	assert.Equal(t, "From Disk", d.ProjectTitle)
	assert.Equal(t, "From Disk", d.Document.ProjectTitle)
}

func TestServiceImpl_EditBudget(t *testing.T) {
	t.Run("should apply the operation and store the captured document", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		d, err := service.Save(ctx, sampleDocument("Tour Guide Website"))
		require.NoError(t, err)
		_, totals, err := service.Budget(ctx, d.Id)
		require.NoError(t, err)
		assert.Equal(t, 133000.0, totals.Grand)

		// when
		_, totals, err = service.SetSectionEnabled(ctx, d.Id, budget.Maintenance, true)

		// then
		require.NoError(t, err)
		assert.Equal(t, budget.Snapshot{Infrastructure: 13000, Development: 100000, Maintenance: 10000, Risk: 20000, Grand: 143000}, totals)
		stored, err := service.Get(ctx, d.Id)
		require.NoError(t, err)
		assert.True(t, bool(stored.Document.MaintenanceCosts.Include))
		assert.Equal(t, 143000.0, stored.Document.TotalBudget.Float())
	})

	t.Run("should add, edit and remove rows", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		d, err := service.Save(ctx, sampleDocument("Tour Guide Website"))
		require.NoError(t, err)

		// when
		_, _, err = service.AddRow(ctx, d.Id, budget.Development)
		require.NoError(t, err)
		_, _, err = service.SetField(ctx, d.Id, budget.Development, 2, budget.FieldCost, "25,000")
		require.NoError(t, err)
		_, totals, err := service.RemoveRow(ctx, d.Id, budget.Infrastructure, 1)
		require.NoError(t, err)

		// then
		assert.Equal(t, 3000.0, totals.Infrastructure)
		assert.Equal(t, 125000.0, totals.Development)
		stored, err := service.Get(ctx, d.Id)
		require.NoError(t, err)
		require.Len(t, stored.Document.InfrastructureCosts, 1)
		assert.Equal(t, "Router", stored.Document.InfrastructureCosts[0].Item)
		require.Len(t, stored.Document.DevelopmentCosts, 2)
	})

	t.Run("should report missing drafts", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, _, err := service.AddRow(ctx, "missing", budget.Development)

		assert.ErrorIs(t, err, ErrDraftNotFound)
	})
}

func TestServiceImpl_EditLocks(t *testing.T) {
	teardown := setup(t)
	defer teardown()

	t.Run("should hand out the same lock for the same draft", func(t *testing.T) {
		assert.Same(t, service.lockFor("draft-1"), service.lockFor("draft-1"))
	})

	t.Run("should keep a fixed number of locks however many drafts are edited", func(t *testing.T) {
		seen := map[*sync.Mutex]bool{}
		for i := 0; i < 10000; i++ {
			seen[service.lockFor(uuid.NewString())] = true
		}

		assert.LessOrEqual(t, len(seen), editLockStripes)
	})
}
