package draft

import (
	"context"
	"sort"
	"strings"
)

// RepositoryStub keeps drafts in memory. It is used by tests and by the CLI.
type RepositoryStub struct {
	drafts map[string]stubEntry
}

type stubEntry struct {
	userId string
	draft  Draft
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{drafts: make(map[string]stubEntry)}
}

func (s *RepositoryStub) Create(ctx context.Context, userId string, draft Draft) (Draft, error) {
	s.drafts[draft.Id] = stubEntry{userId: userId, draft: draft}
	return draft, nil
}

func (s *RepositoryStub) Update(ctx context.Context, userId string, draft Draft) (Draft, error) {
	existing, ok := s.drafts[draft.Id]
	if !ok || existing.userId != userId {
		return Draft{}, ErrDraftNotFound
	}
	draft.CreatedAt = existing.draft.CreatedAt
	s.drafts[draft.Id] = stubEntry{userId: userId, draft: draft}
	return draft, nil
}

func (s *RepositoryStub) Get(ctx context.Context, userId string, id string) (Draft, error) {
	e, ok := s.drafts[id]
	if !ok || e.userId != userId {
		return Draft{}, ErrDraftNotFound
	}
	return e.draft, nil
}

func (s *RepositoryStub) FindByTitle(ctx context.Context, userId string, projectTitle string) (Draft, error) {
	for _, e := range s.drafts {
		if e.userId == userId && e.draft.ProjectTitle == projectTitle {
			return e.draft, nil
		}
	}
	return Draft{}, ErrDraftNotFound
}

func (s *RepositoryStub) List(ctx context.Context, userId string) ([]Draft, error) {
	drafts := make([]Draft, 0)
	for _, e := range s.drafts {
		if e.userId == userId {
			drafts = append(drafts, e.draft)
		}
	}
	sort.Slice(drafts, func(i, j int) bool { return drafts[i].UpdatedAt.After(drafts[j].UpdatedAt) })
	return drafts, nil
}

func (s *RepositoryStub) Delete(ctx context.Context, userId string, id string) (bool, error) {
	e, ok := s.drafts[id]
	if !ok || e.userId != userId {
		return false, nil
	}
	delete(s.drafts, id)
	return true, nil
}

func (s *RepositoryStub) DocumentIds(ctx context.Context, prefix string) ([]string, error) {
	var ids []string
	for _, e := range s.drafts {
		if strings.HasPrefix(e.draft.DocumentId, prefix) {
			ids = append(ids, e.draft.DocumentId)
		}
	}
	return ids, nil
}

func (s *RepositoryStub) DocumentIdExists(ctx context.Context, documentId string) (bool, error) {
	for _, e := range s.drafts {
		if e.draft.DocumentId == documentId {
			return true, nil
		}
	}
	return false, nil
}

func (s *RepositoryStub) Cleanup() {
	s.drafts = make(map[string]stubEntry)
}
