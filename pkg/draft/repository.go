package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sequenceit/proposaldesk/pkg/proposal"
	log "github.com/sirupsen/logrus"
)

var ErrDraftNotFound = errors.New("draft not found")

type Repository interface {
	Create(ctx context.Context, userId string, draft Draft) (Draft, error)
	Update(ctx context.Context, userId string, draft Draft) (Draft, error)
	Get(ctx context.Context, userId string, id string) (Draft, error)
	FindByTitle(ctx context.Context, userId string, projectTitle string) (Draft, error)
	List(ctx context.Context, userId string) ([]Draft, error)
	Delete(ctx context.Context, userId string, id string) (bool, error)
	// DocumentIds returns every document id, of any user, starting with prefix.
	DocumentIds(ctx context.Context, prefix string) ([]string, error)
	DocumentIdExists(ctx context.Context, documentId string) (bool, error)
}

// RepositoryImpl stores drafts in PostgreSQL.
type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const draftColumns = `id, project_title, document_id, document_owner, issue_date, starting_date, handover_date, content, created_at, updated_at`

func (r *RepositoryImpl) Create(ctx context.Context, userId string, draft Draft) (Draft, error) {
	content, err := json.Marshal(draft.Document)
	if err != nil {
		return Draft{}, fmt.Errorf("could not encode draft content: %w", err)
	}
	query := `INSERT INTO drafts (
					id, user_id, project_title, document_id, document_owner,
					issue_date, starting_date, handover_date, content, created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.db.Exec(ctx, query,
		draft.Id,
		userId,
		draft.ProjectTitle,
		draft.DocumentId,
		draft.DocumentOwner,
		draft.IssueDate,
		draft.StartingDate,
		draft.HandoverDate,
		content,
		draft.CreatedAt,
		draft.UpdatedAt,
	)
	if err != nil {
		err = fmt.Errorf("could not insert draft: %w", err)
		log.Error(err)
		return Draft{}, err
	}
	return draft, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, userId string, draft Draft) (Draft, error) {
	content, err := json.Marshal(draft.Document)
	if err != nil {
		return Draft{}, fmt.Errorf("could not encode draft content: %w", err)
	}
	query := `UPDATE drafts SET
					project_title = $3, document_id = $4, document_owner = $5, issue_date = $6,
					starting_date = $7, handover_date = $8, content = $9, updated_at = $10
				WHERE id = $1 AND user_id = $2
				RETURNING created_at`
	err = r.db.QueryRow(ctx, query,
		draft.Id,
		userId,
		draft.ProjectTitle,
		draft.DocumentId,
		draft.DocumentOwner,
		draft.IssueDate,
		draft.StartingDate,
		draft.HandoverDate,
		content,
		draft.UpdatedAt,
	).Scan(&draft.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Draft{}, ErrDraftNotFound
		}
		err = fmt.Errorf("could not update draft %s: %w", draft.Id, err)
		log.Error(err)
		return Draft{}, err
	}
	return draft, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, userId string, id string) (Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE user_id = $1 AND id = $2`
	return r.getOne(ctx, query, userId, id)
}

func (r *RepositoryImpl) FindByTitle(ctx context.Context, userId string, projectTitle string) (Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE user_id = $1 AND project_title = $2`
	return r.getOne(ctx, query, userId, projectTitle)
}

func (r *RepositoryImpl) getOne(ctx context.Context, query string, args ...any) (Draft, error) {
	d, err := scanDraft(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Draft{}, ErrDraftNotFound
		}
		err = fmt.Errorf("could not query draft: %w", err)
		log.Error(err)
		return Draft{}, err
	}
	return d, nil
}

func (r *RepositoryImpl) List(ctx context.Context, userId string) ([]Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE user_id = $1 ORDER BY updated_at DESC`
	rows, err := r.db.Query(ctx, query, userId)
	if err != nil {
		err = fmt.Errorf("could not query drafts: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	drafts := make([]Draft, 0)
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			err = fmt.Errorf("error scanning draft: %w", err)
			log.Error(err)
			return nil, err
		}
		drafts = append(drafts, d)
	}
	if err := rows.Err(); err != nil {
		err = fmt.Errorf("error iterating over drafts: %w", err)
		log.Error(err)
		return nil, err
	}
	return drafts, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, userId string, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM drafts WHERE user_id = $1 AND id = $2`, userId, id)
	if err != nil {
		err = fmt.Errorf("could not delete draft %s: %w", id, err)
		log.Error(err)
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RepositoryImpl) DocumentIds(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT document_id FROM drafts WHERE document_id LIKE $1`, prefix+"%")
	if err != nil {
		err = fmt.Errorf("could not query document ids: %w", err)
		log.Error(err)
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		err = fmt.Errorf("could not read document ids: %w", err)
		log.Error(err)
		return nil, err
	}
	return ids, nil
}

func (r *RepositoryImpl) DocumentIdExists(ctx context.Context, documentId string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM drafts WHERE document_id = $1)`, documentId).Scan(&exists)
	if err != nil {
		err = fmt.Errorf("could not check document id %s: %w", documentId, err)
		log.Error(err)
		return false, err
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDraft(row rowScanner) (Draft, error) {
	var d Draft
	var content []byte
	if err := row.Scan(
		&d.Id,
		&d.ProjectTitle,
		&d.DocumentId,
		&d.DocumentOwner,
		&d.IssueDate,
		&d.StartingDate,
		&d.HandoverDate,
		&content,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return Draft{}, err
	}
	if err := decodeContent(content, &d); err != nil {
		return Draft{}, err
	}
	return d, nil
}

func decodeContent(content []byte, d *Draft) error {
	doc, err := proposal.Parse(content)
	if err != nil {
		return fmt.Errorf("stored draft %s has unreadable content: %w", d.Id, err)
	}
	d.Document = doc
	return nil
}
