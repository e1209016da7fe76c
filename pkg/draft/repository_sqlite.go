package draft

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// SQLiteRepository stores drafts in a local SQLite file for single-user installs.
// Timestamps are kept as unix milliseconds.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, userId string, draft Draft) (Draft, error) {
	content, err := json.Marshal(draft.Document)
	if err != nil {
		return Draft{}, fmt.Errorf("could not encode draft content: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO drafts (
			id, user_id, project_title, document_id, document_owner,
			issue_date, starting_date, handover_date, content, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		draft.Id, userId, draft.ProjectTitle, draft.DocumentId, draft.DocumentOwner,
		draft.IssueDate, draft.StartingDate, draft.HandoverDate, string(content),
		draft.CreatedAt.UnixMilli(), draft.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		err = fmt.Errorf("could not insert draft: %w", err)
		log.Error(err)
		return Draft{}, err
	}
	return draft, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, userId string, draft Draft) (Draft, error) {
	content, err := json.Marshal(draft.Document)
	if err != nil {
		return Draft{}, fmt.Errorf("could not encode draft content: %w", err)
	}
	var createdAt int64
	err = r.db.QueryRowContext(ctx, `UPDATE drafts SET
			project_title = ?, document_id = ?, document_owner = ?, issue_date = ?,
			starting_date = ?, handover_date = ?, content = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
		RETURNING created_at`,
		draft.ProjectTitle, draft.DocumentId, draft.DocumentOwner, draft.IssueDate,
		draft.StartingDate, draft.HandoverDate, string(content), draft.UpdatedAt.UnixMilli(),
		draft.Id, userId,
	).Scan(&createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Draft{}, ErrDraftNotFound
		}
		err = fmt.Errorf("could not update draft %s: %w", draft.Id, err)
		log.Error(err)
		return Draft{}, err
	}
	draft.CreatedAt = time.UnixMilli(createdAt).UTC()
	return draft, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, userId string, id string) (Draft, error) {
	return r.getOne(ctx, `SELECT `+draftColumns+` FROM drafts WHERE user_id = ? AND id = ?`, userId, id)
}

func (r *SQLiteRepository) FindByTitle(ctx context.Context, userId string, projectTitle string) (Draft, error) {
	return r.getOne(ctx, `SELECT `+draftColumns+` FROM drafts WHERE user_id = ? AND project_title = ?`, userId, projectTitle)
}

func (r *SQLiteRepository) getOne(ctx context.Context, query string, args ...any) (Draft, error) {
	d, err := scanSQLiteDraft(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Draft{}, ErrDraftNotFound
		}
		err = fmt.Errorf("could not query draft: %w", err)
		log.Error(err)
		return Draft{}, err
	}
	return d, nil
}

func (r *SQLiteRepository) List(ctx context.Context, userId string) ([]Draft, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+draftColumns+` FROM drafts WHERE user_id = ? ORDER BY updated_at DESC`, userId)
	if err != nil {
		err = fmt.Errorf("could not query drafts: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	drafts := make([]Draft, 0)
	for rows.Next() {
		d, err := scanSQLiteDraft(rows)
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

func (r *SQLiteRepository) Delete(ctx context.Context, userId string, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM drafts WHERE user_id = ? AND id = ?`, userId, id)
	if err != nil {
		err = fmt.Errorf("could not delete draft %s: %w", id, err)
		log.Error(err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepository) DocumentIds(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT document_id FROM drafts WHERE document_id LIKE ?`, prefix+"%")
	if err != nil {
		err = fmt.Errorf("could not query document ids: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("could not read document id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRepository) DocumentIdExists(ctx context.Context, documentId string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM drafts WHERE document_id = ?)`, documentId).Scan(&exists)
	if err != nil {
		err = fmt.Errorf("could not check document id %s: %w", documentId, err)
		log.Error(err)
		return false, err
	}
	return exists, nil
}

func scanSQLiteDraft(row rowScanner) (Draft, error) {
	var d Draft
	var content string
	var createdAt, updatedAt int64
	if err := row.Scan(
		&d.Id,
		&d.ProjectTitle,
		&d.DocumentId,
		&d.DocumentOwner,
		&d.IssueDate,
		&d.StartingDate,
		&d.HandoverDate,
		&content,
		&createdAt,
		&updatedAt,
	); err != nil {
		return Draft{}, err
	}
	d.CreatedAt = time.UnixMilli(createdAt).UTC()
	d.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	if err := decodeContent([]byte(content), &d); err != nil {
		return Draft{}, err
	}
	return d, nil
}
