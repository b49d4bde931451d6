package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"jobboard/internal/apperr"
)

// Repository persists applications in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new application; seq comes from the table's bigserial.
func (r *Repository) Insert(ctx context.Context, a Application) (Application, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO applications
			(id, posting_id, applicant_id, applicant_name, document_ref, document_name, submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING seq
	`, a.ID, a.PostingID, a.ApplicantID, a.ApplicantName, a.DocumentRef, a.DocumentName, a.SubmittedAt)
	if err := row.Scan(&a.Seq); err != nil {
		return Application{}, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	return a, nil
}

// ListByPosting returns a posting's applications in submission order.
func (r *Repository) ListByPosting(ctx context.Context, postingID string) ([]Application, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, posting_id, applicant_id, applicant_name, document_ref, document_name, submitted_at, seq
		FROM applications
		WHERE posting_id = $1
		ORDER BY seq
	`, postingID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	defer rows.Close()

	var out []Application
	for rows.Next() {
		var a Application
		if err := rows.Scan(&a.ID, &a.PostingID, &a.ApplicantID, &a.ApplicantName,
			&a.DocumentRef, &a.DocumentName, &a.SubmittedAt, &a.Seq); err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	return out, nil
}

// GetByDocumentRef finds the application holding a document ref.
func (r *Repository) GetByDocumentRef(ctx context.Context, ref string) (Application, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, posting_id, applicant_id, applicant_name, document_ref, document_name, submitted_at, seq
		FROM applications
		WHERE document_ref = $1
	`, ref)
	var a Application
	if err := row.Scan(&a.ID, &a.PostingID, &a.ApplicantID, &a.ApplicantName,
		&a.DocumentRef, &a.DocumentName, &a.SubmittedAt, &a.Seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, apperr.ErrNotFound
		}
		return Application{}, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	return a, nil
}

// DeleteByPosting removes a posting's applications and returns their
// document refs.
func (r *Repository) DeleteByPosting(ctx context.Context, postingID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		DELETE FROM applications WHERE posting_id = $1 RETURNING document_ref
	`, postingID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	return refs, nil
}
