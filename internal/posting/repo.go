package posting

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"jobboard/internal/apperr"
)

// Repository persists postings in Postgres. List-valued attributes and the
// opaque extras live in jsonb columns.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const postingColumns = `id, owner_id, owner_name, title, description, organization, status,
	created_at, seq, required_courses, skills, standings, paid, stipend, extra`

// Insert writes a new posting; seq comes from the table's bigserial.
func (r *Repository) Insert(ctx context.Context, p Posting) (Posting, error) {
	courses, skills, standings, extra, err := encodeAttrs(p)
	if err != nil {
		return Posting{}, err
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO postings
			(id, owner_id, owner_name, title, description, organization, status,
			 created_at, required_courses, skills, standings, paid, stipend, extra)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING seq
	`, p.ID, p.OwnerID, p.OwnerName, p.Title, p.Description, p.Organization, p.Status,
		p.CreatedAt, courses, skills, standings, p.Paid, p.Stipend, extra)
	if err := row.Scan(&p.Seq); err != nil {
		return Posting{}, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	return p, nil
}

// Get returns a posting by id.
func (r *Repository) Get(ctx context.Context, id string) (Posting, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+postingColumns+` FROM postings WHERE id = $1
	`, id)
	return scanPosting(row)
}

// Toggle flips OPEN and CLOSED in a single statement, so concurrent toggles
// serialize on the row.
func (r *Repository) Toggle(ctx context.Context, id string) (Posting, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE postings
		SET status = CASE WHEN status = 'OPEN' THEN 'CLOSED' ELSE 'OPEN' END
		WHERE id = $1
		RETURNING `+postingColumns+`
	`, id)
	return scanPosting(row)
}

// Delete removes a posting.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM postings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// List returns all postings in insertion order.
func (r *Repository) List(ctx context.Context) ([]Posting, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+postingColumns+` FROM postings ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	defer rows.Close()

	var out []Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosting(row rowScanner) (Posting, error) {
	var (
		p       Posting
		courses []byte
		skills  []byte
		stands  []byte
		extra   []byte
		stipend sql.NullFloat64
	)
	err := row.Scan(&p.ID, &p.OwnerID, &p.OwnerName, &p.Title, &p.Description, &p.Organization,
		&p.Status, &p.CreatedAt, &p.Seq, &courses, &skills, &stands, &p.Paid, &stipend, &extra)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Posting{}, apperr.ErrNotFound
		}
		return Posting{}, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	if stipend.Valid {
		v := stipend.Float64
		p.Stipend = &v
	}
	for _, pair := range []struct {
		raw []byte
		dst any
	}{
		{courses, &p.RequiredCourses},
		{skills, &p.Skills},
		{stands, &p.Standings},
		{extra, &p.Extra},
	} {
		if len(pair.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
			return Posting{}, fmt.Errorf("decode posting attributes: %w", err)
		}
	}
	return p, nil
}

func encodeAttrs(p Posting) (courses, skills, standings, extra []byte, err error) {
	if courses, err = json.Marshal(p.RequiredCourses); err != nil {
		return
	}
	if skills, err = json.Marshal(p.Skills); err != nil {
		return
	}
	if standings, err = json.Marshal(p.Standings); err != nil {
		return
	}
	extra, err = json.Marshal(p.Extra)
	return
}
