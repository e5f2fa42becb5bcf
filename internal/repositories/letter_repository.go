package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Gantur-Enbotics/xmas-2025/internal/models"
)

// ErrPhoneConflict is returned when an insert or update collides with the
// partial unique index on (phone) WHERE NOT deleted.
var ErrPhoneConflict = errors.New("active letter already exists for phone")

// Schema:
//
//	CREATE TABLE letters (
//	    id          UUID PRIMARY KEY,
//	    phone       TEXT NOT NULL,
//	    title       TEXT NOT NULL,
//	    context     TEXT NOT NULL,
//	    extra_note  TEXT NOT NULL DEFAULT '',
//	    attachments JSONB NOT NULL DEFAULT '[]',
//	    logged_at   TIMESTAMPTZ,
//	    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    deleted     BOOLEAN NOT NULL DEFAULT FALSE
//	);
//	CREATE UNIQUE INDEX letters_phone_active ON letters (phone) WHERE NOT deleted;
type LetterRepository struct {
	DB *sql.DB
}

func NewLetterRepository(db *sql.DB) *LetterRepository {
	return &LetterRepository{DB: db}
}

const letterColumns = `id, phone, title, context, extra_note, attachments, logged_at, created_at, deleted`

func (r *LetterRepository) Create(l *models.Letter) error {
	attachments, err := marshalAttachments(l.Attachments)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO letters (id, phone, title, context, extra_note, attachments, created_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
	`
	if _, err := r.DB.Exec(q, l.ID, l.Phone, l.Title, l.Context, l.ExtraNote, attachments, l.CreatedAt); err != nil {
		return wrapConflict("letter create", err)
	}
	return nil
}

// FindActiveByPhone returns the non-deleted letter for phone, or nil when
// there is none.
func (r *LetterRepository) FindActiveByPhone(phone string) (*models.Letter, error) {
	const q = `
		SELECT ` + letterColumns + `
		FROM letters
		WHERE phone = $1 AND NOT deleted
	`
	return r.scanOne(r.DB.QueryRow(q, phone), "letter by phone")
}

func (r *LetterRepository) GetByID(id string) (*models.Letter, error) {
	const q = `
		SELECT ` + letterColumns + `
		FROM letters
		WHERE id = $1
	`
	return r.scanOne(r.DB.QueryRow(q, id), "letter by id")
}

// StampVerified sets logged_at on the active record for phone in a single
// UPDATE and returns the updated row. Concurrent stamps for the same phone
// are last-writer-wins, which is fine: the stamp is idempotent in effect.
func (r *LetterRepository) StampVerified(phone string, at time.Time) (*models.Letter, error) {
	const q = `
		UPDATE letters
		SET logged_at = $2
		WHERE phone = $1 AND NOT deleted
		RETURNING ` + letterColumns + `
	`
	return r.scanOne(r.DB.QueryRow(q, phone, at), "letter stamp verified")
}

// ListActive returns all non-deleted letters, newest first.
func (r *LetterRepository) ListActive() ([]*models.Letter, error) {
	const q = `
		SELECT ` + letterColumns + `
		FROM letters
		WHERE NOT deleted
		ORDER BY created_at DESC
	`
	rows, err := r.DB.Query(q)
	if err != nil {
		return nil, fmt.Errorf("letter list: %w", err)
	}
	defer rows.Close()

	var letters []*models.Letter
	for rows.Next() {
		l, err := scanLetter(rows)
		if err != nil {
			return nil, fmt.Errorf("letter list scan: %w", err)
		}
		letters = append(letters, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("letter list rows: %w", err)
	}
	return letters, nil
}

func (r *LetterRepository) Update(l *models.Letter) error {
	attachments, err := marshalAttachments(l.Attachments)
	if err != nil {
		return err
	}
	const q = `
		UPDATE letters
		SET phone = $2, title = $3, context = $4, extra_note = $5, attachments = $6
		WHERE id = $1 AND NOT deleted
	`
	res, err := r.DB.Exec(q, l.ID, l.Phone, l.Title, l.Context, l.ExtraNote, attachments)
	if err != nil {
		return wrapConflict("letter update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("letter update: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SoftDelete flips the deleted flag; records are never removed.
func (r *LetterRepository) SoftDelete(id string) error {
	res, err := r.DB.Exec(`UPDATE letters SET deleted = TRUE WHERE id = $1 AND NOT deleted`, id)
	if err != nil {
		return fmt.Errorf("letter delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("letter delete: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *LetterRepository) scanOne(row *sql.Row, op string) (*models.Letter, error) {
	l, err := scanLetter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

func scanLetter(row rowScanner) (*models.Letter, error) {
	var (
		l           models.Letter
		attachments []byte
		loggedAt    sql.NullTime
	)
	if err := row.Scan(&l.ID, &l.Phone, &l.Title, &l.Context, &l.ExtraNote, &attachments, &loggedAt, &l.CreatedAt, &l.Deleted); err != nil {
		return nil, err
	}
	if loggedAt.Valid {
		t := loggedAt.Time
		l.LoggedAt = &t
	}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &l.Attachments); err != nil {
			return nil, fmt.Errorf("attachments decode: %w", err)
		}
	}
	return &l, nil
}

func marshalAttachments(attachments []models.Attachment) ([]byte, error) {
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	b, err := json.Marshal(attachments)
	if err != nil {
		return nil, fmt.Errorf("attachments encode: %w", err)
	}
	return b, nil
}

func wrapConflict(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrPhoneConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}
