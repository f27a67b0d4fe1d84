package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/wenliang8102/Entropy-Notes-backend/internal/models"
	"github.com/wenliang8102/Entropy-Notes-backend/internal/storage"
	"github.com/wenliang8102/Entropy-Notes-backend/internal/storage/postgres/migrations"
	"github.com/wenliang8102/Entropy-Notes-backend/pkg/hasher"
)

const pqUniqueViolation = "23505"

const noteColumns = "id, owner_id, title, content, created_at, updated_at"

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"
	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &Storage{
		db: db,
	}, nil
}

func (s *Storage) RunMigrations(ctx context.Context) error {
	const op = "storage.postgres.RunMigrations"
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := goose.UpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveUser hashes the raw password and inserts the user. A unique-constraint
// violation from the database is the authoritative duplicate guard and maps
// to storage.ErrUserExists, the same error as a pre-insert lookup hit.
func (s *Storage) SaveUser(username, password string) (*models.User, error) {
	const op = "storage.postgres.SaveUser"
	passwordHash, err := hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%s: hash password: %w", op, err)
	}
	var u models.User
	err = s.db.QueryRow(
		"INSERT INTO users(id, username, password_hash) VALUES($1, $2, $3) RETURNING id, username, password_hash, created_at, updated_at",
		uuid.New(), username, passwordHash,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == pqUniqueViolation {
			return nil, storage.ErrUserExists
		}
		return nil, fmt.Errorf("%s: insert user: %w", op, err)
	}

	return &u, nil
}

func (s *Storage) GetUserByUsername(username string) (*models.User, error) {
	const op = "storage.postgres.GetUserByUsername"

	var u models.User
	err := s.db.QueryRow(
		"SELECT id, username, password_hash, created_at, updated_at FROM users WHERE username=$1",
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: query row: %w", op, err)
	}
	return &u, nil
}

// SaveNote creates an empty note for the owner; title and content fall back
// to the column defaults ("Untitled note", NULL).
func (s *Storage) SaveNote(ownerID uuid.UUID) (*models.Note, error) {
	const op = "storage.postgres.SaveNote"
	row := s.db.QueryRow(
		"INSERT INTO notes(id, owner_id) VALUES($1, $2) RETURNING "+noteColumns,
		uuid.New(), ownerID,
	)
	note, err := scanNote(row)
	if err != nil {
		return nil, fmt.Errorf("%s: insert note: %w", op, err)
	}
	return note, nil
}

func (s *Storage) GetNoteByID(id uuid.UUID) (*models.Note, error) {
	const op = "storage.postgres.GetNoteByID"
	row := s.db.QueryRow(
		"SELECT "+noteColumns+" FROM notes WHERE id=$1",
		id,
	)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: query row: %w", op, err)
	}
	return note, nil
}

// GetAllNotes returns the owner's notes, most recently touched first.
// A non-positive limit disables pagination.
func (s *Storage) GetAllNotes(ownerID uuid.UUID, limit, offset int) ([]models.Note, error) {
	const op = "storage.postgres.GetAllNotes"
	query := "SELECT " + noteColumns + " FROM notes WHERE owner_id = $1 ORDER BY updated_at DESC"
	args := []interface{}{ownerID}
	if limit > 0 {
		query += " LIMIT $2 OFFSET $3"
		args = append(args, limit, offset)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	notes := []models.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		notes = append(notes, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return notes, nil
}

func (s *Storage) DeleteNote(id uuid.UUID) error {
	const op = "storage.postgres.DeleteNote"
	res, err := s.db.Exec("DELETE FROM notes WHERE id=$1", id)
	if err != nil {
		return fmt.Errorf("%s: exec: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if affected == 0 {
		return storage.ErrNoteNotFound
	}
	return nil
}

// UpdateNoteConditional applies the provided fields in a single conditional
// UPDATE whose predicate pins updated_at to expected, so two racing writers
// holding the same expected value cannot both succeed. A nil expected makes
// the write unconditional. A nil title leaves the title unchanged; content
// is written (possibly to NULL) only when contentSet is true. The new
// updated_at is forced past the previous value, so it strictly increases
// even when two writes land in the same clock microsecond.
//
// When the predicate misses, the current note is re-read and returned
// alongside storage.ErrNoteConflict so the caller can hand it back for
// reconciliation.
func (s *Storage) UpdateNoteConditional(id uuid.UUID, expected *time.Time, title *string, content json.RawMessage, contentSet bool) (*models.Note, error) {
	const op = "storage.postgres.UpdateNoteConditional"
	row := s.db.QueryRow(
		`UPDATE notes
		 SET title = COALESCE($2, title),
		     content = CASE WHEN $3 THEN $4::jsonb ELSE content END,
		     updated_at = GREATEST(clock_timestamp(), updated_at + interval '1 microsecond')
		 WHERE id = $1 AND ($5::timestamptz IS NULL OR updated_at = $5)
		 RETURNING `+noteColumns,
		id, title, contentSet, contentArg(content), expected,
	)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		latest, err := s.GetNoteByID(id)
		if err != nil {
			return nil, err
		}
		return latest, storage.ErrNoteConflict
	}
	if err != nil {
		return nil, fmt.Errorf("%s: update: %w", op, err)
	}
	return note, nil
}

// contentArg maps an absent or explicit-null payload to SQL NULL.
func contentArg(content json.RawMessage) interface{} {
	if content == nil {
		return nil
	}
	return []byte(content)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNote(row rowScanner) (*models.Note, error) {
	var n models.Note
	var content []byte
	if err := row.Scan(&n.ID, &n.OwnerID, &n.Title, &content, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	if content != nil {
		n.Content = json.RawMessage(content)
	}
	return &n, nil
}
