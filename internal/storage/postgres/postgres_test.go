package postgres

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenliang8102/Entropy-Notes-backend/internal/storage"
)

type testDependencies struct {
	store   *Storage
	mock    sqlmock.Sqlmock
	cleanup func()
}

func setupTest(t *testing.T) *testDependencies {
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "error mocking DB")

	return &testDependencies{
		store: &Storage{db: db},
		mock:  mock,
		cleanup: func() {
			assert.NoError(t, mock.ExpectationsWereMet(), "expectations were not met")
			db.Close()
		},
	}
}

func userRow(mock sqlmock.Sqlmock, id uuid.UUID, username, hash string, at time.Time) *sqlmock.Rows {
	return mock.NewRows([]string{"id", "username", "password_hash", "created_at", "updated_at"}).
		AddRow(id, username, hash, at, at)
}

func noteRow(mock sqlmock.Sqlmock, id, ownerID uuid.UUID, title string, content []byte, createdAt, updatedAt time.Time) *sqlmock.Rows {
	return mock.NewRows([]string{"id", "owner_id", "title", "content", "created_at", "updated_at"}).
		AddRow(id, ownerID, title, content, createdAt, updatedAt)
}

func TestSaveUser_Success(t *testing.T) {
	deps := setupTest(t)
	defer deps.cleanup()

	id := uuid.New()
	now := time.Now().UTC()
	deps.mock.ExpectQuery("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "alice", sqlmock.AnyArg()).
		WillReturnRows(userRow(deps.mock, id, "alice", "$2a$10$hash", now))

	user, err := deps.store.SaveUser("alice", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.NotEmpty(t, user.PasswordHash)
}

func TestSaveUser_Duplicate(t *testing.T) {
	deps := setupTest(t)
	defer deps.cleanup()

	deps.mock.ExpectQuery("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "alice", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: pqUniqueViolation})

	_, err := deps.store.SaveUser("alice", "hunter22")
	assert.ErrorIs(t, err, storage.ErrUserExists)
}

func TestGetUserByUsername_NotFound(t *testing.T) {
	deps := setupTest(t)
	defer deps.cleanup()

	deps.mock.ExpectQuery("SELECT id, username, password_hash, created_at, updated_at FROM users").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := deps.store.GetUserByUsername("ghost")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestSaveNote_Defaults(t *testing.T) {
	deps := setupTest(t)
	defer deps.cleanup()

	ownerID := uuid.New()
	noteID := uuid.New()
	now := time.Now().UTC()
	deps.mock.ExpectQuery("INSERT INTO notes").
		WithArgs(sqlmock.AnyArg(), ownerID).
		WillReturnRows(noteRow(deps.mock, noteID, ownerID, "Untitled note", nil, now, now))

	note, err := deps.store.SaveNote(ownerID)
	require.NoError(t, err)
	assert.Equal(t, noteID, note.ID)
	assert.Equal(t, ownerID, note.OwnerID)
	assert.Equal(t, "Untitled note", note.Title)
	assert.Nil(t, note.Content)
}

func TestGetAllNotes_Empty(t *testing.T) {
	deps := setupTest(t)
	defer deps.cleanup()

	ownerID := uuid.New()
	deps.mock.ExpectQuery("SELECT (.+) FROM notes WHERE owner_id").
		WithArgs(ownerID).
		WillReturnRows(deps.mock.NewRows([]string{"id", "owner_id", "title", "content", "created_at", "updated_at"}))

	notes, err := deps.store.GetAllNotes(ownerID, 0, 0)
	require.NoError(t, err)
	assert.NotNil(t, notes, "an empty result must serialize as [] and not null")
	assert.Empty(t, notes)
}

func TestGetAllNotes_Paginated(t *testing.T) {
	deps := setupTest(t)
	defer deps.cleanup()

	ownerID := uuid.New()
	now := time.Now().UTC()
	rows := deps.mock.NewRows([]string{"id", "owner_id", "title", "content", "created_at", "updated_at"}).
		AddRow(uuid.New(), ownerID, "second", nil, now, now.Add(2*time.Second)).
		AddRow(uuid.New(), ownerID, "first", nil, now, now.Add(time.Second))
	deps.mock.ExpectQuery("SELECT (.+) FROM notes WHERE owner_id (.+) LIMIT").
		WithArgs(ownerID, 2, 0).
		WillReturnRows(rows)

	notes, err := deps.store.GetAllNotes(ownerID, 2, 0)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "second", notes[0].Title)
	assert.True(t, notes[0].UpdatedAt.After(notes[1].UpdatedAt))
}

func TestDeleteNote_NotFound(t *testing.T) {
	deps := setupTest(t)
	defer deps.cleanup()

	id := uuid.New()
	deps.mock.ExpectExec("DELETE FROM notes").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := deps.store.DeleteNote(id)
	assert.ErrorIs(t, err, storage.ErrNoteNotFound)
}

func TestDeleteNote_Success(t *testing.T) {
	deps := setupTest(t)
	defer deps.cleanup()

	id := uuid.New()
	deps.mock.ExpectExec("DELETE FROM notes").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, deps.store.DeleteNote(id))
}

func TestUpdateNoteConditional_Success(t *testing.T) {
	deps := setupTest(t)
	defer deps.cleanup()

	id := uuid.New()
	ownerID := uuid.New()
	created := time.Now().UTC().Add(-time.Minute)
	expected := created
	title := "Shopping"
	content := json.RawMessage(`{"blocks":[]}`)

	// The pattern pins the monotonic bump: updated_at must be forced past
	// its previous value, not just set to the transaction timestamp.
	deps.mock.ExpectQuery(`(?s)UPDATE notes.+updated_at = GREATEST\(clock_timestamp\(\), updated_at \+ interval '1 microsecond'\)`).
		WithArgs(id, "Shopping", true, []byte(content), expected).
		WillReturnRows(noteRow(deps.mock, id, ownerID, title, content, created, time.Now().UTC()))

	note, err := deps.store.UpdateNoteConditional(id, &expected, &title, content, true)
	require.NoError(t, err)
	assert.Equal(t, "Shopping", note.Title)
	assert.JSONEq(t, `{"blocks":[]}`, string(note.Content))
	assert.True(t, note.UpdatedAt.After(expected))
}

func TestUpdateNoteConditional_Conflict(t *testing.T) {
	deps := setupTest(t)
	defer deps.cleanup()

	id := uuid.New()
	ownerID := uuid.New()
	stale := time.Now().UTC().Add(-time.Minute)
	current := time.Now().UTC()
	title := "Shopping"

	// The conditional UPDATE misses, then the fresh state is re-read so
	// the caller can return it with the conflict.
	deps.mock.ExpectQuery("UPDATE notes").
		WithArgs(id, "Shopping", false, nil, stale).
		WillReturnError(sql.ErrNoRows)
	deps.mock.ExpectQuery("SELECT (.+) FROM notes WHERE id").
		WithArgs(id).
		WillReturnRows(noteRow(deps.mock, id, ownerID, "Groceries", nil, stale, current))

	latest, err := deps.store.UpdateNoteConditional(id, &stale, &title, nil, false)
	assert.ErrorIs(t, err, storage.ErrNoteConflict)
	require.NotNil(t, latest)
	assert.Equal(t, "Groceries", latest.Title)
	assert.WithinDuration(t, current, latest.UpdatedAt, time.Second)
}

func TestUpdateNoteConditional_NoteGone(t *testing.T) {
	deps := setupTest(t)
	defer deps.cleanup()

	id := uuid.New()
	stale := time.Now().UTC().Add(-time.Minute)
	title := "Shopping"

	deps.mock.ExpectQuery("UPDATE notes").
		WithArgs(id, "Shopping", false, nil, stale).
		WillReturnError(sql.ErrNoRows)
	deps.mock.ExpectQuery("SELECT (.+) FROM notes WHERE id").
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := deps.store.UpdateNoteConditional(id, &stale, &title, nil, false)
	assert.ErrorIs(t, err, storage.ErrNoteNotFound)
}
