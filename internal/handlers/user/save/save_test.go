package save_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/wenliang8102/Entropy-Notes-backend/internal/handlers/user/save"
	"github.com/wenliang8102/Entropy-Notes-backend/internal/models"
	"github.com/wenliang8102/Entropy-Notes-backend/internal/storage"
)

type stubUserSaver struct {
	existing map[string]*models.User
	saveErr  error
	saved    []string
}

func (s *stubUserSaver) GetUserByUsername(username string) (*models.User, error) {
	if u, ok := s.existing[username]; ok {
		return u, nil
	}
	return nil, storage.ErrUserNotFound
}

func (s *stubUserSaver) SaveUser(username, password string) (*models.User, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	s.saved = append(s.saved, username)
	return &models.User{ID: uuid.New(), Username: username, CreatedAt: time.Now()}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func register(t *testing.T, saver save.UserSaver, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	save.New(discardLogger(), saver)(rec, req)
	return rec
}

func TestRegister_Success(t *testing.T) {
	saver := &stubUserSaver{}
	rec := register(t, saver, `{"username":"alice","password":"hunter22"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"User registered successfully!"}`, rec.Body.String())
	assert.Equal(t, []string{"alice"}, saver.saved)
}

func TestRegister_TrimsUsername(t *testing.T) {
	saver := &stubUserSaver{}
	rec := register(t, saver, `{"username":"  alice  ","password":"hunter22"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"alice"}, saver.saved)
}

func TestRegister_Duplicate(t *testing.T) {
	saver := &stubUserSaver{existing: map[string]*models.User{
		"alice": {ID: uuid.New(), Username: "alice"},
	}}
	rec := register(t, saver, `{"username":"alice","password":"hunter22"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"User already exists."}`, rec.Body.String())
	assert.Empty(t, saver.saved)
}

func TestRegister_DuplicateRaceMapsToSameError(t *testing.T) {
	// The pre-insert lookup misses but the store's unique constraint
	// fires; the response must be identical to the lookup hit.
	saver := &stubUserSaver{saveErr: storage.ErrUserExists}
	rec := register(t, saver, `{"username":"alice","password":"hunter22"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"User already exists."}`, rec.Body.String())
}

func TestRegister_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing username", `{"password":"hunter22"}`},
		{"missing password", `{"username":"alice"}`},
		{"short username", `{"username":"ab","password":"hunter22"}`},
		{"whitespace username", `{"username":"   ","password":"hunter22"}`},
		{"short password", `{"username":"alice","password":"12345"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			saver := &stubUserSaver{}
			rec := register(t, saver, tc.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, saver.saved)
		})
	}
}
