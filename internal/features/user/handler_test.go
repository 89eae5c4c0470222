package user

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mo-amir99/coursehub-server-go/internal/middleware"
	"github.com/mo-amir99/coursehub-server-go/pkg/logger"
	"github.com/mo-amir99/coursehub-server-go/pkg/media"
	"github.com/mo-amir99/coursehub-server-go/pkg/response"
	"github.com/mo-amir99/coursehub-server-go/pkg/types"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type fakeStore struct {
	mu      sync.Mutex
	uploads []string
	deleted []string
	err     error
}

func (s *fakeStore) Upload(_ context.Context, path string, _ []byte, _ string) (media.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return media.Asset{}, s.err
	}
	s.uploads = append(s.uploads, path)
	return media.Asset{URL: "https://cdn.example.com/" + path, Path: path}, nil
}

func (s *fakeStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, path)
	return nil
}

func newRouter(t *testing.T, db *gorm.DB, store media.Store, u User) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	asUser := func(c *gin.Context) {
		middleware.SetIdentity(c, middleware.Identity{ID: u.ID, Role: u.Role, Email: u.Email})
		c.Next()
	}
	RegisterRoutes(r.Group("/api"), NewHandler(db, logger.Discard(), store), asUser)
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) (response.Envelope, map[string]interface{}) {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	data, _ := env.Data.(map[string]interface{})
	return env, data
}

func TestGetProfileOmitsPassword(t *testing.T) {
	db := openDB(t)
	u := createUser(t, db, types.RoleStudent)
	r := newRouter(t, db, &fakeStore{}, u)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/profile", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.NotContains(t, w.Body.String(), u.Password)
	_, data := decode(t, w)
	assert.Equal(t, u.Email, data["email"])
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
}

func TestUpdateProfileRejectsForeignRoleFields(t *testing.T) {
	db := openDB(t)
	u := createUser(t, db, types.RoleStudent)
	r := newRouter(t, db, &fakeStore{}, u)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/users/profile", strings.NewReader(`{"headline":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env, _ := decode(t, w)
	assert.Equal(t, "validation_error", string(env.Code))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/users/profile", strings.NewReader(`{"bio":"Hello","learningGoals":["Go"]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	_, data := decode(t, w)
	assert.Equal(t, "Hello", data["bio"])
}

func TestDeactivateProfile(t *testing.T) {
	db := openDB(t)
	u := createUser(t, db, types.RoleStudent)
	r := newRouter(t, db, &fakeStore{}, u)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/users/profile", nil))
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := Get(db, u.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestOnboardingTwiceConflicts(t *testing.T) {
	db := openDB(t)
	u := createUser(t, db, types.RoleInstructor)
	r := newRouter(t, db, &fakeStore{}, u)

	body := `{"answers":{"audience":"beginners"},"headline":"Teacher"}`
	for i, want := range []int{http.StatusOK, http.StatusConflict} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/users/onboarding", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, "attempt %d", i+1)
	}
}

func avatarRequest(t *testing.T, field string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "avatar.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/users/upload-avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadAvatarReplacesPrevious(t *testing.T) {
	db := openDB(t)
	u := createUser(t, db, types.RoleStudent)
	store := &fakeStore{}
	r := newRouter(t, db, store, u)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, avatarRequest(t, "avatar", pngBytes))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	require.Len(t, store.uploads, 2)
	assert.Equal(t, []string{store.uploads[0]}, store.deleted)
	assert.True(t, strings.HasPrefix(store.uploads[0], "avatars/"+u.ID.String()+"/"))

	stored, err := Get(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/"+store.uploads[1], stored.ProfileImage)
}

func TestUploadAvatarErrors(t *testing.T) {
	db := openDB(t)
	u := createUser(t, db, types.RoleStudent)

	cases := []struct {
		name   string
		store  *fakeStore
		req    *http.Request
		status int
	}{
		{"missing file", &fakeStore{}, avatarRequest(t, "other", pngBytes), http.StatusBadRequest},
		{"not an image", &fakeStore{}, avatarRequest(t, "avatar", []byte("plain text body")), http.StatusUnsupportedMediaType},
		{"storage down", &fakeStore{err: media.ErrUnavailable}, avatarRequest(t, "avatar", pngBytes), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(t, db, tc.store, u)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, tc.req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}
