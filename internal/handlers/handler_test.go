// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests:
// in-memory stores behind the handlers' consumer interfaces, so HTTP
// semantics are covered without PostgreSQL or Valkey.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"coachpress/internal/auth"
	"coachpress/internal/mailer"
	"coachpress/internal/middleware"
	"coachpress/internal/models"
	"coachpress/internal/render"
	"coachpress/internal/session"
	"coachpress/internal/store"
)

// --- posts ---

type memPosts struct {
	mu   sync.Mutex
	rows []*models.Post
	err  error // returned by every call when set
}

func (m *memPosts) sorted(published bool) []models.Post {
	var out []models.Post
	for _, p := range m.rows {
		if !published || p.Published {
			out = append(out, *p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memPosts) ListPublished(context.Context) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(true), m.err
}

func (m *memPosts) ListAll(context.Context) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(false), m.err
}

func (m *memPosts) find(match func(*models.Post) bool) *models.Post {
	for _, p := range m.rows {
		if match(p) {
			cp := *p
			return &cp
		}
	}
	return nil
}

func (m *memPosts) FindBySlug(_ context.Context, slug string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(p *models.Post) bool { return p.Slug == slug && p.Published }), m.err
}

func (m *memPosts) FindBySlugAny(_ context.Context, slug string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(p *models.Post) bool { return p.Slug == slug }), m.err
}

func (m *memPosts) FindByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(p *models.Post) bool { return p.ID == id }), m.err
}

func (m *memPosts) Create(_ context.Context, p *models.Post) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.find(func(x *models.Post) bool { return x.Slug == p.Slug }) != nil {
		return nil, store.ErrDuplicateSlug
	}
	row := *p
	row.ID = uuid.New()
	row.CreatedAt = time.Now().Add(time.Duration(len(m.rows)) * time.Millisecond)
	row.UpdatedAt = row.CreatedAt
	m.rows = append(m.rows, &row)
	cp := row
	return &cp, nil
}

func (m *memPosts) Update(_ context.Context, p *models.Post) (*models.Post, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	if m.find(func(x *models.Post) bool { return x.Slug == p.Slug && x.ID != p.ID }) != nil {
		return nil, false, store.ErrDuplicateSlug
	}
	for _, row := range m.rows {
		if row.ID == p.ID {
			was := row.Published
			views, created := row.Views, row.CreatedAt
			*row = *p
			row.Views, row.CreatedAt, row.UpdatedAt = views, created, time.Now()
			cp := *row
			return &cp, was, nil
		}
	}
	return nil, false, store.ErrNotFound
}

func (m *memPosts) SetPublished(_ context.Context, id uuid.UUID, published bool) (*models.Post, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.ID == id {
			was := row.Published
			row.Published = published
			cp := *row
			return &cp, was, nil
		}
	}
	return nil, false, store.ErrNotFound
}

func (m *memPosts) remove(match func(*models.Post) bool) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.rows {
		if match(row) {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return row, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memPosts) Delete(_ context.Context, id uuid.UUID) (*models.Post, error) {
	return m.remove(func(p *models.Post) bool { return p.ID == id })
}

func (m *memPosts) DeleteBySlug(_ context.Context, slug string) (*models.Post, error) {
	return m.remove(func(p *models.Post) bool { return p.Slug == slug })
}

func (m *memPosts) IncrementViews(_ context.Context, slug string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Slug == slug && row.Published {
			row.Views++
			return row.Views, nil
		}
	}
	return 0, store.ErrNotFound
}

func (m *memPosts) Stats(context.Context) (models.ContentStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s models.ContentStats
	for _, row := range m.rows {
		s.Total++
		if row.Published {
			s.Published++
		}
		s.Views += row.Views
	}
	return s, m.err
}

func (m *memPosts) count(slug string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, row := range m.rows {
		if row.Slug == slug {
			n++
		}
	}
	return n
}

// --- books ---

type memBooks struct {
	mu   sync.Mutex
	rows []*models.Book
}

func (m *memBooks) list(published bool) []models.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Book
	for _, b := range m.rows {
		if !published || b.Published {
			out = append(out, *b)
		}
	}
	return out
}

func (m *memBooks) ListPublished(context.Context) ([]models.Book, error) { return m.list(true), nil }
func (m *memBooks) ListAll(context.Context) ([]models.Book, error)       { return m.list(false), nil }

func (m *memBooks) find(match func(*models.Book) bool) *models.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.rows {
		if match(b) {
			cp := *b
			return &cp
		}
	}
	return nil
}

func (m *memBooks) FindBySlug(_ context.Context, slug string) (*models.Book, error) {
	return m.find(func(b *models.Book) bool { return b.Slug == slug && b.Published }), nil
}

func (m *memBooks) FindBySlugAny(_ context.Context, slug string) (*models.Book, error) {
	return m.find(func(b *models.Book) bool { return b.Slug == slug }), nil
}

func (m *memBooks) FindByID(_ context.Context, id uuid.UUID) (*models.Book, error) {
	return m.find(func(b *models.Book) bool { return b.ID == id }), nil
}

func (m *memBooks) Create(_ context.Context, b *models.Book) (*models.Book, error) {
	if m.find(func(x *models.Book) bool { return x.Slug == b.Slug }) != nil {
		return nil, store.ErrDuplicateSlug
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row := *b
	row.ID = uuid.New()
	row.CreatedAt, row.UpdatedAt = time.Now(), time.Now()
	m.rows = append(m.rows, &row)
	cp := row
	return &cp, nil
}

func (m *memBooks) Update(_ context.Context, b *models.Book) (*models.Book, bool, error) {
	if m.find(func(x *models.Book) bool { return x.Slug == b.Slug && x.ID != b.ID }) != nil {
		return nil, false, store.ErrDuplicateSlug
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.ID == b.ID {
			was := row.Published
			views := row.Views
			*row = *b
			row.Views = views
			cp := *row
			return &cp, was, nil
		}
	}
	return nil, false, store.ErrNotFound
}

func (m *memBooks) SetPublished(_ context.Context, id uuid.UUID, published bool) (*models.Book, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.ID == id {
			was := row.Published
			row.Published = published
			cp := *row
			return &cp, was, nil
		}
	}
	return nil, false, store.ErrNotFound
}

func (m *memBooks) remove(match func(*models.Book) bool) (*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.rows {
		if match(row) {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return row, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memBooks) Delete(_ context.Context, id uuid.UUID) (*models.Book, error) {
	return m.remove(func(b *models.Book) bool { return b.ID == id })
}

func (m *memBooks) DeleteBySlug(_ context.Context, slug string) (*models.Book, error) {
	return m.remove(func(b *models.Book) bool { return b.Slug == slug })
}

func (m *memBooks) IncrementViews(_ context.Context, slug string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Slug == slug && row.Published {
			row.Views++
			return row.Views, nil
		}
	}
	return 0, store.ErrNotFound
}

func (m *memBooks) Stats(context.Context) (models.ContentStats, error) {
	var s models.ContentStats
	for _, b := range m.list(false) {
		s.Total++
		if b.Published {
			s.Published++
		}
		s.Views += b.Views
	}
	return s, nil
}

// --- subscribers ---

type memSubscribers struct {
	mu   sync.Mutex
	rows map[string]*models.Subscriber
}

func (m *memSubscribers) Subscribe(_ context.Context, email, locale string) (models.SubscribeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows == nil {
		m.rows = make(map[string]*models.Subscriber)
	}
	email = store.NormalizeEmail(email)
	if sub, ok := m.rows[email]; ok {
		if sub.Active {
			return models.SubscribeAlready, nil
		}
		sub.Active = true
		return models.SubscribeReactivated, nil
	}
	m.rows[email] = &models.Subscriber{ID: uuid.New(), Email: email, Active: true, Locale: locale}
	return models.SubscribeCreated, nil
}

func (m *memSubscribers) Unsubscribe(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.rows[store.NormalizeEmail(email)]
	if !ok {
		return store.ErrNotFound
	}
	sub.Active = false
	return nil
}

func (m *memSubscribers) CountActive(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, sub := range m.rows {
		if sub.Active {
			n++
		}
	}
	return n, nil
}

// --- page cache, newsletter, storage, mail ---

type memPages struct {
	mu          sync.Mutex
	pages       map[string][]byte
	invalidated int
}

func (m *memPages) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	html, ok := m.pages[key]
	return html, ok
}

func (m *memPages) Set(_ context.Context, key string, html []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pages == nil {
		m.pages = make(map[string][]byte)
	}
	m.pages[key] = html
}

func (m *memPages) InvalidateAll(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = nil
	m.invalidated++
}

type recordingAnnouncer struct {
	mu   sync.Mutex
	sent []mailer.Announcement
}

func (a *recordingAnnouncer) Dispatch(ann mailer.Announcement) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, ann)
}

func (a *recordingAnnouncer) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sent)
}

type memUploader struct {
	keys      []string
	types     []string
	deleted   []string
	err       error
	deleteErr error
}

func (u *memUploader) Upload(_ context.Context, key, contentType string, body io.Reader, _ int64) error {
	if u.err != nil {
		return u.err
	}
	io.Copy(io.Discard, body)
	u.keys = append(u.keys, key)
	u.types = append(u.types, contentType)
	return nil
}

func (u *memUploader) Delete(_ context.Context, key string) error {
	if u.deleteErr != nil {
		return u.deleteErr
	}
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *memUploader) FileURL(key string) string {
	return "https://cdn.example.com/" + key
}

func (u *memUploader) ExtractKey(rawURL string) (string, bool) {
	key, ok := strings.CutPrefix(rawURL, "https://cdn.example.com/")
	return key, ok && key != ""
}

type recordingSender struct {
	msgs []mailer.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

// --- environment ---

// testEnv holds the fakes and handler groups for one test.
type testEnv struct {
	Posts       *memPosts
	Books       *memBooks
	Subscribers *memSubscribers
	Pages       *memPages
	Newsletter  *recordingAnnouncer
	Uploader    *memUploader
	Mail        *recordingSender
	Renderer    *render.Renderer
	Content     *Content
	Public      *Public
	Admin       *Admin
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	renderer, err := render.New("Coachpress", "https://coach.example.com", true)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	env := &testEnv{
		Posts:       &memPosts{},
		Books:       &memBooks{},
		Subscribers: &memSubscribers{},
		Pages:       &memPages{},
		Newsletter:  &recordingAnnouncer{},
		Uploader:    &memUploader{},
		Mail:        &recordingSender{},
		Renderer:    renderer,
	}
	env.Content = NewContent(env.Posts, env.Books, env.Subscribers, env.Pages, env.Newsletter, env.Uploader)
	env.Public = NewPublic(renderer, env.Posts, env.Books, env.Subscribers, env.Pages, env.Mail,
		"coach@example.com", "Coachpress", "https://coach.example.com", "en")
	env.Admin = NewAdmin(renderer, env.Posts, env.Books, env.Subscribers, stubOperator{})
	return env
}

// testSession is a signed-in operator.
func testSession() *session.Data {
	return &session.Data{ID: uuid.NewString(), Email: "coach@example.com", ExpiresAt: time.Now().Add(time.Hour)}
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// authed marks the request as coming from the signed-in operator.
func authed(r *http.Request) *http.Request {
	return r.WithContext(ctxWithSession(r.Context(), testSession()))
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withLocale sets the active locale as the Locale middleware would.
func withLocale(r *http.Request, locale string) *http.Request {
	return r.WithContext(middleware.WithLocale(r.Context(), locale))
}

// decodeBody decodes a JSON response body.
func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

// errorOf returns the "error" field of a JSON error response.
func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]string](t, rec)["error"]
}

// createPost seeds a post through the fake store.
func (env *testEnv) createPost(t *testing.T, slug string, published bool) *models.Post {
	t.Helper()
	p, err := env.Posts.Create(context.Background(), &models.Post{
		Title:     strings.ToUpper(slug[:1]) + slug[1:],
		Slug:      slug,
		Content:   "<p>" + slug + "</p>",
		Published: published,
	})
	if err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return p
}

// createBook seeds a book through the fake store.
func (env *testEnv) createBook(t *testing.T, slug string, published bool) *models.Book {
	t.Helper()
	b, err := env.Books.Create(context.Background(), &models.Book{
		Title:     slug,
		Slug:      slug,
		Author:    "Author",
		Published: published,
	})
	if err != nil {
		t.Fatalf("seed book: %v", err)
	}
	return b
}

// stubOperator accepts coach@example.com / secret and code 123456.
type stubOperator struct{ totp bool }

func (stubOperator) Email() string       { return "coach@example.com" }
func (o stubOperator) TOTPEnabled() bool { return o.totp }

func (o stubOperator) Check(email, password, code string) error {
	if email != "coach@example.com" || password != "secret" {
		return auth.ErrInvalidCredentials
	}
	if o.totp && code != "123456" {
		return auth.ErrInvalidCredentials
	}
	return nil
}

func (o stubOperator) TOTPQRCode() ([]byte, error) {
	return []byte("\x89PNG fake"), nil
}
