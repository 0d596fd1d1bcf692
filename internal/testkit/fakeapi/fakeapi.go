// Package fakeapi is an in-memory stand-in for the studio backend. It speaks
// the same routes, cookies and error envelopes as the real service so that
// transport, cache and view-model tests can run against real HTTP.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/studio/pkg/apiclient"
	"github.com/aussiebroadwan/studio/pkg/httpx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the name of the auth cookie set by the fake backend.
const CookieName = "studio_auth"

var signingKey = []byte("fakeapi-signing-key")

// Request is a recorded request.
type Request struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

type failure struct {
	status int
	detail any
	once   bool
}

type account struct {
	user     apiclient.User
	password string
}

// Server is the fake backend. All exported helpers are safe for concurrent
// use.
type Server struct {
	*httptest.Server

	// TokenTTL is the lifetime of issued auth cookies.
	TokenTTL time.Duration

	mu            sync.Mutex
	accounts      map[uuid.UUID]*account
	sessions      map[string]uuid.UUID
	verifyTokens  map[string]uuid.UUID
	resetTokens   map[string]uuid.UUID
	groups        map[uuid.UUID]*apiclient.ClassGroup
	classSessions map[uuid.UUID]*apiclient.ClassSession
	enrollments   map[uuid.UUID]*enrollment
	attendance    map[uuid.UUID]map[uuid.UUID]apiclient.AttendanceStatus
	billing       map[uuid.UUID]apiclient.BillingSummary
	payments      []apiclient.Payment
	failures      map[string]*failure
	requests      []Request
}

type enrollment struct {
	apiclient.Enrollment
	studentID uuid.UUID
}

// New starts a fake backend and stops it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		TokenTTL:      time.Hour,
		accounts:      map[uuid.UUID]*account{},
		sessions:      map[string]uuid.UUID{},
		verifyTokens:  map[string]uuid.UUID{},
		resetTokens:   map[string]uuid.UUID{},
		groups:        map[uuid.UUID]*apiclient.ClassGroup{},
		classSessions: map[uuid.UUID]*apiclient.ClassSession{},
		enrollments:   map[uuid.UUID]*enrollment{},
		attendance:    map[uuid.UUID]map[uuid.UUID]apiclient.AttendanceStatus{},
		billing:       map[uuid.UUID]apiclient.BillingSummary{},
		failures:      map[string]*failure{},
	}

	mux := http.NewServeMux()
	s.routes(mux)
	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Close)

	return s
}

// ============================================================================
// Seeding and inspection helpers
// ============================================================================

// AddUser stores an account. A zero ID is replaced by a fresh one.
func (s *Server) AddUser(u apiclient.User, password string) apiclient.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = apiclient.RoleStudent
	}
	u.IsActive = true
	s.accounts[u.ID] = &account{user: u, password: password}
	return u
}

// User returns the stored account.
func (s *Server) User(id uuid.UUID) (apiclient.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return apiclient.User{}, false
	}
	return acc.user, true
}

// AddClassGroup stores a class group.
func (s *Server) AddClassGroup(g apiclient.ClassGroup) apiclient.ClassGroup {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	s.groups[g.ID] = &g
	return g
}

// AddClassSession stores a session.
func (s *Server) AddClassSession(cs apiclient.ClassSession) apiclient.ClassSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cs.ID == uuid.Nil {
		cs.ID = uuid.New()
	}
	if cs.Status == "" {
		cs.Status = apiclient.SessionScheduled
	}
	if g, ok := s.groups[cs.ClassGroupID]; ok && cs.ClassGroupName == "" {
		cs.ClassGroupName = g.Name
	}
	s.classSessions[cs.ID] = &cs
	return cs
}

// ClassSession returns a stored session.
func (s *Server) ClassSession(id uuid.UUID) (apiclient.ClassSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.classSessions[id]
	if !ok {
		return apiclient.ClassSession{}, false
	}
	return *cs, true
}

// SetBilling stores the billing summary of a student.
func (s *Server) SetBilling(studentID uuid.UUID, summary apiclient.BillingSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.billing[studentID] = summary
}

// VerifyToken returns the last verification token issued for email.
func (s *Server) VerifyToken(email string) string {
	return s.tokenFor(s.verifyTokens, email)
}

// ResetToken returns the last reset token issued for email.
func (s *Server) ResetToken(email string) string {
	return s.tokenFor(s.resetTokens, email)
}

func (s *Server) tokenFor(tokens map[string]uuid.UUID, email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, id := range tokens {
		if acc, ok := s.accounts[id]; ok && strings.EqualFold(acc.user.Email, email) {
			return token
		}
	}
	return ""
}

// Fail makes every request to method+path answer status with the detail
// envelope until Recover is called. path is the full request path.
func (s *Server) Fail(method, path string, status int, detail any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = &failure{status: status, detail: detail}
}

// FailOnce is Fail for the next matching request only.
func (s *Server) FailOnce(method, path string, status int, detail any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = &failure{status: status, detail: detail, once: true}
}

// Recover removes a failure installed by Fail.
func (s *Server) Recover(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+path)
}

// ExpireSessions forgets every server side session, as a backend restart or
// a token expiry would.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = map[string]uuid.UUID{}
}

// Calls counts the requests received for method+path.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// LastRequest returns the last request received for method+path.
func (s *Server) LastRequest(method, path string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.requests) - 1; i >= 0; i-- {
		if r := s.requests[i]; r.Method == method && r.Path == path {
			return r, true
		}
	}
	return Request{}, false
}

// Requests returns a copy of every recorded request.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// ============================================================================
// Plumbing
// ============================================================================

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Body:   body,
		})
		key := r.Method + " " + r.URL.Path
		f, failing := s.failures[key]
		if failing && f.once {
			delete(s.failures, key)
		}
		s.mu.Unlock()

		if failing {
			httpx.WriteDetail(w, f.status, f.detail)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) issueCookie(w http.ResponseWriter, userID uuid.UUID) {
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.TokenTTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ID:        uuid.NewString(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		httpx.WriteDetail(w, http.StatusInternalServerError, "TOKEN_ERROR")
		return
	}

	s.sessions[token] = userID
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.TokenTTL.Seconds()),
		HttpOnly: true,
	})
}

// currentUser resolves the cookie. It must be called with s.mu held.
func (s *Server) currentUser(r *http.Request) (*account, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	id, ok := s.sessions[c.Value]
	if !ok {
		return nil, false
	}
	acc, ok := s.accounts[id]
	if !ok || !acc.user.IsActive {
		return nil, false
	}
	return acc, true
}

// authed wraps a handler requiring a session and, optionally, roles.
func (s *Server) authed(roles []apiclient.Role, h func(w http.ResponseWriter, r *http.Request, me *account)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		me, ok := s.currentUser(r)
		if !ok {
			httpx.WriteDetail(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if len(roles) > 0 && !hasRole(me.user.Role, roles) {
			httpx.WriteDetail(w, http.StatusForbidden, "Forbidden")
			return
		}
		h(w, r, me)
	}
}

func hasRole(role apiclient.Role, roles []apiclient.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		httpx.WriteDetail(w, http.StatusUnprocessableEntity, []map[string]any{
			{"loc": []string{"body"}, "msg": err.Error(), "type": "json_invalid"},
		})
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteDetail(w, http.StatusUnprocessableEntity, []map[string]any{
			{"loc": []string{"path", "id"}, "msg": "invalid uuid", "type": "uuid_parsing"},
		})
		return uuid.Nil, false
	}
	return id, true
}

// window parses from_date/to_date; to_date is inclusive.
func window(r *http.Request) (time.Time, time.Time) {
	var from, to time.Time
	if v := r.URL.Query().Get("from_date"); v != "" {
		from, _ = time.Parse("2006-01-02", v)
	}
	if v := r.URL.Query().Get("to_date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			to = t.AddDate(0, 0, 1)
		}
	}
	return from, to
}

func inWindow(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

func sortSessions(sessions []apiclient.ClassSession) {
	sort.Slice(sessions, func(a, b int) bool { return sessions[a].StartsAt.Before(sessions[b].StartsAt) })
}

func paginate[T any](w http.ResponseWriter, r *http.Request, items []T) {
	q := r.URL.Query()
	page := atoiDefault(q.Get("page"), 1)
	size := atoiDefault(q.Get("page_size"), 20)

	start := min((page-1)*size, len(items))
	end := min(start+size, len(items))

	httpx.WriteJSON(w, http.StatusOK, apiclient.Page[T]{
		Items:    append([]T{}, items[start:end]...),
		Total:    len(items),
		Page:     page,
		PageSize: size,
	})
}

func atoiDefault(s string, def int) int {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil || n < 1 {
		return def
	}
	return n
}
