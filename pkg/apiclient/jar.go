package apiclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/net/publicsuffix"
)

// StoredCookie is the persisted form of a cookie of the API origin.
type StoredCookie struct {
	Name     string
	Value    string
	Path     string
	Expires  time.Time // zero for session cookies
	Secure   bool
	HttpOnly bool
}

// CookieStore persists the cookies of the API origin between runs.
type CookieStore interface {
	SaveCookies(ctx context.Context, cookies []StoredCookie) error
	LoadCookies(ctx context.Context) ([]StoredCookie, error)
}

// PersistentJar is an http.CookieJar that mirrors the cookies of one origin
// into a CookieStore. Cookies of other hosts live in memory only.
type PersistentJar struct {
	origin *url.URL
	store  CookieStore
	logger *slog.Logger
	now    func() time.Time

	// saveMu orders writes to the store: it is held from the change of
	// tracked until its snapshot is saved.
	saveMu sync.Mutex

	mu      sync.Mutex
	jar     *cookiejar.Jar
	tracked map[cookieKey]StoredCookie
}

// cookieKey identifies a cookie of the origin host. Cookies sharing a name
// on different paths are distinct.
type cookieKey struct {
	name string
	path string
}

func keyOf(c StoredCookie) cookieKey {
	return cookieKey{name: c.Name, path: c.Path}
}

// defaultPath is the cookie path used when Set-Cookie has none, per
// RFC 6265 section 5.1.4.
func defaultPath(requestPath string) string {
	if requestPath == "" || requestPath[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(requestPath, "/")
	if i == 0 {
		return "/"
	}
	return requestPath[:i]
}

// NewPersistentJar creates a jar for the given origin (the API base URL).
func NewPersistentJar(origin string, store CookieStore, logger *slog.Logger) (*PersistentJar, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("invalid origin %q: %w", origin, err)
	}

	jar, err := newMemoryJar()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PersistentJar{
		origin:  u,
		store:   store,
		logger:  logger,
		now:     time.Now,
		jar:     jar,
		tracked: map[cookieKey]StoredCookie{},
	}, nil
}

func newMemoryJar() (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return jar, nil
}

// Cookies implements http.CookieJar.
func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// SetCookies implements http.CookieJar. Cookies of the origin host are
// written through to the store; failures are logged since the jar
// interface has no error return.
func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.saveMu.Lock()
	defer j.saveMu.Unlock()

	j.mu.Lock()
	j.jar.SetCookies(u, cookies)

	if u.Hostname() != j.origin.Hostname() {
		j.mu.Unlock()
		return
	}

	now := j.now()
	for _, c := range cookies {
		path := c.Path
		if path == "" || path[0] != '/' {
			path = defaultPath(u.Path)
		}
		key := cookieKey{name: c.Name, path: path}

		if c.MaxAge < 0 || c.Value == "" || (!c.Expires.IsZero() && c.Expires.Before(now)) {
			delete(j.tracked, key)
			continue
		}

		expires := c.Expires
		if c.MaxAge > 0 {
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		j.tracked[key] = StoredCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     path,
			Expires:  expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
	}
	snapshot := j.snapshotLocked()
	j.mu.Unlock()

	if j.store == nil {
		return
	}
	if err := j.store.SaveCookies(context.Background(), snapshot); err != nil {
		j.logger.Error("failed to persist cookies", "error", err)
	}
}

// Restore loads persisted cookies into the jar. Expired cookies and cookies
// holding a JWT whose exp claim is in the past are dropped, so a stale auth
// cookie is never replayed.
func (j *PersistentJar) Restore(ctx context.Context) error {
	if j.store == nil {
		return nil
	}

	stored, err := j.store.LoadCookies(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cookies: %w", err)
	}

	now := j.now()

	j.saveMu.Lock()
	defer j.saveMu.Unlock()
	j.mu.Lock()
	defer j.mu.Unlock()

	restored := make([]*http.Cookie, 0, len(stored))
	for _, sc := range stored {
		if !sc.Expires.IsZero() && sc.Expires.Before(now) {
			continue
		}
		if tokenExpired(sc.Value, now) {
			j.logger.Debug("dropping cookie with expired token", "cookie", sc.Name)
			continue
		}

		if sc.Path == "" {
			sc.Path = "/"
		}
		j.tracked[keyOf(sc)] = sc
		restored = append(restored, &http.Cookie{
			Name:     sc.Name,
			Value:    sc.Value,
			Path:     sc.Path,
			Expires:  sc.Expires,
			Secure:   sc.Secure,
			HttpOnly: sc.HttpOnly,
		})
	}

	j.jar.SetCookies(j.origin, restored)
	return nil
}

// Clear forgets every cookie, in memory and in the store.
func (j *PersistentJar) Clear(ctx context.Context) error {
	jar, err := newMemoryJar()
	if err != nil {
		return err
	}

	j.saveMu.Lock()
	defer j.saveMu.Unlock()

	j.mu.Lock()
	j.jar = jar
	j.tracked = map[cookieKey]StoredCookie{}
	j.mu.Unlock()

	if j.store == nil {
		return nil
	}
	return j.store.SaveCookies(ctx, nil)
}

func (j *PersistentJar) snapshotLocked() []StoredCookie {
	out := make([]StoredCookie, 0, len(j.tracked))
	for _, c := range j.tracked {
		out = append(out, c)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Name != out[b].Name {
			return out[a].Name < out[b].Name
		}
		return out[a].Path < out[b].Path
	})
	return out
}

// tokenExpired reports whether value is a JWT whose exp claim lies before
// now. The signature is not (and cannot be) verified on the client; values
// that are not JWTs are never considered expired.
func tokenExpired(value string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(value, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
