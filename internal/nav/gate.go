// Package nav decides, for every navigation, whether a route renders or
// where the user is sent instead.
package nav

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/aussiebroadwan/studio/internal/access"
)

const (
	LoginPath   = "/login"
	AccountPath = "/account"
)

type Kind int

const (
	// Render shows the route.
	Render Kind = iota
	// Redirect sends the user to Decision.To.
	Redirect
	// Pending waits for the current user fetch before deciding.
	Pending
	// Loading waits for the session store to rehydrate.
	Loading
	// NotFound means no route matches.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	case Pending:
		return "pending"
	case Loading:
		return "loading"
	case NotFound:
		return "not_found"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type requirementKind int

const (
	public requirementKind = iota
	guestOnly
	pendingVerification
	authenticated
	permission
)

// Requirement is the state predicate a route declares.
type Requirement struct {
	kind requirementKind
	perm access.Permission
}

var (
	Public              = Requirement{kind: public}
	GuestOnly           = Requirement{kind: guestOnly}
	PendingVerification = Requirement{kind: pendingVerification}
	Authenticated       = Requirement{kind: authenticated}
)

// Requires is satisfied by an authenticated user granted p.
func Requires(p access.Permission) Requirement {
	return Requirement{kind: permission, perm: p}
}

func (r Requirement) String() string {
	switch r.kind {
	case public:
		return "public"
	case guestOnly:
		return "guest_only"
	case pendingVerification:
		return "pending_verification"
	case authenticated:
		return "authenticated"
	default:
		return "requires(" + string(r.perm) + ")"
	}
}

// Route binds a path pattern to a requirement. Patterns use the
// net/http.ServeMux syntax without a method, for example
// "/instructor/sessions/{id}/attendance" or "/{$}".
type Route struct {
	Name        string
	Pattern     string
	Requirement Requirement
}

// Decision is the outcome of a navigation.
type Decision struct {
	Kind   Kind
	To     string
	Route  string
	Params map[string]string
}

// Gate resolves paths against a route table.
type Gate struct {
	mux    *http.ServeMux
	routes map[string]Route
	logger *slog.Logger
}

// NewGate builds a gate. Invalid or conflicting patterns are reported as
// errors.
func NewGate(routes []Route, logger *slog.Logger) (g *Gate, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	g = &Gate{
		mux:    http.NewServeMux(),
		routes: make(map[string]Route, len(routes)),
		logger: logger.With("component", "nav"),
	}

	// ServeMux reports bad patterns by panicking.
	defer func() {
		if r := recover(); r != nil {
			g, err = nil, fmt.Errorf("invalid route table: %v", r)
		}
	}()

	for _, r := range routes {
		g.mux.Handle(r.Pattern, http.NotFoundHandler())
		g.routes[r.Pattern] = r
	}
	return g, nil
}

// Resolve decides the navigation to rawPath, which may carry a query
// string. It only reads caps and never blocks.
func (g *Gate) Resolve(rawPath string, caps access.Capabilities) Decision {
	if !caps.Rehydrated {
		return Decision{Kind: Loading}
	}

	u, err := url.Parse(rawPath)
	if err != nil || !strings.HasPrefix(u.Path, "/") {
		return Decision{Kind: NotFound}
	}
	u.Path = path.Clean(u.Path)

	_, pattern := g.mux.Handler(&http.Request{Method: http.MethodGet, URL: u})
	route, ok := g.routes[pattern]
	if !ok {
		return Decision{Kind: NotFound}
	}

	d := decide(route.Requirement, caps)
	d.Route = route.Name
	d.Params = params(route.Pattern, u.Path)

	g.logger.Debug("navigation resolved",
		"path", u.Path,
		"route", route.Name,
		"requirement", route.Requirement.String(),
		"decision", d.Kind.String(),
		"to", d.To,
	)
	return d
}

func decide(req Requirement, caps access.Capabilities) Decision {
	redirect := func(to string) Decision { return Decision{Kind: Redirect, To: to} }

	switch req.kind {
	case public:
		return Decision{Kind: Render}

	case guestOnly:
		if caps.IsAuthenticated {
			return redirect(AccountPath)
		}
		return Decision{Kind: Render}

	case pendingVerification:
		switch {
		case caps.IsNotVerified:
			return Decision{Kind: Render}
		case caps.IsAuthenticated:
			return redirect(AccountPath)
		default:
			return redirect(LoginPath)
		}

	case authenticated:
		if !caps.IsAuthenticated {
			return redirect(LoginPath)
		}
		return Decision{Kind: Render}

	default:
		if !caps.IsAuthenticated {
			return redirect(LoginPath)
		}
		if access.RoleBound(req.perm) && caps.UserPending {
			return Decision{Kind: Pending}
		}
		if caps.Can(req.perm) {
			return Decision{Kind: Render}
		}
		return redirect(AccountPath)
	}
}

// params extracts the wildcard values of a matched path.
func params(pattern, p string) map[string]string {
	pat := strings.Split(strings.Trim(pattern, "/"), "/")
	seg := strings.Split(strings.Trim(p, "/"), "/")

	var out map[string]string
	for i, s := range pat {
		if !strings.HasPrefix(s, "{") || s == "{$}" {
			continue
		}
		name := strings.Trim(s, "{}")
		value := ""
		if rest, ok := strings.CutSuffix(name, "..."); ok {
			name = rest
			if i < len(seg) {
				value = strings.Join(seg[i:], "/")
			}
		} else if i < len(seg) {
			value = seg[i]
		}
		if out == nil {
			out = map[string]string{}
		}
		out[name] = value
	}
	return out
}
