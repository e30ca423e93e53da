package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Roles & session keys                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	RoleAdmin = "admin"
	RoleAgent = "agent"

	DefaultSessionName = "roomdesk-session"

	isAuthKey     = "is_authenticated"
	roleKey       = "role"
	signedInAtKey = "signed_in_at"
)

// ErrInvalidRole is returned by Login for anything other than admin or agent.
var ErrInvalidRole = errors.New("invalid role")

// NormalizeRole lowercases and trims role.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// ValidRole reports whether role is one the desk understands.
func ValidRole(role string) bool {
	switch NormalizeRole(role) {
	case RoleAdmin, RoleAgent:
		return true
	}
	return false
}

// SessionUser is what we cache in the session & inject into r.Context().
type SessionUser struct {
	Role       string
	SignedInAt time.Time
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// CurrentRole returns the signed-in role, or "" when signed out.
func CurrentRole(r *http.Request) string {
	if u, ok := CurrentUser(r); ok {
		return u.Role
	}
	return ""
}

// WithTestUser injects u into the request context the way LoadSessionUser
// does. Intended for handler tests.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager owns the cookie store and the auth middleware.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager builds a cookie-backed session manager. The secure flag
// controls whether cookies are marked Secure and which SameSite mode is used:
// Secure + SameSite=None in production, Lax for http://localhost.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = DefaultSessionName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts
	// MaxAge on the options only affects the cookie; the codec needs it too.
	store.MaxAge(opts.MaxAge)

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("max_age", maxAge))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// Store exposes the underlying cookie store.
func (sm *SessionManager) Store() *sessions.CookieStore {
	return sm.store
}

// Name returns the cookie name.
func (sm *SessionManager) Name() string {
	return sm.name
}

// GetSession returns the session for r. On a decode error the returned
// session is still usable (fresh) and the error is returned alongside it.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return sm.store.Get(r, sm.name)
}

// session fetches the session and logs, rather than fails on, bad cookies.
func (sm *SessionManager) session(r *http.Request) *sessions.Session {
	sess, err := sm.GetSession(r)
	if err != nil {
		var scErr securecookie.Error
		if errors.As(err, &scErr) && scErr.IsDecode() {
			sm.log.Warn("session cookie invalid, using fresh session", zap.Error(err))
		} else {
			sm.log.Error("session store error, using fresh session", zap.Error(err))
		}
	}
	return sess
}

// LoadSessionUser injects the user into context if they are signed in.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := sm.session(r)
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			role, _ := sess.Values[roleKey].(string)
			if ValidRole(role) {
				u := &SessionUser{Role: NormalizeRole(role)}
				if ts, ok := sess.Values[signedInAtKey].(int64); ok {
					u.SignedInAt = time.Unix(ts, 0).UTC()
				}
				r = withUser(r, u)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Session returns a per-request handle for login, logout and role lookup.
func (sm *SessionManager) Session(w http.ResponseWriter, r *http.Request) *Session {
	return &Session{sm: sm, w: w, r: r}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// Session is the role selection for one browser. It lives in the cookie and
// is cleared on logout.
type Session struct {
	sm *SessionManager
	w  http.ResponseWriter
	r  *http.Request
}

// Login records role in the session cookie. Password checks belong to the
// caller.
func (s *Session) Login(role string) error {
	role = NormalizeRole(role)
	if !ValidRole(role) {
		return ErrInvalidRole
	}
	sess := s.sm.session(s.r)
	sess.Values[isAuthKey] = true
	sess.Values[roleKey] = role
	sess.Values[signedInAtKey] = time.Now().Unix()
	if err := sess.Save(s.r, s.w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Logout clears the role and expires the cookie.
func (s *Session) Logout() error {
	sess := s.sm.session(s.r)
	delete(sess.Values, isAuthKey)
	delete(sess.Values, roleKey)
	delete(sess.Values, signedInAtKey)

	opts := *s.sm.store.Options
	opts.MaxAge = -1
	sess.Options = &opts
	if err := sess.Save(s.r, s.w); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// CurrentRole returns the role for this request, or "" when signed out.
func (s *Session) CurrentRole() string {
	if role := CurrentRole(s.r); role != "" {
		return role
	}
	sess := s.sm.session(s.r)
	if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
		return ""
	}
	role, _ := sess.Values[roleKey].(string)
	if !ValidRole(role) {
		return ""
	}
	return NormalizeRole(role)
}
