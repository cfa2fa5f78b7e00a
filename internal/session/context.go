// Package session owns the page-state machine that sequences every
// user action: which screen is current, who is authenticated, and what
// transitions are legal. Transitions are modelled as methods that take
// a Context value and return the next one, so the machine carries no
// ambient mutable state and each step is testable in isolation.
package session

import "errors"

// Page identifies the screen a session is currently on.
type Page string

const (
	PageLogin          Page = "login"
	PageSetSecurityKey Page = "set_security_key"
	PageSecurityCheck  Page = "security_check"
	PageWelcome        Page = "welcome"
	PageHome           Page = "home"
	PageJournal        Page = "journal"
)

// Context is the per-session state. It is initialized to the login
// page with no user, mutated only by machine transitions, and
// discarded on logout. UserID is zero exactly on the login page.
type Context struct {
	Page             Page   `json:"page"`
	UserID           uint64 `json:"user_id"`
	UnreadReflection bool   `json:"unread_reflection"`
	Error            string `json:"error,omitempty"`
}

// NewContext returns the unauthenticated default: login page, no user.
func NewContext() Context { return Context{Page: PageLogin} }

// Sentinel errors returned alongside the updated Context. The Context
// carries the user-facing message; these let the HTTP layer pick a
// status code.
var (
	// ErrUnauthenticated is returned when an action that requires a
	// logged-in user is attempted without one.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrWrongPage is returned when an action is not legal on the
	// session's current page.
	ErrWrongPage = errors.New("action not available on this page")

	// ErrValidation covers malformed input rejected before any
	// persistence call: bad passcode format, empty entry content,
	// unknown mood.
	ErrValidation = errors.New("validation failed")

	// ErrBadPasscode is returned when the submitted security key does
	// not match the stored one.
	ErrBadPasscode = errors.New("incorrect security key")
)
