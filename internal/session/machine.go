package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mindscribe/journal-api/internal/model"
	"github.com/mindscribe/journal-api/internal/repository"
)

// CredentialStore is the slice of the user repository the machine
// drives. Passcode format is validated here in the machine, not in the
// store. SetPasscode persists whatever it is given.
type CredentialStore interface {
	Create(ctx context.Context, handle, password string, cost int) (uint64, error)
	Authenticate(ctx context.Context, handle, password string) (uint64, error)
	SetPasscode(ctx context.Context, userID uint64, code string) error
	Passcode(ctx context.Context, userID uint64) (string, bool, error)
}

// EntryStore is the slice of the entry repository the machine drives.
type EntryStore interface {
	Create(ctx context.Context, userID uint64, day time.Time, content, mood, reflection string) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.Entry, error)
	Delete(ctx context.Context, id uint64) error
}

// StreakRecorder receives exactly one call per successful entry save.
type StreakRecorder interface {
	Record(ctx context.Context, userID uint64, day time.Time) error
}

// Reflector produces the generated companion text. It never fails:
// the reflection package guarantees a usable string.
type Reflector interface {
	Generate(ctx context.Context, entryText string) string
}

// Machine sequences calls into the stores and the reflector in
// response to user actions and computes the next page. Every method
// takes the current Context value and returns the next one; on
// recoverable failures the page stays put, Context.Error carries the
// message and the returned error is one of the session sentinels.
// Non-sentinel errors indicate infrastructure failure.
type Machine struct {
	users      CredentialStore
	entries    EntryStore
	streaks    StreakRecorder
	reflector  Reflector
	bcryptCost int
	now        func() time.Time
}

func NewMachine(users CredentialStore, entries EntryStore, streaks StreakRecorder, reflector Reflector, bcryptCost int) *Machine {
	return &Machine{
		users:      users,
		entries:    entries,
		streaks:    streaks,
		reflector:  reflector,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// fail keeps the session on its current page with a message set.
func fail(sc Context, msg string, err error) (Context, error) {
	sc.Error = msg
	return sc, err
}

// SubmitLogin handles the login action. A user with a stored passcode
// lands on the security check, everyone else goes straight to welcome.
func (m *Machine) SubmitLogin(ctx context.Context, sc Context, handle, password string) (Context, error) {
	if sc.Page != PageLogin {
		return fail(sc, "already logged in", ErrWrongPage)
	}
	if strings.TrimSpace(handle) == "" || password == "" {
		return fail(sc, "handle and password are required", ErrValidation)
	}
	uid, err := m.users.Authenticate(ctx, handle, password)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) {
			return fail(sc, "invalid handle or password", err)
		}
		return sc, err
	}
	_, hasPasscode, err := m.users.Passcode(ctx, uid)
	if err != nil {
		return sc, err
	}
	sc = Context{UserID: uid, Page: PageWelcome}
	if hasPasscode {
		sc.Page = PageSecurityCheck
	}
	return sc, nil
}

// SubmitRegistration creates an account and moves to the security key
// setup page. A taken handle keeps the session on login with an error.
func (m *Machine) SubmitRegistration(ctx context.Context, sc Context, handle, password string) (Context, error) {
	if sc.Page != PageLogin {
		return fail(sc, "already logged in", ErrWrongPage)
	}
	if strings.TrimSpace(handle) == "" || password == "" {
		return fail(sc, "handle and password are required", ErrValidation)
	}
	uid, err := m.users.Create(ctx, handle, password, m.bcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrHandleExists) {
			return fail(sc, "an account with this handle already exists", err)
		}
		return sc, err
	}
	return Context{UserID: uid, Page: PageSetSecurityKey}, nil
}

// SubmitPasscode stores a security key during setup. The 4-decimal-digit
// format is enforced here, before the store is called.
func (m *Machine) SubmitPasscode(ctx context.Context, sc Context, code string) (Context, error) {
	if sc.UserID == 0 {
		return sc, ErrUnauthenticated
	}
	if sc.Page != PageSetSecurityKey {
		return fail(sc, "security key setup is not active", ErrWrongPage)
	}
	if !validPasscode(code) {
		return fail(sc, "please enter a 4-digit numeric key", ErrValidation)
	}
	if err := m.users.SetPasscode(ctx, sc.UserID, code); err != nil {
		return sc, err
	}
	return Context{UserID: sc.UserID, Page: PageWelcome}, nil
}

// SkipPasscode leaves the key unset and moves on unconditionally.
func (m *Machine) SkipPasscode(sc Context) (Context, error) {
	if sc.UserID == 0 {
		return sc, ErrUnauthenticated
	}
	if sc.Page != PageSetSecurityKey {
		return fail(sc, "security key setup is not active", ErrWrongPage)
	}
	return Context{UserID: sc.UserID, Page: PageWelcome}, nil
}

// CheckPasscode unlocks the journal after login for users with a
// stored key.
func (m *Machine) CheckPasscode(ctx context.Context, sc Context, code string) (Context, error) {
	if sc.UserID == 0 {
		return sc, ErrUnauthenticated
	}
	if sc.Page != PageSecurityCheck {
		return fail(sc, "security check is not active", ErrWrongPage)
	}
	stored, ok, err := m.users.Passcode(ctx, sc.UserID)
	if err != nil {
		return sc, err
	}
	if !ok || code != stored {
		return fail(sc, "incorrect security key, please try again", ErrBadPasscode)
	}
	return Context{UserID: sc.UserID, Page: PageWelcome}, nil
}

// Advance moves forward through the post-login pages:
// welcome -> home -> journal.
func (m *Machine) Advance(sc Context) (Context, error) {
	if sc.UserID == 0 {
		return sc, ErrUnauthenticated
	}
	switch sc.Page {
	case PageWelcome:
		sc.Page = PageHome
	case PageHome:
		sc.Page = PageJournal
	default:
		return fail(sc, "nothing to advance to from this page", ErrWrongPage)
	}
	sc.Error = ""
	return sc, nil
}

// Back returns from the journal to the home dashboard.
func (m *Machine) Back(sc Context) (Context, error) {
	if sc.UserID == 0 {
		return sc, ErrUnauthenticated
	}
	if sc.Page != PageJournal {
		return fail(sc, "nothing to go back to from this page", ErrWrongPage)
	}
	sc.Page = PageHome
	sc.Error = ""
	return sc, nil
}

// SaveResult reports what a successful SaveEntry persisted.
type SaveResult struct {
	EntryID    uint64
	Day        time.Time
	Mood       string
	Reflection string
}

// SaveEntry runs the full save sequence on the journal page: generate
// the reflection, persist the entry, then record the streak as an
// explicit second step so storage and streak logic stay independently
// testable. Empty content is rejected before anything is persisted.
// The session stays on the journal with the unread-reflection flag set
// so the UI can render the new text exactly once.
func (m *Machine) SaveEntry(ctx context.Context, sc Context, content, mood string) (Context, *SaveResult, error) {
	if sc.UserID == 0 {
		return sc, nil, ErrUnauthenticated
	}
	if sc.Page != PageJournal {
		sc.Error = "open the journal before saving an entry"
		return sc, nil, ErrWrongPage
	}
	if strings.TrimSpace(content) == "" {
		sc.Error = "please write something before saving"
		return sc, nil, ErrValidation
	}
	if !model.ValidMood(mood) {
		sc.Error = "please pick one of the listed moods"
		return sc, nil, ErrValidation
	}

	reflection := m.reflector.Generate(ctx, content)
	day := m.now().UTC()

	id, err := m.entries.Create(ctx, sc.UserID, day, content, mood, reflection)
	if err != nil {
		return sc, nil, err
	}
	if err := m.streaks.Record(ctx, sc.UserID, day); err != nil {
		return sc, nil, err
	}

	sc.UnreadReflection = true
	sc.Error = ""
	return sc, &SaveResult{EntryID: id, Day: day, Mood: mood, Reflection: reflection}, nil
}

// ConsumeReflection clears the unread flag once the new reflection has
// been rendered.
func (m *Machine) ConsumeReflection(sc Context) Context {
	sc.UnreadReflection = false
	return sc
}

// DeleteEntry removes one of the user's own entries from the home
// dashboard. The streak row is deliberately left untouched: streaks
// are write-only and never recomputed on delete.
func (m *Machine) DeleteEntry(ctx context.Context, sc Context, entryID uint64) (Context, error) {
	if sc.UserID == 0 {
		return sc, ErrUnauthenticated
	}
	if sc.Page != PageHome {
		return fail(sc, "entries can only be removed from the home page", ErrWrongPage)
	}
	e, err := m.entries.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			return fail(sc, "entry not found", err)
		}
		return sc, err
	}
	if e.UserID != sc.UserID {
		return fail(sc, "this entry belongs to another journal", repository.ErrForbidden)
	}
	if err := m.entries.Delete(ctx, entryID); err != nil {
		return sc, err
	}
	sc.Error = ""
	return sc, nil
}

// Logout discards the session and returns to the login page.
func (m *Machine) Logout(sc Context) Context {
	return NewContext()
}

func validPasscode(code string) bool {
	if len(code) != 4 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
