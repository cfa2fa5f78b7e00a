package session

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindscribe/journal-api/internal/model"
	"github.com/mindscribe/journal-api/internal/repository"
)

// In-memory fakes implementing the machine's store interfaces.

type fakeUsers struct {
	nextID    uint64
	passwords map[string]string // handle -> password
	ids       map[string]uint64 // handle -> id
	passcodes map[uint64]string // raw values, stored as given
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		passwords: map[string]string{},
		ids:       map[string]uint64{},
		passcodes: map[uint64]string{},
	}
}

func (f *fakeUsers) Create(_ context.Context, handle, password string, _ int) (uint64, error) {
	if _, ok := f.ids[handle]; ok {
		return 0, repository.ErrHandleExists
	}
	f.nextID++
	f.ids[handle] = f.nextID
	f.passwords[handle] = password
	return f.nextID, nil
}

func (f *fakeUsers) Authenticate(_ context.Context, handle, password string) (uint64, error) {
	id, ok := f.ids[handle]
	if !ok || f.passwords[handle] != password {
		return 0, repository.ErrInvalidCredentials
	}
	return id, nil
}

// SetPasscode mirrors the real store's contract: it persists whatever
// it is given. Format validation is the machine's job.
func (f *fakeUsers) SetPasscode(_ context.Context, userID uint64, code string) error {
	f.passcodes[userID] = code
	return nil
}

func (f *fakeUsers) Passcode(_ context.Context, userID uint64) (string, bool, error) {
	code, ok := f.passcodes[userID]
	return code, ok, nil
}

type fakeEntries struct {
	nextID uint64
	rows   map[uint64]model.Entry
}

func newFakeEntries() *fakeEntries { return &fakeEntries{rows: map[uint64]model.Entry{}} }

func (f *fakeEntries) Create(_ context.Context, userID uint64, day time.Time, content, mood, reflection string) (uint64, error) {
	f.nextID++
	f.rows[f.nextID] = model.Entry{
		ID: f.nextID, UserID: userID, Date: day, Content: content, Mood: mood,
		Reflection: sql.NullString{String: reflection, Valid: reflection != ""},
	}
	return f.nextID, nil
}

func (f *fakeEntries) GetByID(_ context.Context, id uint64) (model.Entry, error) {
	e, ok := f.rows[id]
	if !ok {
		return model.Entry{}, repository.ErrEntryNotFound
	}
	return e, nil
}

func (f *fakeEntries) Delete(_ context.Context, id uint64) error {
	if _, ok := f.rows[id]; !ok {
		return repository.ErrEntryNotFound
	}
	delete(f.rows, id)
	return nil
}

type streakCall struct {
	userID uint64
	day    time.Time
}

type fakeStreaks struct{ calls []streakCall }

func (f *fakeStreaks) Record(_ context.Context, userID uint64, day time.Time) error {
	f.calls = append(f.calls, streakCall{userID, day})
	return nil
}

type fakeReflector struct {
	calls int
	text  string
}

func (f *fakeReflector) Generate(_ context.Context, _ string) string {
	f.calls++
	return f.text
}

type fixture struct {
	machine   *Machine
	users     *fakeUsers
	entries   *fakeEntries
	streaks   *fakeStreaks
	reflector *fakeReflector
}

func newFixture() *fixture {
	f := &fixture{
		users:     newFakeUsers(),
		entries:   newFakeEntries(),
		streaks:   &fakeStreaks{},
		reflector: &fakeReflector{text: "a small poem"},
	}
	f.machine = NewMachine(f.users, f.entries, f.streaks, f.reflector, 4)
	f.machine.now = func() time.Time { return time.Date(2025, 6, 10, 15, 4, 5, 0, time.UTC) }
	return f
}

// register creates an account and returns the post-registration context.
func (f *fixture) register(t *testing.T, handle string) Context {
	t.Helper()
	sc, err := f.machine.SubmitRegistration(context.Background(), NewContext(), handle, "secret")
	require.NoError(t, err)
	return sc
}

// onJournal walks a fresh passcode-less user to the journal page.
func (f *fixture) onJournal(t *testing.T, handle string) Context {
	t.Helper()
	sc := f.register(t, handle)
	sc, err := f.machine.SkipPasscode(sc)
	require.NoError(t, err)
	sc, err = f.machine.Advance(sc) // welcome -> home
	require.NoError(t, err)
	sc, err = f.machine.Advance(sc) // home -> journal
	require.NoError(t, err)
	return sc
}

func TestRegistrationMovesToSecurityKeySetup(t *testing.T) {
	f := newFixture()
	sc := f.register(t, "ana@example.com")

	assert.Equal(t, PageSetSecurityKey, sc.Page)
	assert.NotZero(t, sc.UserID)
	assert.Empty(t, sc.Error)
}

func TestRegistrationDuplicateHandleStaysOnLogin(t *testing.T) {
	f := newFixture()
	f.register(t, "ana@example.com")

	sc, err := f.machine.SubmitRegistration(context.Background(), NewContext(), "ana@example.com", "other")
	assert.ErrorIs(t, err, repository.ErrHandleExists)
	assert.Equal(t, PageLogin, sc.Page)
	assert.Zero(t, sc.UserID)
	assert.NotEmpty(t, sc.Error)
}

func TestLoginWithWrongPasswordStaysOnLogin(t *testing.T) {
	f := newFixture()
	f.register(t, "ana@example.com")

	sc, err := f.machine.SubmitLogin(context.Background(), NewContext(), "ana@example.com", "nope")
	assert.ErrorIs(t, err, repository.ErrInvalidCredentials)
	assert.Equal(t, PageLogin, sc.Page)
	assert.Zero(t, sc.UserID)
	assert.NotEmpty(t, sc.Error)
}

func TestLoginRoutesThroughSecurityCheckWhenPasscodeSet(t *testing.T) {
	f := newFixture()
	reg := f.register(t, "ana@example.com")
	_, err := f.machine.SubmitPasscode(context.Background(), reg, "1234")
	require.NoError(t, err)

	sc, err := f.machine.SubmitLogin(context.Background(), NewContext(), "ana@example.com", "secret")
	require.NoError(t, err)
	// A user with a stored passcode must never skip the check.
	assert.Equal(t, PageSecurityCheck, sc.Page)
	assert.Equal(t, reg.UserID, sc.UserID)
}

func TestLoginWithoutPasscodeGoesToWelcome(t *testing.T) {
	f := newFixture()
	reg := f.register(t, "ana@example.com")
	_, err := f.machine.SkipPasscode(reg)
	require.NoError(t, err)

	sc, err := f.machine.SubmitLogin(context.Background(), NewContext(), "ana@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, PageWelcome, sc.Page)
}

func TestSubmitPasscodeValidatesFormatBeforeStore(t *testing.T) {
	f := newFixture()
	reg := f.register(t, "ana@example.com")

	for _, bad := range []string{"", "123", "12345", "12a4", "abcd", "12 4"} {
		sc, err := f.machine.SubmitPasscode(context.Background(), reg, bad)
		assert.ErrorIs(t, err, ErrValidation, "code %q", bad)
		assert.Equal(t, PageSetSecurityKey, sc.Page)
		assert.NotEmpty(t, sc.Error)
	}
	// Nothing malformed ever reached the store.
	assert.Empty(t, f.users.passcodes)

	sc, err := f.machine.SubmitPasscode(context.Background(), reg, "0042")
	require.NoError(t, err)
	assert.Equal(t, PageWelcome, sc.Page)
	assert.Equal(t, "0042", f.users.passcodes[reg.UserID])
}

// The credential store itself persists whatever it is given: the
// 4-digit rule lives in the machine, not behind SetPasscode. This test
// pins that boundary.
func TestCredentialStoreDoesNotValidatePasscode(t *testing.T) {
	f := newFixture()
	reg := f.register(t, "ana@example.com")

	require.NoError(t, f.users.SetPasscode(context.Background(), reg.UserID, "not-a-code"))
	got, ok, err := f.users.Passcode(context.Background(), reg.UserID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "not-a-code", got)
}

func TestCheckPasscode(t *testing.T) {
	f := newFixture()
	reg := f.register(t, "ana@example.com")
	_, err := f.machine.SubmitPasscode(context.Background(), reg, "1234")
	require.NoError(t, err)

	sc, err := f.machine.SubmitLogin(context.Background(), NewContext(), "ana@example.com", "secret")
	require.NoError(t, err)

	wrong, err := f.machine.CheckPasscode(context.Background(), sc, "9999")
	assert.ErrorIs(t, err, ErrBadPasscode)
	assert.Equal(t, PageSecurityCheck, wrong.Page)
	assert.NotEmpty(t, wrong.Error)

	right, err := f.machine.CheckPasscode(context.Background(), sc, "1234")
	require.NoError(t, err)
	assert.Equal(t, PageWelcome, right.Page)
}

func TestAdvanceAndBackWalkThePages(t *testing.T) {
	f := newFixture()
	sc := f.register(t, "ana@example.com")
	sc, err := f.machine.SkipPasscode(sc)
	require.NoError(t, err)
	require.Equal(t, PageWelcome, sc.Page)

	sc, err = f.machine.Advance(sc)
	require.NoError(t, err)
	assert.Equal(t, PageHome, sc.Page)

	sc, err = f.machine.Advance(sc)
	require.NoError(t, err)
	assert.Equal(t, PageJournal, sc.Page)

	_, err = f.machine.Advance(sc)
	assert.ErrorIs(t, err, ErrWrongPage)

	sc, err = f.machine.Back(sc)
	require.NoError(t, err)
	assert.Equal(t, PageHome, sc.Page)

	_, err = f.machine.Back(sc)
	assert.ErrorIs(t, err, ErrWrongPage)
}

func TestSaveEntryWithEmptyContentPersistsNothing(t *testing.T) {
	f := newFixture()
	sc := f.onJournal(t, "ana@example.com")

	got, res, err := f.machine.SaveEntry(context.Background(), sc, "   ", model.MoodHappy)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Nil(t, res)
	assert.Equal(t, PageJournal, got.Page)
	assert.False(t, got.UnreadReflection)
	assert.NotEmpty(t, got.Error)

	assert.Empty(t, f.entries.rows, "no entry row may be written")
	assert.Empty(t, f.streaks.calls, "streak must not be touched")
	assert.Zero(t, f.reflector.calls, "no generation for an empty entry")
}

func TestSaveEntryRejectsUnknownMood(t *testing.T) {
	f := newFixture()
	sc := f.onJournal(t, "ana@example.com")

	_, res, err := f.machine.SaveEntry(context.Background(), sc, "a fine day", "Ecstatic")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Nil(t, res)
	assert.Empty(t, f.entries.rows)
}

func TestSaveEntryPersistsAndRecordsStreak(t *testing.T) {
	f := newFixture()
	sc := f.onJournal(t, "ana@example.com")

	got, res, err := f.machine.SaveEntry(context.Background(), sc, "a fine day", model.MoodExcited)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, PageJournal, got.Page, "saving stays on the journal")
	assert.True(t, got.UnreadReflection, "fresh reflection flagged for one render")
	assert.Equal(t, "a small poem", res.Reflection)
	assert.Equal(t, 1, f.reflector.calls)

	e, err := f.entries.GetByID(context.Background(), res.EntryID)
	require.NoError(t, err)
	assert.Equal(t, "a fine day", e.Content)
	assert.Equal(t, model.MoodExcited, e.Mood)
	assert.Equal(t, "a small poem", e.Reflection.String)

	require.Len(t, f.streaks.calls, 1, "exactly one streak update per save")
	assert.Equal(t, sc.UserID, f.streaks.calls[0].userID)
	assert.True(t, f.streaks.calls[0].day.Equal(res.Day))
}

func TestSaveEntryRequiresJournalPage(t *testing.T) {
	f := newFixture()
	sc := f.register(t, "ana@example.com")
	sc, err := f.machine.SkipPasscode(sc)
	require.NoError(t, err)

	_, res, err := f.machine.SaveEntry(context.Background(), sc, "hello", model.MoodNeutral)
	assert.ErrorIs(t, err, ErrWrongPage)
	assert.Nil(t, res)
	assert.Empty(t, f.entries.rows)
}

func TestConsumeReflectionClearsFlagOnce(t *testing.T) {
	f := newFixture()
	sc := f.onJournal(t, "ana@example.com")
	sc, _, err := f.machine.SaveEntry(context.Background(), sc, "hello", model.MoodNeutral)
	require.NoError(t, err)
	require.True(t, sc.UnreadReflection)

	sc = f.machine.ConsumeReflection(sc)
	assert.False(t, sc.UnreadReflection)
}

func TestDeleteEntryLeavesStreakAlone(t *testing.T) {
	f := newFixture()
	sc := f.onJournal(t, "ana@example.com")
	sc, res, err := f.machine.SaveEntry(context.Background(), sc, "hello", model.MoodNeutral)
	require.NoError(t, err)
	require.Len(t, f.streaks.calls, 1)

	sc, err = f.machine.Back(sc)
	require.NoError(t, err)

	sc, err = f.machine.DeleteEntry(context.Background(), sc, res.EntryID)
	require.NoError(t, err)
	assert.Equal(t, PageHome, sc.Page)

	_, err = f.entries.GetByID(context.Background(), res.EntryID)
	assert.ErrorIs(t, err, repository.ErrEntryNotFound)
	// Streaks are write-only: deletion never recomputes the counter.
	assert.Len(t, f.streaks.calls, 1)
}

func TestDeleteEntryChecksOwnership(t *testing.T) {
	f := newFixture()
	other := f.onJournal(t, "bob@example.com")
	_, res, err := f.machine.SaveEntry(context.Background(), other, "bob's day", model.MoodHappy)
	require.NoError(t, err)

	sc := f.onJournal(t, "ana@example.com")
	sc, err = f.machine.Back(sc)
	require.NoError(t, err)

	_, err = f.machine.DeleteEntry(context.Background(), sc, res.EntryID)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	_, err = f.entries.GetByID(context.Background(), res.EntryID)
	assert.NoError(t, err, "the foreign entry must survive")
}

func TestDeleteEntryMissingRow(t *testing.T) {
	f := newFixture()
	sc := f.onJournal(t, "ana@example.com")
	sc, err := f.machine.Back(sc)
	require.NoError(t, err)

	_, err = f.machine.DeleteEntry(context.Background(), sc, 404)
	assert.ErrorIs(t, err, repository.ErrEntryNotFound)
}

func TestAuthenticatedActionsRejectMissingUser(t *testing.T) {
	f := newFixture()
	anon := NewContext()

	_, err := f.machine.SubmitPasscode(context.Background(), anon, "1234")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.machine.SkipPasscode(anon)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.machine.CheckPasscode(context.Background(), anon, "1234")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.machine.Advance(anon)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.machine.Back(anon)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, _, err = f.machine.SaveEntry(context.Background(), anon, "x", model.MoodSad)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.machine.DeleteEntry(context.Background(), anon, 1)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestLogoutReturnsToLogin(t *testing.T) {
	f := newFixture()
	sc := f.onJournal(t, "ana@example.com")

	sc = f.machine.Logout(sc)
	assert.Equal(t, PageLogin, sc.Page)
	assert.Zero(t, sc.UserID)
	assert.False(t, sc.UnreadReflection)
}

func TestRegisterThenLoginRoundTrip(t *testing.T) {
	f := newFixture()
	reg := f.register(t, "ana@example.com")
	_, err := f.machine.SkipPasscode(reg)
	require.NoError(t, err)

	sc, err := f.machine.SubmitLogin(context.Background(), NewContext(), "ana@example.com", "secret")
	require.NoError(t, err)
	// Authentication yields the same identifier registration produced.
	assert.Equal(t, reg.UserID, sc.UserID)
}
