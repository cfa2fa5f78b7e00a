package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindscribe/journal-api/internal/repository"
	"github.com/mindscribe/journal-api/internal/session"
)

// SessionHandler exposes the page-state machine over HTTP: reading the
// current context, the passcode gates, and the page navigation actions.
type SessionHandler struct {
	Machine  *session.Machine
	Sessions *session.Store
	Entries  *repository.EntryRepo
}

func NewSessionHandler(m *session.Machine, s *session.Store, e *repository.EntryRepo) *SessionHandler {
	return &SessionHandler{Machine: m, Sessions: s, Entries: e}
}

// loadSession rehydrates the caller's session context. A missing
// context (expired or logged out elsewhere) is reported as a conflict
// so the client knows to log in again.
func (h *SessionHandler) loadSession(c echo.Context) (session.Context, bool, error) {
	uid, err := getUserID(c)
	if err != nil {
		return session.Context{}, false, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := opContext(c)
	defer cancel()
	sc, found, err := h.Sessions.Load(ctx, uid)
	if err != nil {
		return session.Context{}, false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "load session failed"})
	}
	if !found {
		return session.Context{}, false, c.JSON(http.StatusConflict, echo.Map{"error": "no active session, log in again"})
	}
	return sc, true, nil
}

func (h *SessionHandler) saveSession(c echo.Context, sc session.Context) error {
	ctx, cancel := opContext(c)
	defer cancel()
	return h.Sessions.Save(ctx, sc)
}

// Get returns the current session context. When an unread reflection
// is pending, the generated text is included exactly once and the flag
// cleared, so a page re-render shows it a single time.
func (h *SessionHandler) Get(c echo.Context) error {
	sc, ok, errResp := h.loadSession(c)
	if !ok {
		return errResp
	}
	resp := echo.Map{"session": sc}
	if sc.UnreadReflection {
		ctx, cancel := opContext(c)
		defer cancel()
		if e, found, err := h.Entries.LatestWithReflection(ctx, sc.UserID); err == nil && found {
			resp["reflection"] = e.Reflection.String
		}
		consumed := h.Machine.ConsumeReflection(sc)
		if err := h.saveSession(c, consumed); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save session failed"})
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// SetPasscode handles the security key setup form.
func (h *SessionHandler) SetPasscode(c echo.Context) error {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	sc, ok, errResp := h.loadSession(c)
	if !ok {
		return errResp
	}
	ctx, cancel := opContext(c)
	defer cancel()

	next, err := h.Machine.SubmitPasscode(ctx, sc, req.Code)
	if err != nil {
		_ = h.saveSession(c, next)
		return machineError(c, next, err)
	}
	if err := h.saveSession(c, next); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save session failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"session": next})
}

// SkipPasscode leaves the security key unset.
func (h *SessionHandler) SkipPasscode(c echo.Context) error {
	sc, ok, errResp := h.loadSession(c)
	if !ok {
		return errResp
	}
	next, err := h.Machine.SkipPasscode(sc)
	if err != nil {
		return machineError(c, next, err)
	}
	if err := h.saveSession(c, next); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save session failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"session": next})
}

// CheckPasscode handles the unlock form after login.
func (h *SessionHandler) CheckPasscode(c echo.Context) error {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	sc, ok, errResp := h.loadSession(c)
	if !ok {
		return errResp
	}
	ctx, cancel := opContext(c)
	defer cancel()

	next, err := h.Machine.CheckPasscode(ctx, sc, req.Code)
	if err != nil {
		_ = h.saveSession(c, next)
		return machineError(c, next, err)
	}
	if err := h.saveSession(c, next); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save session failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"session": next})
}

// Advance moves forward one page (welcome -> home -> journal).
func (h *SessionHandler) Advance(c echo.Context) error {
	sc, ok, errResp := h.loadSession(c)
	if !ok {
		return errResp
	}
	next, err := h.Machine.Advance(sc)
	if err != nil {
		return machineError(c, next, err)
	}
	if err := h.saveSession(c, next); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save session failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"session": next})
}

// Back returns from the journal to the home dashboard.
func (h *SessionHandler) Back(c echo.Context) error {
	sc, ok, errResp := h.loadSession(c)
	if !ok {
		return errResp
	}
	next, err := h.Machine.Back(sc)
	if err != nil {
		return machineError(c, next, err)
	}
	if err := h.saveSession(c, next); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save session failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"session": next})
}
