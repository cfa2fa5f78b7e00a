package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mindscribe/journal-api/internal/model"
	"github.com/mindscribe/journal-api/internal/queue"
	"github.com/mindscribe/journal-api/internal/repository"
	queue_publisher "github.com/mindscribe/journal-api/internal/service"
	"github.com/mindscribe/journal-api/internal/session"
)

// JournalHandler exposes entry writing, listing, deletion and the
// streak counter. Every mutation goes through the session machine so
// the page-state rules apply uniformly.
type JournalHandler struct {
	Machine  *session.Machine
	Sessions *session.Store
	Entries  *repository.EntryRepo
	Streaks  *repository.StreakRepo
}

func NewJournalHandler(m *session.Machine, s *session.Store, e *repository.EntryRepo, st *repository.StreakRepo) *JournalHandler {
	return &JournalHandler{Machine: m, Sessions: s, Entries: e, Streaks: st}
}

type saveEntryReq struct {
	Content string `json:"content"`
	Mood    string `json:"mood"`
}

type entryResp struct {
	ID         uint64  `json:"id"`
	Date       string  `json:"date"`
	Content    string  `json:"content"`
	Mood       string  `json:"mood"`
	Reflection *string `json:"reflection"`
}

func toEntryResp(e model.Entry) entryResp {
	r := entryResp{
		ID:      e.ID,
		Date:    e.Date.Format(time.DateOnly),
		Content: e.Content,
		Mood:    e.Mood,
	}
	if e.Reflection.Valid {
		refl := e.Reflection.String
		r.Reflection = &refl
	}
	return r
}

func (h *JournalHandler) loadSession(c echo.Context) (session.Context, bool, error) {
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

// Create handles POST /v1/entries: the journal save action. The
// reflection call may take a while (retries included), so only the
// storage work runs under the short DB timeout; the machine receives
// the request context.
func (h *JournalHandler) Create(c echo.Context) error {
	var req saveEntryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	sc, ok, errResp := h.loadSession(c)
	if !ok {
		return errResp
	}

	next, res, err := h.Machine.SaveEntry(c.Request().Context(), sc, req.Content, req.Mood)
	if err != nil {
		{
			ctx, cancel := opContext(c)
			_ = h.Sessions.Save(ctx, next)
			cancel()
		}
		return machineError(c, next, err)
	}

	ctx, cancel := opContext(c)
	defer cancel()
	if err := h.Sessions.Save(ctx, next); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save session failed"})
	}

	// Best effort: a broker outage must not fail the save.
	_ = queue_publisher.PublishEntrySaved(c.Request().Context(), queue.EntrySavedEvent{
		EntryID:   res.EntryID,
		UserID:    next.UserID,
		Mood:      res.Mood,
		EntryDate: res.Day.Format(time.DateOnly),
		SavedAt:   time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"entry_id":   res.EntryID,
		"reflection": res.Reflection,
		"session":    next,
	})
}

// List handles GET /v1/entries: all of the user's entries, most recent
// day first, plus the total count.
func (h *JournalHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := opContext(c)
	defer cancel()

	entries, err := h.Entries.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list entries failed"})
	}
	count, err := h.Entries.CountByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "count entries failed"})
	}
	out := make([]entryResp, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResp(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": out, "count": count})
}

// Delete handles DELETE /v1/entries/:id from the home dashboard.
func (h *JournalHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entry id"})
	}
	sc, ok, errResp := h.loadSession(c)
	if !ok {
		return errResp
	}
	ctx, cancel := opContext(c)
	defer cancel()

	next, err := h.Machine.DeleteEntry(ctx, sc, id)
	if err != nil {
		_ = h.Sessions.Save(ctx, next)
		return machineError(c, next, err)
	}
	if err := h.Sessions.Save(ctx, next); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save session failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Dates handles GET /v1/entries/dates: the calendar days the user has
// written on, ascending, for rendering a history view.
func (h *JournalHandler) Dates(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := opContext(c)
	defer cancel()

	days, err := h.Entries.DatesByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list dates failed"})
	}
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, d.Format(time.DateOnly))
	}
	return c.JSON(http.StatusOK, echo.Map{"dates": out})
}

// Streak handles GET /v1/streak: the consecutive-day counter.
func (h *JournalHandler) Streak(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := opContext(c)
	defer cancel()

	rec, found, err := h.Streaks.Get(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load streak failed"})
	}
	resp := echo.Map{"streak_count": 0, "last_entry_date": nil}
	if found {
		resp["streak_count"] = rec.StreakCount
		if rec.LastEntryDate.Valid {
			resp["last_entry_date"] = rec.LastEntryDate.Time.Format(time.DateOnly)
		}
	}
	return c.JSON(http.StatusOK, resp)
}
