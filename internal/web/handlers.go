package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"rollsheet/internal/activity"
	"rollsheet/internal/notify"
	"rollsheet/internal/sheet"
	"rollsheet/internal/store"
)

const searchLimit = 50

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write JSON response: %v", err)
	}
}

type diceView struct {
	Input    string
	History  []store.RollRecord
	Notice   *notify.Notice
	NoticeMS int64
}

type logView struct {
	Query   string
	Entries []activity.Entry
	Matches []store.LogMatch
	Error   string
}

func (s *Server) handleSheet(w http.ResponseWriter, r *http.Request) {
	ch, err := s.db.FirstCharacter(r.Context())
	if err != nil {
		s.logger.Printf("[web] load character: %v", err)
		http.Error(w, "Failed to load character", http.StatusInternalServerError)
		return
	}
	var view *sheet.View
	if ch != nil {
		v := sheet.Build(*ch)
		view = &v
	}
	s.render(w, "sheet", "/", "Sheet", view)
}

func (s *Server) handleDice(w http.ResponseWriter, r *http.Request) {
	view := diceView{Input: r.URL.Query().Get("expr")}

	history, err := s.roller.History(r.Context(), s.sessionID)
	if err == nil {
		view.History = history
	}
	if n, ok := s.notices.Current(); ok {
		view.Notice = &n
		view.NoticeMS = n.ExpiresAt.Sub(s.now()).Milliseconds()
	}
	s.render(w, "dice", "/dice", "Dice", view)
}

// handleDiceSubmit rolls and redirects back to the board. A rejected or unsaved
// roll keeps the typed expression in the redirect.
func (s *Server) handleDiceSubmit(w http.ResponseWriter, r *http.Request) {
	input := r.FormValue("expr")
	out := s.roller.Submit(r.Context(), s.sessionID, input)

	target := "/dice"
	if !out.ClearInput && input != "" {
		target += "?" + url.Values{"expr": {input}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) placeholder(active, text string) http.HandlerFunc {
	title := strings.ToUpper(active[:1]) + active[1:]
	if active == "dm" {
		title = "DM Tools"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, "placeholder", "/"+active, title, text)
	}
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	view := logView{Query: strings.TrimSpace(r.URL.Query().Get("q"))}

	if view.Query != "" {
		matches, err := s.db.SearchLogs(r.Context(), view.Query, searchLimit)
		switch {
		case errors.Is(err, store.ErrNoSearchTerms):
			view.Error = "Enter at least one search term"
		case err != nil:
			s.logger.Printf("[web] search log: %v", err)
			view.Error = "Search failed"
		}
		view.Matches = matches
		s.render(w, "log", "/log", "Log", view)
		return
	}

	entries, err := activity.Load(r.Context(), s.db, s.sessionID)
	if err != nil {
		s.logger.Printf("[web] load log: %v", err)
		view.Error = "Failed to load log"
	}
	view.Entries = entries
	s.render(w, "log", "/log", "Log", view)
}

type tileJSON struct {
	Kind    string `json:"kind"`
	Label   string `json:"label"`
	Value   string `json:"value"`
	Sub     string `json:"sub,omitempty"`
	Percent int    `json:"percent,omitempty"`
}

type characterJSON struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	System    string         `json:"system"`
	RoleClass string         `json:"role_class,omitempty"`
	Level     int            `json:"level"`
	Stats     map[string]any `json:"stats"`
	Derived   map[string]any `json:"derived"`
	Tiles     []tileJSON     `json:"tiles"`
}

type rollJSON struct {
	ID         string `json:"id,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	Expression string `json:"expression"`
	Faces      []int  `json:"faces"`
	Total      int    `json:"total"`
	Created    string `json:"created,omitempty"`
}

type logEntryJSON struct {
	Kind      string `json:"kind"`
	SessionID string `json:"session_id,omitempty"`
	CreatedAt string `json:"created_at"`
	Text      string `json:"text"`
}

func (s *Server) handleAPICharacter(w http.ResponseWriter, r *http.Request) {
	ch, err := s.db.FirstCharacter(r.Context())
	if err != nil {
		s.logger.Printf("[api] load character: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load character"})
		return
	}
	if ch == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "character not found"})
		return
	}

	view := sheet.Build(*ch)
	tiles := make([]tileJSON, 0, len(view.Derived))
	for _, t := range view.Derived {
		tiles = append(tiles, tileJSON{Kind: string(t.Kind), Label: t.Label, Value: t.Value, Sub: t.Sub, Percent: t.Percent})
	}
	writeJSON(w, http.StatusOK, characterJSON{
		ID:        ch.ID,
		Name:      ch.Name,
		System:    ch.System,
		RoleClass: ch.RoleClass,
		Level:     ch.Level,
		Stats:     ch.Stats,
		Derived:   ch.Derived,
		Tiles:     tiles,
	})
}

func (s *Server) handleAPIListRolls(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sessionID := q.Get("session_id")
	if sessionID == "" {
		sessionID = s.sessionID
	}
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	rolls, err := s.db.ListRolls(r.Context(), sessionID, limit)
	if err != nil {
		s.logger.Printf("[api] list rolls: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list rolls"})
		return
	}
	out := make([]rollJSON, 0, len(rolls))
	for _, roll := range rolls {
		out = append(out, rollJSON{
			ID:         roll.ID,
			SessionID:  roll.SessionID,
			Expression: roll.Expression,
			Faces:      roll.Faces,
			Total:      roll.Total,
			Created:    roll.Created,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rolls": out})
}

func (s *Server) handleAPIRoll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Expression string `json:"expression"`
		SessionID  string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = s.sessionID
	}

	out := s.roller.Submit(r.Context(), sessionID, req.Expression)
	switch {
	case out.Result == nil:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": out.Notice.Text})
		return
	case out.RollID == "":
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": out.Notice.Text})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"roll": rollJSON{
			ID:         out.RollID,
			SessionID:  sessionID,
			Expression: out.Result.Expression,
			Faces:      out.Result.Faces,
			Total:      out.Result.Total,
		},
		"message": out.Notice.Text,
	})
}

func (s *Server) handleAPILog(w http.ResponseWriter, r *http.Request) {
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		matches, err := s.db.SearchLogs(r.Context(), q, searchLimit)
		if errors.Is(err, store.ErrNoSearchTerms) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if err != nil {
			s.logger.Printf("[api] search log: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "search failed"})
			return
		}
		out := make([]map[string]any, 0, len(matches))
		for _, m := range matches {
			out = append(out, map[string]any{
				"id":         m.ID,
				"session_id": m.SessionID,
				"created_at": m.CreatedAt,
				"snippet":    m.Snippet,
				"score":      m.Score,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"matches": out})
		return
	}

	entries, err := activity.Load(r.Context(), s.db, s.sessionID)
	if err != nil {
		s.logger.Printf("[api] load log: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load log"})
		return
	}
	out := make([]logEntryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, logEntryJSON{Kind: string(e.Kind), SessionID: e.SessionID, CreatedAt: e.CreatedAt, Text: e.Text})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}
