package mcp

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"rollsheet/internal/activity"
	"rollsheet/internal/sheet"
	"rollsheet/internal/store"
)

type RollDiceInput struct {
	Expression string `json:"expression" jsonschema:"dice in NdM form, e.g. 2d6"`
	SessionID  string `json:"session_id,omitempty" jsonschema:"session to record the roll in"`
}

type ListRollsInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"session filter"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum rolls to return"`
}

type GetCharacterInput struct{}

type GetLogInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"session whose rolls are merged in"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum entries to return"`
}

type SearchLogInput struct {
	Query string `json:"query" jsonschema:"search terms; quotes for phrases, -term to exclude"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum matches to return"`
}

type RollOutput struct {
	ID         string `json:"id,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	Expression string `json:"expression"`
	Faces      []int  `json:"faces"`
	Total      int    `json:"total"`
	Created    string `json:"created,omitempty"`
}

type RollDiceOutput struct {
	Roll    RollOutput `json:"roll"`
	Message string     `json:"message"`
}

type ListRollsOutput struct {
	Rolls []RollOutput `json:"rolls"`
}

type TileOutput struct {
	Kind    string `json:"kind"`
	Label   string `json:"label"`
	Value   string `json:"value"`
	Sub     string `json:"sub,omitempty"`
	Percent int    `json:"percent,omitempty"`
}

type CharacterOutput struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	System    string         `json:"system"`
	RoleClass string         `json:"role_class,omitempty"`
	Level     int            `json:"level"`
	Stats     map[string]any `json:"stats"`
	Derived   map[string]any `json:"derived"`
	Tiles     []TileOutput   `json:"tiles"`
}

type LogEntryOutput struct {
	Kind      string `json:"kind"`
	SessionID string `json:"session_id,omitempty"`
	CreatedAt string `json:"created_at"`
	Text      string `json:"text"`
}

type GetLogOutput struct {
	Entries []LogEntryOutput `json:"entries"`
}

type LogMatchOutput struct {
	ID        string  `json:"id"`
	SessionID string  `json:"session_id,omitempty"`
	CreatedAt string  `json:"created_at"`
	Snippet   string  `json:"snippet"`
	Score     float64 `json:"score"`
}

type SearchLogOutput struct {
	Matches []LogMatchOutput `json:"matches"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "roll_dice",
		Description: "Roll an NdM dice expression and record it in the session",
	}, s.handleRollDice)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_rolls",
		Description: "List the most recent rolls of a session, newest first",
	}, s.handleListRolls)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_character",
		Description: "Return the character sheet with resolved display tiles",
	}, s.handleGetCharacter)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_log",
		Description: "Return narration notes and rolls merged newest first",
	}, s.handleGetLog)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search_log",
		Description: "Full-text search over narration notes",
	}, s.handleSearchLog)
}

func (s *Server) handleRollDice(ctx context.Context, req *sdk.CallToolRequest, input RollDiceInput) (*sdk.CallToolResult, RollDiceOutput, error) {
	if strings.TrimSpace(input.Expression) == "" {
		return nil, RollDiceOutput{}, fmt.Errorf("expression is required")
	}
	sessionID := s.session(input.SessionID)
	out := s.roller.Submit(ctx, sessionID, input.Expression)
	// A stored roll is reported even when the history refresh failed.
	if out.Result == nil || out.RollID == "" {
		return nil, RollDiceOutput{}, fmt.Errorf("%s: %w", out.Notice.Text, out.Err)
	}

	roll := RollOutput{
		ID:         out.RollID,
		SessionID:  sessionID,
		Expression: out.Result.Expression,
		Faces:      append([]int{}, out.Result.Faces...),
		Total:      out.Result.Total,
	}
	return nil, RollDiceOutput{Roll: roll, Message: out.Notice.Text}, nil
}

func (s *Server) handleListRolls(ctx context.Context, req *sdk.CallToolRequest, input ListRollsInput) (*sdk.CallToolResult, ListRollsOutput, error) {
	rolls, err := s.db.ListRolls(ctx, s.session(input.SessionID), input.Limit)
	if err != nil {
		return nil, ListRollsOutput{}, err
	}

	output := make([]RollOutput, 0, len(rolls))
	for _, r := range rolls {
		output = append(output, rollOutputFromRecord(r))
	}
	return nil, ListRollsOutput{Rolls: output}, nil
}

func (s *Server) handleGetCharacter(ctx context.Context, req *sdk.CallToolRequest, input GetCharacterInput) (*sdk.CallToolResult, CharacterOutput, error) {
	ch, err := s.db.FirstCharacter(ctx)
	if err != nil {
		return nil, CharacterOutput{}, err
	}
	if ch == nil {
		return nil, CharacterOutput{}, fmt.Errorf("character not found")
	}
	return nil, characterOutputFromStore(*ch), nil
}

func (s *Server) handleGetLog(ctx context.Context, req *sdk.CallToolRequest, input GetLogInput) (*sdk.CallToolResult, GetLogOutput, error) {
	entries, err := activity.Load(ctx, s.db, s.session(input.SessionID))
	if err != nil {
		return nil, GetLogOutput{}, err
	}
	if input.Limit > 0 && len(entries) > input.Limit {
		entries = entries[:input.Limit]
	}

	output := make([]LogEntryOutput, 0, len(entries))
	for _, e := range entries {
		output = append(output, LogEntryOutput{
			Kind:      string(e.Kind),
			SessionID: e.SessionID,
			CreatedAt: e.CreatedAt,
			Text:      e.Text,
		})
	}
	return nil, GetLogOutput{Entries: output}, nil
}

func (s *Server) handleSearchLog(ctx context.Context, req *sdk.CallToolRequest, input SearchLogInput) (*sdk.CallToolResult, SearchLogOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchLogOutput{}, fmt.Errorf("query is required")
	}
	matches, err := s.db.SearchLogs(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, SearchLogOutput{}, err
	}

	output := make([]LogMatchOutput, 0, len(matches))
	for _, m := range matches {
		output = append(output, LogMatchOutput{
			ID:        m.ID,
			SessionID: m.SessionID,
			CreatedAt: m.CreatedAt,
			Snippet:   m.Snippet,
			Score:     m.Score,
		})
	}
	return nil, SearchLogOutput{Matches: output}, nil
}

func (s *Server) session(id string) string {
	if strings.TrimSpace(id) == "" {
		return s.sessionID
	}
	return id
}

func rollOutputFromRecord(r store.RollRecord) RollOutput {
	return RollOutput{
		ID:         r.ID,
		SessionID:  r.SessionID,
		Expression: r.Expression,
		Faces:      append([]int{}, r.Faces...),
		Total:      r.Total,
		Created:    r.Created,
	}
}

func characterOutputFromStore(ch store.Character) CharacterOutput {
	view := sheet.Build(ch)
	tiles := make([]TileOutput, 0, len(view.Derived))
	for _, t := range view.Derived {
		tiles = append(tiles, TileOutput{
			Kind:    string(t.Kind),
			Label:   t.Label,
			Value:   t.Value,
			Sub:     t.Sub,
			Percent: t.Percent,
		})
	}
	return CharacterOutput{
		ID:        ch.ID,
		Name:      ch.Name,
		System:    ch.System,
		RoleClass: ch.RoleClass,
		Level:     ch.Level,
		Stats:     ch.Stats,
		Derived:   ch.Derived,
		Tiles:     tiles,
	}
}
