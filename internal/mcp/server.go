package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"rollsheet/internal/dice"
	"rollsheet/internal/store"
)

type Querier interface {
	FirstCharacter(ctx context.Context) (*store.Character, error)
	ListRolls(ctx context.Context, sessionID string, limit int) ([]store.RollRecord, error)
	ListLogs(ctx context.Context, sessionID string) ([]store.LogEntry, error)
	SearchLogs(ctx context.Context, query string, limit int) ([]store.LogMatch, error)
}

type Roller interface {
	Submit(ctx context.Context, sessionID, input string) dice.Outcome
}

type Server struct {
	db        Querier
	roller    Roller
	sessionID string
	mcp       *sdk.Server
}

func NewServer(db Querier, roller Roller, sessionID, version string) *Server {
	if sessionID == "" {
		sessionID = store.DefaultSessionID
	}
	s := &Server{
		db:        db,
		roller:    roller,
		sessionID: sessionID,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "rollsheet",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
