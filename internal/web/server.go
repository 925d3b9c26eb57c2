// Package web serves the character sheet UI, its JSON API and the live roll feed.
package web

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"rollsheet/internal/dice"
	"rollsheet/internal/notify"
	"rollsheet/internal/store"
)

type Store interface {
	FirstCharacter(ctx context.Context) (*store.Character, error)
	ListRolls(ctx context.Context, sessionID string, limit int) ([]store.RollRecord, error)
	ListLogs(ctx context.Context, sessionID string) ([]store.LogEntry, error)
	SearchLogs(ctx context.Context, query string, limit int) ([]store.LogMatch, error)
}

type Roller interface {
	Submit(ctx context.Context, sessionID, input string) dice.Outcome
	History(ctx context.Context, sessionID string) ([]store.RollRecord, error)
}

// Notices exposes the toast currently on screen.
type Notices interface {
	Current() (notify.Notice, bool)
}

type Options struct {
	SessionID string
	// RateLimit is POST requests per second per client IP.
	RateLimit float64
	RateBurst int
	Logger    *log.Logger
	Now       func() time.Time
}

type Server struct {
	router  *mux.Router
	db      Store
	roller  Roller
	notices Notices
	hub     *Hub
	limiter *RateLimiter
	pages   map[string]*template.Template

	sessionID string
	logger    *log.Logger
	now       func() time.Time
}

func NewServer(db Store, roller Roller, notices Notices, hub *Hub, opts Options) (*Server, error) {
	if opts.SessionID == "" {
		opts.SessionID = store.DefaultSessionID
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 10
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		router:    mux.NewRouter(),
		db:        db,
		roller:    roller,
		notices:   notices,
		hub:       hub,
		limiter:   NewRateLimiter(rate.Limit(opts.RateLimit), opts.RateBurst),
		sessionID: opts.SessionID,
		logger:    opts.Logger,
		now:       opts.Now,
	}

	pages, err := parsePages(s.templateFuncs())
	if err != nil {
		s.limiter.Stop()
		return nil, err
	}
	s.pages = pages
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(SecurityHeadersMiddleware)

	s.router.HandleFunc("/", s.handleSheet).Methods("GET")
	s.router.HandleFunc("/dice", s.handleDice).Methods("GET")
	s.router.Handle("/dice", s.limiter.Middleware(http.HandlerFunc(s.handleDiceSubmit))).Methods("POST")
	s.router.HandleFunc("/messages", s.placeholder("messages", "Messages placeholder (canvas coming later)")).Methods("GET")
	s.router.HandleFunc("/map", s.placeholder("map", "Map placeholder (canvas coming later)")).Methods("GET")
	s.router.HandleFunc("/dm", s.placeholder("dm", "DM tools placeholder")).Methods("GET")
	s.router.HandleFunc("/log", s.handleLog).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/character", s.handleAPICharacter).Methods("GET")
	api.HandleFunc("/rolls", s.handleAPIListRolls).Methods("GET")
	api.Handle("/rolls", s.limiter.Middleware(http.HandlerFunc(s.handleAPIRoll))).Methods("POST")
	api.HandleFunc("/log", s.handleAPILog).Methods("GET")

	s.router.HandleFunc("/ws/rolls", s.handleRollFeed)

	s.router.PathPrefix("/api/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Close stops background work owned by the server. The hub is closed by its owner.
func (s *Server) Close() {
	s.limiter.Stop()
}
