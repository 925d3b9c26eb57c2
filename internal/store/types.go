package store

const (
	DefaultSessionID  = "sess_001"
	DefaultRollLimit  = 25
	DefaultRollerType = "character"
	DefaultRollerID   = "char_eden"
)

type Character struct {
	ID        string
	Name      string
	System    string
	RoleClass string
	Level     int
	Stats     map[string]any
	Derived   map[string]any
	Notes     string
}

type Session struct {
	ID        string
	Title     string
	System    string
	StartedAt string
	EndedAt   string
	GMUserID  string
	Notes     string
}

type RollInput struct {
	SessionID  string
	RollerType string
	RollerID   string
	Expression string
	Faces      []int
	Total      int
}

// RollRecord is a roll as read back for display.
type RollRecord struct {
	ID         string
	SessionID  string
	Expression string
	Total      int
	Faces      []int
	Created    string
}

type LogEntry struct {
	ID         string
	SessionID  string
	AuthorType string
	Body       string
	Tags       string
	CreatedAt  string
}

// LogMatch is a log entry found by full-text search.
type LogMatch struct {
	LogEntry
	Score   float64
	Snippet string
}

// TableReport counts the outcome of seeding one table.
type TableReport struct {
	Inserted int
	Skipped  int
	Rejected int
}

type SeedReport struct {
	Characters TableReport
	Sessions   TableReport
	Logs       TableReport
}

func (r *SeedReport) Skipped() int {
	if r == nil {
		return 0
	}
	return r.Characters.Skipped + r.Sessions.Skipped + r.Logs.Skipped
}

func (r *SeedReport) Rejected() int {
	if r == nil {
		return 0
	}
	return r.Characters.Rejected + r.Sessions.Rejected + r.Logs.Rejected
}
