package validate

import (
	"fmt"
	"strings"

	"rollsheet/internal/seed"
	"rollsheet/internal/sheet"
	"rollsheet/internal/store"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeMissingRequired = "missing_required_field"
	codeDuplicateID     = "duplicate_id"
	codeDanglingSession = "dangling_session"
	codeHPOverMax       = "hp_over_max"
	codeEmptyDocument   = "empty_document"
	codeRowRejected     = "row_rejected"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	Table    string
	Record   string
}

type Report struct {
	Issues []Issue
}

func (r *Report) Errors() []Issue   { return r.filter(SeverityError) }
func (r *Report) Warnings() []Issue { return r.filter(SeverityWarn) }

func (r *Report) filter(severity Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

// Run checks a seed document before it is loaded. defaultSession is the session
// bootstrap creates on its own, so logs may point at it without declaring it.
func Run(doc *seed.Document, defaultSession string) (*Report, error) {
	if doc == nil {
		return nil, fmt.Errorf("seed document is required")
	}

	issues := make([]Issue, 0)
	if doc.Empty() {
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeEmptyDocument,
			Message:  "seed document has no characters, sessions or logs",
		})
	}

	issues = append(issues, validateCharacters(doc.Characters)...)
	issues = append(issues, validateSessions(doc.Sessions)...)
	issues = append(issues, validateLogs(doc.Logs, doc.Sessions, defaultSession)...)

	return &Report{Issues: issues}, nil
}

// FromSeedReport turns rows the database refused during a trial load into issues.
func FromSeedReport(r *store.SeedReport) []Issue {
	if r == nil {
		return nil
	}
	var issues []Issue
	for _, t := range []struct {
		name   string
		report store.TableReport
	}{
		{"characters", r.Characters},
		{"sessions", r.Sessions},
		{"logs", r.Logs},
	} {
		if t.report.Rejected > 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeRowRejected,
				Message:  fmt.Sprintf("%d row(s) rejected by database constraints", t.report.Rejected),
				Table:    t.name,
			})
		}
	}
	return issues
}

func validateCharacters(characters []seed.Character) []Issue {
	var issues []Issue
	seen := make(map[string]struct{})
	for i, c := range characters {
		record := recordName(c.ID, i)
		if strings.TrimSpace(c.ID) == "" {
			issues = append(issues, missing("characters", record, "id"))
		}
		if strings.TrimSpace(c.Name) == "" {
			issues = append(issues, missing("characters", record, "name"))
		}
		if dup, ok := duplicate(seen, "characters", c.ID); ok {
			issues = append(issues, dup)
		}
		issues = append(issues, validateHP("characters", record, c.DerivedOrEmpty())...)
	}
	return issues
}

func validateHP(table, record string, derived map[string]any) []Issue {
	maxV, ok := sheet.Lookup(derived, sheet.HPMax)
	if !ok {
		return nil
	}
	curV, ok := sheet.Lookup(derived, sheet.HPCurrent)
	if !ok {
		return nil
	}
	maxN, okMax := maxV.Number()
	curN, okCur := curV.Number()
	if !okMax || !okCur || curN <= maxN {
		return nil
	}
	return []Issue{{
		Severity: SeverityWarn,
		Code:     codeHPOverMax,
		Message:  fmt.Sprintf("current hp %s exceeds max %s", curV.Text(), maxV.Text()),
		Table:    table,
		Record:   record,
	}}
}

func validateSessions(sessions []seed.Session) []Issue {
	var issues []Issue
	seen := make(map[string]struct{})
	for i, s := range sessions {
		if strings.TrimSpace(s.ID) == "" {
			issues = append(issues, missing("sessions", recordName(s.ID, i), "id"))
		}
		if dup, ok := duplicate(seen, "sessions", s.ID); ok {
			issues = append(issues, dup)
		}
	}
	return issues
}

func validateLogs(logs []seed.Log, sessions []seed.Session, defaultSession string) []Issue {
	known := map[string]struct{}{defaultSession: {}}
	for _, s := range sessions {
		known[s.ID] = struct{}{}
	}

	var issues []Issue
	seen := make(map[string]struct{})
	for i, l := range logs {
		record := recordName(l.ID, i)
		if strings.TrimSpace(l.ID) == "" {
			issues = append(issues, missing("logs", record, "id"))
		}
		if strings.TrimSpace(l.Body) == "" {
			issues = append(issues, missing("logs", record, "body"))
		}
		if dup, ok := duplicate(seen, "logs", l.ID); ok {
			issues = append(issues, dup)
		}
		if l.SessionID != nil {
			if _, ok := known[*l.SessionID]; !ok {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Code:     codeDanglingSession,
					Message:  fmt.Sprintf("log references unknown session %s", *l.SessionID),
					Table:    "logs",
					Record:   record,
				})
			}
		}
	}
	return issues
}

func missing(table, record, field string) Issue {
	return Issue{
		Severity: SeverityError,
		Code:     codeMissingRequired,
		Message:  fmt.Sprintf("missing required field: %s", field),
		Table:    table,
		Record:   record,
	}
}

// duplicate records id in seen and reports a warning when it was already there.
// Duplicates are skipped at load time, so they never fail the seed.
func duplicate(seen map[string]struct{}, table, id string) (Issue, bool) {
	if strings.TrimSpace(id) == "" {
		return Issue{}, false
	}
	if _, ok := seen[id]; ok {
		return Issue{
			Severity: SeverityWarn,
			Code:     codeDuplicateID,
			Message:  "duplicate id, later rows will be skipped",
			Table:    table,
			Record:   id,
		}, true
	}
	seen[id] = struct{}{}
	return Issue{}, false
}

func recordName(id string, index int) string {
	if strings.TrimSpace(id) != "" {
		return id
	}
	return fmt.Sprintf("#%d", index)
}
