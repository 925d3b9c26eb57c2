package dice

import (
	"context"
	"fmt"
	"log"

	"rollsheet/internal/notify"
	"rollsheet/internal/store"
)

const (
	MsgAddFailed  = "DB error while adding roll"
	MsgListFailed = "DB error while listing rolls"
)

type RollStore interface {
	AddRoll(ctx context.Context, in store.RollInput) (string, error)
	ListRolls(ctx context.Context, sessionID string, limit int) ([]store.RollRecord, error)
}

type Notifier interface {
	Show(text string, kind notify.Kind) notify.Notice
}

// Outcome is what the dice board needs to redraw after a submission.
type Outcome struct {
	Result     *Result
	RollID     string
	History    []store.RollRecord
	Refreshed  bool
	ClearInput bool
	Notice     notify.Notice
	Err        error
}

type RollerOptions struct {
	Source       Source
	MaxCount     int
	HistoryLimit int
	// RollerType and RollerID attribute stored rolls. Blank uses the store defaults.
	RollerType string
	RollerID   string
	Logger     *log.Logger
	// OnRecorded runs after a roll has been stored.
	OnRecorded func(sessionID, rollID string, result Result)
}

type Roller struct {
	store  RollStore
	toast  Notifier
	opts   RollerOptions
	logger *log.Logger
}

func NewRoller(rolls RollStore, toast Notifier, opts RollerOptions) *Roller {
	if opts.Source == nil {
		opts.Source = NewSource()
	}
	if opts.MaxCount <= 0 {
		opts.MaxCount = DefaultMaxCount
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = store.DefaultRollLimit
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Roller{store: rolls, toast: toast, opts: opts, logger: logger}
}

// Submit parses input, rolls, records the roll and refreshes the history.
// A parse failure leaves the store untouched. A failed write stops before the
// refresh and keeps the input.
func (r *Roller) Submit(ctx context.Context, sessionID, input string) Outcome {
	if sessionID == "" {
		sessionID = store.DefaultSessionID
	}

	expr, err := Parse(input, r.opts.MaxCount)
	if err != nil {
		return Outcome{Notice: r.toast.Show(ValidationMessage, notify.KindError), Err: err}
	}

	result := expr.Roll(r.opts.Source)
	out := Outcome{Result: &result}

	id, err := r.store.AddRoll(ctx, store.RollInput{
		SessionID:  sessionID,
		RollerType: r.opts.RollerType,
		RollerID:   r.opts.RollerID,
		Expression: result.Expression,
		Faces:      result.Faces,
		Total:      result.Total,
	})
	if err != nil {
		r.logger.Printf("[dice] add roll error: %v", err)
		out.Notice = r.toast.Show(MsgAddFailed, notify.KindError)
		out.Err = err
		return out
	}
	out.RollID = id
	if r.opts.OnRecorded != nil {
		r.opts.OnRecorded(sessionID, id, result)
	}

	history, err := r.store.ListRolls(ctx, sessionID, r.opts.HistoryLimit)
	if err != nil {
		r.logger.Printf("[dice] list rolls error: %v", err)
		out.Notice = r.toast.Show(MsgListFailed, notify.KindError)
		out.Err = err
		return out
	}
	out.History = history
	out.Refreshed = true
	out.ClearInput = true
	out.Notice = r.toast.Show(SuccessMessage(result), notify.KindOK)
	return out
}

// History loads the roll list shown when the board opens.
func (r *Roller) History(ctx context.Context, sessionID string) ([]store.RollRecord, error) {
	history, err := r.store.ListRolls(ctx, sessionID, r.opts.HistoryLimit)
	if err != nil {
		r.logger.Printf("[dice] list rolls error: %v", err)
		r.toast.Show("Failed to load roll history", notify.KindError)
		return nil, err
	}
	return history, nil
}

func SuccessMessage(result Result) string {
	return fmt.Sprintf("Rolled %s → %d", result.Expression, result.Total)
}
