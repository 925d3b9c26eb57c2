package dice

import (
	"bytes"
	"context"
	"errors"
	"log"
	"reflect"
	"strings"
	"testing"

	"rollsheet/internal/notify"
	"rollsheet/internal/store"
)

type stubRollStore struct {
	added     []store.RollInput
	listCalls int
	addErr    error
	listErr   error
	history   []store.RollRecord
}

func (s *stubRollStore) AddRoll(_ context.Context, in store.RollInput) (string, error) {
	if s.addErr != nil {
		return "", s.addErr
	}
	s.added = append(s.added, in)
	return "roll_test", nil
}

func (s *stubRollStore) ListRolls(_ context.Context, _ string, _ int) ([]store.RollRecord, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.history, nil
}

func newTestRoller(rolls *stubRollStore, faces ...int) (*Roller, *notify.Toast, *bytes.Buffer) {
	var logs bytes.Buffer
	toast := notify.NewToast(0)
	r := NewRoller(rolls, toast, RollerOptions{
		Source: &sequenceSource{faces: faces},
		Logger: log.New(&logs, "", 0),
	})
	return r, toast, &logs
}

func TestSubmitSuccess(t *testing.T) {
	rolls := &stubRollStore{history: []store.RollRecord{{ID: "roll_test", Expression: "2d6", Total: 8, Faces: []int{3, 5}}}}
	r, toast, _ := newTestRoller(rolls, 3, 5)

	out := r.Submit(context.Background(), "", " 2d6 ")
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if len(rolls.added) != 1 {
		t.Fatalf("expected one stored roll, got %d", len(rolls.added))
	}
	got := rolls.added[0]
	if got.SessionID != store.DefaultSessionID || got.Expression != "2d6" || got.Total != 8 || !reflect.DeepEqual(got.Faces, []int{3, 5}) {
		t.Fatalf("unexpected stored roll: %+v", got)
	}
	if !out.Refreshed || !out.ClearInput || rolls.listCalls != 1 || len(out.History) != 1 {
		t.Fatalf("expected refreshed history and cleared input, got %+v", out)
	}
	if out.Notice.Text != "Rolled 2d6 → 8" || out.Notice.Kind != notify.KindOK {
		t.Fatalf("unexpected notice: %+v", out.Notice)
	}
	if current, ok := toast.Current(); !ok || current.Text != out.Notice.Text {
		t.Fatalf("expected toast to show the success notice")
	}
}

func TestSubmitInvalidExpressionSkipsStore(t *testing.T) {
	rolls := &stubRollStore{}
	r, _, _ := newTestRoller(rolls)

	out := r.Submit(context.Background(), "sess_001", "banana")
	if !errors.Is(out.Err, ErrInvalidExpression) {
		t.Fatalf("expected ErrInvalidExpression, got %v", out.Err)
	}
	if out.Notice.Text != ValidationMessage || out.Notice.Kind != notify.KindError {
		t.Fatalf("unexpected notice: %+v", out.Notice)
	}
	if len(rolls.added) != 0 || rolls.listCalls != 0 {
		t.Fatalf("expected no store calls, got %d adds and %d lists", len(rolls.added), rolls.listCalls)
	}
	if out.ClearInput || out.Result != nil {
		t.Fatalf("expected input to be kept and no result")
	}
}

func TestSubmitTooManyDice(t *testing.T) {
	rolls := &stubRollStore{}
	r, _, _ := newTestRoller(rolls)

	out := r.Submit(context.Background(), "sess_001", "5000d6")
	if !errors.Is(out.Err, ErrTooManyDice) {
		t.Fatalf("expected ErrTooManyDice, got %v", out.Err)
	}
	if out.Notice.Text != ValidationMessage {
		t.Fatalf("unexpected notice: %q", out.Notice.Text)
	}
	if len(rolls.added) != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestSubmitAddFailureSkipsRefresh(t *testing.T) {
	rolls := &stubRollStore{addErr: errors.New("disk full")}
	r, _, logs := newTestRoller(rolls, 4)

	out := r.Submit(context.Background(), "sess_001", "1d10")
	if out.Err == nil {
		t.Fatalf("expected error")
	}
	if out.Notice.Text != MsgAddFailed || out.Notice.Kind != notify.KindError {
		t.Fatalf("unexpected notice: %+v", out.Notice)
	}
	if rolls.listCalls != 0 || out.Refreshed || out.ClearInput {
		t.Fatalf("expected no refresh after failed write, got %+v", out)
	}
	if !strings.Contains(logs.String(), "disk full") {
		t.Fatalf("expected failure to be logged, got %q", logs.String())
	}
}

func TestSubmitListFailure(t *testing.T) {
	rolls := &stubRollStore{listErr: errors.New("locked")}
	r, _, _ := newTestRoller(rolls, 6)

	out := r.Submit(context.Background(), "sess_001", "1d6")
	if out.Err == nil {
		t.Fatalf("expected error")
	}
	if len(rolls.added) != 1 {
		t.Fatalf("expected the roll to be stored before the refresh failed")
	}
	if out.Notice.Text != MsgListFailed {
		t.Fatalf("unexpected notice: %+v", out.Notice)
	}
	if out.Refreshed {
		t.Fatalf("expected history to be stale")
	}
}

func TestSubmitCallsOnRecorded(t *testing.T) {
	rolls := &stubRollStore{}
	var gotSession, gotID string
	var gotTotal int
	r := NewRoller(rolls, notify.NewToast(0), RollerOptions{
		Source: &sequenceSource{faces: []int{2, 2, 2}},
		Logger: log.New(&bytes.Buffer{}, "", 0),
		OnRecorded: func(sessionID, rollID string, result Result) {
			gotSession, gotID, gotTotal = sessionID, rollID, result.Total
		},
	})

	r.Submit(context.Background(), "sess_002", "3d4")
	if gotSession != "sess_002" || gotID != "roll_test" || gotTotal != 6 {
		t.Fatalf("unexpected callback values: %q %q %d", gotSession, gotID, gotTotal)
	}
}
