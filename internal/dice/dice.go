// Package dice parses NdM notation and simulates the roll.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// DefaultMaxCount bounds how many dice a single expression may roll.
const DefaultMaxCount = 1000

// ValidationMessage is shown to the player when an expression does not parse.
const ValidationMessage = `Enter NdM like "1d10" or "2d6"`

// ErrInvalidExpression is returned for anything that is not NdM with positive N and M.
var ErrInvalidExpression = errors.New("invalid dice expression")

// ErrTooManyDice is returned when N exceeds the configured maximum.
var ErrTooManyDice = errors.New("too many dice in one roll")

var expressionPattern = regexp.MustCompile(`(?i)^\s*(\d+)\s*d\s*(\d+)\s*$`)

// Source yields uniform integers in [0, n). *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// Expression is a parsed NdM roll.
type Expression struct {
	Text  string
	Count int
	Sides int
}

// Result captures one simulated roll. Faces appear in draw order.
type Result struct {
	Expression string
	Faces      []int
	Total      int
}

// Parse validates text against the NdM grammar. maxCount <= 0 means DefaultMaxCount.
func Parse(text string, maxCount int) (Expression, error) {
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	m := expressionPattern.FindStringSubmatch(text)
	if m == nil {
		return Expression{}, ErrInvalidExpression
	}
	count, err := strconv.Atoi(m[1])
	if err != nil || count < 1 {
		return Expression{}, ErrInvalidExpression
	}
	sides, err := strconv.Atoi(m[2])
	if err != nil || sides < 1 {
		return Expression{}, ErrInvalidExpression
	}
	if count > maxCount {
		return Expression{}, ErrTooManyDice
	}
	return Expression{Text: strings.TrimSpace(text), Count: count, Sides: sides}, nil
}

// Roll draws Count dice from src.
func (e Expression) Roll(src Source) Result {
	faces := make([]int, e.Count)
	total := 0
	for i := range faces {
		faces[i] = rollDie(src, e.Sides)
		total += faces[i]
	}
	return Result{Expression: e.Text, Faces: faces, Total: total}
}

func rollDie(src Source, sides int) int {
	return src.Intn(sides) + 1
}

type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// NewSource returns a goroutine-safe pseudo-random source seeded from crypto/rand.
func NewSource() Source {
	var b [8]byte
	seed := int64(0)
	if _, err := crand.Read(b[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(b[:]))
	}
	return NewSeededSource(seed)
}

// NewSeededSource returns a deterministic goroutine-safe source.
func NewSeededSource(seed int64) Source {
	return &lockedSource{rng: rand.New(rand.NewSource(seed))}
}
