package offset

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Duration is the fixed length of every generated reminder event.
const Duration = 30 * time.Minute

const (
	UnitWeeks  = "weeks"
	UnitMonths = "months"
	UnitYears  = "years"
)

var (
	ErrMalformedToken = errors.New("malformed offset token")
	ErrUnknownUnit    = errors.New("unknown offset unit")
)

// MaxCount is the largest accepted count. It keeps every unit's arithmetic
// far from int overflow.
const MaxCount = 1000

// Default is applied whenever a token cannot be resolved.
var Default = Token{Count: 1, Unit: UnitWeeks}

// tokenPattern matches a digit run followed by a word run, e.g. "3weeks".
var tokenPattern = regexp.MustCompile(`^(\d+)(\w+)$`)

// Token is a (count, unit) pair such as "3weeks".
type Token struct {
	Count int
	Unit  string
}

// String returns the canonical serialized form: count and unit, no separator.
func (t Token) String() string {
	return strconv.Itoa(t.Count) + t.Unit
}

// Parse strictly parses s. Use Resolve when a best-effort result is wanted.
func Parse(s string) (Token, error) {
	m := tokenPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Token{}, fmt.Errorf("%w: %+q", ErrMalformedToken, s)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > MaxCount {
		return Token{}, fmt.Errorf("%w: count in %+q must be between 1 and %d", ErrMalformedToken, s, MaxCount)
	}
	if _, ok := units[m[2]]; !ok {
		return Token{}, fmt.Errorf("%w: %+q", ErrUnknownUnit, m[2])
	}
	return Token{Count: n, Unit: m[2]}, nil
}

// Resolution is the outcome of Resolve. Fallback reports that Default was
// used in place of the requested token; Reason says why.
type Resolution struct {
	Token    Token
	Start    time.Time
	End      time.Time
	Fallback bool
	Reason   string
}

// Resolve turns token into concrete start/end instants relative to now.
// It never fails: unparseable tokens resolve as Default with Fallback set.
func Resolve(token string, now time.Time) Resolution {
	res := Resolution{}
	t, err := Parse(token)
	if err != nil {
		t = Default
		res.Fallback = true
		res.Reason = err.Error()
	}
	res.Token = t
	res.Start = units[t.Unit](now, t.Count)
	res.End = res.Start.Add(Duration)
	return res
}
