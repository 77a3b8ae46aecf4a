package mbti

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Dimension is one pole of an MBTI axis.
type Dimension string

const (
	E Dimension = "E"
	I Dimension = "I"
	S Dimension = "S"
	N Dimension = "N"
	T Dimension = "T"
	F Dimension = "F"
	J Dimension = "J"
	P Dimension = "P"
)

// Dimensions lists all eight poles in axis order.
var Dimensions = [8]Dimension{E, I, S, N, T, F, J, P}

// Axis is an ordered pair of opposite poles. Left is the first listed
// letter, Right the second one; Right wins ties.
type Axis struct {
	Left  Dimension
	Right Dimension
}

// Axes in the order they appear in a type code.
var Axes = [4]Axis{
	{Left: E, Right: I},
	{Left: S, Right: N},
	{Left: T, Right: F},
	{Left: J, Right: P},
}

// Name returns "EI", "SN", ...
func (a Axis) Name() string { return string(a.Left) + string(a.Right) }

func (d Dimension) index() int {
	for i, dim := range Dimensions {
		if dim == d {
			return i
		}
	}
	return -1
}

// Valid reports whether d is one of the eight poles.
func (d Dimension) Valid() bool { return d.index() >= 0 }

// Axis returns the axis d belongs to.
func (d Dimension) Axis() Axis { return Axes[d.index()/2] }

// Opposite returns the other pole of d's axis.
func (d Dimension) Opposite() Dimension {
	a := d.Axis()
	if a.Left == d {
		return a.Right
	}
	return a.Left
}

// ParseDimension validates a single-letter dimension tag. Case-insensitive.
func ParseDimension(raw string) (Dimension, error) {
	d := Dimension(strings.ToUpper(strings.TrimSpace(raw)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown dimension %q", raw)
	}
	return d, nil
}

// Scores counts answers per pole. The zero value is an all-zero accumulator.
// It is a value type: RecordAnswer returns a modified copy.
type Scores struct {
	counts [8]int
}

// NewScores builds Scores from explicit counts, e.g. when restoring from JSON.
func NewScores(counts map[Dimension]int) (Scores, error) {
	var s Scores
	for dim, n := range counts {
		if !dim.Valid() {
			return Scores{}, fmt.Errorf("unknown dimension %q", dim)
		}
		if n < 0 {
			return Scores{}, fmt.Errorf("negative count %d for %s", n, dim)
		}
		s.counts[dim.index()] = n
	}
	return s, nil
}

// Get returns the counter for d.
func (s Scores) Get(d Dimension) int {
	if !d.Valid() {
		return 0
	}
	return s.counts[d.index()]
}

// Total is the number of recorded answers.
func (s Scores) Total() int {
	total := 0
	for _, n := range s.counts {
		total += n
	}
	return total
}

// AxisTotal is the number of recorded answers on axis a.
func (s Scores) AxisTotal(a Axis) int {
	return s.Get(a.Left) + s.Get(a.Right)
}

// Map returns the counters keyed by letter.
func (s Scores) Map() map[Dimension]int {
	out := make(map[Dimension]int, len(Dimensions))
	for i, d := range Dimensions {
		out[d] = s.counts[i]
	}
	return out
}

func (s Scores) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Map())
}

func (s *Scores) UnmarshalJSON(data []byte) error {
	var raw map[Dimension]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewScores(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// RecordAnswer returns a copy of scores with d incremented by one.
// Invalid dimensions leave the copy unchanged.
func RecordAnswer(scores Scores, d Dimension) Scores {
	if idx := d.index(); idx >= 0 {
		scores.counts[idx]++
	}
	return scores
}

// ComputeType picks the pole with the strictly greater count on every axis.
// A tie, including an axis with no answers at all, resolves to the right-hand
// letter: I, N, F, P.
func ComputeType(scores Scores) Type {
	var b strings.Builder
	for _, a := range Axes {
		if scores.Get(a.Left) > scores.Get(a.Right) {
			b.WriteString(string(a.Left))
		} else {
			b.WriteString(string(a.Right))
		}
	}
	return Type(b.String())
}

// Percentages holds a 0-100 share for every pole.
type Percentages map[Dimension]int

// ComputePercentages returns each pole's share of its axis rounded half-up.
// The two poles of an axis always sum to 100; an axis without answers is 50/50.
func ComputePercentages(scores Scores) Percentages {
	out := make(Percentages, len(Dimensions))
	for _, a := range Axes {
		total := scores.AxisTotal(a)
		if total == 0 {
			out[a.Left], out[a.Right] = 50, 50
			continue
		}
		// round(100*left/total) half-up без float
		left := (200*scores.Get(a.Left) + total) / (2 * total)
		out[a.Left] = left
		out[a.Right] = 100 - left
	}
	return out
}
