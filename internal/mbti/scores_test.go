package mbti

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoresOf(t *testing.T, counts map[Dimension]int) Scores {
	t.Helper()
	s, err := NewScores(counts)
	require.NoError(t, err)
	return s
}

func TestRecordAnswer_IsPure(t *testing.T) {
	var zero Scores
	got := RecordAnswer(zero, E)

	assert.Equal(t, 0, zero.Get(E), "input must not change")
	assert.Equal(t, 1, got.Get(E))
	for _, d := range Dimensions {
		if d != E {
			assert.Equal(t, 0, got.Get(d), "dimension %s", d)
		}
	}
}

func TestRecordAnswer_IgnoresUnknownDimension(t *testing.T) {
	got := RecordAnswer(Scores{}, Dimension("X"))
	assert.Equal(t, 0, got.Total())
}

func TestComputeType(t *testing.T) {
	tests := []struct {
		name   string
		counts map[Dimension]int
		want   Type
	}{
		{"all zero resolves every axis to the right letter", nil, "INFP"},
		{"left letters win when strictly greater", map[Dimension]int{E: 2, I: 1, S: 3, T: 1, J: 2, P: 1}, "ESTJ"},
		{"exact ties go to I N F P", map[Dimension]int{E: 2, I: 2, S: 1, N: 1, T: 3, F: 3, J: 1, P: 1}, "INFP"},
		{"mixed", map[Dimension]int{I: 3, S: 2, N: 1, F: 1, J: 3}, "ISFJ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := scoresOf(t, tt.counts)
			assert.Equal(t, tt.want, ComputeType(s))
			assert.Equal(t, ComputeType(s), ComputeType(s))
		})
	}
}

func TestComputePercentages(t *testing.T) {
	t.Run("zero axis is fifty fifty", func(t *testing.T) {
		p := ComputePercentages(Scores{})
		for _, d := range Dimensions {
			assert.Equal(t, 50, p[d])
		}
	})

	t.Run("rounds half up and sums to 100", func(t *testing.T) {
		// 1/8 = 12.5% -> 13, 2/3 = 66.67% -> 67
		s := scoresOf(t, map[Dimension]int{E: 1, I: 7, S: 2, N: 1, T: 1, F: 1})
		p := ComputePercentages(s)
		assert.Equal(t, 13, p[E])
		assert.Equal(t, 87, p[I])
		assert.Equal(t, 67, p[S])
		assert.Equal(t, 33, p[N])
		assert.Equal(t, 50, p[T])
		assert.Equal(t, 50, p[F])
		assert.Equal(t, 50, p[J])
		assert.Equal(t, 50, p[P])
	})

	t.Run("idempotent", func(t *testing.T) {
		s := scoresOf(t, map[Dimension]int{E: 2, I: 1})
		assert.Equal(t, ComputePercentages(s), ComputePercentages(s))
	})
}

// Every combination of answers to a 12-question quiz (three per axis).
func TestTwelveAnswerInvariants(t *testing.T) {
	var layout []Axis
	for i := 0; i < 3; i++ {
		layout = append(layout, Axes[:]...)
	}
	require.Len(t, layout, 12)

	for mask := 0; mask < 1<<len(layout); mask++ {
		var s Scores
		for i, a := range layout {
			if mask&(1<<i) != 0 {
				s = RecordAnswer(s, a.Left)
			} else {
				s = RecordAnswer(s, a.Right)
			}
		}
		require.Equal(t, 12, s.Total())

		p := ComputePercentages(s)
		for _, a := range Axes {
			require.Equal(t, 3, s.AxisTotal(a))
			require.Equal(t, 100, p[a.Left]+p[a.Right])
		}
		code := ComputeType(s)
		_, err := ParseType(string(code))
		require.NoError(t, err)
	}
}

func TestTwoQuestionScenario(t *testing.T) {
	s := RecordAnswer(RecordAnswer(Scores{}, E), J)

	assert.Equal(t, map[Dimension]int{E: 1, I: 0, S: 0, N: 0, T: 0, F: 0, J: 1, P: 0}, s.Map())
	assert.Equal(t, Type("ENFJ"), ComputeType(s))

	p := ComputePercentages(s)
	assert.Equal(t, 100, p[E])
	assert.Equal(t, 0, p[I])
	assert.Equal(t, 50, p[S])
	assert.Equal(t, 100, p[J])
}

func TestScoresJSON(t *testing.T) {
	s := RecordAnswer(Scores{}, T)
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"E":0,"I":0,"S":0,"N":0,"T":1,"F":0,"J":0,"P":0}`, string(data))

	var back Scores
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)

	assert.Error(t, json.Unmarshal([]byte(`{"X":1}`), &back))
}

func TestParseDimension(t *testing.T) {
	d, err := ParseDimension(" n ")
	require.NoError(t, err)
	assert.Equal(t, N, d)
	assert.Equal(t, S, d.Opposite())
	assert.Equal(t, "SN", d.Axis().Name())

	_, err = ParseDimension("Q")
	assert.Error(t, err)
}
