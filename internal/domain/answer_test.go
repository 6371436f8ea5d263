package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAnswer_Clamps(t *testing.T) {
	a := NewAnswer(1.5, -0.3, "")
	assert.Equal(t, 1.0, a.PYes)
	assert.Equal(t, 0.0, a.Confidence)
}

func TestNewAnswer_NaNCollapsesToZero(t *testing.T) {
	a := NewAnswer(math.NaN(), math.NaN(), "")
	assert.Equal(t, 0.0, a.PYes)
	assert.Equal(t, 0.0, a.Confidence)
}

func TestAnswerDirection(t *testing.T) {
	assert.Equal(t, OutcomeYes, NewAnswer(0.5, 1, "").Direction())
	assert.Equal(t, OutcomeYes, NewAnswer(0.9, 1, "").Direction())
	assert.Equal(t, OutcomeNo, NewAnswer(0.2, 1, "").Direction())
}

func TestProbabilityFor(t *testing.T) {
	a := NewAnswer(0.8, 1, "")
	assert.InDelta(t, 0.8, a.ProbabilityFor(OutcomeYes), 1e-9)
	assert.InDelta(t, 0.2, a.ProbabilityFor(OutcomeNo), 1e-9)
}

func TestAnswerResultVariants(t *testing.T) {
	answered := AnswerOf(NewAnswer(0.7, 0.9, "because"))
	assert.Equal(t, Answered, answered.Status)
	assert.NotNil(t, answered.Answer)
	assert.NoError(t, answered.Err)

	abstained := Abstain()
	assert.Equal(t, Abstained, abstained.Status)
	assert.Nil(t, abstained.Answer)

	boom := errors.New("boom")
	errored := AnswerError(boom)
	assert.Equal(t, Errored, errored.Status)
	assert.ErrorIs(t, errored.Err, boom)
	assert.Nil(t, errored.Answer)
}
