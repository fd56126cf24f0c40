package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBotScoreKnownAccount(t *testing.T) {
	// Z = 0.3*ln(101) + 0.3*ln(51) + 0.2*(200/101) ~= 2.96
	assert.Equal(t, 0.95, BotScore(100, 50, 200, 0, 0, 0, 0))
	assert.Equal(t, 0.5, BotScore(0, 0, 0, 0, 0, 0, 0))
}

func TestBotScoreMonotonicAndBounded(t *testing.T) {
	prev := -1.0
	for _, followers := range []int{0, 1, 10, 100, 10_000, 1_000_000} {
		s := BotScore(followers, 20, 0, 0, 0, 0, 0)
		assert.GreaterOrEqual(t, s, prev, "followers=%d", followers)
		prev = s
	}
	prev = -1.0
	for _, following := range []int{0, 5, 50, 5_000} {
		s := BotScore(10, following, 30, 0, 0, 0, 0)
		assert.GreaterOrEqual(t, s, prev, "following=%d", following)
		prev = s
	}
	prev = -1.0
	for _, posts := range []int{0, 10, 1_000, 1_000_000} {
		s := BotScore(10, 10, posts, 0, 0, 0, 0)
		assert.GreaterOrEqual(t, s, prev, "posts=%d", posts)
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
		prev = s
	}
}

func TestBotScoreAcceptsPunctuation(t *testing.T) {
	base := BotScore(0, 0, 0, 0, 0, 0, 0)
	withPunct := BotScore(0, 0, 0, 0, 0, 10, 5)
	assert.Greater(t, withPunct, base)
	assert.LessOrEqual(t, withPunct, 1.0)
}

func TestBotScoreIgnoresEngagement(t *testing.T) {
	want := BotScore(100, 50, 200, 0, 0, 0, 0)
	assert.Equal(t, want, BotScore(100, 50, 200, 9_000, 0, 0, 0))
	assert.Equal(t, want, BotScore(100, 50, 200, 0, 9_000, 0, 0))
}

func TestCredibility(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100_000} {
		assert.Equal(t, 0.0, Credibility(0, 0, 0, n))
	}
	assert.Equal(t, 2.0, Credibility(10, 5, 5, 9))
	assert.Equal(t, 0.33, Credibility(1, 0, 0, 2))
}

func TestNormalizedInfluence(t *testing.T) {
	assert.Equal(t, 0.75, NormalizedInfluence(0, 0, 150, 200))
	assert.Equal(t, 123.0, NormalizedInfluence(3, 20, 100, 0))
	assert.Equal(t, 0.0, NormalizedInfluence(0, 0, 0, 0))
}

func TestLabelFromPrediction(t *testing.T) {
	assert.Equal(t, LabelBot, LabelFromPrediction(1))
	for _, v := range []float64{0, -1, 0.99, 2} {
		assert.Equal(t, LabelNotBot, LabelFromPrediction(v))
	}
	assert.Equal(t, "Not a Bot", string(LabelNotBot))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "100", FormatValue(100))
	assert.Equal(t, "100", FormatValue(100.0))
	assert.Equal(t, "0.95", FormatValue(0.95))
	assert.Equal(t, "Bot", FormatValue(LabelBot))
	assert.Equal(t, "jack", FormatValue("jack"))
	assert.Equal(t, "", FormatValue(nil))
}

func TestAPIErrorMessageAndUnwrap(t *testing.T) {
	err := fmt.Errorf("fetch: %w", &APIError{Op: "users/by/username", Status: 429, Message: "rate limited", Err: ErrRateLimited})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "rate limited", apiErr.Error())
	assert.True(t, errors.Is(err, ErrRateLimited))

	assert.Equal(t, "x api status 500", (&APIError{Status: 500}).Error())
}

func TestModelErrorWraps(t *testing.T) {
	inner := errors.New("no such file")
	err := &ModelError{Op: "load", Err: inner}
	assert.Equal(t, "model: load: no such file", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestSchemaDriftErrorMessage(t *testing.T) {
	assert.Equal(t, "feature schema drift: want 49 fields, got 48", (&SchemaDriftError{Want: 49, Got: 48}).Error())
}
