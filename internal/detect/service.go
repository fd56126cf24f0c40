// Package detect runs the bot-detection pipeline for one account: fetch,
// score, analyze, assemble and classify.
package detect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"botcheck/internal/classify"
	"botcheck/internal/config"
	"botcheck/internal/features"
	"botcheck/internal/logging"
	"botcheck/internal/metrics"
	"botcheck/internal/model"
	"botcheck/internal/textstats"
	"botcheck/internal/xclient"
)

// ErrInvalidInput marks a handle or post count the service refuses.
var ErrInvalidInput = errors.New("invalid input")

// Service holds no per-request state and may be shared across goroutines.
type Service struct {
	fetcher    xclient.Fetcher
	classifier *classify.Classifier
	analyzer   *textstats.Analyzer
	schema     *features.Schema
	maxPosts   int
	log        zerolog.Logger
	now        func() time.Time
}

func NewService(f xclient.Fetcher, c *classify.Classifier, a *textstats.Analyzer, cfg config.AnalysisConfig, log zerolog.Logger) *Service {
	maxPosts := cfg.MaxPostCount
	if maxPosts <= 0 {
		maxPosts = 20
	}
	return &Service{
		fetcher:    f,
		classifier: c,
		analyzer:   a,
		schema:     features.Default,
		maxPosts:   maxPosts,
		log:        logging.Component(log, "detect"),
		now:        time.Now,
	}
}

// AnalyzerOptions maps the analysis config onto analyzer modes.
func AnalyzerOptions(cfg config.AnalysisConfig) textstats.Options {
	opts := textstats.Options{}
	if cfg.Features == config.FeaturesExtended {
		opts.Mode = textstats.ModeExtended
	}
	if cfg.WordLength == config.WordLengthRunning {
		opts.WordLength = textstats.WordLengthRunning
	}
	return opts
}

// NormalizeHandle strips surrounding space and a leading "@".
func NormalizeHandle(handle string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

// Analyze produces a report for handle from its count most recent posts.
// Any fetch or model failure aborts the analysis; no partial report is
// returned.
func (s *Service) Analyze(ctx context.Context, handle string, count int) (rep Report, err error) {
	start := s.now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = outcomeOf(err)
		}
		metrics.ObserveAnalysis(start, outcome)
	}()

	handle = NormalizeHandle(handle)
	if handle == "" {
		return Report{}, fmt.Errorf("%w: handle is empty", ErrInvalidInput)
	}
	if count < 1 || count > s.maxPosts {
		return Report{}, fmt.Errorf("%w: post count must be between 1 and %d, got %d", ErrInvalidInput, s.maxPosts, count)
	}
	log := s.log.With().Str("handle", handle).Int("count", count).Logger()

	acct, err := s.fetcher.GetUserByUsername(ctx, handle)
	if err != nil {
		log.Warn().Err(err).Msg("fetch_account_failed")
		return Report{}, err
	}
	posts, err := s.fetcher.GetUserTweets(ctx, acct.ID, count)
	if err != nil {
		log.Warn().Err(err).Msg("fetch_posts_failed")
		return Report{}, err
	}
	if len(posts) > count {
		posts = posts[:count]
	}

	var eng features.Engagement
	texts := make([]string, 0, len(posts))
	for _, p := range posts {
		eng.Retweets += p.RetweetCount
		eng.Replies += p.ReplyCount
		eng.Likes += p.LikeCount
		texts = append(texts, p.Text)
	}

	text := s.analyzer.Analyze(texts)
	if n := len(text.Skipped); n > 0 {
		metrics.AddSkippedTexts(n)
	}

	// The deployed model was trained with zero punctuation in the bot score.
	dots, excl := 0, 0
	if s.analyzer.Options().Mode == textstats.ModeExtended {
		dots, excl = int(text.Features.Dots), int(text.Features.Exclamation)
	}
	scores := features.Scores{
		BotScore:            model.BotScore(acct.FollowersCount, acct.FollowingCount, acct.StatusesCount, eng.Retweets, eng.Replies, dots, excl),
		Credibility:         model.Credibility(eng.Likes, eng.Retweets, eng.Replies, acct.StatusesCount),
		NormalizedInfluence: model.NormalizedInfluence(eng.Retweets, eng.Replies, acct.FollowersCount, acct.StatusesCount),
	}

	vec, err := features.AssembleWith(s.schema, acct, scores, eng, text.Features)
	if err != nil {
		return Report{}, err
	}
	label, err := s.classifier.Classify(ctx, vec)
	if err != nil {
		log.Error().Err(err).Msg("classify_failed")
		return Report{}, err
	}
	metrics.IncPrediction(string(label))

	rep = Report{
		ID:               uuid.NewString(),
		CreatedAt:        s.now().UTC(),
		Handle:           handle,
		Account:          acct,
		Scores:           scores,
		Engagement:       eng,
		PostsFetched:     len(posts),
		PostsAnalyzed:    text.Analyzed,
		PostsSkipped:     len(text.Skipped),
		DominantLanguage: text.DominantLanguage(),
		Prediction:       label,
		SchemaName:       s.schema.Name(),
		Features:         vec.Values,
	}
	log.Info().
		Str("report_id", rep.ID).
		Str("prediction", string(label)).
		Float64("bot_score", scores.BotScore).
		Int("posts", len(posts)).
		Int("skipped", rep.PostsSkipped).
		Msg("analysis_ok")
	return rep, nil
}

// Evaluate is Analyze for presentation layers: every error, panics
// included, becomes Result.Error.
func (s *Service) Evaluate(ctx context.Context, handle string, count int) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("handle", handle).Msg("analysis_panic")
			err := fmt.Errorf("internal error: %v", r)
			res = Result{Error: err.Error(), Err: err}
		}
	}()
	rep, err := s.Analyze(ctx, handle, count)
	if err != nil {
		return Result{Error: err.Error(), Err: err}
	}
	return Result{Report: &rep}
}

func outcomeOf(err error) string {
	var (
		apiErr *model.APIError
		modErr *model.ModelError
		drift  *model.SchemaDriftError
	)
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case xclient.IsNotFound(err):
		return "not_found"
	case errors.Is(err, model.ErrRateLimited):
		return "rate_limited"
	case errors.As(err, &apiErr):
		return "api_error"
	case errors.As(err, &modErr), errors.As(err, &drift):
		return "model_error"
	default:
		return "error"
	}
}
