package xclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"botcheck/internal/config"
	"botcheck/internal/logging"
	"botcheck/internal/metrics"
	"botcheck/internal/model"
)

// Fetcher is the slice of the X API the detector needs.
type Fetcher interface {
	GetUserByUsername(ctx context.Context, username string) (model.AccountSnapshot, error)
	GetUserTweets(ctx context.Context, userID string, limit int) ([]model.PostRecord, error)
}

const (
	endpointUser   = "/users/by/username"
	endpointTweets = "/users/tweets"
)

// HTTPClient is a bearer-token client for X API v2.
type HTTPClient struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	baseBackoff time.Duration
	log         zerolog.Logger
}

func NewHTTPClient(bearerToken string, cfg config.APIConfig, log zerolog.Logger) *HTTPClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := time.Duration(cfg.BackoffMillis) * time.Millisecond
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.twitter.com/2"
	}
	return &HTTPClient{
		baseURL:     base,
		bearerToken: bearerToken,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     newLimiter(cfg.RPS, cfg.Burst),
		maxAttempts: attempts,
		baseBackoff: backoff,
		log:         logging.Component(log, "xclient"),
	}
}

func (c *HTTPClient) auth(req *http.Request) {
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}
	req.Header.Set("Accept", "application/json")
}

// apiProblem is the error object X returns alongside or instead of data.
type apiProblem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}

func (c *HTTPClient) GetUserByUsername(ctx context.Context, username string) (model.AccountSnapshot, error) {
	var out model.AccountSnapshot
	if username == "" {
		return out, &model.APIError{Op: endpointUser, Message: "empty username"}
	}
	u := fmt.Sprintf("%s/users/by/username/%s?user.fields=public_metrics,description,created_at", c.baseURL, url.PathEscape(username))
	var raw struct {
		Data *struct {
			ID            string `json:"id"`
			Username      string `json:"username"`
			PublicMetrics struct {
				FollowersCount int `json:"followers_count"`
				FollowingCount int `json:"following_count"`
				TweetCount     int `json:"tweet_count"`
				ListedCount    int `json:"listed_count"`
				LikeCount      int `json:"like_count"`
			} `json:"public_metrics"`
		} `json:"data"`
		Errors []apiProblem `json:"errors"`
	}
	if err := c.getJSON(ctx, endpointUser, u, &raw); err != nil {
		return out, err
	}
	if raw.Data == nil {
		msg := "user not found: " + username
		if len(raw.Errors) > 0 && raw.Errors[0].Detail != "" {
			msg = raw.Errors[0].Detail
		}
		return out, &model.APIError{Op: endpointUser, Status: http.StatusOK, Message: msg, Err: model.ErrAccountNotFound}
	}
	d := raw.Data
	out = model.AccountSnapshot{
		ID:              d.ID,
		Username:        d.Username,
		FollowersCount:  d.PublicMetrics.FollowersCount,
		FollowingCount:  d.PublicMetrics.FollowingCount,
		FavouritesCount: d.PublicMetrics.LikeCount,
		StatusesCount:   d.PublicMetrics.TweetCount,
		ListedCount:     d.PublicMetrics.ListedCount,
	}
	return out, nil
}

// GetUserTweets returns up to limit recent posts for a user. The API only
// accepts page sizes in [5,100], so the request is clamped and the result
// truncated to limit.
func (c *HTTPClient) GetUserTweets(ctx context.Context, userID string, limit int) ([]model.PostRecord, error) {
	if userID == "" {
		return nil, &model.APIError{Op: endpointTweets, Message: "empty user id"}
	}
	u := fmt.Sprintf("%s/users/%s/tweets?max_results=%d&tweet.fields=created_at,public_metrics",
		c.baseURL, url.PathEscape(userID), clamp(limit, 5, 100))
	var raw struct {
		Data []struct {
			ID            string `json:"id"`
			Text          string `json:"text"`
			PublicMetrics struct {
				LikeCount    int `json:"like_count"`
				ReplyCount   int `json:"reply_count"`
				RetweetCount int `json:"retweet_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, endpointTweets, u, &raw); err != nil {
		return nil, err
	}
	out := make([]model.PostRecord, 0, len(raw.Data))
	for _, d := range raw.Data {
		out = append(out, model.PostRecord{
			ID:           d.ID,
			Text:         d.Text,
			LikeCount:    d.PublicMetrics.LikeCount,
			ReplyCount:   d.PublicMetrics.ReplyCount,
			RetweetCount: d.PublicMetrics.RetweetCount,
		})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, endpoint, u string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &model.APIError{Op: endpoint, Message: err.Error(), Err: err}
	}
	c.auth(req)
	if err := c.limiter.Wait(ctx); err != nil {
		return &model.APIError{Op: endpoint, Message: err.Error(), Err: err}
	}
	resp, err := c.doWithRetry(ctx, endpoint, req)
	if err != nil {
		return &model.APIError{Op: endpoint, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()
	metrics.IncAPIRequest(endpoint, strconv.Itoa(resp.StatusCode))
	if resp.StatusCode >= 400 {
		return statusError(endpoint, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &model.APIError{Op: endpoint, Status: resp.StatusCode, Message: "decode response: " + err.Error(), Err: err}
	}
	return nil
}

func statusError(endpoint string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Title  string       `json:"title"`
		Detail string       `json:"detail"`
		Errors []apiProblem `json:"errors"`
	}
	_ = json.Unmarshal(body, &payload)
	detail := payload.Detail
	if detail == "" && len(payload.Errors) > 0 {
		detail = payload.Errors[0].Detail
	}
	e := &model.APIError{Op: endpoint, Status: resp.StatusCode}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		e.Message, e.Err = "rate limited", model.ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		e.Message, e.Err = "unauthorized: check the bearer token", model.ErrAuth
	case resp.StatusCode == http.StatusNotFound:
		e.Message, e.Err = "account not found", model.ErrAccountNotFound
	default:
		e.Message = fmt.Sprintf("x api status %d", resp.StatusCode)
	}
	if detail != "" && e.Err != model.ErrRateLimited {
		e.Message += ": " + detail
	}
	return e
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// doWithRetry retries network errors, 429 and 5xx with exponential backoff,
// jitter and Retry-After. The final throttled or failing response is
// returned to the caller rather than swallowed.
func (c *HTTPClient) doWithRetry(ctx context.Context, endpoint string, req *http.Request) (*http.Response, error) {
	backoff := c.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			metrics.IncAPIRetry(endpoint)
		}
		resp, err := c.httpClient.Do(req.Clone(ctx))
		if err == nil {
			retryable := resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599)
			if !retryable || attempt == c.maxAttempts {
				return resp, nil
			}
			wait := retryAfter(resp.Header.Get("Retry-After"), backoff)
			_ = resp.Body.Close()
			c.log.Warn().Str("endpoint", endpoint).Int("status", resp.StatusCode).Int("attempt", attempt).Dur("wait", wait).Msg("x_api_retry")
			if err := sleep(ctx, jitter(wait)); err != nil {
				return nil, err
			}
			backoff *= 2
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		c.log.Warn().Err(err).Str("endpoint", endpoint).Int("attempt", attempt).Msg("x_api_retry")
		if attempt == c.maxAttempts {
			break
		}
		if err := sleep(ctx, jitter(backoff)); err != nil {
			return nil, err
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func retryAfter(ra string, def time.Duration) time.Duration {
	if ra == "" {
		return def
	}
	if secs, err := strconv.Atoi(ra); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(ra); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return def
}

// jitter spreads wait by +/-20%.
func jitter(wait time.Duration) time.Duration {
	j := time.Duration(float64(wait) * 0.2)
	if j <= 0 {
		return wait
	}
	return wait - j + time.Duration(rand.Int63n(int64(2*j)))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsNotFound reports whether err means the account does not exist.
func IsNotFound(err error) bool { return errors.Is(err, model.ErrAccountNotFound) }
