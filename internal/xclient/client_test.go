package xclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botcheck/internal/cache"
	"botcheck/internal/config"
	"botcheck/internal/model"
)

// newTestClient points a fast-retrying client at ts.
func newTestClient(ts *httptest.Server) *HTTPClient {
	c := NewHTTPClient("test", config.APIConfig{
		BaseURL:       ts.URL,
		MaxAttempts:   3,
		BackoffMillis: 10,
		RPS:           1000,
		Burst:         100,
	}, zerolog.Nop())
	c.httpClient = ts.Client()
	return c
}

func TestDoWithRetryHandles429(t *testing.T) {
	var attempts int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/test", nil)
	resp, err := newTestClient(ts).doWithRetry(context.Background(), "/test", req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestGetUserByUsername(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/by/username/jack", r.URL.Path)
		assert.Equal(t, "Bearer test", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":{"id":"12","username":"jack","public_metrics":{
			"followers_count":100,"following_count":50,"tweet_count":200,"listed_count":3,"like_count":7}}}`))
	}))
	defer ts.Close()

	acct, err := newTestClient(ts).GetUserByUsername(context.Background(), "jack")
	require.NoError(t, err)
	assert.Equal(t, model.AccountSnapshot{
		ID: "12", Username: "jack", FollowersCount: 100, FollowingCount: 50,
		FavouritesCount: 7, StatusesCount: 200, ListedCount: 3,
	}, acct)
}

func TestGetUserByUsernameNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"title":"Not Found Error","detail":"Could not find user with username: [ghost]."}]}`))
	}))
	defer ts.Close()

	_, err := newTestClient(ts).GetUserByUsername(context.Background(), "ghost")
	var apiErr *model.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "Could not find user with username: [ghost].", err.Error())
}

func TestRateLimitedAfterRetries(t *testing.T) {
	var attempts int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	_, err := newTestClient(ts).GetUserByUsername(context.Background(), "jack")
	require.Error(t, err)
	assert.Equal(t, "rate limited", err.Error())
	assert.True(t, errors.Is(err, model.ErrRateLimited))
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestUnauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()
	_, err := newTestClient(ts).GetUserByUsername(context.Background(), "jack")
	assert.True(t, errors.Is(err, model.ErrAuth))
}

func TestGetUserTweetsClampsAndTruncates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/12/tweets", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("max_results"))
		_, _ = w.Write([]byte(`{"data":[
			{"id":"1","text":"hello","public_metrics":{"retweet_count":1,"reply_count":2,"like_count":3}},
			{"id":"2","text":"world","public_metrics":{"retweet_count":0,"reply_count":0,"like_count":0}},
			{"id":"3","text":"again","public_metrics":{"retweet_count":0,"reply_count":0,"like_count":0}}]}`))
	}))
	defer ts.Close()

	posts, err := newTestClient(ts).GetUserTweets(context.Background(), "12", 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, model.PostRecord{ID: "1", Text: "hello", RetweetCount: 1, ReplyCount: 2, LikeCount: 3}, posts[0])
}

func TestGetUserTweetsEmptyTimeline(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meta":{"result_count":0}}`))
	}))
	defer ts.Close()
	posts, err := newTestClient(ts).GetUserTweets(context.Background(), "12", 10)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestContextCancelStopsRetry(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()
	c := newTestClient(ts)
	c.baseBackoff = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.GetUserByUsername(ctx, "jack")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

type countingFetcher struct {
	users, tweets int
}

func (f *countingFetcher) GetUserByUsername(_ context.Context, u string) (model.AccountSnapshot, error) {
	f.users++
	if u == "ghost" {
		return model.AccountSnapshot{}, &model.APIError{Message: "account not found", Err: model.ErrAccountNotFound}
	}
	return model.AccountSnapshot{ID: "12", Username: u, FollowersCount: 100}, nil
}

func (f *countingFetcher) GetUserTweets(_ context.Context, id string, n int) ([]model.PostRecord, error) {
	f.tweets++
	return []model.PostRecord{{ID: "1", Text: "hi", LikeCount: 2}}, nil
}

func TestCachedServesRepeatLookups(t *testing.T) {
	ctx := context.Background()
	next := &countingFetcher{}
	c := NewCached(next, cache.NewMemoryStore(16), time.Minute, zerolog.Nop())

	for i := 0; i < 3; i++ {
		acct, err := c.GetUserByUsername(ctx, "Jack")
		require.NoError(t, err)
		assert.Equal(t, 100, acct.FollowersCount)
		posts, err := c.GetUserTweets(ctx, "12", 10)
		require.NoError(t, err)
		assert.Equal(t, 2, posts[0].LikeCount)
	}
	assert.Equal(t, 1, next.users)
	assert.Equal(t, 1, next.tweets)

	_, _ = c.GetUserTweets(ctx, "12", 5)
	assert.Equal(t, 2, next.tweets)
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	next := &countingFetcher{}
	c := NewCached(next, cache.NewMemoryStore(16), time.Minute, zerolog.Nop())
	for i := 0; i < 2; i++ {
		_, err := c.GetUserByUsername(ctx, "ghost")
		assert.True(t, IsNotFound(err))
	}
	assert.Equal(t, 2, next.users)
}
