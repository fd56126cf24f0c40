package detect

import (
	"time"

	"botcheck/internal/features"
	"botcheck/internal/model"
)

// Report is the outcome of one successful analysis.
type Report struct {
	ID               string                `json:"id"`
	CreatedAt        time.Time             `json:"created_at"`
	Handle           string                `json:"handle"`
	Account          model.AccountSnapshot `json:"account"`
	Scores           features.Scores       `json:"scores"`
	Engagement       features.Engagement   `json:"engagement"`
	PostsFetched     int                   `json:"posts_fetched"`
	PostsAnalyzed    int                   `json:"posts_analyzed"`
	PostsSkipped     int                   `json:"posts_skipped"`
	DominantLanguage string                `json:"dominant_language,omitempty"`
	Prediction       model.Label           `json:"prediction"`
	SchemaName       string                `json:"schema"`
	Features         []float64             `json:"features"`
}

// Metrics lists the user-facing values in display order.
func (r Report) Metrics() []model.Metric {
	lang := r.DominantLanguage
	if lang == "" {
		lang = "unknown"
	}
	return []model.Metric{
		{Name: "Username", Value: r.Handle},
		{Name: "Followers Count", Value: r.Account.FollowersCount},
		{Name: "Friends Count", Value: r.Account.FollowingCount},
		{Name: "Favourites Count", Value: r.Account.FavouritesCount},
		{Name: "Statuses Count", Value: r.Account.StatusesCount},
		{Name: "Listed Count", Value: r.Account.ListedCount},
		{Name: "Bot Score", Value: r.Scores.BotScore},
		{Name: "Credibility", Value: r.Scores.Credibility},
		{Name: "Normalized Influence", Value: r.Scores.NormalizedInfluence},
		{Name: "Replies", Value: r.Engagement.Replies},
		{Name: "Retweets", Value: r.Engagement.Retweets},
		{Name: "Posts Analyzed", Value: r.PostsAnalyzed},
		{Name: "Dominant Language", Value: lang},
		{Name: "Prediction", Value: r.Prediction},
	}
}

// Result is what callers that must never fail receive: either a report or
// the message of the error that stopped the analysis.
type Result struct {
	Report *Report `json:"report,omitempty"`
	Error  string  `json:"error,omitempty"`
	Err    error   `json:"-"`
}
