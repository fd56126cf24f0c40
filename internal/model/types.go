package model

import (
	"fmt"
	"strconv"
)

// AccountSnapshot is a point-in-time view of one X account.
type AccountSnapshot struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	FollowersCount  int    `json:"followers_count"`
	FollowingCount  int    `json:"following_count"`
	FavouritesCount int    `json:"favourites_count"`
	StatusesCount   int    `json:"statuses_count"`
	ListedCount     int    `json:"listed_count"`
}

// PostRecord is one retrieved post with its public engagement counts.
type PostRecord struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	RetweetCount int    `json:"retweet_count"`
	ReplyCount   int    `json:"reply_count"`
	LikeCount    int    `json:"like_count"`
}

// Label is the classifier verdict for an account.
type Label string

const (
	LabelBot    Label = "Bot"
	LabelNotBot Label = "Not a Bot"
)

// LabelFromPrediction maps a raw model output onto a Label. Only an exact 1 is a bot.
func LabelFromPrediction(v float64) Label {
	if v == 1 {
		return LabelBot
	}
	return LabelNotBot
}

// Metric is one named value of a report, in display order.
type Metric struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// FormatValue renders a metric value the way it is shown in tables and exports.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case Label:
		return string(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return FormatValue(float64(x))
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
