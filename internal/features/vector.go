package features

import (
	"botcheck/internal/model"
	"botcheck/internal/textstats"
)

// Scores are the derived metrics that sit between account counts and text
// features.
type Scores struct {
	BotScore            float64 `json:"bot_score"`
	Credibility         float64 `json:"credibility"`
	NormalizedInfluence float64 `json:"normalized_influence"`
}

// Engagement totals over the fetched posts.
type Engagement struct {
	Likes    int `json:"likes"`
	Retweets int `json:"retweets"`
	Replies  int `json:"replies"`
}

// Vector is one row of classifier input laid out by Schema.
type Vector struct {
	Schema *Schema
	Values []float64
}

func (v Vector) Len() int { return len(v.Values) }

// Assemble joins account counts, scores, engagement and text features in
// Default order and checks the result against the schema length.
func Assemble(acct model.AccountSnapshot, s Scores, e Engagement, text textstats.Features) (Vector, error) {
	return AssembleWith(Default, acct, s, e, text)
}

func AssembleWith(schema *Schema, acct model.AccountSnapshot, s Scores, e Engagement, text textstats.Features) (Vector, error) {
	values := make([]float64, 0, schema.Len())
	values = append(values,
		float64(acct.FollowersCount),
		float64(acct.FollowingCount),
		float64(acct.FavouritesCount),
		float64(acct.StatusesCount),
		float64(acct.ListedCount),
		s.BotScore,
		s.Credibility,
		s.NormalizedInfluence,
		float64(e.Replies),
		float64(e.Retweets),
	)
	values = append(values, text.Values()...)
	if len(values) != schema.Len() {
		return Vector{}, &model.SchemaDriftError{Want: schema.Len(), Got: len(values)}
	}
	return Vector{Schema: schema, Values: values}, nil
}
