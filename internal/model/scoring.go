package model

import "math"

// BotScore squashes follower, following and posting-rate signals into [0,1].
// dots and exclamations are punctuation totals over the analyzed posts.
// The retweet and reply slots are accepted but do not enter the formula.
func BotScore(followers, following, postCount, _, _, dots, exclamations int) float64 {
	z := 0.3*math.Log1p(float64(followers)) +
		0.3*math.Log1p(float64(following)) +
		0.2*(float64(postCount)/float64(followers+1)) +
		0.1*float64(dots+exclamations)
	return round2(sigmoid(z))
}

// Credibility is engagement received per authored post.
func Credibility(likes, retweets, replies, postCount int) float64 {
	return round2(float64(likes+retweets+replies) / float64(postCount+1))
}

// NormalizedInfluence is reach (engagement plus audience) per authored post.
func NormalizedInfluence(retweets, replies, followers, postCount int) float64 {
	return round2(float64(retweets+replies+followers) / float64(postCount+1))
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func round2(x float64) float64 { return math.Round(x*100) / 100 }
