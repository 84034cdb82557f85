package engage

import (
	"sort"

	"curio/internal/model"
)

// Thresholds are the per-metric minimums for the engagement predicate.
// A tweet qualifies if it clears any one of them.
type Thresholds struct {
	MinLikes     int
	MinRetweets  int
	MinReplies   int
	MinBookmarks int
}

// DefaultThresholds returns the caller-tunable defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{MinLikes: 50, MinRetweets: 10, MinReplies: 5, MinBookmarks: 5}
}

// Pass reports whether a tweet clears at least one threshold.
func (th Thresholds) Pass(t model.Tweet) bool {
	return t.LikeCount >= th.MinLikes ||
		t.RetweetCount >= th.MinRetweets ||
		t.ReplyCount >= th.MinReplies ||
		t.BookmarkCount >= th.MinBookmarks
}

// Filter keeps the tweets that pass the thresholds.
func Filter(tweets []model.Tweet, th Thresholds) []model.Tweet {
	out := make([]model.Tweet, 0, len(tweets))
	for _, t := range tweets {
		if th.Pass(t) {
			out = append(out, t)
		}
	}
	return out
}

// Dedupe drops tweets whose id was already seen, keeping the first occurrence.
// Used on the multi-user fan-out path where followings can retweet each other.
func Dedupe(tweets []model.Tweet) []model.Tweet {
	seen := make(map[string]struct{}, len(tweets))
	out := make([]model.Tweet, 0, len(tweets))
	for _, t := range tweets {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

// RankByLikes sorts descending by like count. Stable, so equal scores keep
// their merged order.
func RankByLikes(tweets []model.Tweet) {
	sort.SliceStable(tweets, func(i, j int) bool {
		return tweets[i].LikeCount > tweets[j].LikeCount
	})
}

// RankWeighted sorts descending by like_count + 2*retweet_count. The official
// following path weighs retweets double.
func RankWeighted(tweets []model.Tweet) {
	score := func(t model.Tweet) int { return t.LikeCount + 2*t.RetweetCount }
	sort.SliceStable(tweets, func(i, j int) bool {
		return score(tweets[i]) > score(tweets[j])
	})
}

// Truncate caps the result to limit entries. limit <= 0 means no cap.
func Truncate(tweets []model.Tweet, limit int) []model.Tweet {
	if limit > 0 && len(tweets) > limit {
		return tweets[:limit]
	}
	return tweets
}
