package model

// Engagement score weights reflect relative interaction cost: a retweet is a
// stronger signal than a quote, a quote stronger than a reply, and so on.
const (
	retweetWeight = 4
	quoteWeight   = 3
	replyWeight   = 2
	likeWeight    = 1
)

// EngagementScore computes the weighted engagement score for a tweet.
func EngagementScore(t Tweet) int {
	return t.RetweetCount*retweetWeight + t.QuoteCount*quoteWeight + t.ReplyCount*replyWeight + t.LikeCount*likeWeight
}
