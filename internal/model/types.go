package model

// TwitterUser is the denormalized author snapshot attached to tweets at fetch
// time. Authors are never persisted independently.
type TwitterUser struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

// Tweet is the canonical tweet record the pipeline produces, independent of
// which upstream source the raw data came from.
type Tweet struct {
	ID                    string   `json:"id"`
	AuthorID              string   `json:"author_id,omitempty"`
	AuthorName            string   `json:"author_name,omitempty"`
	AuthorUsername        string   `json:"author_username"`
	AuthorProfileImageURL string   `json:"author_profile_image_url,omitempty"`
	Content               string   `json:"tweet_content"`
	MediaURLs             []string `json:"media_urls,omitempty"`
	RetweetCount          int      `json:"retweet_count"`
	LikeCount             int      `json:"like_count"`
	ReplyCount            int      `json:"reply_count"`
	QuoteCount            int      `json:"quote_count"`
	BookmarkCount         int      `json:"bookmark_count"`
	CreatedAt             string   `json:"tweet_created_at"`

	// Only the v1.1 path fills these in; other sources leave them zero.
	EngagementScore int        `json:"engagement_score,omitempty"`
	Sentiment       *Sentiment `json:"sentiment_analysis,omitempty"`
}

// Sentiment is a per-text sentiment record.
type Sentiment struct {
	Sentiment  string  `json:"sentiment"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// NeutralSentiment is the placeholder attached where no sentiment service runs.
func NeutralSentiment() *Sentiment {
	return &Sentiment{Sentiment: "neutral", Score: 0.5, Confidence: 0.5}
}
