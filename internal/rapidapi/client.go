package rapidapi

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"curio/internal/metrics"
	"curio/internal/model"
)

const (
	defaultHost = "twitter241.p.rapidapi.com"

	// One followings page from the proxy, and how many of those accounts we
	// actually fan out to. Both bounds exist to cap proxy call volume.
	followingPageSize = 20
	followingFanout   = 5

	timelineTweetCount = 40
	perFollowingTweets = 10
)

// ProxyAPI defines the operations the pipeline needs from the proxy.
type ProxyAPI interface {
	LookupUser(ctx context.Context, handle string) (model.TwitterUser, error)
	UserTweets(ctx context.Context, userID string, count int) ([]model.Tweet, error)
	Followings(ctx context.Context, userID string) ([]string, error)
	FollowingTweets(ctx context.Context, ids []string) ([]model.Tweet, error)
}

// Client talks to the proxy with a single opaque API key; no platform OAuth
// credentials are involved.
type Client struct {
	BaseURL    string
	Host       string
	key        string
	httpClient *http.Client
}

var _ ProxyAPI = (*Client)(nil)

func New(key string) *Client {
	return &Client{
		BaseURL:    "https://" + defaultHost,
		Host:       defaultHost,
		key:        key,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	metrics.IncUpstreamCall("rapidapi")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-rapidapi-key", c.key)
	req.Header.Set("x-rapidapi-host", c.Host)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncUpstreamError("rapidapi")
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		metrics.IncUpstreamError("rapidapi")
		return nil, &model.UpstreamError{Source: "rapidapi", Status: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

// LookupUser resolves a handle to the proxy's internal rest id plus a legacy
// profile fallback. A response without a rest id means the account does not
// exist or is suspended.
func (c *Client) LookupUser(ctx context.Context, handle string) (model.TwitterUser, error) {
	body, err := c.get(ctx, "/user", url.Values{"username": {handle}})
	if err != nil {
		return model.TwitterUser{}, err
	}
	id := restID(body)
	if id == "" {
		return model.TwitterUser{}, model.ErrUserNotFound
	}
	name, screenName, avatar := legacyProfile(body)
	if name == "" {
		name = handle
	}
	if screenName == "" {
		screenName = handle
	}
	return model.TwitterUser{ID: id, Name: name, Username: screenName, ProfileImageURL: avatar}, nil
}

// UserTweets fetches and flattens one user's timeline.
func (c *Client) UserTweets(ctx context.Context, userID string, count int) ([]model.Tweet, error) {
	if count <= 0 {
		count = timelineTweetCount
	}
	body, err := c.get(ctx, "/user-tweets", url.Values{"user": {userID}, "count": {strconv.Itoa(count)}})
	if err != nil {
		return nil, err
	}
	var out []model.Tweet
	for _, tr := range timelineTweets(body) {
		if t, ok := tweetFromResult(tr); ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// Followings returns the first followed-account ids for a user, capped to the
// fan-out limit.
func (c *Client) Followings(ctx context.Context, userID string) ([]string, error) {
	body, err := c.get(ctx, "/following", url.Values{"user": {userID}, "count": {strconv.Itoa(followingPageSize)}})
	if err != nil {
		return nil, err
	}
	ids := followingIDs(body)
	if len(ids) > followingFanout {
		ids = ids[:followingFanout]
	}
	return ids, nil
}

// FollowingTweets fetches tweets for every id concurrently and joins on all
// of them. A failed or malformed leg contributes nothing; it never aborts the
// batch or cancels its siblings.
func (c *Client) FollowingTweets(ctx context.Context, ids []string) ([]model.Tweet, error) {
	results := make([][]model.Tweet, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			tweets, err := c.UserTweets(ctx, id, perFollowingTweets)
			if err != nil {
				metrics.FanoutLegFailures.Inc()
				return
			}
			results[i] = tweets
		}(i, id)
	}
	wg.Wait()
	var out []model.Tweet
	for _, legs := range results {
		out = append(out, legs...)
	}
	return out, nil
}
