package xclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"curio/internal/metrics"
	"curio/internal/model"
)

// OfficialAPI defines the operations the pipeline needs from X API v2.
type OfficialAPI interface {
	GetUserByUsername(ctx context.Context, username string) (model.TwitterUser, error)
	GetMe(ctx context.Context) (model.TwitterUser, error)
	GetFollowing(ctx context.Context, userID string, limit int) ([]model.TwitterUser, error)
	GetUserTweets(ctx context.Context, author model.TwitterUser, limit int) ([]model.Tweet, error)
}

// HTTPClient is a bearer-token client for X API v2.
type HTTPClient struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	baseBackoff time.Duration
}

var _ OfficialAPI = (*HTTPClient)(nil)

func NewHTTPClient(bearerToken string) *HTTPClient {
	return &HTTPClient{
		baseURL:     "https://api.twitter.com/2",
		bearerToken: bearerToken,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		limiter:     newDefaultLimiter(),
		maxAttempts: getEnvInt("X_API_MAX_ATTEMPTS", 5),
		baseBackoff: time.Duration(getEnvInt("X_API_BASE_BACKOFF_MS", 500)) * time.Millisecond,
	}
}

func (c *HTTPClient) auth(req *http.Request) {
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}
	req.Header.Set("Accept", "application/json")
}

type rawUser struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profile_image_url"`
}

func (u rawUser) toModel() model.TwitterUser {
	return model.TwitterUser{ID: u.ID, Name: u.Name, Username: u.Username, ProfileImageURL: u.ProfileImageURL}
}

// GetUserByUsername resolves a handle to a user snapshot.
// A 404 or an empty data object both mean the handle does not resolve.
func (c *HTTPClient) GetUserByUsername(ctx context.Context, username string) (model.TwitterUser, error) {
	var out model.TwitterUser
	if username == "" {
		return out, errors.New("empty username")
	}
	u := fmt.Sprintf("%s/users/by/username/%s?user.fields=id,name,username,profile_image_url", c.baseURL, url.PathEscape(username))
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	c.auth(req)
	if err := c.limiter.Wait(ctx); err != nil {
		return out, err
	}
	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return out, model.ErrUserNotFound
	}
	if resp.StatusCode >= 400 {
		return out, &model.UpstreamError{Source: "twitter-v2", Status: resp.StatusCode}
	}
	var raw struct {
		Data rawUser `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return out, err
	}
	if raw.Data.ID == "" {
		return out, model.ErrUserNotFound
	}
	return raw.Data.toModel(), nil
}

// GetMe resolves the identity behind the bearer token. Only user-context
// tokens can answer this; app-only tokens get a 403.
func (c *HTTPClient) GetMe(ctx context.Context) (model.TwitterUser, error) {
	var out model.TwitterUser
	u := fmt.Sprintf("%s/users/me?user.fields=id,name,username,profile_image_url", c.baseURL)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	c.auth(req)
	if err := c.limiter.Wait(ctx); err != nil {
		return out, err
	}
	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return out, &model.UpstreamError{Source: "twitter-v2", Status: resp.StatusCode}
	}
	var raw struct {
		Data rawUser `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return out, err
	}
	if raw.Data.ID == "" {
		return out, model.ErrUserNotFound
	}
	return raw.Data.toModel(), nil
}

// GetFollowing returns the accounts a user follows, one API page at most.
func (c *HTTPClient) GetFollowing(ctx context.Context, userID string, limit int) ([]model.TwitterUser, error) {
	u := fmt.Sprintf("%s/users/%s/following?max_results=%d&user.fields=id,name,username,profile_image_url", c.baseURL, url.PathEscape(userID), clamp(limit, 10, 1000))
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	c.auth(req)
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, &model.UpstreamError{Source: "twitter-v2", Status: resp.StatusCode}
	}
	var raw struct {
		Data []rawUser `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	out := make([]model.TwitterUser, 0, len(raw.Data))
	for _, d := range raw.Data {
		out = append(out, d.toModel())
	}
	return out, nil
}

// GetUserTweets returns the author's recent tweets (replies excluded) with the
// author snapshot denormalized onto each record.
func (c *HTTPClient) GetUserTweets(ctx context.Context, author model.TwitterUser, limit int) ([]model.Tweet, error) {
	u := fmt.Sprintf("%s/users/%s/tweets?max_results=%d&tweet.fields=id,text,created_at,author_id,public_metrics,attachments&exclude=replies",
		c.baseURL, url.PathEscape(author.ID), clamp(limit, 5, 100))
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	c.auth(req)
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, &model.UpstreamError{Source: "twitter-v2", Status: resp.StatusCode}
	}
	var raw struct {
		Data []struct {
			ID            string `json:"id"`
			Text          string `json:"text"`
			CreatedAt     string `json:"created_at"`
			PublicMetrics struct {
				RetweetCount  int `json:"retweet_count"`
				ReplyCount    int `json:"reply_count"`
				LikeCount     int `json:"like_count"`
				QuoteCount    int `json:"quote_count"`
				BookmarkCount int `json:"bookmark_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	out := make([]model.Tweet, 0, len(raw.Data))
	for _, d := range raw.Data {
		out = append(out, model.Tweet{
			ID:                    d.ID,
			AuthorID:              author.ID,
			AuthorName:            author.Name,
			AuthorUsername:        author.Username,
			AuthorProfileImageURL: author.ProfileImageURL,
			Content:               d.Text,
			RetweetCount:          d.PublicMetrics.RetweetCount,
			ReplyCount:            d.PublicMetrics.ReplyCount,
			LikeCount:             d.PublicMetrics.LikeCount,
			QuoteCount:            d.PublicMetrics.QuoteCount,
			BookmarkCount:         d.PublicMetrics.BookmarkCount,
			CreatedAt:             d.CreatedAt,
		})
	}
	return out, nil
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

func (c *HTTPClient) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	metrics.IncUpstreamCall("twitter-v2")
	backoff := c.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.httpClient.Do(req.Clone(ctx))
		if err == nil {
			if resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599) {
				ra := resp.Header.Get("Retry-After")
				_ = resp.Body.Close()
				wait := backoff
				if ra != "" {
					if secs, err := strconv.Atoi(ra); err == nil {
						wait = time.Duration(secs) * time.Second
					} else if t, err := http.ParseTime(ra); err == nil {
						if d := time.Until(t); d > 0 {
							wait = d
						}
					}
				}
				// jitter +/-20%
				jitter := time.Duration(float64(wait) * 0.2)
				if jitter > 0 {
					wait = wait - jitter + time.Duration(time.Now().UnixNano()%int64(2*jitter))
				}
				metrics.IncRetry("twitter-v2")
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				backoff *= 2
				continue
			}
			return resp, nil
		}
		lastErr = err
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("request failed after %d attempts: %v", c.maxAttempts, lastErr)
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil && i > 0 {
		return i
	}
	return def
}
