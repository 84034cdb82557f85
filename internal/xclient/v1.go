package xclient

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"curio/internal/metrics"
	"curio/internal/model"
)

// V1API covers the legacy v1.1 timeline endpoints signed with OAuth 1.0a.
type V1API interface {
	HomeTimeline(ctx context.Context, count int) ([]model.Tweet, error)
	UserTimeline(ctx context.Context, screenName string, count int) ([]model.Tweet, error)
}

// V1Client signs v1.1 GET requests with HMAC-SHA1. nowFn and nonceFn are
// injectable so the signature is a reproducible function under test.
type V1Client struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	Token          string
	TokenSecret    string
	httpClient     *http.Client
	nowFn          func() time.Time
	nonceFn        func() string
}

var _ V1API = (*V1Client)(nil)

func NewV1Client(ck, cs, token, tokenSecret string) *V1Client {
	return &V1Client{
		BaseURL:        "https://api.twitter.com/1.1",
		ConsumerKey:    ck,
		ConsumerSecret: cs,
		Token:          token,
		TokenSecret:    tokenSecret,
		httpClient:     &http.Client{Timeout: 15 * time.Second},
		nowFn:          time.Now,
		nonceFn:        randomNonce,
	}
}

func randomNonce() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// HomeTimeline returns the authenticated account's home timeline, normalized.
func (c *V1Client) HomeTimeline(ctx context.Context, count int) ([]model.Tweet, error) {
	params := map[string]string{
		"count":      strconv.Itoa(clamp(count, 5, 200)),
		"tweet_mode": "extended",
	}
	raw, err := c.fetch(ctx, "/statuses/home_timeline.json", params)
	if err != nil {
		return nil, err
	}
	return NormalizeStatuses("", raw), nil
}

// UserTimeline returns a user's own timeline by screen name, normalized.
func (c *V1Client) UserTimeline(ctx context.Context, screenName string, count int) ([]model.Tweet, error) {
	params := map[string]string{
		"screen_name": screenName,
		"count":       strconv.Itoa(clamp(count, 5, 200)),
		"tweet_mode":  "extended",
	}
	raw, err := c.fetch(ctx, "/statuses/user_timeline.json", params)
	if err != nil {
		return nil, err
	}
	return NormalizeStatuses(screenName, raw), nil
}

func (c *V1Client) fetch(ctx context.Context, path string, params map[string]string) ([]json.RawMessage, error) {
	metrics.IncUpstreamCall("twitter-v1")
	baseURL := c.BaseURL + path
	reqURL := baseURL + "?" + encodeQuery(params)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.oauth1Header(http.MethodGet, baseURL, params))
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		metrics.IncUpstreamError("twitter-v1")
		return nil, &model.UpstreamError{Source: "twitter-v1", Status: resp.StatusCode}
	}
	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// oauth1Header renders the full Authorization header for one signed request.
func (c *V1Client) oauth1Header(method, baseURL string, queryParams map[string]string) string {
	oauth := map[string]string{
		"oauth_consumer_key":     c.ConsumerKey,
		"oauth_nonce":            c.nonceFn(),
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        strconv.FormatInt(c.nowFn().Unix(), 10),
		"oauth_token":            c.Token,
		"oauth_version":          "1.0",
	}
	all := make(map[string]string, len(oauth)+len(queryParams))
	for k, v := range oauth {
		all[k] = v
	}
	for k, v := range queryParams {
		all[k] = v
	}
	oauth["oauth_signature"] = c.sign(signatureBase(method, baseURL, all))

	keys := make([]string, 0, len(oauth))
	for k := range oauth {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, percentEncode(k)+"=\""+percentEncode(oauth[k])+"\"")
	}
	return "OAuth " + strings.Join(parts, ", ")
}

// signatureBase builds METHOD&enc(url)&enc(sorted k=v params). The parameter
// sort is lexicographic on the percent-encoded keys.
func signatureBase(method, baseURL string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, percentEncode(k))
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	decoded := make(map[string]string, len(params))
	for k, v := range params {
		decoded[percentEncode(k)] = v
	}
	for _, ek := range keys {
		pairs = append(pairs, ek+"="+percentEncode(decoded[ek]))
	}
	return strings.ToUpper(method) + "&" + percentEncode(baseURL) + "&" + percentEncode(strings.Join(pairs, "&"))
}

// sign computes base64(HMAC-SHA1(base)) keyed by the encoded secrets.
func (c *V1Client) sign(base string) string {
	key := percentEncode(c.ConsumerSecret) + "&" + percentEncode(c.TokenSecret)
	mac := hmac.New(sha1.New, []byte(key))
	_, _ = mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// percentEncode follows RFC 3986: everything outside [A-Za-z0-9-._~] is
// escaped, including ! * ( ) ' and spaces as %20.
func percentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func encodeQuery(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, percentEncode(k)+"="+percentEncode(m[k]))
	}
	return strings.Join(parts, "&")
}

// NormalizeStatuses maps raw v1.1 statuses of arbitrary or partial shape into
// canonical tweets. Malformed items coerce field by field to zero values; no
// item ever fails the batch. screenName, when non-empty, overrides the
// embedded user.screen_name.
func NormalizeStatuses(screenName string, statuses []json.RawMessage) []model.Tweet {
	out := make([]model.Tweet, 0, len(statuses))
	for _, raw := range statuses {
		id := gjson.GetBytes(raw, "id_str")
		if !id.Exists() {
			id = gjson.GetBytes(raw, "id")
		}
		username := screenName
		if username == "" {
			username = gjson.GetBytes(raw, "user.screen_name").String()
		}
		content := gjson.GetBytes(raw, "full_text").String()
		if content == "" {
			content = gjson.GetBytes(raw, "text").String()
		}
		t := model.Tweet{
			ID:             id.String(),
			AuthorUsername: username,
			Content:        content,
			RetweetCount:   int(gjson.GetBytes(raw, "retweet_count").Int()),
			QuoteCount:     int(gjson.GetBytes(raw, "quote_count").Int()),
			ReplyCount:     int(gjson.GetBytes(raw, "reply_count").Int()),
			LikeCount:      int(gjson.GetBytes(raw, "favorite_count").Int()),
			CreatedAt:      gjson.GetBytes(raw, "created_at").String(),
		}
		t.EngagementScore = model.EngagementScore(t)
		t.Sentiment = model.NeutralSentiment()
		out = append(out, t)
	}
	return out
}
