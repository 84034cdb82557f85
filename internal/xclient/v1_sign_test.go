package xclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// Known-good vector: with the nonce and timestamp pinned, the base string and
// signature are fully determined by the request.
func TestSignatureBaseAndSignature(t *testing.T) {
	c := NewV1Client("ck", "cs", "tok", "ts")
	params := map[string]string{
		"count":                  "50",
		"screen_name":            "golang",
		"tweet_mode":             "extended",
		"oauth_consumer_key":     "ck",
		"oauth_nonce":            "6fd1f5ad09cfa50f1ba9c8f2740cd576",
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        "1700000000",
		"oauth_token":            "tok",
		"oauth_version":          "1.0",
	}

	base := signatureBase(http.MethodGet, "https://api.twitter.com/1.1/statuses/user_timeline.json", params)
	wantBase := "GET&https%3A%2F%2Fapi.twitter.com%2F1.1%2Fstatuses%2Fuser_timeline.json&count%3D50%26oauth_consumer_key%3Dck%26oauth_nonce%3D6fd1f5ad09cfa50f1ba9c8f2740cd576%26oauth_signature_method%3DHMAC-SHA1%26oauth_timestamp%3D1700000000%26oauth_token%3Dtok%26oauth_version%3D1.0%26screen_name%3Dgolang%26tweet_mode%3Dextended"
	if base != wantBase {
		t.Fatalf("base string mismatch:\n got %s\nwant %s", base, wantBase)
	}

	if got := c.sign(base); got != "wquF0RN+CuidUfMan4cKS44Oqgg=" {
		t.Fatalf("signature = %q, want %q", got, "wquF0RN+CuidUfMan4cKS44Oqgg=")
	}
}

func TestOAuth1HeaderIsDeterministic(t *testing.T) {
	c := NewV1Client("ck", "cs", "tok", "ts")
	c.nowFn = func() time.Time { return time.Unix(1700000000, 0) }
	c.nonceFn = func() string { return "6fd1f5ad09cfa50f1ba9c8f2740cd576" }

	h := c.oauth1Header(http.MethodGet, "https://api.twitter.com/1.1/statuses/user_timeline.json", map[string]string{
		"count":       "50",
		"screen_name": "golang",
		"tweet_mode":  "extended",
	})
	if !strings.HasPrefix(h, "OAuth ") {
		t.Fatalf("header missing OAuth prefix: %s", h)
	}
	if !strings.Contains(h, `oauth_signature="wquF0RN%2BCuidUfMan4cKS44Oqgg%3D"`) {
		t.Fatalf("header missing expected signature: %s", h)
	}
	if !strings.Contains(h, `oauth_nonce="6fd1f5ad09cfa50f1ba9c8f2740cd576"`) {
		t.Fatalf("header missing nonce: %s", h)
	}
}

func TestPercentEncodeSpaces(t *testing.T) {
	if got := percentEncode("a b+c"); got != "a%20b%2Bc" {
		t.Fatalf("percentEncode = %q", got)
	}
}

func TestUserTimelineSignsAndNormalizes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "OAuth ") {
			t.Errorf("missing OAuth header, got %q", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id_str":"11","full_text":"first","favorite_count":7,"retweet_count":2,"reply_count":1,"quote_count":1,"created_at":"Mon Jan 01 00:00:00 +0000 2024","user":{"screen_name":"other"}},
			{"id":22,"text":"partial"}
		]`))
	}))
	defer ts.Close()

	c := NewV1Client("ck", "cs", "tok", "ts")
	c.BaseURL = ts.URL

	tweets, err := c.UserTimeline(context.Background(), "golang", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tweets) != 2 {
		t.Fatalf("got %d tweets, want 2", len(tweets))
	}

	first := tweets[0]
	if first.ID != "11" || first.Content != "first" {
		t.Fatalf("first tweet not mapped: %+v", first)
	}
	if first.AuthorUsername != "golang" {
		t.Fatalf("screen name should override embedded user, got %q", first.AuthorUsername)
	}
	// retweet*4 + quote*3 + reply*2 + like
	if first.EngagementScore != 2*4+1*3+1*2+7 {
		t.Fatalf("engagement score = %d", first.EngagementScore)
	}
	if first.Sentiment == nil || first.Sentiment.Sentiment != "neutral" {
		t.Fatalf("missing neutral sentiment: %+v", first.Sentiment)
	}

	partial := tweets[1]
	if partial.ID != "22" || partial.Content != "partial" {
		t.Fatalf("partial tweet not coerced: %+v", partial)
	}
	if partial.LikeCount != 0 || partial.EngagementScore != 0 {
		t.Fatalf("missing counts should coerce to zero: %+v", partial)
	}
}

func TestNormalizeStatusesNeverFailsOnGarbage(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"id_str":"1","favorite_count":"not-a-number"}`),
		json.RawMessage(`"just a string"`),
		json.RawMessage(`{}`),
	}
	tweets := NormalizeStatuses("", raw)
	if len(tweets) != 3 {
		t.Fatalf("got %d tweets, want 3", len(tweets))
	}
	if tweets[0].LikeCount != 0 {
		t.Fatalf("non-numeric count should coerce to zero, got %d", tweets[0].LikeCount)
	}
}

func TestFetchUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := NewV1Client("ck", "cs", "tok", "ts")
	c.BaseURL = ts.URL

	_, err := c.HomeTimeline(context.Background(), 5)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status-carrying error, got %v", err)
	}
}
