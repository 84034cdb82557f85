package rapidapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"curio/internal/model"
)

func newTestClient(ts *httptest.Server) *Client {
	c := New("test-key")
	c.BaseURL = ts.URL
	c.httpClient = ts.Client()
	return c
}

func TestLookupUserSetsProxyHeaders(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-rapidapi-key") != "test-key" {
			t.Errorf("missing x-rapidapi-key header")
		}
		if r.Header.Get("x-rapidapi-host") == "" {
			t.Errorf("missing x-rapidapi-host header")
		}
		if r.URL.Query().Get("username") != "gopher" {
			t.Errorf("username = %q", r.URL.Query().Get("username"))
		}
		_, _ = w.Write([]byte(userLookupBody))
	}))
	defer ts.Close()

	u, err := newTestClient(ts).LookupUser(context.Background(), "gopher")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "44196397" || u.Username != "gopher" || u.Name != "Gopher" {
		t.Fatalf("user = %+v", u)
	}
}

func TestLookupUserWithoutRestIDIsNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"data":{"user":{}}}}`))
	}))
	defer ts.Close()

	_, err := newTestClient(ts).LookupUser(context.Background(), "ghost")
	if !errors.Is(err, model.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestLookupUserFallsBackToHandle(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"data":{"user":{"result":{"rest_id":"77"}}}}}`))
	}))
	defer ts.Close()

	u, err := newTestClient(ts).LookupUser(context.Background(), "someone")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Name != "someone" || u.Username != "someone" {
		t.Fatalf("missing profile should fall back to the handle: %+v", u)
	}
}

func TestGetReportsUpstreamStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	_, err := newTestClient(ts).LookupUser(context.Background(), "gopher")
	var ue *model.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Source != "rapidapi" || ue.Status != http.StatusForbidden {
		t.Fatalf("UpstreamError = %+v", ue)
	}
}

func TestFollowingsCapsFanout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"result": {"timeline": {"timeline": {"instructions": [{"entries": [
				{"entryId": "user-1", "content": {"itemContent": {"user_results": {"result": {"rest_id": "1"}}}}},
				{"entryId": "user-2", "content": {"itemContent": {"user_results": {"result": {"rest_id": "2"}}}}},
				{"entryId": "user-3", "content": {"itemContent": {"user_results": {"result": {"rest_id": "3"}}}}},
				{"entryId": "user-4", "content": {"itemContent": {"user_results": {"result": {"rest_id": "4"}}}}},
				{"entryId": "user-5", "content": {"itemContent": {"user_results": {"result": {"rest_id": "5"}}}}},
				{"entryId": "user-6", "content": {"itemContent": {"user_results": {"result": {"rest_id": "6"}}}}}
			]}]}}}}`))
	}))
	defer ts.Close()

	ids, err := newTestClient(ts).Followings(context.Background(), "44196397")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != followingFanout {
		t.Fatalf("got %d ids, want %d", len(ids), followingFanout)
	}
}

func TestFollowingTweetsToleratesFailingLeg(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("user") {
		case "bad":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(timelineBody))
		}
	}))
	defer ts.Close()

	tweets, err := newTestClient(ts).FollowingTweets(context.Background(), []string{"good", "bad", "also-good"})
	if err != nil {
		t.Fatalf("a failing leg must not fail the batch: %v", err)
	}
	// timelineBody yields two mappable tweets per healthy leg
	if len(tweets) != 4 {
		t.Fatalf("got %d tweets, want 4", len(tweets))
	}
}
