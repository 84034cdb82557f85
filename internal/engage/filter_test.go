package engage

import (
	"testing"

	"curio/internal/model"
)

func tw(id string, likes, retweets, replies, bookmarks int) model.Tweet {
	return model.Tweet{
		ID:            id,
		LikeCount:     likes,
		RetweetCount:  retweets,
		ReplyCount:    replies,
		BookmarkCount: bookmarks,
	}
}

func ids(tweets []model.Tweet) []string {
	out := make([]string, len(tweets))
	for i, t := range tweets {
		out[i] = t.ID
	}
	return out
}

func TestFilterIsDisjunctive(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		name string
		in   model.Tweet
		want bool
	}{
		{"all zero", tw("a", 0, 0, 0, 0), false},
		{"just under everywhere", tw("b", 49, 9, 4, 4), false},
		{"likes alone", tw("c", 50, 0, 0, 0), true},
		{"retweets alone", tw("d", 0, 10, 0, 0), true},
		{"replies alone", tw("e", 0, 0, 5, 0), true},
		{"bookmarks alone", tw("f", 0, 0, 0, 5), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := th.Pass(tc.in); got != tc.want {
				t.Fatalf("Pass(%+v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestFilterKeepsOrder(t *testing.T) {
	in := []model.Tweet{
		tw("keep1", 60, 0, 0, 0),
		tw("drop", 1, 1, 1, 1),
		tw("keep2", 0, 20, 0, 0),
	}
	got := Filter(in, DefaultThresholds())
	want := []string{"keep1", "keep2"}
	if len(got) != len(want) {
		t.Fatalf("kept %d tweets, want %d", len(got), len(want))
	}
	for i, id := range ids(got) {
		if id != want[i] {
			t.Fatalf("kept[%d] = %s, want %s", i, id, want[i])
		}
	}
}

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	first := tw("x", 100, 0, 0, 0)
	dup := tw("x", 5, 0, 0, 0)
	got := Dedupe([]model.Tweet{first, tw("y", 1, 0, 0, 0), dup})
	if len(got) != 2 {
		t.Fatalf("got %d tweets, want 2", len(got))
	}
	if got[0].LikeCount != 100 {
		t.Fatalf("first occurrence was replaced: likes = %d", got[0].LikeCount)
	}
}

func TestRankByLikesIgnoresRetweets(t *testing.T) {
	a := tw("a", 100, 5, 0, 0)
	b := tw("b", 90, 50, 0, 0)
	tweets := []model.Tweet{b, a}
	RankByLikes(tweets)
	if tweets[0].ID != "a" {
		t.Fatalf("like-only ranking put %s first", tweets[0].ID)
	}
}

func TestRankWeightedCountsRetweetsDouble(t *testing.T) {
	a := tw("a", 100, 5, 0, 0) // 110
	b := tw("b", 90, 50, 0, 0) // 190
	tweets := []model.Tweet{a, b}
	RankWeighted(tweets)
	if tweets[0].ID != "b" {
		t.Fatalf("weighted ranking put %s first", tweets[0].ID)
	}
}

func TestRankingIsStableOnTies(t *testing.T) {
	tweets := []model.Tweet{tw("first", 10, 0, 0, 0), tw("second", 10, 0, 0, 0)}
	RankByLikes(tweets)
	if tweets[0].ID != "first" || tweets[1].ID != "second" {
		t.Fatalf("tie broke merged order: %v", ids(tweets))
	}
}

func TestTruncate(t *testing.T) {
	tweets := []model.Tweet{tw("a", 0, 0, 0, 0), tw("b", 0, 0, 0, 0), tw("c", 0, 0, 0, 0)}
	if got := Truncate(tweets, 2); len(got) != 2 {
		t.Fatalf("got %d, want 2", len(got))
	}
	if got := Truncate(tweets, 0); len(got) != 3 {
		t.Fatalf("limit 0 should not cap, got %d", len(got))
	}
	if got := Truncate(tweets, 10); len(got) != 3 {
		t.Fatalf("limit beyond len should not pad, got %d", len(got))
	}
}
