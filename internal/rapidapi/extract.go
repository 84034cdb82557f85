// Package rapidapi fetches tweets through the twitter241 RapidAPI proxy.
//
// The proxy's response shape is an undocumented nested "timeline
// instructions" tree that changes without notice. Every traversal below goes
// through a named accessor with an explicit absent-means-skip contract; the
// shape is treated as a partially-specified external protocol, never as a
// trusted schema.
package rapidapi

import (
	"time"

	"github.com/tidwall/gjson"

	"curio/internal/model"
)

// restID extracts the internal user id from a user-lookup response.
// Path: result.data.user.result.rest_id. Absent means the handle did not
// resolve.
func restID(body []byte) string {
	return gjson.GetBytes(body, "result.data.user.result.rest_id").String()
}

// legacyProfile extracts the profile fallback from a user-lookup response.
// Paths: result.data.user.result.legacy.{name,screen_name} and
// result.data.user.result.avatar.image_url. Missing pieces stay empty.
func legacyProfile(body []byte) (name, screenName, avatar string) {
	root := gjson.GetBytes(body, "result.data.user.result")
	return root.Get("legacy.name").String(),
		root.Get("legacy.screen_name").String(),
		root.Get("avatar.image_url").String()
}

// timelineTweets flattens a user-tweets response into raw tweet payloads.
// It walks result.timeline.instructions[].entries[] and recognizes two entry
// shapes: a direct TimelineTimelineItem
// (content.itemContent.tweet_results.result) and a TimelineTimelineModule
// whose items[] each hold item.itemContent.tweet_results.result, the shape a
// conversation thread attaches to its root entry. Anything else is skipped.
func timelineTweets(body []byte) []gjson.Result {
	var out []gjson.Result
	instructions := gjson.GetBytes(body, "result.timeline.instructions")
	instructions.ForEach(func(_, instruction gjson.Result) bool {
		instruction.Get("entries").ForEach(func(_, entry gjson.Result) bool {
			switch entry.Get("content.entryType").String() {
			case "TimelineTimelineItem":
				if tr := entry.Get("content.itemContent.tweet_results.result"); tr.Exists() {
					out = append(out, tr)
				}
			case "TimelineTimelineModule":
				entry.Get("content.items").ForEach(func(_, item gjson.Result) bool {
					if tr := item.Get("item.itemContent.tweet_results.result"); tr.Exists() {
						out = append(out, tr)
					}
					return true
				})
			}
			return true
		})
		return true
	})
	return out
}

// followingIDs extracts followed account rest ids from a followings response.
// Path: result.timeline.timeline.instructions[].entries[] restricted to
// entries whose entryId carries the "user-" prefix, then
// content.itemContent.user_results.result.rest_id. Entries without an id are
// dropped.
func followingIDs(body []byte) []string {
	var out []string
	instructions := gjson.GetBytes(body, "result.timeline.timeline.instructions")
	instructions.ForEach(func(_, instruction gjson.Result) bool {
		instruction.Get("entries").ForEach(func(_, entry gjson.Result) bool {
			if entryID := entry.Get("entryId").String(); len(entryID) < 5 || entryID[:5] != "user-" {
				return true
			}
			if id := entry.Get("content.itemContent.user_results.result.rest_id").String(); id != "" {
				out = append(out, id)
			}
			return true
		})
		return true
	})
	return out
}

// tweetFromResult maps one raw tweet payload to the canonical shape. Legacy
// count fields default to 0 when absent; media comes from
// legacy.extended_entities.media falling back to legacy.entities.media.
// Payloads without a resolvable id are dropped (ok=false).
func tweetFromResult(tr gjson.Result) (model.Tweet, bool) {
	legacy := tr.Get("legacy")
	id := legacy.Get("id_str").String()
	if id == "" {
		return model.Tweet{}, false
	}
	author := tr.Get("core.user_results.result")
	t := model.Tweet{
		ID:                    id,
		AuthorID:              author.Get("rest_id").String(),
		AuthorName:            author.Get("legacy.name").String(),
		AuthorUsername:        author.Get("legacy.screen_name").String(),
		AuthorProfileImageURL: author.Get("avatar.image_url").String(),
		Content:               legacy.Get("full_text").String(),
		MediaURLs:             mediaURLs(legacy),
		RetweetCount:          int(legacy.Get("retweet_count").Int()),
		ReplyCount:            int(legacy.Get("reply_count").Int()),
		LikeCount:             int(legacy.Get("favorite_count").Int()),
		QuoteCount:            int(legacy.Get("quote_count").Int()),
		BookmarkCount:         int(legacy.Get("bookmark_count").Int()),
		CreatedAt:             isoCreatedAt(legacy.Get("created_at").String()),
	}
	return t, true
}

func mediaURLs(legacy gjson.Result) []string {
	media := legacy.Get("extended_entities.media")
	if !media.Exists() {
		media = legacy.Get("entities.media")
	}
	var urls []string
	media.ForEach(func(_, m gjson.Result) bool {
		if u := m.Get("media_url_https").String(); u != "" {
			urls = append(urls, u)
		}
		return true
	})
	return urls
}

// isoCreatedAt converts the legacy "Mon Jan 2 15:04:05 -0700 2006" timestamp
// to RFC 3339. Unparseable input passes through unchanged.
func isoCreatedAt(s string) string {
	ts, err := time.Parse(time.RubyDate, s)
	if err != nil {
		return s
	}
	return ts.UTC().Format(time.RFC3339)
}
