package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"curio/internal/engage"
	"curio/internal/metrics"
	"curio/internal/model"
)

const (
	sourceRapidAPI = "rapidapi"
	sourceReal     = "real"

	targetTimeline  = "timeline"
	targetFollowing = "following"

	// How many of a target's followings the official path fans out to, and
	// how many tweets each contributes. The proxy path carries its own,
	// tighter bounds.
	officialFollowingFanout = 20
	officialTimelineTweets  = 20
	officialPerUserTweets   = 10
)

// strategyParams is the request-scoped configuration of one pipeline run.
type strategyParams struct {
	TargetType   string
	TargetHandle string
	Thresholds   engage.Thresholds
	Limit        int
	Date         string
}

type tweetsResponse struct {
	Tweets       []model.Tweet `json:"tweets"`
	TotalCount   int           `json:"totalCount"`
	AnalysisDate string        `json:"analysisDate,omitempty"`
	Message      string        `json:"message,omitempty"`
}

func intParam(q url.Values, name string, def int) int {
	if v, err := strconv.Atoi(q.Get(name)); err == nil && v > 0 {
		return v
	}
	return def
}

func (s *Server) strategyFromQuery(q url.Values) strategyParams {
	targetType := q.Get("target_type")
	if targetType == "" {
		targetType = targetFollowing
	}
	date := q.Get("date")
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	return strategyParams{
		TargetType:   targetType,
		TargetHandle: strings.TrimSpace(q.Get("target_handle")),
		Thresholds: engage.Thresholds{
			MinLikes:     intParam(q, "min_likes", s.cfg.Filters.MinLikes),
			MinRetweets:  intParam(q, "min_retweets", s.cfg.Filters.MinRetweets),
			MinReplies:   intParam(q, "min_replies", s.cfg.Filters.MinReplies),
			MinBookmarks: intParam(q, "min_bookmarks", s.cfg.Filters.MinBookmarks),
		},
		Limit: intParam(q, "limit", s.cfg.Filters.Limit),
		Date:  date,
	}
}

func thresholdsMessage(th engage.Thresholds) string {
	return fmt.Sprintf("connection succeeded, but no tweets met the thresholds (likes>=%d, retweets>=%d, replies>=%d, bookmarks>=%d); lower them and retry",
		th.MinLikes, th.MinRetweets, th.MinReplies, th.MinBookmarks)
}

// handleFollowingTweets is the merged acquisition endpoint. One request walks
// availability auth, source selection, strategy validation, adapter dispatch,
// and the filter/rank step; every non-crash empty outcome answers 200 with a
// message naming its cause.
func (s *Server) handleFollowingTweets(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer metrics.ObserveFetchDuration(start)

	q := r.URL.Query()
	userID := r.Header.Get("x-user-id")
	if userID == "" {
		userID = q.Get("user_id")
	}
	headerBearer := strings.TrimSpace(r.Header.Get("x-twitter-bearer-token"))
	rapidKey := strings.TrimSpace(r.Header.Get("x-rapidapi-key"))

	source := q.Get("source")
	if source == "" && (headerBearer != "" || s.cfg.Credentials.BearerToken != "") {
		source = sourceReal
	}
	var cred string
	if source == sourceRapidAPI {
		cred = rapidKey
		if cred == "" {
			cred = s.cfg.Credentials.RapidAPIKey
		}
	} else {
		cred = headerBearer
		if cred == "" {
			cred = s.cfg.Credentials.BearerToken
		}
	}
	// An explicit real source without a bearer anywhere has nothing to call.
	if source == sourceReal && cred == "" {
		source = ""
	}

	params := s.strategyFromQuery(q)

	// Fail closed before any upstream call.
	if userID == "" && cred == "" {
		s.fail(w, r, http.StatusUnauthorized, "unauthorized: sign in or supply an API key")
		return
	}
	if params.TargetType != targetTimeline && params.TargetType != targetFollowing {
		s.fail(w, r, http.StatusBadRequest, fmt.Sprintf("unknown target_type %q: use timeline or following", params.TargetType))
		return
	}
	if params.TargetType == targetTimeline && params.TargetHandle == "" {
		s.fail(w, r, http.StatusBadRequest, "the timeline strategy requires a target handle (without @)")
		return
	}

	switch source {
	case sourceRapidAPI:
		s.rapidAPIFlow(w, r, cred, params)
	case sourceReal:
		s.officialFlow(w, r, cred, userID, params)
	default:
		s.respond(w, r, http.StatusOK, tweetsResponse{
			Tweets:       []model.Tweet{},
			AnalysisDate: params.Date,
			Message:      "no data source configured: sign in or supply a Twitter bearer token",
		})
	}
}

// finish applies the shared filter/rank/truncate tail and shapes the response.
// rank mutates its argument in place; emptyRaw is the narrative used when the
// strategy itself produced nothing.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, raw []model.Tweet, params strategyParams, rank func([]model.Tweet), emptyRaw string) {
	if len(raw) == 0 {
		s.respond(w, r, http.StatusOK, tweetsResponse{Tweets: []model.Tweet{}, AnalysisDate: params.Date, Message: emptyRaw})
		return
	}
	kept := engage.Filter(raw, params.Thresholds)
	rank(kept)
	kept = engage.Truncate(kept, params.Limit)
	if len(kept) == 0 {
		s.respond(w, r, http.StatusOK, tweetsResponse{Tweets: []model.Tweet{}, AnalysisDate: params.Date, Message: thresholdsMessage(params.Thresholds)})
		return
	}
	s.respond(w, r, http.StatusOK, tweetsResponse{Tweets: kept, TotalCount: len(kept), AnalysisDate: params.Date})
}

func (s *Server) rapidAPIFlow(w http.ResponseWriter, r *http.Request, key string, params strategyParams) {
	ctx := r.Context()
	proxy := s.newProxy(key)

	// The proxy can only resolve by handle; both strategies need one.
	if params.TargetHandle == "" {
		s.fail(w, r, http.StatusBadRequest, "the rapidapi source requires a target handle (without @)")
		return
	}
	user, err := proxy.LookupUser(ctx, params.TargetHandle)
	if errors.Is(err, model.ErrUserNotFound) {
		s.fail(w, r, http.StatusNotFound, fmt.Sprintf("user @%s was not found via rapidapi; the account may not exist or be suspended", params.TargetHandle))
		return
	}
	if err != nil {
		s.upstreamFail(w, r, err)
		return
	}

	if params.TargetType == targetFollowing {
		ids, err := proxy.Followings(ctx, user.ID)
		if err != nil {
			s.upstreamFail(w, r, err)
			return
		}
		if len(ids) == 0 {
			s.respond(w, r, http.StatusOK, tweetsResponse{Tweets: []model.Tweet{}, AnalysisDate: params.Date, Message: "the user follows no accounts, or their following list is not visible"})
			return
		}
		raw, err := proxy.FollowingTweets(ctx, ids)
		if err != nil {
			s.upstreamFail(w, r, err)
			return
		}
		s.finish(w, r, engage.Dedupe(raw), params, engage.RankByLikes,
			"the followed accounts produced no tweets with the current strategy")
		return
	}

	raw, err := proxy.UserTweets(ctx, user.ID, 0)
	if err != nil {
		s.upstreamFail(w, r, err)
		return
	}
	s.finish(w, r, raw, params, engage.RankByLikes,
		fmt.Sprintf("no tweets found for @%s with the current strategy", params.TargetHandle))
}

func (s *Server) officialFlow(w http.ResponseWriter, r *http.Request, bearer, userID string, params strategyParams) {
	ctx := r.Context()
	official := s.newOfficial(bearer)

	var target *model.TwitterUser
	if params.TargetHandle != "" {
		u, err := official.GetUserByUsername(ctx, params.TargetHandle)
		if errors.Is(err, model.ErrUserNotFound) {
			s.fail(w, r, http.StatusNotFound, fmt.Sprintf("user @%s was not found; check the spelling or whether the account is public", params.TargetHandle))
			return
		}
		if err != nil {
			s.upstreamFail(w, r, err)
			return
		}
		target = &u
	}

	if params.TargetType == targetTimeline {
		raw, err := official.GetUserTweets(ctx, *target, officialTimelineTweets)
		if err != nil {
			s.upstreamFail(w, r, err)
			return
		}
		s.finish(w, r, raw, params, engage.RankByLikes,
			fmt.Sprintf("no tweets found for @%s with the current strategy", params.TargetHandle))
		return
	}

	// The following strategy resolves its author list in priority order:
	// the explicit target's followings, then the stored following list of
	// the session user, then "me" via the token.
	var authors []model.TwitterUser
	switch {
	case target != nil:
		follows, err := official.GetFollowing(ctx, target.ID, officialFollowingFanout)
		if err != nil {
			s.upstreamFail(w, r, err)
			return
		}
		authors = follows
	case userID != "":
		usernames, err := s.db.FollowingUsernames(ctx, userID)
		if err != nil {
			s.upstreamFail(w, r, err)
			return
		}
		for _, username := range usernames {
			u, err := official.GetUserByUsername(ctx, username)
			if err != nil {
				s.log.Warn("skipping stored following", zap.String("username", username), zap.Error(err))
				metrics.FanoutLegFailures.Inc()
				continue
			}
			authors = append(authors, u)
		}
	default:
		me, err := official.GetMe(ctx)
		if err != nil {
			// App-only tokens cannot self-identify.
			s.fail(w, r, http.StatusBadRequest, "the access token is app-only and cannot identify its own account; supply a target handle to analyze")
			return
		}
		follows, err := official.GetFollowing(ctx, me.ID, officialFollowingFanout)
		if err != nil {
			s.upstreamFail(w, r, err)
			return
		}
		authors = follows
	}

	if len(authors) > officialFollowingFanout {
		authors = authors[:officialFollowingFanout]
	}
	var raw []model.Tweet
	for _, author := range authors {
		tweets, err := official.GetUserTweets(ctx, author, officialPerUserTweets)
		if err != nil {
			s.log.Warn("skipping following tweets", zap.String("username", author.Username), zap.Error(err))
			metrics.FanoutLegFailures.Inc()
			continue
		}
		raw = append(raw, tweets...)
	}
	s.finish(w, r, engage.Dedupe(raw), params, engage.RankWeighted,
		"no data found with the current strategy; adjust the strategy or the target account")
}

// handleUserTimeline drives the v1.1 path directly. No engagement filter is
// applied; the normalizer attaches engagement scores and a neutral sentiment.
func (s *Server) handleUserTimeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	screenName := strings.TrimSpace(q.Get("screen_name"))
	count := intParam(q, "count", 50)
	mode := q.Get("mode")
	if mode == "" {
		mode = "home"
	}

	var tweets []model.Tweet
	var err error
	if mode == "home" {
		tweets, err = s.v1.HomeTimeline(r.Context(), count)
	} else {
		if screenName == "" {
			s.fail(w, r, http.StatusBadRequest, "missing parameter: screen_name")
			return
		}
		tweets, err = s.v1.UserTimeline(r.Context(), screenName, count)
	}
	if err != nil {
		s.upstreamFail(w, r, err)
		return
	}
	tweets = engage.Truncate(tweets, count)
	if tweets == nil {
		tweets = []model.Tweet{}
	}
	s.respond(w, r, http.StatusOK, tweetsResponse{Tweets: tweets, TotalCount: len(tweets)})
}
