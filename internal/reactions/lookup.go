// Package reactions answers whether a viewer has recast a post, along with the
// post's like and recast counts.
package reactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"framecheck/internal/gql"
	"framecheck/internal/logging"
	"framecheck/internal/metrics"
	"framecheck/internal/model"
)

var (
	// ErrNotFound means neither query returned the post.
	ErrNotFound = errors.New("cast not found")
	// ErrLookupFailed wraps every transport failure: status, timeout, malformed body.
	ErrLookupFailed = errors.New("cast lookup failed")
)

// Lookup outcomes, used as metric labels and log fields.
const (
	OutcomeRecasted    = "recasted"
	OutcomeNotRecasted = "not_recasted"
	OutcomeNotFound    = "not_found"
	OutcomeError       = "error"
)

// Client looks up cast interactions through a GraphQL requester.
type Client struct {
	api     gql.Requester
	timeout time.Duration
}

// New returns a client whose lookups are bounded by timeout (both queries together).
func New(api gql.Requester, timeout time.Duration) *Client {
	return &Client{api: api, timeout: timeout}
}

// Lookup checks the viewer's recast first; the unfiltered cast query only runs
// when the viewer has no recast on record.
func (c *Client) Lookup(ctx context.Context, postID, viewerID string) (model.InteractionResult, error) {
	start := time.Now()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	res, err := c.lookup(ctx, postID, viewerID)
	outcome := outcomeOf(res, err)
	metrics.ObserveLookup(outcome, start)
	fields := map[string]any{
		"post":    postID,
		"viewer":  viewerID,
		"outcome": outcome,
		"took_ms": time.Since(start).Milliseconds(),
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		fields["error"] = err.Error()
		fields["timeout"] = gql.IsTimeout(err)
		logging.Error("lookup_error", fields)
	} else {
		logging.Info("lookup", fields)
	}
	return res, err
}

func (c *Client) lookup(ctx context.Context, postID, viewerID string) (model.InteractionResult, error) {
	if postID == "" || viewerID == "" {
		return model.InteractionResult{}, fmt.Errorf("%w: post and viewer are required", ErrLookupFailed)
	}

	var recast checkRecastData
	err := c.api.Do(ctx, gql.Request{
		OperationName: "CheckRecast",
		Query:         checkRecastQuery,
		Variables:     map[string]any{"hash": postID, "fid": ViewerFID(viewerID)},
	}, &recast)
	if err != nil {
		return model.InteractionResult{}, fmt.Errorf("%w: CheckRecast: %w", ErrLookupFailed, err)
	}
	if recast.FarcasterReactions != nil && len(recast.FarcasterReactions.Reaction) > 0 {
		if cast := recast.FarcasterReactions.Reaction[0].Cast; cast != nil {
			return toResult(cast, true), nil
		}
	}

	var info castInfoData
	err = c.api.Do(ctx, gql.Request{
		OperationName: "GetCastInfo",
		Query:         castInfoQuery,
		Variables:     map[string]any{"hash": postID},
	}, &info)
	if err != nil {
		return model.InteractionResult{}, fmt.Errorf("%w: GetCastInfo: %w", ErrLookupFailed, err)
	}
	if info.FarcasterCasts != nil && len(info.FarcasterCasts.Cast) > 0 && info.FarcasterCasts.Cast[0] != nil {
		return toResult(info.FarcasterCasts.Cast[0], false), nil
	}
	return model.InteractionResult{}, ErrNotFound
}

// ViewerFID formats a viewer id the way the reactedBy filter expects it.
func ViewerFID(viewerID string) string { return "fc_fid:" + viewerID }

func toResult(c *castPayload, recasted bool) model.InteractionResult {
	counts := make([]model.ReactionCount, 0, len(c.Reactions))
	for _, r := range c.Reactions {
		counts = append(counts, model.ReactionCount{Type: r.ReactionType, Count: r.Count})
	}
	return model.InteractionResult{
		PostedAt:          c.Timestamp,
		Text:              c.Text,
		RecastCount:       model.CountOf(counts, model.ReactionRecast),
		LikeCount:         model.CountOf(counts, model.ReactionLike),
		ViewerHasRecasted: recasted,
	}
}

func outcomeOf(res model.InteractionResult, err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case err != nil:
		return OutcomeError
	case res.ViewerHasRecasted:
		return OutcomeRecasted
	default:
		return OutcomeNotRecasted
	}
}
