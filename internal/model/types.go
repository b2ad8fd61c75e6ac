package model

// Reaction type tags used by the social graph API.
const (
	ReactionLike   = "LIKE"
	ReactionRecast = "RECAST"
)

// ReactionCount is one entry of a post's per-type reaction counts.
// The service returns these as an unordered list.
type ReactionCount struct {
	Type  string
	Count int
}

// InteractionResult is what a lookup tells us about a post and the viewer.
type InteractionResult struct {
	PostedAt          string
	Text              string
	RecastCount       int
	LikeCount         int
	ViewerHasRecasted bool
}

// CountOf returns the count of the first entry tagged typ, or 0 when absent.
func CountOf(counts []ReactionCount, typ string) int {
	for _, c := range counts {
		if c.Type != typ {
			continue
		}
		if c.Count < 0 {
			return 0
		}
		return c.Count
	}
	return 0
}
