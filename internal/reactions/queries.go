package reactions

const checkRecastQuery = `
query CheckRecast($hash: String!, $fid: String!) {
  FarcasterReactions(
    input: {
      filter: {
        criteria: {_eq: recasted},
        hash: {_eq: $hash},
        reactedBy: {_eq: $fid}
      },
      blockchain: ALL
    }
  ) {
    Reaction {
      cast {
        hash
        timestamp
        text
        reactions {
          count
          reactionType
        }
      }
    }
  }
}`

const castInfoQuery = `
query GetCastInfo($hash: String!) {
  FarcasterCasts(
    input: {filter: {hash: {_eq: $hash}}, blockchain: ALL}
  ) {
    Cast {
      hash
      timestamp
      text
      reactions {
        count
        reactionType
      }
    }
  }
}`

type castPayload struct {
	Hash      string `json:"hash"`
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
	Reactions []struct {
		Count        int    `json:"count"`
		ReactionType string `json:"reactionType"`
	} `json:"reactions"`
}

type checkRecastData struct {
	FarcasterReactions *struct {
		Reaction []struct {
			Cast *castPayload `json:"cast"`
		} `json:"Reaction"`
	} `json:"FarcasterReactions"`
}

type castInfoData struct {
	FarcasterCasts *struct {
		Cast []*castPayload `json:"Cast"`
	} `json:"FarcasterCasts"`
}
