package model

import "encoding/json"

// Inbound push event types. Any frame may instead carry a bare
// {"error": "..."} body, which the channel surfaces as a blocking alert.
const (
	EventPostsUpdated = "postsUpdated"
	EventBidUpdate    = "bidUpdate"
	EventNewPost      = "newPost"
)

// BidUpdateEvent patches a single post's displayed bid in place.
type BidUpdateEvent struct {
	AuctionID int64   `json:"auction_id"`
	Value     float64 `json:"value"`
}

// NewPostEvent announces a freshly created post. Current servers send the
// keyed Post shape; older revisions send a positional array instead, so the
// payload is decoded lazily by DecodeNewPost.
type NewPostEvent struct {
	Post json.RawMessage `json:"post"`
}

// DecodeNewPost accepts either the keyed Post object or the legacy
// positional array and returns the reconstructed record.
func DecodeNewPost(raw json.RawMessage) (Post, error) {
	trimmed := trimLeadingSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return DecodePositionalPost(raw)
	}
	var p Post
	if err := json.Unmarshal(raw, &p); err != nil {
		return Post{}, err
	}
	return p, nil
}

// BidMessage is the outbound socket frame for placing a bid.
type BidMessage struct {
	Type      string  `json:"type"`
	Value     float64 `json:"value"`
	AuctionID int64   `json:"auction_id"`
}

// NewPostRequest asks the server to re-announce the latest post.
type NewPostRequest struct {
	Type string `json:"type"`
}

func trimLeadingSpace(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t' || b[0] == '\n' || b[0] == '\r') {
		b = b[1:]
	}
	return b
}
