package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Post is an auction listing as served by the backend. The client treats it
// as an immutable snapshot until the next refresh; once EndTime has passed
// the only fields that may still change are Winner and WinningBid.
type Post struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Image         string    `json:"image"`
	Username      string    `json:"username"`
	StartingPrice float64   `json:"starting_price"`
	CurrentBid    *float64  `json:"current_bid,omitempty"`
	CurrentBidder *string   `json:"current_bidder,omitempty"`
	EndTime       time.Time `json:"end_time"`
	Duration      int       `json:"duration"`
	Winner        *string   `json:"winner,omitempty"`
	WinningBid    *float64  `json:"winning_bid,omitempty"`
	Likes         int       `json:"likes"`
	Liked         bool      `json:"liked"`
}

// Closed reports whether the auction has ended as of now.
func (p *Post) Closed(now time.Time) bool {
	return now.After(p.EndTime)
}

// HighBid is the displayed bid: the current bid if one exists, else the
// starting price.
func (p *Post) HighBid() float64 {
	if p.CurrentBid != nil {
		return *p.CurrentBid
	}
	return p.StartingPrice
}

// MinNextBid is the lowest acceptable next bid, always one above the
// displayed bid.
func (p *Post) MinNextBid() float64 {
	return p.HighBid() + 1
}

// RemainingAt returns the time left until the auction closes, never negative.
func (p *Post) RemainingAt(now time.Time) time.Duration {
	if d := p.EndTime.Sub(now); d > 0 {
		return d
	}
	return 0
}

// positionalPostFields is the element count of the legacy newPost array:
// [id, title, description, image, username, starting_price, end_time].
const positionalPostFields = 7

// DecodePositionalPost reconstructs a Post from the legacy positional-array
// payload some server revisions emit for newPost events. Field count and the
// type of every element are validated at the boundary; end_time is a Unix
// timestamp in seconds.
func DecodePositionalPost(raw json.RawMessage) (Post, error) {
	var fields []json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Post{}, fmt.Errorf("positional post: not an array: %w", err)
	}
	if len(fields) != positionalPostFields {
		return Post{}, fmt.Errorf("positional post: want %d fields, got %d", positionalPostFields, len(fields))
	}

	var p Post
	var endUnix int64
	for i, dst := range []any{
		&p.ID, &p.Title, &p.Description, &p.Image, &p.Username, &p.StartingPrice, &endUnix,
	} {
		if err := json.Unmarshal(fields[i], dst); err != nil {
			return Post{}, fmt.Errorf("positional post: field %d: %w", i, err)
		}
	}
	p.EndTime = time.Unix(endUnix, 0).UTC()
	return p, nil
}
