package view

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bidwatch/internal/model"
)

var renderNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func openPost(id int64, user string) model.Post {
	return model.Post{
		ID:            id,
		Title:         "Lamp",
		Description:   "Brass desk lamp",
		Image:         "lamp.jpg",
		Username:      user,
		StartingPrice: 15,
		EndTime:       renderNow.Add(30 * time.Minute),
		Duration:      30,
	}
}

func closedPost(id int64, user, winner string, winningBid float64) model.Post {
	p := openPost(id, user)
	p.EndTime = renderNow.Add(-time.Minute)
	p.Winner = &winner
	p.WinningBid = &winningBid
	return p
}

func TestBidLabelSwitchesWhenClosed(t *testing.T) {
	posts := []model.Post{
		openPost(1, "alice"),
		closedPost(2, "alice", "bob", 42),
	}
	snap := Render(posts, "carol", renderNow)

	// Exactly one open post label, and closed posts never say "Highest bid".
	require.Equal(t, 1, strings.Count(snap.All, "Highest bid"))
	require.Equal(t, 1, strings.Count(snap.All, "Winning bid"))

	closedOnly := Render(posts[1:], "carol", renderNow)
	require.NotContains(t, closedOnly.All, "Highest bid")
	require.Contains(t, closedOnly.All, "Winning bid")
	require.Contains(t, closedOnly.All, "Winner:")
	require.Contains(t, closedOnly.All, "bob")
}

func TestMinNextBidHint(t *testing.T) {
	bid := 55.0
	tests := []struct {
		name string
		post model.Post
		want string
	}{
		{name: "starting_price_only", post: openPost(1, "alice"), want: `min="16"`},
		{
			name: "with_current_bid",
			post: func() model.Post {
				p := openPost(2, "alice")
				p.CurrentBid = &bid
				return p
			}(),
			want: `min="56"`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			snap := Render([]model.Post{tc.post}, "carol", renderNow)
			require.Contains(t, snap.All, tc.want)
		})
	}
}

func TestRegionFiltering(t *testing.T) {
	posts := []model.Post{
		openPost(1, "carol"),                // created by viewer, still open
		closedPost(2, "alice", "carol", 30), // won by viewer
		closedPost(3, "alice", "dave", 10),  // won by someone else
		openPost(4, "alice"),                // unrelated
	}
	snap := Render(posts, "carol", renderNow)

	require.Equal(t, 4, strings.Count(snap.All, `class="post"`))

	require.Equal(t, 1, strings.Count(snap.Won, `class="post"`))
	require.Contains(t, snap.Won, `data-id="2"`)

	require.Equal(t, 1, strings.Count(snap.Created, `class="post"`))
	require.Contains(t, snap.Created, `data-id="1"`)
}

func TestWonRequiresClosedAuction(t *testing.T) {
	// A live post cannot be "won" even if a winner field is already set.
	p := openPost(1, "alice")
	winner := "carol"
	p.Winner = &winner

	snap := Render([]model.Post{p}, "carol", renderNow)
	require.Empty(t, snap.Won)
}

func TestPostFragmentContents(t *testing.T) {
	p := openPost(7, "alice")
	p.Liked = true
	p.Likes = 3

	snap := Render([]model.Post{p}, "carol", renderNow)
	require.Contains(t, snap.All, "<h3>Lamp</h3>")
	require.Contains(t, snap.All, "Brass desk lamp")
	require.Contains(t, snap.All, "/static/images/lamp.jpg")
	require.Contains(t, snap.All, `<span class="bid-value" data-id="7">15</span>`)
	require.Contains(t, snap.All, `<span class="time-remaining" data-id="7">0d 0h 30m 0s</span>`)
	require.Contains(t, snap.All, "Dislike (3)")
	require.Contains(t, snap.All, "Posted by: alice")
}

func TestRenderEscapesUserContent(t *testing.T) {
	p := openPost(1, "alice")
	p.Title = `<script>alert("x")</script>`

	snap := Render([]model.Post{p}, "carol", renderNow)
	require.NotContains(t, snap.All, "<script>")
}
