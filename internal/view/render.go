// Package view turns a post list into the three rendered board regions.
// Render is pure: same posts, user and clock in, same fragments out, so the
// board can be tested without any live surface.
package view

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"bidwatch/internal/countdown"
	"bidwatch/internal/model"
)

// Snapshot holds the rendered HTML fragment of each board region. Applying
// a snapshot is a full teardown of whatever was displayed before, including
// any unsubmitted bid input.
type Snapshot struct {
	All     string
	Won     string
	Created string
}

const bidLabelOpen = "Highest bid"
const bidLabelClosed = "Winning bid"

var postTmpl = template.Must(template.New("post").Parse(`<div class="post" data-id="{{.ID}}">
<h3>{{.Title}}</h3>
<p>{{.Description}}</p>
<img src="/static/images/{{.Image}}" alt="{{.Title}}">
<div><strong>{{.BidLabel}}:</strong> $<span class="bid-value" data-id="{{.ID}}">{{.Bid}}</span></div>
{{if .Winner}}<div><strong>Winner:</strong> {{.Winner}}</div>
{{end}}<div><strong>Time remaining:</strong> <span class="time-remaining" data-id="{{.ID}}">{{.Remaining}}</span></div>
<div class="bid-section">
<input type="number" id="bid-input-{{.ID}}" min="{{.MinBid}}" placeholder="Enter your bid">
<button class="place-bid" data-id="{{.ID}}">Place Bid</button>
</div>
<button id="like-btn-{{.ID}}">{{.LikeLabel}} ({{.Likes}})</button>
<footer>Posted by: {{.Username}}</footer>
</div>
`))

type postView struct {
	ID          int64
	Title       string
	Description string
	Image       string
	Username    string
	BidLabel    string
	Bid         string
	MinBid      string
	Winner      string
	Remaining   string
	LikeLabel   string
	Likes       int
}

// Render builds the three regions from one post list:
//   - All: every post;
//   - Won: closed posts whose winner is currentUser;
//   - Created: posts authored by currentUser.
func Render(posts []model.Post, currentUser string, now time.Time) Snapshot {
	var all, won, created strings.Builder
	for i := range posts {
		p := &posts[i]
		frag := renderPost(p, now)
		all.WriteString(frag)
		if p.Closed(now) && p.Winner != nil && *p.Winner == currentUser {
			won.WriteString(frag)
		}
		if p.Username == currentUser {
			created.WriteString(frag)
		}
	}
	return Snapshot{All: all.String(), Won: won.String(), Created: created.String()}
}

func renderPost(p *model.Post, now time.Time) string {
	pv := postView{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Image:       p.Image,
		Username:    p.Username,
		BidLabel:    bidLabelOpen,
		Bid:         formatAmount(p.HighBid()),
		MinBid:      formatAmount(p.MinNextBid()),
		Remaining:   countdown.Format(p.RemainingAt(now)),
		LikeLabel:   "Like",
		Likes:       p.Likes,
	}
	if p.Closed(now) {
		pv.BidLabel = bidLabelClosed
		pv.Remaining = countdown.ExpiredLabel
		if p.Winner != nil {
			pv.Winner = *p.Winner
		}
		if p.WinningBid != nil {
			pv.Bid = formatAmount(*p.WinningBid)
		}
	}
	if p.Liked {
		pv.LikeLabel = "Dislike"
	}

	var sb strings.Builder
	if err := postTmpl.Execute(&sb, pv); err != nil {
		// The template only touches struct fields; execution cannot fail
		// with a well-formed postView.
		panic(err)
	}
	return sb.String()
}

func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
