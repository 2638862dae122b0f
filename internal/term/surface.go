// Package term is the terminal rendering surface of the live board.
package term

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"bidwatch/internal/countdown"
	"bidwatch/internal/view"
)

// Surface keeps the rendered board plus the small bits of mutable display
// state (bid patches, like patches, ticking countdowns, typed-but-unsent
// bid input). A mutex serializes writers: poller renders, socket patches
// and countdown ticks all land here.
type Surface struct {
	mu sync.Mutex

	snap      view.Snapshot
	bids      map[int64]string
	likes     map[int64]string
	remaining map[int64]string
	inputs    map[int64]string

	alerts []string
}

func NewSurface() *Surface {
	return &Surface{
		bids:      map[int64]string{},
		likes:     map[int64]string{},
		remaining: map[int64]string{},
		inputs:    map[int64]string{},
	}
}

// ApplySnapshot is the full teardown-and-rebuild: every patch and every
// unsubmitted bid input from the previous render is discarded.
func (s *Surface) ApplySnapshot(snap view.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.bids = map[int64]string{}
	s.likes = map[int64]string{}
	s.inputs = map[int64]string{}
}

func (s *Surface) SetBid(postID int64, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bids[postID] = strconv.FormatFloat(value, 'f', -1, 64)
}

func (s *Surface) SetLike(postID int64, likedByViewer bool, likes int) {
	label := "Like"
	if likedByViewer {
		label = "Dislike"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.likes[postID] = fmt.Sprintf("%s (%d)", label, likes)
}

// SetBidInput records what the user has typed into a post's bid field.
func (s *Surface) SetBidInput(postID int64, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs[postID] = raw
}

func (s *Surface) BidInput(postID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputs[postID]
}

// TimeRemaining returns the countdown display of one post's element.
func (s *Surface) TimeRemaining(postID int64) countdown.Display {
	return remainingCell{s: s, id: postID}
}

func (s *Surface) Alert(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, msg)
}

// BidValue exposes the patched bid text of a post, empty if never patched
// since the last render.
func (s *Surface) BidValue(postID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bids[postID]
}

func (s *Surface) Snapshot() view.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// DrainAlerts returns and clears the pending alert queue.
func (s *Surface) DrainAlerts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.alerts
	s.alerts = nil
	return out
}

// Flush writes the clock banner, the three regions and any pending patches.
func (s *Surface) Flush(w io.Writer, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintf(w, "%s\n%s\n\n", now.Format("1/2/2006"), now.Format("3:04:05 PM"))
	fmt.Fprintf(w, "== All posts ==\n%s\n", s.snap.All)
	fmt.Fprintf(w, "== Won ==\n%s\n", s.snap.Won)
	fmt.Fprintf(w, "== Created ==\n%s\n", s.snap.Created)
	for id, v := range s.bids {
		fmt.Fprintf(w, "[bid] post %d -> $%s\n", id, v)
	}
	for id, v := range s.likes {
		fmt.Fprintf(w, "[like] post %d -> %s\n", id, v)
	}
	for id, v := range s.remaining {
		fmt.Fprintf(w, "[countdown] post %d -> %s\n", id, v)
	}
	for _, a := range s.alerts {
		fmt.Fprintf(w, "[alert] %s\n", a)
	}
}

type remainingCell struct {
	s  *Surface
	id int64
}

func (c remainingCell) SetText(text string) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.remaining[c.id] = text
}
