package devserver

import (
	"errors"
	"sort"
	"sync"
	"time"

	"bidwatch/internal/model"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrAuctionClosed = errors.New("auction has ended")
	ErrBidTooLow     = errors.New("bid must be higher than the current bid")
)

// Store is the mutex-guarded in-memory state behind the fake server. It is
// deliberately persistence-free.
type Store struct {
	mu     sync.Mutex
	posts  map[int64]*model.Post
	likers map[int64]map[string]bool
	nextID int64
}

func NewStore() *Store {
	return &Store{
		posts:  map[int64]*model.Post{},
		likers: map[int64]map[string]bool{},
		nextID: 1,
	}
}

// AddPost assigns an id and stores the post, returning the stored copy.
func (s *Store) AddPost(p model.Post) model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID
	s.nextID++
	s.posts[p.ID] = &p
	s.likers[p.ID] = map[string]bool{}
	return p
}

// Posts returns the viewer's snapshot of every post, id-ordered, with the
// liked flag resolved for that viewer and winners filled in for closed
// auctions.
func (s *Store) Posts(viewer string, now time.Time) []model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Post, 0, len(s.posts))
	for _, p := range s.posts {
		cp := *p
		cp.Liked = s.likers[p.ID][viewer]
		cp.Likes = len(s.likers[p.ID])
		if cp.Closed(now) && cp.Winner == nil && cp.CurrentBidder != nil {
			winner := *cp.CurrentBidder
			winningBid := *cp.CurrentBid
			cp.Winner = &winner
			cp.WinningBid = &winningBid
			p.Winner = &winner
			p.WinningBid = &winningBid
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PlaceBid validates and records a bid, returning the new amount.
func (s *Store) PlaceBid(postID int64, bidder string, bid float64, now time.Time) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return 0, ErrPostNotFound
	}
	if p.Closed(now) {
		return 0, ErrAuctionClosed
	}
	if bid < p.MinNextBid() {
		return 0, ErrBidTooLow
	}
	p.CurrentBid = &bid
	p.CurrentBidder = &bidder
	return bid, nil
}

// ToggleLike flips the viewer's like and returns the new state.
func (s *Store) ToggleLike(postID int64, viewer string) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[postID]; !ok {
		return false, 0, ErrPostNotFound
	}
	m := s.likers[postID]
	if m[viewer] {
		delete(m, viewer)
	} else {
		m[viewer] = true
	}
	return m[viewer], len(m), nil
}

// Latest returns the most recently created post.
func (s *Store) Latest() (model.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *model.Post
	for _, p := range s.posts {
		if latest == nil || p.ID > latest.ID {
			latest = p
		}
	}
	if latest == nil {
		return model.Post{}, false
	}
	return *latest, true
}
