// Package feed wires channel events, poll ticks and user actions onto a
// display surface. It owns the countdown timers of the rendered board and
// replaces them wholesale on every re-render.
package feed

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"bidwatch/internal/api"
	"bidwatch/internal/countdown"
	"bidwatch/internal/live"
	"bidwatch/internal/model"
	"bidwatch/internal/notice"
	"bidwatch/internal/view"
)

// Surface is where the feed draws. Implementations serialize their own
// mutations; the feed may call from the poller, the socket reader and
// countdown goroutines concurrently, last write wins.
type Surface interface {
	ApplySnapshot(snap view.Snapshot)
	SetBid(postID int64, value float64)
	SetLike(postID int64, likedByViewer bool, likes int)
	BidInput(postID int64) string
	TimeRemaining(postID int64) countdown.Display
	Alert(msg string)
}

// Backend is the slice of the REST client the feed drives.
type Backend interface {
	GetPosts(ctx context.Context) ([]model.Post, error)
	ToggleLike(ctx context.Context, postID int64) (api.LikeResult, error)
	MakePost(ctx context.Context, form api.PostForm) (api.MakePostResult, error)
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, username, password string) error
	VerifyEmail(ctx context.Context, email string) error
}

// BidPlacer submits one bid; the REST and socket variants both satisfy it.
type BidPlacer interface {
	PlaceBid(ctx context.Context, postID int64, bid float64) error
}

type Options struct {
	CurrentUser     string
	CountdownPeriod time.Duration
	Now             func() time.Time
}

type Feed struct {
	backend Backend
	bidder  BidPlacer
	surface Surface
	modal   *notice.Modal
	email   *notice.EmailModal

	user   string
	now    func() time.Time
	period time.Duration

	mu        sync.Mutex
	timers    []*countdown.Timer
	lastPosts []model.Post
}

func New(backend Backend, bidder BidPlacer, surface Surface, opts Options) *Feed {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CountdownPeriod <= 0 {
		opts.CountdownPeriod = time.Second
	}
	f := &Feed{
		backend: backend,
		bidder:  bidder,
		surface: surface,
		user:    opts.CurrentUser,
		now:     opts.Now,
		period:  opts.CountdownPeriod,
	}
	f.modal = notice.NewModal(f.refreshOnClose)
	f.email = notice.NewEmailModal(backend)
	return f
}

func (f *Feed) Modal() *notice.Modal           { return f.modal }
func (f *Feed) EmailModal() *notice.EmailModal { return f.email }

// Bind registers the push-event handlers on the channel router.
func (f *Feed) Bind(r *live.Router) {
	live.Register(r, model.EventPostsUpdated, func(ctx context.Context, _ struct{}) error {
		return f.Refresh(ctx)
	})
	live.Register(r, model.EventBidUpdate, func(_ context.Context, ev model.BidUpdateEvent) error {
		return f.HandleBidUpdate(ev)
	})
	live.Register(r, model.EventNewPost, f.HandleNewPost)
}

// HandleBidUpdate patches the one bid value in place, no re-render.
func (f *Feed) HandleBidUpdate(ev model.BidUpdateEvent) error {
	f.surface.SetBid(ev.AuctionID, ev.Value)
	return nil
}

// HandleNewPost validates the pushed record at the boundary, then redraws
// from a fresh fetch so the board and the server agree on the full list.
func (f *Feed) HandleNewPost(ctx context.Context, ev model.NewPostEvent) error {
	if _, err := model.DecodeNewPost(ev.Post); err != nil {
		return err
	}
	return f.Refresh(ctx)
}

// Refresh refetches the post list and redraws the whole board. This is the
// only network path whose failure is surfaced to the user.
func (f *Feed) Refresh(ctx context.Context) error {
	posts, err := f.backend.GetPosts(ctx)
	if err != nil {
		zap.L().Error("feed.get_posts", zap.Error(err))
		f.surface.Alert("Could not load posts.")
		return err
	}
	f.RenderPosts(posts)
	return nil
}

// RenderPosts tears the board down and rebuilds it from the given list,
// replacing the previous generation of countdown timers.
func (f *Feed) RenderPosts(posts []model.Post) {
	now := f.now()
	snap := view.Render(posts, f.user, now)

	f.stopTimers()
	f.surface.ApplySnapshot(snap)

	timers := make([]*countdown.Timer, 0, len(posts))
	for i := range posts {
		p := &posts[i]
		if p.Closed(now) {
			continue
		}
		timers = append(timers, countdown.Start(p.EndTime, f.surface.TimeRemaining(p.ID), countdown.Options{
			Period: f.period,
			Now:    f.now,
		}))
	}

	f.mu.Lock()
	f.timers = timers
	f.lastPosts = posts
	f.mu.Unlock()
}

// PlaceBid reads the bid field for the post and submits it. An empty or
// unreadable value raises a blocking alert and sends nothing.
func (f *Feed) PlaceBid(ctx context.Context, postID int64) {
	raw := strings.TrimSpace(f.surface.BidInput(postID))
	if raw == "" {
		f.surface.Alert("Please enter a bid amount.")
		return
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		f.surface.Alert("Please enter a bid amount.")
		return
	}

	// The server alone validates the amount against the current high bid.
	err = f.bidder.PlaceBid(ctx, postID, value)
	switch {
	case err == nil:
		f.surface.Alert("Bid placed successfully!")
	case errors.Is(err, live.ErrNotConnected):
		f.surface.Alert("Not connected.")
	default:
		var srvErr *api.ServerError
		if errors.As(err, &srvErr) {
			f.surface.Alert(srvErr.Message)
			return
		}
		zap.L().Error("feed.place_bid", zap.Int64("post_id", postID), zap.Error(err))
	}
}

// ToggleLike flips the like and patches only the like button.
func (f *Feed) ToggleLike(ctx context.Context, postID int64) {
	res, err := f.backend.ToggleLike(ctx, postID)
	if err != nil {
		var srvErr *api.ServerError
		if errors.As(err, &srvErr) {
			f.modal.Show(srvErr.Message)
			return
		}
		zap.L().Error("feed.toggle_like", zap.Int64("post_id", postID), zap.Error(err))
		return
	}
	f.surface.SetLike(postID, res.LikedByUser, res.Likes)
}

// Stop cancels all running countdown timers.
func (f *Feed) Stop() {
	f.stopTimers()
}

func (f *Feed) stopTimers() {
	f.mu.Lock()
	timers := f.timers
	f.timers = nil
	f.mu.Unlock()
	for _, t := range timers {
		t.Stop()
	}
}

// refreshOnClose is the modal's close hook: an explicit redraw of the last
// known post list, no reload and no network request.
func (f *Feed) refreshOnClose() {
	f.mu.Lock()
	posts := f.lastPosts
	f.mu.Unlock()
	if posts != nil {
		f.RenderPosts(posts)
	}
}

// SocketBidder places bids over the live channel and reports an explicit
// not-connected condition instead of dropping them.
type SocketBidder struct {
	Channel *live.Channel
}

func (b *SocketBidder) PlaceBid(_ context.Context, postID int64, bid float64) error {
	return b.Channel.Send(model.BidMessage{Type: "bid", Value: bid, AuctionID: postID})
}

// RESTBidder adapts the HTTP client to the BidPlacer shape.
type RESTBidder struct {
	Client *api.Client
}

func (b *RESTBidder) PlaceBid(ctx context.Context, postID int64, bid float64) error {
	return b.Client.PlaceBid(ctx, postID, bid)
}
