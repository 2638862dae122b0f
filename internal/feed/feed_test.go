package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bidwatch/internal/api"
	"bidwatch/internal/countdown"
	"bidwatch/internal/live"
	"bidwatch/internal/model"
	"bidwatch/internal/view"
)

var feedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeSurface struct {
	mu        sync.Mutex
	snapshots []view.Snapshot
	bids      map[int64]float64
	likes     map[int64]string
	inputs    map[int64]string
	alerts    []string
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		bids:   map[int64]float64{},
		likes:  map[int64]string{},
		inputs: map[int64]string{},
	}
}

func (s *fakeSurface) ApplySnapshot(snap view.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snap)
}

func (s *fakeSurface) SetBid(postID int64, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bids[postID] = value
}

func (s *fakeSurface) SetLike(postID int64, liked bool, likes int) {
	label := "Like"
	if liked {
		label = "Dislike"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.likes[postID] = label
}

func (s *fakeSurface) BidInput(postID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputs[postID]
}

func (s *fakeSurface) TimeRemaining(int64) countdown.Display { return nopDisplay{} }

func (s *fakeSurface) Alert(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, msg)
}

func (s *fakeSurface) snapshotCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

func (s *fakeSurface) lastAlert() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.alerts) == 0 {
		return ""
	}
	return s.alerts[len(s.alerts)-1]
}

type nopDisplay struct{}

func (nopDisplay) SetText(string) {}

type fakeBackend struct {
	mu       sync.Mutex
	posts    []model.Post
	getErr   error
	requests int

	likeRes api.LikeResult
	likeErr error
}

func (b *fakeBackend) GetPosts(context.Context) ([]model.Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests++
	return b.posts, b.getErr
}

func (b *fakeBackend) ToggleLike(context.Context, int64) (api.LikeResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests++
	return b.likeRes, b.likeErr
}

func (b *fakeBackend) MakePost(context.Context, api.PostForm) (api.MakePostResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests++
	return api.MakePostResult{Username: "alice", Title: "Lamp"}, nil
}

func (b *fakeBackend) Login(_ context.Context, username, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests++
	if username == "nobody" {
		return &api.ServerError{Message: "Incorrect username or password."}
	}
	return nil
}

func (b *fakeBackend) Register(_ context.Context, username, _ string) error {
	if len(username) == 0 {
		return api.ErrEmptyUsername
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests++
	return nil
}

func (b *fakeBackend) VerifyEmail(context.Context, string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests++
	return nil
}

func (b *fakeBackend) requestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests
}

type fakeBidder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (b *fakeBidder) PlaceBid(context.Context, int64, float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return b.err
}

func (b *fakeBidder) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func newTestFeed(backend *fakeBackend, bidder *fakeBidder) (*Feed, *fakeSurface) {
	surface := newFakeSurface()
	f := New(backend, bidder, surface, Options{
		CurrentUser:     "carol",
		CountdownPeriod: time.Hour,
		Now:             func() time.Time { return feedNow },
	})
	return f, surface
}

func TestPlaceBidEmptyInputSendsNothing(t *testing.T) {
	backend := &fakeBackend{}
	bidder := &fakeBidder{}
	f, surface := newTestFeed(backend, bidder)

	for _, input := range []string{"", "   ", "not-a-number"} {
		surface.inputs[3] = input
		f.PlaceBid(context.Background(), 3)
	}

	require.Equal(t, 0, bidder.callCount(), "no network call may happen without a usable bid")
	require.Equal(t, 0, backend.requestCount())
	require.Equal(t, "Please enter a bid amount.", surface.lastAlert())
}

func TestPlaceBidOutcomes(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantAlert string
	}{
		{name: "success", err: nil, wantAlert: "Bid placed successfully!"},
		{name: "server_rejection", err: &api.ServerError{Message: "bid must be higher than the current bid"}, wantAlert: "bid must be higher than the current bid"},
		{name: "socket_down", err: live.ErrNotConnected, wantAlert: "Not connected."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bidder := &fakeBidder{err: tc.err}
			f, surface := newTestFeed(&fakeBackend{}, bidder)

			surface.inputs[3] = "25"
			f.PlaceBid(context.Background(), 3)

			require.Equal(t, 1, bidder.callCount())
			require.Equal(t, tc.wantAlert, surface.lastAlert())
		})
	}
}

func TestRESTBidderSurfacesServerRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "auction has ended"}`))
	}))
	defer srv.Close()

	surface := newFakeSurface()
	f := New(&fakeBackend{}, &RESTBidder{Client: api.NewClient(srv.URL)}, surface, Options{
		CurrentUser: "carol",
		Now:         func() time.Time { return feedNow },
	})

	surface.inputs[3] = "25"
	f.PlaceBid(context.Background(), 3)

	require.Equal(t, "auction has ended", surface.lastAlert())
}

func TestBidUpdatePatchesWithoutRerender(t *testing.T) {
	f, surface := newTestFeed(&fakeBackend{posts: []model.Post{{ID: 3, Title: "Lamp", EndTime: feedNow.Add(time.Hour)}}}, &fakeBidder{})
	require.NoError(t, f.Refresh(context.Background()))
	defer f.Stop()
	renders := surface.snapshotCount()

	require.NoError(t, f.HandleBidUpdate(model.BidUpdateEvent{AuctionID: 3, Value: 40}))

	require.Equal(t, 40.0, surface.bids[3])
	require.Equal(t, renders, surface.snapshotCount(), "bidUpdate must not trigger a re-render")
}

func TestNewPostValidatesThenRedraws(t *testing.T) {
	backend := &fakeBackend{posts: []model.Post{{ID: 1, EndTime: feedNow.Add(time.Hour)}}}
	f, surface := newTestFeed(backend, &fakeBidder{})
	defer f.Stop()

	ev := model.NewPostEvent{Post: json.RawMessage(`{"id": 2, "title": "Chair"}`)}
	require.NoError(t, f.HandleNewPost(context.Background(), ev))
	require.Equal(t, 1, surface.snapshotCount())

	bad := model.NewPostEvent{Post: json.RawMessage(`[1, 2]`)}
	require.Error(t, f.HandleNewPost(context.Background(), bad))
	require.Equal(t, 1, surface.snapshotCount(), "a malformed push must not redraw")
}

func TestRefreshFailureIsSurfaced(t *testing.T) {
	backend := &fakeBackend{getErr: errors.New("connection refused")}
	f, surface := newTestFeed(backend, &fakeBidder{})

	require.Error(t, f.Refresh(context.Background()))
	require.Equal(t, "Could not load posts.", surface.lastAlert())
	require.Equal(t, 0, surface.snapshotCount())
}

func TestToggleLikePatchesLikeButtonOnly(t *testing.T) {
	backend := &fakeBackend{likeRes: api.LikeResult{LikedByUser: true, Likes: 4}}
	f, surface := newTestFeed(backend, &fakeBidder{})

	f.ToggleLike(context.Background(), 3)

	require.Equal(t, "Dislike", surface.likes[3])
	require.Equal(t, 0, surface.snapshotCount())
}

func TestModalCloseRedrawsWithoutNetwork(t *testing.T) {
	backend := &fakeBackend{posts: []model.Post{{ID: 1, Title: "Lamp", EndTime: feedNow.Add(time.Hour)}}}
	f, surface := newTestFeed(backend, &fakeBidder{})
	require.NoError(t, f.Refresh(context.Background()))
	defer f.Stop()

	before := backend.requestCount()
	renders := surface.snapshotCount()

	f.Modal().Show("Bid placed successfully!")
	f.Modal().Close()

	require.Equal(t, before, backend.requestCount(), "modal close must not hit the network")
	require.Equal(t, renders+1, surface.snapshotCount(), "modal close redraws the last known posts")
}

func TestAuthFlows(t *testing.T) {
	t.Run("login_failure_shows_detail", func(t *testing.T) {
		f, _ := newTestFeed(&fakeBackend{}, &fakeBidder{})
		f.Login(context.Background(), "nobody", "pw")
		require.Equal(t, "Incorrect username or password.", f.Modal().Text())
	})

	t.Run("register_empty_username_blocked_client_side", func(t *testing.T) {
		backend := &fakeBackend{}
		f, _ := newTestFeed(backend, &fakeBidder{})
		f.Register(context.Background(), "", "pw")
		require.Equal(t, 0, backend.requestCount())
		require.Equal(t, "Please enter a username with characters or numbers.", f.Modal().Text())
	})

	t.Run("create_post_notifies_and_refetches", func(t *testing.T) {
		backend := &fakeBackend{}
		f, _ := newTestFeed(backend, &fakeBidder{})
		f.CreatePost(context.Background(), api.PostForm{Title: "Lamp"})
		require.Contains(t, f.Modal().Text(), `Post by alice: "Lamp" has been successfully created!`)
		require.Equal(t, 2, backend.requestCount(), "make-post then refetch")
	})

	t.Run("guest_cannot_open_email_verification", func(t *testing.T) {
		surface := newFakeSurface()
		f := New(&fakeBackend{}, &fakeBidder{}, surface, Options{CurrentUser: GuestUser})
		f.OpenVerification()
		require.False(t, f.EmailModal().Visible())
		require.Equal(t, "Please login to verify email.", f.Modal().Text())
	})

	t.Run("logged_in_user_opens_email_verification", func(t *testing.T) {
		f, _ := newTestFeed(&fakeBackend{}, &fakeBidder{})
		f.OpenVerification()
		require.True(t, f.EmailModal().Visible())
	})
}
