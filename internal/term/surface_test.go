package term

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bidwatch/internal/view"
)

func TestRerenderClearsUnsubmittedBidInput(t *testing.T) {
	s := NewSurface()
	s.ApplySnapshot(view.Snapshot{All: "first"})

	s.SetBidInput(3, "120")
	require.Equal(t, "120", s.BidInput(3))

	// A full re-render discards in-progress input.
	s.ApplySnapshot(view.Snapshot{All: "second"})
	require.Empty(t, s.BidInput(3))
}

func TestRerenderDiscardsPatches(t *testing.T) {
	s := NewSurface()
	s.ApplySnapshot(view.Snapshot{All: "board"})
	s.SetBid(3, 40)
	s.SetLike(3, true, 2)
	require.Equal(t, "40", s.BidValue(3))

	s.ApplySnapshot(view.Snapshot{All: "board v2"})
	require.Empty(t, s.BidValue(3))
}

func TestBidPatchLeavesSnapshotAlone(t *testing.T) {
	s := NewSurface()
	snap := view.Snapshot{All: "board", Won: "won", Created: "mine"}
	s.ApplySnapshot(snap)

	s.SetBid(9, 101.5)

	require.Equal(t, snap, s.Snapshot(), "patching a bid must not touch the rendered regions")
	require.Equal(t, "101.5", s.BidValue(9))
}

func TestCountdownDisplayWrites(t *testing.T) {
	s := NewSurface()
	s.TimeRemaining(4).SetText("0d 0h 3m 7s")

	var buf bytes.Buffer
	s.Flush(&buf, time.Date(2024, 5, 1, 15, 4, 5, 0, time.UTC))

	out := buf.String()
	require.Contains(t, out, "5/1/2024")
	require.Contains(t, out, "3:04:05 PM")
	require.Contains(t, out, "[countdown] post 4 -> 0d 0h 3m 7s")
}

func TestAlertsDrain(t *testing.T) {
	s := NewSurface()
	s.Alert("Please enter a bid amount.")
	s.Alert("Not connected.")

	require.Equal(t, []string{"Please enter a bid amount.", "Not connected."}, s.DrainAlerts())
	require.Empty(t, s.DrainAlerts())
}
