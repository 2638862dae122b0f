package notice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModalShowClose(t *testing.T) {
	closes := 0
	m := NewModal(func() { closes++ })

	m.Show("Login successful. You can close this modal now.")
	require.True(t, m.Visible())
	require.Equal(t, "Login successful. You can close this modal now.", m.Text())

	m.Close()
	require.False(t, m.Visible())
	require.Empty(t, m.Text())
	require.Equal(t, 1, closes, "closing a visible modal fires the refresh hook once")

	// Closing an already-closed modal does nothing.
	m.Close()
	require.Equal(t, 1, closes)
}

func TestModalWithoutHook(t *testing.T) {
	m := NewModal(nil)
	m.Show("hi")
	m.Close() // must not panic
	require.False(t, m.Visible())
}

type fakeVerifier struct {
	calls int
	email string
	err   error
}

func (v *fakeVerifier) VerifyEmail(_ context.Context, email string) error {
	v.calls++
	v.email = email
	return v.err
}

func TestEmailModalSubmitAlwaysCloses(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "accepted"},
		{name: "server_error", err: errors.New("smtp unavailable")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := &fakeVerifier{err: tc.err}
			m := NewEmailModal(v)

			m.Show()
			require.True(t, m.Visible())

			m.Submit(context.Background(), "carol@example.com")
			require.False(t, m.Visible(), "submit closes the dialog regardless of the server response")
			require.Equal(t, 1, v.calls)
			require.Equal(t, "carol@example.com", v.email)
		})
	}
}
