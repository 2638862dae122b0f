package feed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"bidwatch/internal/api"
)

// GuestUser is the placeholder shown before anyone logs in.
const GuestUser = "Guest"

// Login submits the login form; outcomes land in the message modal.
func (f *Feed) Login(ctx context.Context, username, password string) {
	if err := f.backend.Login(ctx, username, password); err != nil {
		f.showAuthError(err, "feed.login")
		return
	}
	f.modal.Show("Login successful. You can close this modal now.")
}

// Register submits the registration form. The empty-username check happens
// client-side, before any request goes out.
func (f *Feed) Register(ctx context.Context, username, password string) {
	err := f.backend.Register(ctx, username, password)
	switch {
	case errors.Is(err, api.ErrEmptyUsername):
		f.modal.Show("Please enter a username with characters or numbers.")
	case err != nil:
		f.showAuthError(err, "feed.register")
	default:
		f.modal.Show("Registration successful. Please log in.")
	}
}

// CreatePost submits the new-post form and refetches the board on success.
func (f *Feed) CreatePost(ctx context.Context, form api.PostForm) {
	res, err := f.backend.MakePost(ctx, form)
	if err != nil {
		f.showAuthError(err, "feed.make_post")
		return
	}
	f.modal.Show(fmt.Sprintf("Post by %s: %q has been successfully created!", res.Username, res.Title))
	_ = f.Refresh(ctx)
}

// OpenVerification opens the email dialog, unless the viewer is still a
// guest.
func (f *Feed) OpenVerification() {
	if f.user == GuestUser || f.user == "" {
		f.modal.Show("Please login to verify email.")
		return
	}
	f.email.Show()
}

func (f *Feed) showAuthError(err error, op string) {
	var srvErr *api.ServerError
	if errors.As(err, &srvErr) {
		f.modal.Show(srvErr.Message)
		return
	}
	zap.L().Error(op, zap.Error(err))
}
