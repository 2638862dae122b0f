// Package api is the HTTP side of the auction board contract: post listing,
// bids, likes, post creation, auth forms and email verification.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"bidwatch/internal/model"
)

var (
	ErrEmptyUsername = errors.New("username must not be empty")
)

// ServerError is an application error reported by the backend, surfaced to
// the user verbatim.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string { return e.Message }

// Client talks to one auction board server. The zero timeout is deliberate:
// cancellation is the caller's context, nothing else.
type Client struct {
	baseURL string
	hc      *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{},
	}
}

// GetPosts fetches the full post list.
func (c *Client) GetPosts(ctx context.Context) ([]model.Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get-posts/", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		zap.L().Error("api.get_posts", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get-posts: unexpected status %d", resp.StatusCode)
	}
	var out PostsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Posts, nil
}

// PlaceBid submits a bid for the given post. The server alone validates the
// amount against the current high bid; its error string comes back as a
// *ServerError.
func (c *Client) PlaceBid(ctx context.Context, postID int64, bid float64) error {
	url := fmt.Sprintf("%s/place-bid/%d", c.baseURL, postID)
	resp, err := c.postJSON(ctx, url, PlaceBidBody{Bid: bid})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return decodeServerError(resp.Body, "error")
}

// ToggleLike flips the viewer's like on a post and returns the new state.
func (c *Client) ToggleLike(ctx context.Context, postID int64) (LikeResult, error) {
	url := fmt.Sprintf("%s/toggle-like/%d", c.baseURL, postID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return LikeResult{}, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		zap.L().Debug("api.toggle_like", zap.Error(err))
		return LikeResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return LikeResult{}, decodeServerError(resp.Body, "error")
	}
	var out LikeResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return LikeResult{}, err
	}
	return out, nil
}

// PostForm is the multipart payload of /make-post/.
type PostForm struct {
	Title         string
	Description   string
	StartingPrice string
	Duration      string
	ImageName     string
	Image         io.Reader
}

// MakePost creates a new auction post from a multipart form.
func (c *Client) MakePost(ctx context.Context, form PostForm) (MakePostResult, error) {
	fields := map[string]string{
		"title":          form.Title,
		"description":    form.Description,
		"starting_price": form.StartingPrice,
		"duration":       form.Duration,
	}
	body, contentType, err := encodeMultipart(fields, form.ImageName, form.Image)
	if err != nil {
		return MakePostResult{}, err
	}
	resp, err := c.postForm(ctx, c.baseURL+"/make-post/", body, contentType)
	if err != nil {
		return MakePostResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return MakePostResult{}, decodeServerError(resp.Body, "error")
	}
	var out MakePostResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return MakePostResult{}, err
	}
	return out, nil
}

// Login authenticates the user. Auth endpoints report failures in a "detail"
// field rather than "error".
func (c *Client) Login(ctx context.Context, username, password string) error {
	return c.authForm(ctx, "/login/", username, password)
}

// Register creates a new account. An all-whitespace username is rejected
// before any request is sent.
func (c *Client) Register(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" {
		return ErrEmptyUsername
	}
	return c.authForm(ctx, "/register/", username, password)
}

// VerifyEmail posts the address to the verification endpoint. The response
// body is arbitrary and ignored.
func (c *Client) VerifyEmail(ctx context.Context, email string) error {
	resp, err := c.postJSON(ctx, c.baseURL+"/verify_email/", VerifyEmailBody{Email: email})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) authForm(ctx context.Context, path, username, password string) error {
	fields := map[string]string{"username": username, "password": password}
	body, contentType, err := encodeMultipart(fields, "", nil)
	if err != nil {
		return err
	}
	resp, err := c.postForm(ctx, c.baseURL+path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeServerError(resp.Body, "detail")
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) postJSON(ctx context.Context, url string, v any) (*http.Response, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		zap.L().Debug("api.post", zap.String("url", url), zap.Error(err))
		return nil, err
	}
	return resp, nil
}

func (c *Client) postForm(ctx context.Context, url string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.hc.Do(req)
	if err != nil {
		zap.L().Debug("api.post_form", zap.String("url", url), zap.Error(err))
		return nil, err
	}
	return resp, nil
}

func encodeMultipart(fields map[string]string, fileName string, file io.Reader) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if file != nil {
		fw, err := w.CreateFormFile("image", fileName)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(fw, file); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func decodeServerError(r io.Reader, field string) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("server error: %s", string(raw))
	}
	var msg string
	if v, ok := m[field]; ok {
		_ = json.Unmarshal(v, &msg)
	}
	if msg == "" {
		msg = "request failed"
	}
	return &ServerError{Message: msg}
}
