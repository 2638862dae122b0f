package api

import "bidwatch/internal/model"

type PostsResponse struct {
	Posts []model.Post `json:"posts"`
}

type PlaceBidBody struct {
	Bid float64 `json:"bid"`
}

type LikeResult struct {
	LikedByUser bool `json:"likedByUser"`
	Likes       int  `json:"likes"`
}

type MakePostResult struct {
	Username string `json:"username"`
	Title    string `json:"title"`
}

type VerifyEmailBody struct {
	Email string `json:"email"`
}

// ErrorResponse is the application-error shape of the posts/bid/like
// endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DetailResponse is the error shape of the auth endpoints.
type DetailResponse struct {
	Detail string `json:"detail"`
}
