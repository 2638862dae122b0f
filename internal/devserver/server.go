// Package devserver is an in-memory stand-in for the auction board backend.
// It speaks the same HTTP and WebSocket contract the real server exposes so
// the client is demoable and integration-testable without real
// infrastructure. No persistence, no real authentication.
package devserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bidwatch/internal/model"
)

type Server struct {
	store *Store
	hub   *Hub
	now   func() time.Time
}

func New(store *Store) *Server {
	return &Server{store: store, hub: NewHub(), now: time.Now}
}

// Handler builds the gin engine covering the full board contract.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(ginzap.RecoveryWithZap(zap.L(), true))

	engine.GET("/get-posts/", s.getPosts)
	engine.POST("/place-bid/:id", s.placeBid)
	engine.POST("/toggle-like/:id", s.toggleLike)
	engine.POST("/make-post/", s.makePost)
	engine.POST("/login/", s.login)
	engine.POST("/register/", s.register)
	engine.POST("/verify_email/", s.verifyEmail)
	engine.GET("/websocket", s.handleSocket)

	return engine
}

// Seed loads demo posts.
func (s *Server) Seed(posts []model.Post) {
	for _, p := range posts {
		s.store.AddPost(p)
	}
}

func viewer(c *gin.Context) string {
	if u := c.Query("user"); u != "" {
		return u
	}
	if u := c.GetHeader("X-User"); u != "" {
		return u
	}
	return "Guest"
}

func (s *Server) getPosts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"posts": s.store.Posts(viewer(c), s.now())})
}

func (s *Server) placeBid(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}
	var body struct {
		Bid float64 `json:"bid"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := s.store.PlaceBid(id, viewer(c), body.Bid, s.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.hub.Broadcast(gin.H{"type": model.EventBidUpdate, "auction_id": id, "value": amount})
	c.JSON(http.StatusOK, gin.H{})
}

func (s *Server) toggleLike(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}
	liked, likes, err := s.store.ToggleLike(id, viewer(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"likedByUser": liked, "likes": likes})
}

func (s *Server) makePost(c *gin.Context) {
	title := c.PostForm("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	startingPrice, err := strconv.ParseFloat(c.PostForm("starting_price"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid starting price"})
		return
	}
	duration, err := strconv.Atoi(c.PostForm("duration"))
	if err != nil || duration <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration"})
		return
	}

	username := viewer(c)
	image := ""
	if fh, err := c.FormFile("image"); err == nil {
		image = fh.Filename
	}

	post := s.store.AddPost(model.Post{
		Title:         title,
		Description:   c.PostForm("description"),
		Image:         image,
		Username:      username,
		StartingPrice: startingPrice,
		EndTime:       s.now().Add(time.Duration(duration) * time.Minute),
		Duration:      duration,
	})

	payload, err := json.Marshal(post)
	if err == nil {
		s.hub.Broadcast(gin.H{"type": model.EventNewPost, "post": json.RawMessage(payload)})
	}
	s.hub.Broadcast(gin.H{"type": model.EventPostsUpdated})

	c.JSON(http.StatusOK, gin.H{"username": username, "title": title})
}

func (s *Server) login(c *gin.Context) {
	if c.PostForm("username") == "" || c.PostForm("password") == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect username or password."})
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (s *Server) register(c *gin.Context) {
	if c.PostForm("username") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Username is required."})
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (s *Server) verifyEmail(c *gin.Context) {
	var body struct {
		Email string `json:"email"`
	}
	_ = c.ShouldBindJSON(&body)
	c.JSON(http.StatusOK, gin.H{"sent": body.Email != ""})
}

func (s *Server) handleSocket(ginCtx *gin.Context) {
	rawConn, err := websocket.Accept(
		ginCtx.Writer, ginCtx.Request,
		&websocket.AcceptOptions{InsecureSkipVerify: true}, // dev-only
	)
	if err != nil {
		zap.L().Warn("devserver.ws_accept", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(4096)

	conn := &hubConn{id: uuid.NewString(), rawConn: rawConn}
	s.hub.Join(conn)
	go s.reader(context.Background(), viewer(ginCtx), conn)
}

func (s *Server) reader(ctx context.Context, user string, conn *hubConn) {
	defer s.hub.Leave(conn)

	for {
		var raw json.RawMessage
		if err := wsjson.Read(ctx, conn.rawConn, &raw); err != nil {
			return // client closed or errored
		}
		s.handleClientFrame(user, conn, raw)
	}
}

func (s *Server) handleClientFrame(user string, conn *hubConn, raw json.RawMessage) {
	var head struct {
		Type      string  `json:"type"`
		Value     float64 `json:"value"`
		AuctionID int64   `json:"auction_id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		_ = conn.writeJSON(gin.H{"error": "malformed frame"})
		return
	}

	switch head.Type {
	case "bid":
		amount, err := s.store.PlaceBid(head.AuctionID, user, head.Value, s.now())
		if err != nil {
			_ = conn.writeJSON(gin.H{"error": err.Error()})
			return
		}
		s.hub.Broadcast(gin.H{"type": model.EventBidUpdate, "auction_id": head.AuctionID, "value": amount})
	case "newPostRequest":
		post, ok := s.store.Latest()
		if !ok {
			_ = conn.writeJSON(gin.H{"error": "no posts yet"})
			return
		}
		payload, err := json.Marshal(post)
		if err != nil {
			return
		}
		s.hub.Broadcast(gin.H{"type": model.EventNewPost, "post": json.RawMessage(payload)})
	default:
		_ = conn.writeJSON(gin.H{"error": fmt.Sprintf("unknown frame type %q", head.Type)})
	}
}
