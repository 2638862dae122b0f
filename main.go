package main

import (
	"context"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bidwatch/internal/api"
	"bidwatch/internal/config"
	"bidwatch/internal/feed"
	"bidwatch/internal/live"
	"bidwatch/internal/term"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. REST client + terminal surface
	apiClient := api.NewClient(cfg.ServerURL)
	surface := term.NewSurface()

	// 4. Live update channel
	wsURL, err := websocketURL(cfg.ServerURL, cfg.WebsocketPath)
	if err != nil {
		Log.Fatal("Bad server URL", zap.Error(err))
	}
	router := live.NewRouter()
	channel := live.NewChannel(live.Config{
		URL:     wsURL,
		Backoff: live.ReconnectPolicy(cfg.ReconnectDelay, cfg.ReconnectAttempts),
		OnAlert: surface.Alert,
	}, router)
	defer channel.Close()

	// 5. Feed: bids go over the socket when it is open
	board := feed.New(apiClient, &feed.SocketBidder{Channel: channel}, surface, feed.Options{
		CurrentUser:     cfg.Username,
		CountdownPeriod: cfg.CountdownPeriod,
	})
	defer board.Stop()
	board.Bind(router)

	// 6. Initial fetch, then push + polling fallback
	if err := board.Refresh(ctx); err != nil {
		Log.Warn("Initial fetch failed", zap.Error(err))
	}
	if err := channel.Connect(ctx); err != nil {
		Log.Warn("Push connection failed, reconnect scheduled", zap.Error(err))
	}
	if cfg.PollInterval > 0 {
		live.Poll(ctx, cfg.PollInterval, func(ctx context.Context) {
			_ = board.Refresh(ctx)
		})
	}

	// 7. Redraw the terminal once per second until interrupted
	tk := time.NewTicker(time.Second)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			Log.Info("Shutting down")
			return
		case now := <-tk.C:
			surface.Flush(os.Stdout, now)
		}
	}
}

func websocketURL(serverURL, path string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/" + strings.TrimLeft(path, "/")
	return u.String(), nil
}
