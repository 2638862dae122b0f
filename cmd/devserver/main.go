// Command devserver runs the in-memory stand-in for the auction board
// backend, pre-seeded with a few demo posts.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bidwatch/internal/config"
	"bidwatch/internal/devserver"
	"bidwatch/internal/model"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	srv := devserver.New(devserver.NewStore())
	srv.Seed(demoPosts())

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.DevServerPort))
	if err != nil {
		Log.Fatal("Listen failed", zap.Error(err))
	}
	httpSrv := &http.Server{Handler: srv.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			Log.Error("http_dispose", zap.Error(err))
		}
	}()

	Log.Info("Dev server listening", zap.Uint16("port", cfg.DevServerPort))
	if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		Log.Fatal("Serve failed", zap.Error(err))
	}
}

func demoPosts() []model.Post {
	now := time.Now()
	return []model.Post{
		{
			Title:         "Vintage camera",
			Description:   "35mm rangefinder, working meter.",
			Image:         "camera.jpg",
			Username:      "alice",
			StartingPrice: 40,
			EndTime:       now.Add(45 * time.Minute),
			Duration:      45,
		},
		{
			Title:         "Mechanical keyboard",
			Description:   "Lightly used, brown switches.",
			Image:         "keyboard.jpg",
			Username:      "bob",
			StartingPrice: 25,
			EndTime:       now.Add(2 * time.Hour),
			Duration:      120,
		},
	}
}
