package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/ludo/service/internal/cache"
	"github.com/jason-s-yu/ludo/service/internal/config"
	"github.com/jason-s-yu/ludo/service/internal/game"
	"github.com/jason-s-yu/ludo/service/internal/protocol"
	"github.com/jason-s-yu/ludo/service/internal/ws"
	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Server bundles the router with the single game session it serves.
type Server struct {
	router     *way.Router
	hub        *ws.Hub
	session    *game.Session
	dispatcher *protocol.Dispatcher
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.SetLevel(cfg.Level())
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	entry := log.NewEntry(log.StandardLogger())
	hub := ws.NewHub(ws.NewAuthenticator(cfg.JWTSecret), cfg.AllowedOrigins, entry)
	sessionID := uuid.New()

	g, ctx := errgroup.WithContext(ctx)

	var out game.Outbox = hub
	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		mirror := cache.NewMirror(hub, rdb, cfg.RedisChannel, sessionID.String(), entry)
		g.Go(func() error { return mirror.Run(ctx) })
		out = mirror
		log.WithField("channel", cfg.RedisChannel).Info("mirroring broadcasts to redis")
	}

	session := game.NewSession(out,
		game.WithID(sessionID),
		game.WithRules(cfg.Rules()),
		game.WithLogger(entry),
	)
	s := &Server{
		hub:        hub,
		session:    session,
		dispatcher: protocol.NewDispatcher(session, out, entry),
	}
	s.routes()

	srv := &http.Server{Addr: cfg.Addr, Handler: s.router}
	g.Go(func() error {
		log.WithFields(log.Fields{"addr": cfg.Addr, "session": sessionID}).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		hub.CloseAll()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
