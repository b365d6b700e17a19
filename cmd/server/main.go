package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"editor/internal/api"
	"editor/internal/config"
	"editor/internal/metrics"
	"editor/internal/notify"
	"editor/internal/routers"
	"editor/internal/session"
	"editor/internal/utils"
)

var (
	listenAndServe = http.ListenAndServe
	exitFunc       = func(err error) { log.Fatal(err) }
)

func run(_ context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger := utils.NewLogger()

	hub := session.NewHub()

	var announcer *notify.Announcer
	if cfg.RedisAddr != "" {
		announcer = notify.NewAnnouncer(cfg.RedisAddr, logger)
		go announcer.Subscribe(func(e notify.Event) {
			logger.Info("lifecycle event from peer instance", "type", e.Type, "room", e.RoomID, "instance", e.InstanceID)
		})
	}

	h := api.NewHandlers(logger, hub, announcer)

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)
	r.Use(metrics.Middleware("editor"))

	r.Mount("/", routers.New(h, cfg.AllowedOrigins))

	addr := ":" + cfg.Port
	log.Printf("editor-svc listening on %s", addr)
	return listenAndServe(addr, r)
}

func main() {
	if err := run(context.Background()); err != nil {
		exitFunc(err)
	}
}
