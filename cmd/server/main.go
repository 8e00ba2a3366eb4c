package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/Whiteboard/internal/adapters/http"
	sig "github.com/dkeye/Whiteboard/internal/adapters/signal"
	"github.com/dkeye/Whiteboard/internal/app"
	"github.com/dkeye/Whiteboard/internal/bus"
	"github.com/dkeye/Whiteboard/internal/config"
	"github.com/dkeye/Whiteboard/internal/core"
	"github.com/dkeye/Whiteboard/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode != "debug" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}

	seed := cfg.ColorSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	groups := app.NewGroups()
	opts := []app.Option{app.WithMembershipCheck(cfg.EnforceMembership)}

	var rb *bus.RedisBus
	if cfg.RedisAddr != "" {
		rb, err = bus.NewRedisBus(ctx, bus.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB, Channel: cfg.RedisChannel})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect")
		}
		defer rb.Close()
		opts = append(opts, app.WithPublisher(rb))
	}

	relay := app.NewRelay(
		app.NewRegistry(app.NewHSLColors(seed)),
		groups,
		app.NewRoomRouter(groups, app.SimplePolicy{Action: app.ParseBackpressure(cfg.Backpressure)}),
		opts...,
	)
	dispatcher := app.NewDispatcher(relay, cfg.Inbox)
	go dispatcher.Run(ctx)

	if rb != nil {
		go rb.Run(ctx)
		go rb.Subscribe(ctx, func(room domain.RoomID, frame core.Frame) {
			_ = dispatcher.Submit(ctx, core.Event{Name: core.EventRemote, Room: room, Frame: frame})
		})
		log.Info().Str("addr", cfg.RedisAddr).Str("channel", cfg.RedisChannel).Msg("redis bus enabled")
	}

	cr := router.NewCORS(cfg)
	ctrl := sig.NewSignalWSController(dispatcher, sig.Options{
		ReadLimit:   cfg.ReadLimit,
		PingPeriod:  cfg.PingPeriod,
		PongWait:    cfg.PongWait,
		SendBuffer:  cfg.SendBuffer,
		CheckOrigin: router.CheckOrigin(cr),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.SetupRouter(ctx, cfg, dispatcher, ctrl, cr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Whiteboard relay started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	select {
	case <-dispatcher.Done():
	case <-shutdownCtx.Done():
	}
	log.Info().Msg("Server exited gracefully")
}
