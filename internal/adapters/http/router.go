package http

import (
	"context"
	"net/http"

	"github.com/dkeye/Whiteboard/internal/adapters/signal"
	"github.com/dkeye/Whiteboard/internal/app"
	"github.com/dkeye/Whiteboard/internal/config"
	"github.com/dkeye/Whiteboard/internal/domain"
	"github.com/dkeye/Whiteboard/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

const HealthMessage = "Whiteboard relay is running"

// NewCORS builds the CORS policy from CORS_ORIGIN ("*" or a comma list).
func NewCORS(cfg *config.Config) *cors.Cors {
	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowCredentials: true,
	}
	if cfg.AllowAnyOrigin() {
		opts.AllowOriginFunc = func(string) bool { return true }
	} else {
		opts.AllowedOrigins = cfg.Origins()
	}
	return cors.New(opts)
}

// CheckOrigin admits websocket upgrades from allowed origins. Requests with
// no Origin header come from non-browser clients and are let through.
func CheckOrigin(c *cors.Cors) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if r.Header.Get("Origin") == "" {
			return true
		}
		return c.OriginAllowed(r)
	}
}

// SetupRouter wires the health check, websocket endpoint, room listing and
// metrics, all behind CORS.
func SetupRouter(ctx context.Context, cfg *config.Config, d *app.Dispatcher, ctrl *signal.SignalWSController, cr *cors.Cors) http.Handler {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, HealthMessage)
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.GET("/socket", func(c *gin.Context) {
		ctrl.HandleSignal(ctx, c)
	})

	api := r.Group("/api")

	// GET /api/rooms: live rooms with participant counts
	api.GET("/rooms", func(c *gin.Context) {
		var rooms []domain.RoomInfo
		if err := d.Query(c.Request.Context(), func(rl *app.Relay) { rooms = rl.Registry.Rooms() }); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rooms": rooms})
	})

	// GET /api/rooms/:roomId/users: roster as broadcast in userList, plus the
	// per-connection records and the number of connections in the room scope
	api.GET("/rooms/:roomId/users", func(c *gin.Context) {
		room := domain.RoomID(c.Param("roomId"))
		var (
			users        []domain.Identity
			participants []domain.Participant
			connections  int
		)
		err := d.Query(c.Request.Context(), func(rl *app.Relay) {
			users = rl.Registry.ListIdentities(room)
			participants = rl.Registry.Participants(room)
			connections = rl.Groups.Size(room)
		})
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		if participants == nil {
			participants = []domain.Participant{}
		}
		c.JSON(http.StatusOK, gin.H{
			"roomId":       room,
			"users":        users,
			"participants": participants,
			"connections":  connections,
		})
	})

	log.Info().Str("module", "adapters.http").Strs("origins", cfg.Origins()).Msg("router setup")
	return cr.Handler(r)
}
