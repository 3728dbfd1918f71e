package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"radetzky/config"
	"radetzky/handlers"
	"radetzky/middleware"
	"radetzky/services"
	"radetzky/websocket"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the backend API",
	Long: `Run the HTTP backend: /api/health, /api/stream-info, /api/proxy-stream,
/api/now-playing and the /api/ws/now-playing websocket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return StartWebServer(ctx, cfg)
	},
}

func init() {
	fs := serveCmd.Flags()
	fs.Int("port", 8080, "port to listen on")
	fs.String("status-url", "", "Icecast status-json.xsl URL")
	fs.Bool("check-availability", false, "probe the stream URLs before reporting them")
	flagFor(fs, "port", "server.port")
	flagFor(fs, "status-url", "station.status_url")
	flagFor(fs, "check-availability", "station.check_availability")
}

// Deps are the services the router serves
type Deps struct {
	Station services.StationService
	Proxy   services.StreamProxy
	Monitor services.Monitor
	Hub     websocket.Hub
}

// NewDeps builds the production services for cfg
func NewDeps(cfg *config.Config) Deps {
	hub := websocket.NewHub()
	station := services.NewStationService(cfg.Station)
	return Deps{
		Station: station,
		Proxy:   services.NewStreamProxy(),
		Monitor: services.NewMonitor(station, hub, cfg.Metadata.RefreshInterval, cfg.Metadata.Timeout),
		Hub:     hub,
	}
}

// StartWebServer starts the web server and blocks until ctx is done
func StartWebServer(ctx context.Context, cfg *config.Config) error {
	gin.SetMode(cfg.Server.Mode)

	deps := NewDeps(cfg)
	go deps.Hub.Run(ctx)
	deps.Monitor.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           NewRouter(cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("station", cfg.Station.Name).Msg("Radio player API starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Streams never finish on their own, so shutdown is bounded
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Forcing server close")
		return srv.Close()
	}
	log.Info().Msg("Server stopped")
	return nil
}

// NewRouter builds the gin engine with middleware and routes
func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	r := gin.New()

	// Apply middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))

	setupRoutes(r,
		handlers.NewHealthHandler(cfg.Station.Name),
		handlers.NewStreamInfoHandler(deps.Station),
		handlers.NewProxyHandler(deps.Proxy),
		handlers.NewNowPlayingHandler(deps.Monitor, deps.Hub),
	)
	return r
}

// setupRoutes configures all the HTTP routes
func setupRoutes(r *gin.Engine, healthHandler *handlers.HealthHandler, streamInfoHandler *handlers.StreamInfoHandler, proxyHandler *handlers.ProxyHandler, nowPlayingHandler *handlers.NowPlayingHandler) {
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", healthHandler.HealthCheck)
		apiGroup.GET("/stream-info", streamInfoHandler.StreamInfo)
		apiGroup.GET("/proxy-stream", proxyHandler.ProxyStream)
		apiGroup.GET("/now-playing", nowPlayingHandler.Latest)

		// WebSocket endpoint for now-playing updates
		apiGroup.GET("/ws/now-playing", nowPlayingHandler.HandleWebSocketConnection)

		// Preflight without an Origin header never reaches the CORS middleware's abort path
		apiGroup.OPTIONS("/*path", middleware.Preflight)
	}
}
