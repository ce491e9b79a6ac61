package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/apppayai/payflow/internal/server/handlers"
	"github.com/apppayai/payflow/internal/server/websocket"
	"github.com/apppayai/payflow/pkg/config"
)

// Server is the local quote simulator: the three backend HTTP contracts
// plus the websocket quote stream.
type Server struct {
	Cfg        *config.Config
	Logger     zerolog.Logger
	Router     *gin.Engine
	Hub        *websocket.Hub
	httpServer *http.Server
}

func New(cfg *config.Config, logger zerolog.Logger) *Server {
	if cfg.Server.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		Cfg:    cfg,
		Logger: logger,
		Router: gin.New(),
		Hub:    websocket.NewHub(cfg.Server.QuoteInterval, logger),
	}
}

func (s *Server) SetupRouter() {
	handler := handlers.New(s.Hub, s.Logger)
	handler.SetupHandlers(s.Router)
}

func (s *Server) Start() {
	s.SetupRouter()

	hubCtx, stopHub := context.WithCancel(context.Background())
	go s.Hub.Run(hubCtx)

	s.httpServer = &http.Server{
		Addr:         s.Cfg.Server.Host + ":" + s.Cfg.Server.Port,
		Handler:      s.Router,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	s.Logger.Info().Msgf("Starting quote simulator on %s", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-stopChan
	s.Logger.Info().Msg("Shutdown signal received, shutting down server...")

	stopHub()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.Logger.Error().Err(err).Msg("Server shutdown failed")
		return
	}

	s.Logger.Info().Msg("Server stopped cleanly")
}
