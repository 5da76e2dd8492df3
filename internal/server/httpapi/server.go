// Package httpapi exposes the note lifecycle over JSON HTTP and a websocket
// endpoint for live update relay.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dmitrijs2005/notesync/internal/logging"
	"github.com/dmitrijs2005/notesync/internal/server/autosave"
	"github.com/dmitrijs2005/notesync/internal/server/notes"
	"github.com/dmitrijs2005/notesync/internal/server/relay"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	address       string
	allowedOrigin string

	notes    *notes.Service
	autosave *autosave.Coordinator
	hub      *relay.Hub
	logger   logging.Logger

	echo *echo.Echo
}

func NewServer(address, allowedOrigin string, ns *notes.Service, ac *autosave.Coordinator, hub *relay.Hub, logger logging.Logger) *Server {
	s := &Server{
		address:       address,
		allowedOrigin: allowedOrigin,
		notes:         ns,
		autosave:      ac,
		hub:           hub,
		logger:        logger.With("module", "httpapi"),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}\n",
	}))

	corsConfig := middleware.DefaultCORSConfig
	if allowedOrigin != "" {
		corsConfig.AllowOrigins = []string{allowedOrigin}
	}
	e.Use(middleware.CORSWithConfig(corsConfig))

	e.GET("/", s.newNote)
	e.GET("/healthz", s.health)
	e.GET("/ws", s.handleWebsocket)

	e.GET("/api/note/:id", s.getNote)
	e.POST("/api/note/:id/save", s.saveNote)
	e.POST("/api/note/:id/force-save", s.forceSaveNote)
	e.DELETE("/api/note/:id", s.deleteNote)
	e.GET("/api/notes", s.listNotes)

	s.echo = e
	return s
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "stopping HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "starting HTTP server", "address", s.address)

	if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
