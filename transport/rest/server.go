package rest

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rocketscienceinc/t3ttt/internal/entity"
	"github.com/rocketscienceinc/t3ttt/internal/render"
)

const shutdownTimeout = 5 * time.Second

//go:embed templates/index.html
var templates embed.FS

type Server struct {
	logger     *slog.Logger
	socketPort string
	page       *template.Template
	handler    http.Handler
}

type pageData struct {
	Title      string
	SocketPort string
	Board      *render.BoardView
}

// New - builds the HTTP server for the page, health check and metrics.
// socketPort is handed to the page so it can reach the WebSocket server.
func New(logger *slog.Logger, socketPort string, gatherer prometheus.Gatherer) *Server {
	server := &Server{
		logger:     logger.With("component", "rest"),
		socketPort: socketPort,
		page:       template.Must(template.ParseFS(templates, "templates/index.html")),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", server.indexHandler)
	mux.HandleFunc("GET /ping", server.pingHandler)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	server.handler = chain(mux, withLogging(server.logger), withCORS())

	return server
}

func (that *Server) Handler() http.Handler {
	return that.handler
}

// Start - serves HTTP on port until ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) indexHandler(w http.ResponseWriter, _ *http.Request) {
	data := pageData{
		Title:      "T3TTT",
		SocketPort: that.socketPort,
		Board:      render.NewBoardView(entity.NewBoard()),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := that.page.Execute(w, data); err != nil {
		that.logger.Error("failed to render page", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
