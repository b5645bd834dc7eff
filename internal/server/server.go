// Package server hosts the studio: the builder page, its WebSocket event
// channel and the REST API over the workspace.
package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/livetemplate/studio/internal/assets"
	"github.com/livetemplate/studio/internal/builder"
	"github.com/livetemplate/studio/internal/config"
	"github.com/livetemplate/studio/internal/importer"
	"github.com/livetemplate/studio/internal/publish"
	"github.com/livetemplate/studio/internal/workspace"
)

// Server is the studio HTTP server.
type Server struct {
	cfg       *config.Config
	workspace *workspace.Workspace
	importer  *importer.Importer
	publisher *publish.Publisher
	sessions  *sessionRegistry
	validate  *validator.Validate

	log    *zap.Logger
	wsLog  *zap.Logger
	apiLog *zap.Logger

	clients   map[*client]bool
	clientsMu sync.RWMutex

	watcher *importer.Watcher
	cancel  context.CancelFunc
	handler http.Handler
}

// Option customizes a Server.
type Option func(*serverOptions)

type serverOptions struct {
	newState func() *builder.State
	logger   *zap.Logger
}

// WithStateFactory sets how builder sessions create their state.
func WithStateFactory(f func() *builder.State) Option {
	return func(o *serverOptions) { o.newState = f }
}

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *serverOptions) { o.logger = l }
}

// New creates a server editing ws.
func New(cfg *config.Config, ws *workspace.Workspace, pub *publish.Publisher, opts ...Option) *Server {
	o := serverOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:       cfg,
		workspace: ws,
		importer:  importer.New().WithMaxSize(cfg.Import.GetMaxSize()),
		publisher: pub,
		sessions:  newSessionRegistry(cfg.Session.GetTTL(), cfg.Session.GetCleanupInterval(), o.newState),
		validate:  newValidator(),
		log:       o.logger,
		wsLog:     o.logger.Named("ws"),
		apiLog:    o.logger.Named("api"),
		clients:   make(map[*client]bool),
		cancel:    cancel,
	}
	s.handler = s.routes(ctx)
	ws.OnChange(s.broadcastBuffers)
	return s
}

func (s *Server) routes(ctx context.Context) http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /api/buffers", s.handleGetBuffers)
	api.HandleFunc("PUT /api/buffers/{key}", s.handlePutBuffer)
	api.HandleFunc("POST /api/import/{target}", s.handleImport)
	api.HandleFunc("GET /api/preview", s.handlePreview)
	api.HandleFunc("GET /api/export", s.handleExport)
	api.HandleFunc("POST /api/publish", s.handlePublish)
	api.HandleFunc("GET /api/publications", s.handlePublications)

	rateLimit, _ := RateLimitMiddleware(ctx,
		s.cfg.API.GetRateLimitRPS(), s.cfg.API.GetRateLimitBurst(), s.cfg.API.GetMaxTrackedIPs(), s.apiLog)

	mux := http.NewServeMux()
	mux.Handle("/api/", CORSMiddleware(s.cfg.API.GetCORSOrigins())(rateLimit(api)))
	mux.HandleFunc("GET /ws/builder", s.serveBuilderWS)
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(assets.ClientFS()))))
	mux.HandleFunc("GET /favicon.ico", s.handleFavicon)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.serveIndex)

	return SecurityHeadersMiddleware()(CompressionMiddleware(mux))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// EnableWatch imports files dropped into dir.
func (s *Server) EnableWatch(dir string) error {
	w, err := importer.NewWatcher(dir, s.importer, s.workspace, s.log.Named("import"))
	if err != nil {
		return err
	}
	w.Start()
	s.watcher = w
	return nil
}

// Close stops background work started by the server.
func (s *Server) Close() error {
	s.cancel()
	if s.watcher != nil {
		return s.watcher.Stop()
	}
	return nil
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	data, err := assets.GetIndexHTML()
	if err != nil {
		http.Error(w, "builder page missing", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"project":  s.workspace.Project(),
		"sessions": s.sessions.count(),
		"clients":  s.ClientCount(),
	})
}
