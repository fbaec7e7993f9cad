package restserver

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/railstats/nsdisruptions/internal/dashboard"
	"github.com/railstats/nsdisruptions/internal/log"
	"github.com/railstats/nsdisruptions/pkg/config"
	"go.uber.org/zap"
)

// Controller serves the dashboard page, its assets and the JSON API
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTServerData
	Server     http.Server
	FS         fs.FS
	pipeline   *dashboard.Pipeline
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTServerData, pipeline *dashboard.Pipeline, logger *zap.SugaredLogger) (*Controller, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("REST server requires a dashboard pipeline")
	}
	if logger == nil {
		logger = log.Named("restserver")
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		pipeline:   pipeline,
		logger:     logger,
	}

	if rc.ListenAddr == "" {
		logger.Info("rest.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = "0.0.0.0"
	}
	if rc.Port == 0 {
		logger.Infof("rest.port not provided; defaulting to %d", config.DefaultHTTPPort)
		rc.Port = config.DefaultHTTPPort
	}
	if rc.PageTitle == "" {
		rc.PageTitle = config.DefaultPageTitle
	}
	ctrl.restConfig = rc

	assets, err := GetAssets()
	if err != nil {
		return nil, fmt.Errorf("error loading dashboard assets: %w", err)
	}
	ctrl.FS = assets

	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = ctrl.setupRouter()

	return ctrl, nil
}

// StartController starts the REST server and stops it when the context is cancelled
func (c *Controller) StartController() error {
	c.logger.Infof("starting REST server on %s", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.restConfig.Cert != "" && c.restConfig.Key != "" {
			if err := c.Server.ListenAndServeTLS(c.restConfig.Cert, c.restConfig.Key); err != http.ErrServerClosed {
				c.logger.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				c.logger.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(c.loggingMiddleware)

	router.NotFoundHandler = http.HandlerFunc(c.handlers.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(c.handlers.MethodNotAllowed)

	// API routes live on the root router so method mismatches answer 405
	router.HandleFunc("/api/controls", c.handlers.GetControls).Methods(http.MethodGet)
	router.HandleFunc("/api/dashboard", c.handlers.GetDashboard).Methods(http.MethodGet)
	router.HandleFunc("/api/chart.{format:png|svg}", c.handlers.GetChart).Methods(http.MethodGet)

	router.HandleFunc("/healthz", c.handlers.Healthz).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Template endpoints
	router.HandleFunc("/", c.handlers.ServeIndexTemplate).Methods(http.MethodGet)
	router.HandleFunc("/js/dashboard.js", c.handlers.ServeJS).Methods(http.MethodGet)

	// Static file serving
	router.PathPrefix("/css/").Handler(http.FileServer(http.FS(c.FS))).Methods(http.MethodGet, http.MethodHead)

	return router
}
