package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sequenceit/proposaldesk/internal/config"
	"github.com/sequenceit/proposaldesk/internal/database"
	"github.com/sequenceit/proposaldesk/internal/rest"
	"github.com/sequenceit/proposaldesk/pkg/draft"
	log "github.com/sirupsen/logrus"
)

// Application wires configuration, database, router, and server lifecycle.
type Application struct {
	cfg     config.Application
	router  *mux.Router
	srv     *http.Server
	closeDB func()
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	repo, closeDB, err := OpenRepository(cfg.Database)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	deps := BuildDependencies(repo, cfg)
	SetupMiddleware(r, deps)
	RegisterRoutes(r, deps)

	if cfg.Frontend.Enabled {
		frontend := rest.NewFrontendHandler(cfg.Frontend.Dir, "index.html")
		r.PathPrefix("/").
			MatcherFunc(func(req *http.Request, _ *mux.RouteMatch) bool {
				return !strings.HasPrefix(req.URL.Path, "/api/")
			}).
			Methods("GET", "HEAD").
			Handler(frontend)
	}

	srv := &http.Server{
		Handler: r,
		Addr:    cfg.Server.Addr(),
		// Generation waits for the completions API.
		WriteTimeout: cfg.AI.Timeout + 15*time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, router: r, srv: srv, closeDB: closeDB}, nil
}

// OpenRepository connects to the configured database, applies migrations and
// returns the matching draft repository with a function that closes it.
func OpenRepository(cfg config.Database) (draft.Repository, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := database.Open(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(cfg); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Infof("using postgres database %s on %s:%d", cfg.Name, cfg.Host, cfg.Port)
		return draft.NewRepository(pool), pool.Close, nil
	case config.DriverSQLite:
		db, err := database.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := database.MigrateSQLite(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Infof("using sqlite database %s", cfg.Path)
		return draft.NewSQLiteRepository(db), func() { db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// Run serves until ctx is cancelled, then shuts the server down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer a.closeDB()

	errs := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", a.srv.Addr)
		errs <- a.srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.srv.Shutdown(shutdownCtx)
}

// Handler exposes the router, e.g. for tests.
func (a *Application) Handler() http.Handler {
	return a.router
}
