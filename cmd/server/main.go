package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/calvinwijaya/dixit-be/internal/api"
	"github.com/calvinwijaya/dixit-be/internal/db"
	"github.com/calvinwijaya/dixit-be/internal/engine"
	"github.com/calvinwijaya/dixit-be/internal/store"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).ExecuteContext(ctx))
}

// openStore returns the game store named by the config, and the database
// behind it when there is one.
func openStore(cfg *Config) (store.Store, *db.Database, error) {
	if cfg.store == storeMemory {
		log.Println("In-memory game store initialized")
		return store.NewMemoryStore(), nil, nil
	}

	if cfg.store == db.DriverSQLite {
		// Create data directory if it doesn't exist
		if err := os.MkdirAll(filepath.Dir(cfg.dsn), 0755); err != nil {
			return nil, nil, err
		}
	}

	database, err := db.NewDatabase(cfg.store, cfg.dsn)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Database initialized successfully (%s)", cfg.store)
	return store.NewDatabaseStore(database), database, nil
}

func serve(ctx context.Context, cfg *Config) error {
	gameStore, database, err := openStore(cfg)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
	}

	e := engine.New(gameStore, engine.Config{
		Options: cfg.options(),
		Verbose: cfg.verbose,
	})

	// Set up router
	r := mux.NewRouter()
	api.NewHandlers(e, database).RegisterRoutes(r)

	// Add middleware for logging
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Printf("%s %s %s", r.Method, r.RequestURI, time.Since(start))
		})
	})

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.frontendURL},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
