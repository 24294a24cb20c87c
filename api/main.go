package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"agentlab/api/config"
	"agentlab/api/executor"
	"agentlab/api/handler"
	"agentlab/api/health"
	"agentlab/api/hub"
	"agentlab/api/lab"
	"agentlab/api/model"
	"agentlab/api/rag"
	"agentlab/api/storage"
	"agentlab/api/store"
)

func main() {
	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		// Boot anyway: the health aggregator reports the service as
		// unavailable and readiness stays 503 until the config is fixed.
		log.Printf("WARNING: configuration invalid (%v)", err)
	}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		log.Fatalf("model catalog: %v", err)
	}
	log.Printf("model catalog: %d models, default %s", len(catalog.Models), catalog.Default())

	// Database is optional; RAG endpoints answer 503 without it.
	var db *store.DB
	if cfg.DatabaseURL != "" {
		db, err = store.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		if err := store.Migrate(db); err != nil {
			log.Fatalf("migration: %v", err)
		}
	} else {
		log.Println("WARNING: no database configured, RAG endpoints disabled")
	}

	// S3 is optional; uploads fall back to the local upload dir.
	var s3Client *storage.Client
	if cfg.S3Endpoint != "" {
		s3Client, err = storage.NewClient(storage.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			log.Printf("WARNING: S3 storage unavailable (%v)", err)
			s3Client = nil
		} else if err := s3Client.EnsureBucket(context.Background(), cfg.S3Bucket); err != nil {
			log.Printf("WARNING: S3 bucket setup failed (%v)", err)
			s3Client = nil
		} else {
			log.Println("S3 storage connected at " + cfg.S3Endpoint)
		}
	}

	// WebSocket hub
	allowedOrigins := []string{"http://localhost:5173", "http://localhost:3000"}
	if cfg.AllowedOrigins != "" {
		for _, o := range strings.Split(cfg.AllowedOrigins, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	ws := hub.New(allowedOrigins)
	go ws.Run()

	// Lab client and executor
	labClient := lab.NewClient(cfg.LabAddr, cfg.LabTimeout, cfg.ProbeTimeout)
	exec := executor.New(labClient, hubSink{ws})

	// Health aggregator
	checker := health.New(cfg.HealthTimeout)
	checker.Register("config", true, func(ctx context.Context) error {
		return cfg.Validate()
	})
	checker.Register("lab", false, func(ctx context.Context) error {
		_, err := labClient.Probe(ctx)
		return err
	})
	if db != nil {
		checker.Register("postgres", false, db.Healthy)
	}
	if s3Client != nil {
		checker.Register("s3", false, s3Client.Healthy)
	}

	// RAG processor
	proc := &rag.Processor{
		DB:        db,
		WS:        ws,
		Objects:   s3Client,
		Bucket:    cfg.S3Bucket,
		UploadDir: cfg.UploadDir,
	}

	h := handler.New(exec, checker, catalog, cfg, db, proc, ws, s3Client)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/health/detailed", h.HealthDetailed)
		r.Get("/ready", h.Ready)
		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"version": Version})
		})

		r.Post("/execute", h.Execute)
		r.Get("/models", h.Models)

		r.Route("/rag", func(r chi.Router) {
			r.Post("/", h.CreateWorkspace)
			r.Get("/", h.ListWorkspaces)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetWorkspace)
				r.Delete("/", h.DeleteWorkspace)
				r.Post("/documents", h.UploadDocuments)
				r.Post("/duplicate", h.DuplicateWorkspace)
				r.Get("/status", h.ProcessingStatus)
			})
		})
	})

	r.Get("/ws", ws.HandleConnect)

	srv := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("agentlab %s listening on %s:%s (lab at %s)", Version, cfg.BindAddr, cfg.Port, cfg.LabAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}

func loadCatalog(cfg *config.Config) (*model.Catalog, error) {
	if cfg.ModelsFile != "" {
		return model.LoadCatalog(cfg.ModelsFile)
	}
	return model.CatalogFromNames(cfg.AllowedModels()), nil
}

// hubSink fans executor events out over the websocket hub.
type hubSink struct {
	ws *hub.Hub
}

func (s hubSink) Publish(evt executor.Event) {
	s.ws.Broadcast(hub.Event{
		Type:        evt.Type,
		ExecutionID: evt.ExecutionID,
		Payload:     evt.Payload,
	})
}
