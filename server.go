package main

import (
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uptrace/bunrouter"
)

// content is our static web server content.
//
//go:embed static
var StaticFs embed.FS

// Service holds classifier provider and pipeline used by HTTP handlers
type Service struct {
	provider *ModelProvider
	pipeline *Pipeline
}

// NewService creates service for given model configuration
func NewService(cfg ModelConfig, cacheSize int) (*Service, error) {
	provider, err := NewModelProvider(cfg)
	if err != nil {
		return nil, err
	}
	pipeline, err := NewPipeline(provider, cacheSize)
	if err != nil {
		return nil, err
	}
	return &Service{provider: provider, pipeline: pipeline}, nil
}

// bunrouter implementation of the compatible (with net/http) router handlers
func bunRouter(svc *Service) *bunrouter.CompatRouter {
	router := bunrouter.New(
		bunrouter.Use(bunrouterLoggingMiddleware),
		bunrouter.Use(bunrouterLimitMiddleware),
	).Compat()
	base := Config.Base
	router.GET(base+"/", svc.IndexHandler)
	router.POST(base+"/predict", svc.PredictHandler)
	router.GET(base+"/model", svc.ModelHandler)
	router.GET(base+"/status", svc.StatusHandler)
	router.GET(base+"/docs", DocsHandler)

	// static handlers
	for _, dir := range []string{"css"} {
		filesFS, err := fs.Sub(StaticFs, "static/"+dir)
		if err != nil {
			panic(err)
		}
		m := fmt.Sprintf("%s/%s", base, dir)
		fileServer := http.FileServer(http.FS(filesFS))
		hdlr := http.StripPrefix(m, fileServer)
		router.Router.GET(m+"/*path", bunrouter.HTTPHandler(hdlr))
	}
	return router
}

// helper function to resolve model configuration, attributes missing in
// server configuration are taken from MetaData database
func modelConfig() ModelConfig {
	cfg := Config.Model
	metadata, err := metaData()
	if err != nil {
		// meta-data database is not configured
		return cfg
	}
	rec, err := metadata.Record(cfg.Name, cfg.Version)
	if err != nil {
		log.Printf("unable to get meta-data of %s model, error %v", cfg.Name, err)
		return cfg
	}
	return rec.Apply(cfg)
}

// Server implements classification server
func Server() {

	// initialize server middleware
	if err := initLimiter(Config.LimiterPeriod); err != nil {
		log.Fatalf("unable to initialize limiter, error %v", err)
	}

	svc, err := NewService(modelConfig(), Config.CacheSize)
	if err != nil {
		log.Fatalf("unable to initialize service, error %v", err)
	}

	// acquire classifier before first upload arrives, requests which come
	// earlier wait for it
	go func() {
		if _, err := svc.provider.Acquire(context.Background()); err != nil {
			log.Println("ERROR: classifier is not available", err)
		}
	}()

	// setup server router
	router := bunRouter(svc)

	// start HTTPs server
	if len(Config.DomainNames) > 0 {
		server := LetsEncryptServer(Config.DomainNames...)
		server.Handler = router
		log.Println("Start HTTPs server with LetsEncrypt", Config.DomainNames)
		log.Fatal(server.ListenAndServeTLS("", ""))
	} else if Config.ServerCrt != "" && Config.ServerKey != "" {
		tlsConfig := &tls.Config{
			RootCAs: RootCAs(),
		}
		server := &http.Server{
			Addr:      fmt.Sprintf(":%d", Config.Port),
			TLSConfig: tlsConfig,
			Handler:   router,
		}
		log.Printf("Start HTTPs server with %s and %s on :%d", Config.ServerCrt, Config.ServerKey, Config.Port)
		log.Fatal(server.ListenAndServeTLS(Config.ServerCrt, Config.ServerKey))
	} else {
		server := &http.Server{
			Addr:    fmt.Sprintf(":%d", Config.Port),
			Handler: router,
		}
		go func() {
			log.Printf("Start HTTP server on :%d", Config.Port)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("HTTP server failed: %v", err)
			}
		}()
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
		}
	}
}
