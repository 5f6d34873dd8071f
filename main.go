package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Dr-42/nexus-flix/api"
	"github.com/Dr-42/nexus-flix/chunk"
	"github.com/Dr-42/nexus-flix/config"
	"github.com/Dr-42/nexus-flix/encode"
	"github.com/Dr-42/nexus-flix/handlers"
	"github.com/Dr-42/nexus-flix/library"
	"github.com/Dr-42/nexus-flix/probe"
	"github.com/Dr-42/nexus-flix/tmdbcache"
	"github.com/Dr-42/nexus-flix/utils"
)

// defaultPort is used when no positional port argument is given
// (spec.md §6.1: "default 3000, first positional argument overrides").
const defaultPort = 3000

func main() {
	fmt.Println("nexus-flix starting...")

	port := defaultPort
	if len(os.Args) > 1 {
		v, err := strconv.Atoi(os.Args[1])
		if err != nil {
			log.Fatalf("invalid port argument %q: %v", os.Args[1], err)
		}
		port = v
	}

	apiKey := os.Getenv("TMDB_API_KEY")
	if apiKey == "" {
		log.Fatal("TMDB_API_KEY must be set")
	}

	dirs := config.ResolveDirs()
	for _, dir := range []string{dirs.ConfigDir, dirs.DataDir, dirs.CacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("failed to create %s: %v", dir, err)
		}
	}
	setupLogging(dirs.DataDir)

	cfgManager := config.NewManager(dirs.ConfigDir)
	roots, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	prober := probe.New(os.Getenv("FFPROBE_PATH"))
	runner := encode.New(os.Getenv("FFMPEG_PATH"))
	assembler := chunk.NewAssembler(prober, runner)

	metadataDir := filepath.Join(dirs.DataDir, "metadata")
	tmdbClient := tmdbcache.New(apiKey, metadataDir)
	imageCache := tmdbcache.NewImageCache(dirs.CacheDir)

	store := library.NewStore(dirs.DataDir)

	videoHandler := handlers.NewVideoHandler(prober, assembler)
	libraryHandler := handlers.NewLibraryHandler(store)
	fileListHandler := handlers.NewFileListHandler(func() config.LibraryRoots { return roots })
	tmdbHandler := handlers.NewTMDBHandler(apiKey, tmdbClient, imageCache)
	staticHandler := handlers.NewStaticHandler()

	limiter := api.NewIPRateLimiter(rate.Limit(10), 20)

	r := utils.NewRouter()
	r.Use(api.RecoveryMiddleware)
	r.Use(api.LoggingMiddleware)
	r.Use(func(next http.Handler) http.Handler { return api.RateLimitHandler(limiter, next) })

	r.HandleFunc("/", staticHandler.Index).Methods(http.MethodGet)
	r.PathPrefix("/public/").Handler(staticHandler).Methods(http.MethodGet)

	// /video streams the binary chunk envelope and /api/tmdb/image(s) are
	// already-compressed payloads; neither benefits from gzip, so only the
	// JSON-speaking routes below are wrapped with it.
	r.HandleFunc("/video", videoHandler.Chunk).Methods(http.MethodGet)
	r.Handle("/video-data", api.GzipMiddleware(http.HandlerFunc(videoHandler.Metadata))).Methods(http.MethodGet)
	r.Handle("/file_list", api.GzipMiddleware(http.HandlerFunc(fileListHandler.ServeHTTP))).Methods(http.MethodGet)

	r.Handle("/api/add-media", api.GzipMiddleware(http.HandlerFunc(libraryHandler.AddMedia))).Methods(http.MethodPost)
	r.Handle("/api/get-media", api.GzipMiddleware(http.HandlerFunc(libraryHandler.GetMedia))).Methods(http.MethodGet)
	r.Handle("/api/update-watch-history", api.GzipMiddleware(http.HandlerFunc(libraryHandler.UpdateWatchHistory))).Methods(http.MethodPost)
	r.Handle("/api/get-watch-history", api.GzipMiddleware(http.HandlerFunc(libraryHandler.GetWatchHistory))).Methods(http.MethodPost)
	r.Handle("/api/get-all-watch-history", api.GzipMiddleware(http.HandlerFunc(libraryHandler.GetAllWatchHistory))).Methods(http.MethodGet)

	r.Handle("/api/keys", api.GzipMiddleware(http.HandlerFunc(tmdbHandler.Keys))).Methods(http.MethodGet)
	r.HandleFunc("/api/tmdb/image/{size}/{path:.*}", tmdbHandler.Image).Methods(http.MethodGet)
	r.HandleFunc("/api/tmdb/placeholder/{width}/{height}/{text}", tmdbHandler.Placeholder).Methods(http.MethodGet)
	r.Handle("/api/tmdb/{rest:.*}", api.GzipMiddleware(http.HandlerFunc(tmdbHandler.Passthrough))).Methods(http.MethodGet)

	addr := fmt.Sprintf("0.0.0.0:%d", port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // chunk streaming has no fixed write deadline
		IdleTimeout:  120 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("shutdown signal received, cleaning up...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	log.Println("shutdown complete")
}

func setupLogging(dataDir string) {
	logFile := filepath.Join(dataDir, "nexus-flix.log")
	writer := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, writer))
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
