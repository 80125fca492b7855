package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"flag"
	"html/template"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cinescope/cinescope/src/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML or JSON config file")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}
	cfg, err := config.LoadFrontend(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logCloser := config.SetupLogging(cfg.Log)
	defer logCloser.Close()

	log.Println("Starting cinescope Web Frontend...")

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		log.Fatalf("Template error: %v", err)
	}

	pages := &pageHandler{apiURL: cfg.APIURL, sessionCookie: cfg.SessionCookie, tmpl: tmpl}

	mux := http.NewServeMux()

	// 1. Pages
	pages.register(mux)

	// 2. Proxy API and auth requests to the API server
	target, err := url.Parse(cfg.APIURL)
	if err != nil {
		log.Fatal("Invalid API_URL: ", err)
	}
	proxy := httputil.NewSingleHostReverseProxy(target)

	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalDirector(req)
		req.Host = target.Host
	}

	mux.Handle("/api/", proxy)
	mux.Handle("/auth/", proxy)

	// 3. Client Logging
	mux.HandleFunc("/client-log", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			return
		}
		var msg map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&msg); err == nil {
			log.Printf("[CLIENT] %s: %v", msg["level"], msg["message"])
		}
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("Web Frontend listening on http://0.0.0.0:%s", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
