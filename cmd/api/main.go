// cmd/api/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpin "promptmint/internal/adapters/in/http"
	"promptmint/internal/adapters/in/http/middleware"
	"promptmint/internal/platform/di"
)

func main() {
	ctx := context.Background()

	// .env はあれば読む（本番は環境変数のみで動く）
	if err := godotenv.Load(); err != nil {
		log.Printf("[boot] no .env file loaded: %v", err)
	}

	// ─────────────────────────────────────────────────────────────
	// Lightweight healthz first so PORT is LISTENed quickly
	// ─────────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// ─────────────────────────────────────────────────────────────
	// DI container & heavy deps
	// ─────────────────────────────────────────────────────────────
	cont, err := di.NewContainer(ctx)
	if err != nil {
		log.Fatalf("[boot] di init failed: %v", err)
	}
	defer cont.Close()

	router := httpin.NewRouter(cont.RouterDeps())
	mux.Handle("/", router)

	// ─────────────────────────────────────────────────────────────
	// Global CORS wrapper (covers /healthz and app routes)
	// ─────────────────────────────────────────────────────────────
	handler := middleware.CORS(cont.Config.AllowedOrigin, mux)

	srv := &http.Server{
		Addr:    ":" + cont.Config.Port,
		Handler: handler,
	}

	// ─────────────────────────────────────────────────────────────
	// Graceful shutdown
	// ─────────────────────────────────────────────────────────────
	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		sig := <-c
		log.Printf("[boot] received signal: %v; shutting down...", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[boot] server shutdown error: %v", err)
		}
		close(idleConnsClosed)
	}()

	log.Printf("[boot] listening on :%s (origin=%s, model=%s)",
		cont.Config.Port, cont.Config.AllowedOrigin, cont.Config.ImageModel)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("[boot] server error: %v", err)
	}
	<-idleConnsClosed
}
