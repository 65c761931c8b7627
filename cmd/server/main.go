// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/KennyPhan123/spicy-online/internal/auth"
	"github.com/KennyPhan123/spicy-online/internal/cache"
	"github.com/KennyPhan123/spicy-online/internal/handlers"
	"github.com/KennyPhan123/spicy-online/internal/middleware"
)

func main() {
	auth.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	// The action journal is optional. Without Redis the rooms run exactly the
	// same; there is just no history for the historian to archive.
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("Redis unavailable, action journal disabled: %v", err)
		cache.Rdb = nil
	}

	mux := http.NewServeMux()

	rs := handlers.NewRoomServer(logger)

	mux.Handle("/rooms/ws/", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.RoomWSHandler(logger, rs),
	)))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
