package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/handlers"
)

func main() {
	service, err := app.NewService("config.toml")
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	var tokens *app.TokenManager
	if service.Auth.Redis() != nil {
		tokens = app.NewTokenManager(service.Auth.Redis())
	}

	optionHandler := handlers.NewOptionHandler(service)
	adminHandler := handlers.NewAdminHandler(service, tokens)

	http.HandleFunc("GET /api/v1/rounds/{round}/options", optionHandler.HandleGetOptions)
	http.HandleFunc("POST /api/v1/rounds/{round}/options/select", optionHandler.HandleSelectOption)

	http.HandleFunc("POST /api/v1/rounds/{round}/allocations", adminHandler.HandleAllocate)
	http.HandleFunc("GET /api/v1/rounds/{round}/pairings", adminHandler.HandleListPairings)
	http.HandleFunc("POST /api/v1/rounds/{round}/pairings", adminHandler.HandleCreatePairing)
	http.HandleFunc("DELETE /api/v1/rounds/{round}/pairings/{pairing}", adminHandler.HandleDeletePairing)
	http.HandleFunc("POST /api/v1/teams/{team}/token", adminHandler.HandleTeamToken)

	http.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting semla server on %s", service.Config.Server.Port)
	logger.Debug.Println("Requiring headers:")
	for _, h := range service.Config.API.RequiredHeaders {
		logger.Debug.Printf("  %s: %s", h.Name, h.Value)
	}
	if err := http.ListenAndServe(service.Config.Server.Port, nil); err != nil {
		logger.Error.Fatalf("Semla server failed: %v", err)
	}
}
