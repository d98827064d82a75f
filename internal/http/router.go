package http

import (
	"database/sql"
	"time"

	"github.com/anismama/backend/internal/auth"
	"github.com/anismama/backend/internal/catalogue"
	"github.com/anismama/backend/internal/config"
	"github.com/anismama/backend/internal/http/handlers"
	"github.com/anismama/backend/internal/providers"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func NewServer(cfg config.Config, db *sql.DB, registry *providers.Registry, catalogueService *catalogue.Service) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
	})

	app.Use(recover.New())

	tokens := auth.TokenService{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.AppName,
		Duration: time.Duration(cfg.JWTTTLHours) * time.Hour,
	}

	health := handlers.NewHealthHandler(db)
	providerHandlers := handlers.NewProvidersHandler(registry)
	catalogueHandlers := handlers.NewCatalogueHandler(catalogueService, registry, db)
	mangaHandlers := handlers.NewMangasHandler(registry, catalogueService)
	libraryHandlers := handlers.NewLibraryHandler(db)
	recommendationHandlers := handlers.NewRecommendationsHandler(db, catalogueService)
	authHandlers := handlers.NewAuthHandler(db, tokens)

	app.Get("/health", health.Check)
	app.Get("/v1/health", health.Check)

	v1 := app.Group("/v1")
	v1.Post("/auth/signup", authHandlers.Signup)
	v1.Post("/auth/login", authHandlers.Login)

	v1.Get("/providers", providerHandlers.List)
	v1.Get("/catalogue", catalogueHandlers.List)
	v1.Get("/catalogue/search", catalogueHandlers.Search)
	v1.Get("/catalogue/random", auth.OptionalUser(tokens), catalogueHandlers.Random)

	v1.Get("/mangas/:id", mangaHandlers.Get)
	v1.Get("/mangas/:id/pages/:chapter/:page", mangaHandlers.PageImageURL)
	v1.Get("/mangas/:id/recommendations", mangaHandlers.Similar)

	requireUser := auth.RequireUser(tokens)
	v1.Get("/recommendations", requireUser, recommendationHandlers.Recommend)
	v1.Get("/library", requireUser, libraryHandlers.List)
	v1.Post("/mangas/:id/actions", requireUser, libraryHandlers.Actions)
	v1.Get("/mangas/:id/lastchapter", requireUser, libraryHandlers.LastChapter)

	return app
}
