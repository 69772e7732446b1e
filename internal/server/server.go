// Package server assembles the Fiber application: middleware stack, route
// table and operational endpoints.
package server

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"

	"booknest/internal/config"
	"booknest/internal/handlers"
	"booknest/internal/metrics"
	"booknest/internal/middleware"
	"booknest/internal/repositories"
	"booknest/internal/services"
)

// Deps are the collaborators the HTTP layer needs. DB is nil when the
// in-memory store is used.
type Deps struct {
	Config         config.Config
	DB             *gorm.DB
	AuthService    *services.AuthService
	UserService    *services.UserService
	LibraryService *services.LibraryService
	CatalogService *services.CatalogService
}

// NewApp builds the Fiber app with every route registered.
func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "booknest",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    8 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger())
	app.Use(metrics.Middleware())
	app.Use(cors.New(corsConfig(deps.Config.CORSOrigins)))

	app.Get("/health", healthHandler(deps.DB))
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	handlers.NewUserHandler(deps.AuthService, deps.UserService).RegisterRoutes(api)
	handlers.NewBookHandler(deps.CatalogService).RegisterRoutes(api, searchLimiter(deps.Config.SearchRateLimit)...)
	handlers.NewLibraryHandler(deps.AuthService, deps.LibraryService, deps.CatalogService).RegisterRoutes(api)

	return app
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, x-auth-token",
		AllowCredentials: true,
	}
	if len(origins) == 0 {
		cfg.AllowCredentials = false
		cfg.AllowOrigins = "*"
		return cfg
	}
	cfg.AllowOrigins = strings.Join(origins, ",")
	return cfg
}

// searchLimiter returns the per-IP catalog limiter, or nothing when the limit
// is disabled.
func searchLimiter(perMinute int) []fiber.Handler {
	if perMinute <= 0 {
		return nil
	}
	return []fiber.Handler{limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Too many requests, please try again later",
			})
		},
	})}
}

func healthHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		database := "up"
		if db != nil {
			if err := repositories.Ping(db); err != nil {
				database = "down"
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": database,
		})
	}
}
