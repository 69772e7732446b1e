package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/streadway/amqp"
	"gorm.io/gorm"

	"booknest/internal/catalog"
	"booknest/internal/config"
	"booknest/internal/logging"
	"booknest/internal/repositories"
	"booknest/internal/server"
	"booknest/internal/services"
	"booknest/pkg/rabbitmq"
)

// userDeletedQueue receives user.deleted events for library cleanup.
const userDeletedQueue = "booknest.library.user-deleted"

// stores groups the repositories selected by DB_DRIVER. db is nil for the
// in-memory driver.
type stores struct {
	db      *gorm.DB
	users   repositories.UserRepository
	library repositories.LibraryRepository
	books   repositories.BookRepository
}

func openStores(cfg config.Config) (*stores, error) {
	if cfg.DBDriver == config.DriverMemory {
		logging.Warn().Msg("using in-memory storage; data is lost on restart")
		return &stores{
			users:   repositories.NewMockUserRepository(),
			library: repositories.NewMockLibraryRepository(),
			books:   repositories.NewMockBookRepository(),
		}, nil
	}

	db, err := repositories.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	return &stores{
		db:      db,
		users:   repositories.NewGORMUserRepository(db),
		library: repositories.NewGORMLibraryRepository(db),
		books:   repositories.NewGORMBookRepository(db),
	}, nil
}

func (s *stores) close() {
	if s.db == nil {
		return
	}
	if err := repositories.Close(s.db); err != nil {
		logging.Error().Err(err).Msg("error closing database")
	}
}

// application is the fully wired process.
type application struct {
	app     *fiber.App
	stores  *stores
	mq      *rabbitmq.Client
	library *services.LibraryService
}

// newApplication wires services and the HTTP app. mq may be nil.
func newApplication(cfg config.Config, st *stores, mq *rabbitmq.Client) *application {
	var publisher services.Publisher
	if mq != nil {
		publisher = mq
	}

	authService := services.NewAuthService(st.users, cfg.JWTSecret, cfg.TokenTTL)
	userService := services.NewUserService(st.users, publisher)
	libraryService := services.NewLibraryService(st.library, publisher)
	gateway := catalog.NewClient(catalog.Config{
		BaseURL: cfg.CatalogURL,
		APIKey:  cfg.CatalogAPIKey,
		Timeout: cfg.CatalogTimeout,
	})
	catalogService := services.NewCatalogService(gateway, st.books, libraryService)

	app := server.NewApp(server.Deps{
		Config:         cfg,
		DB:             st.db,
		AuthService:    authService,
		UserService:    userService,
		LibraryService: libraryService,
		CatalogService: catalogService,
	})

	return &application{app: app, stores: st, mq: mq, library: libraryService}
}

// startConsumers subscribes the library cleanup to user.deleted events.
func (a *application) startConsumers(ctx context.Context) error {
	if a.mq == nil {
		return nil
	}
	return a.mq.Consume(userDeletedQueue, services.EventUserDeleted, func(msg amqp.Delivery) error {
		return a.library.HandleUserDeleted(ctx, msg.Body)
	})
}

func connectBroker(cfg config.Config) (*rabbitmq.Client, error) {
	if cfg.RabbitMQURL == "" {
		logging.Info().Msg("RABBITMQ_URL not set; domain events disabled")
		return nil, nil
	}
	return rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.RabbitMQExchange})
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer st.close()

	// Consumers outlive the signal context: they are cancelled only after the
	// broker connection is closed, so no in-flight delivery sees a cancelled
	// context.
	consumerCtx, cancelConsumers := context.WithCancel(context.Background())
	defer cancelConsumers()

	mq, err := connectBroker(cfg)
	if err != nil {
		return err
	}
	if mq != nil {
		defer func() {
			if err := mq.Close(); err != nil {
				logging.Error().Err(err).Msg("error closing RabbitMQ client")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApplication(cfg, st, mq)
	if err := a.startConsumers(consumerCtx); err != nil {
		return fmt.Errorf("failed to start consumers: %w", err)
	}

	listenErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", cfg.AppPort).Str("driver", cfg.DBDriver).Msg("starting server")
		listenErr <- a.app.Listen(cfg.AppPort)
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down server")
	if err := a.app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logging.Error().Err(err).Msg("error during Fiber shutdown")
	}
	logging.Info().Msg("server gracefully stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("booknest exited")
		os.Exit(1)
	}
}
