// Package bootstrap is the composition root: it builds every concrete
// client once per process and hands them to the components that need them.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/example/order-backend/internal/api"
	"github.com/example/order-backend/internal/auth"
	"github.com/example/order-backend/internal/config"
	"github.com/example/order-backend/internal/domain/order"
	"github.com/example/order-backend/internal/email"
	"github.com/example/order-backend/internal/events"
	"github.com/example/order-backend/internal/infrastructure/dynamo"
	"github.com/example/order-backend/internal/infrastructure/eventbridge"
	"github.com/example/order-backend/internal/infrastructure/kafka"
	"github.com/example/order-backend/internal/infrastructure/postgres"
	"github.com/example/order-backend/internal/infrastructure/sns"
	"github.com/example/order-backend/internal/infrastructure/sqs"
	"github.com/example/order-backend/internal/logger"
	"github.com/example/order-backend/internal/notification"
	"github.com/example/order-backend/internal/queue"
	"github.com/example/order-backend/internal/repository"
	"github.com/example/order-backend/internal/retry"
	"github.com/example/order-backend/internal/service"
	"github.com/example/order-backend/internal/validation"
	"go.uber.org/zap"
)

// App holds the wired components of one process.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Orders    *service.OrderService
	Registry  *events.Registry
	Processor *queue.Processor
	Routes    []api.Route

	closers []func() error
	aws     *aws.Config
}

// New loads configuration from configPath (or the default locations) and
// wires the application.
func New(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	app, err := Wire(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return app, nil
}

// Wire builds the application from an already loaded configuration.
func Wire(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: log}
	exec := retry.NewExecutor(retry.Options{
		MaxRetries:   cfg.Retry.MaxRetries,
		InitialDelay: cfg.Retry.InitialDelay,
		MaxDelay:     cfg.Retry.MaxDelay,
		Multiplier:   cfg.Retry.Multiplier,
	}, log.Named("retry"))

	repo, err := app.orderRepository(ctx, exec)
	if err != nil {
		app.Close()
		return nil, err
	}
	bus, err := app.eventBus(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	publisher := events.NewPublisher(bus, cfg.Bus.Source, cfg.Bus.Name, exec, log.Named("publisher"))
	app.Orders = service.NewOrderService(repo, publisher, exec, cfg.DynamoDB.CustomerIndex, log.Named("orders"))

	app.Processor = queue.NewProcessor(log.Named("worker"))
	queue.RegisterHandlers(app.Processor, app.Orders, email.NewService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From))

	sender, err := app.queueSender(ctx, exec)
	if err != nil {
		app.Close()
		return nil, err
	}
	notifier, err := app.notifier(ctx, exec)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Registry = events.NewRegistry(log.Named("events"))
	notification.NewHandler(notifier, sender, log.Named("notification")).Register(app.Registry)

	var jwtService *auth.JWTService
	if cfg.Auth.JWTSecret != "" {
		jwtService = auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	}
	app.Routes = api.Routes(api.RouterConfig{
		Handlers:   api.NewHandlers(app.Orders, cfg.App.Version),
		Validator:  validation.New(),
		JWTService: jwtService,
		Logger:     log.Named("api"),
	})

	log.Info("application wired",
		zap.String("store", cfg.Store.Backend),
		zap.String("bus", cfg.Bus.Backend),
		zap.Bool("queue", cfg.Queue.URL != ""),
		zap.Bool("notifications", cfg.Notification.TopicARN != ""),
		zap.Bool("auth", jwtService != nil))
	return app, nil
}

// Close releases clients in reverse order of creation and flushes the log.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}

func (a *App) awsConfig(ctx context.Context) (aws.Config, error) {
	if a.aws != nil {
		return *a.aws, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	a.aws = &cfg
	return cfg, nil
}

func (a *App) orderRepository(ctx context.Context, exec *retry.Executor) (repository.Repository[order.Order], error) {
	log := a.Logger.Named("repository")
	switch a.Config.Store.Backend {
	case "postgres":
		db, err := postgres.Connect(ctx, a.Config.Postgres.URL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return postgres.NewRepository(db, a.Config.Postgres.Collection, (*order.Order).Key, exec, log), nil
	default:
		awsCfg, err := a.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		endpoint := a.Config.DynamoDB.Endpoint
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if endpoint != "" {
				o.BaseEndpoint = aws.String(endpoint)
			}
		})
		return dynamo.NewRepository(client, a.Config.DynamoDB.Table, order.AttrOrderID, (*order.Order).Key, exec, log), nil
	}
}

func (a *App) eventBus(ctx context.Context) (events.Bus, error) {
	switch a.Config.Bus.Backend {
	case "kafka":
		producer := kafka.NewProducer(a.Config.Kafka.Brokers, a.Config.Kafka.Topic)
		a.closers = append(a.closers, producer.Close)
		return producer, nil
	default:
		awsCfg, err := a.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		return eventbridge.NewBus(awseventbridge.NewFromConfig(awsCfg)), nil
	}
}

// queueSender sends to SQS when a queue is configured and otherwise runs
// messages through the in-process worker.
func (a *App) queueSender(ctx context.Context, exec *retry.Executor) (queue.Sender, error) {
	if a.Config.Queue.URL == "" {
		return queue.NewInlineSender(a.Processor), nil
	}
	awsCfg, err := a.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	return sqs.NewProducer(awssqs.NewFromConfig(awsCfg), a.Config.Queue.URL, exec, a.Logger.Named("queue")), nil
}

func (a *App) notifier(ctx context.Context, exec *retry.Executor) (notification.Notifier, error) {
	if a.Config.Notification.TopicARN == "" {
		return notification.NewLogNotifier(a.Logger.Named("notification")), nil
	}
	awsCfg, err := a.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	return sns.NewNotifier(awssns.NewFromConfig(awsCfg), a.Config.Notification.TopicARN, exec, a.Logger.Named("notification")), nil
}
