package app

import (
	"context"
	"time"

	"github.com/appetiteclub/apt"
	aptevents "github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/middleware"
	bridgeevents "github.com/appetiteclub/realtime/internal/events"
	"github.com/appetiteclub/realtime/internal/realtime"
	"github.com/appetiteclub/realtime/pkg"
	"github.com/appetiteclub/realtime/pkg/event"
)

const (
	AppName    = "realtime"
	AppVersion = "0.1.0"
)

// App encapsulates the realtime gateway application
type App struct {
	config *apt.Config
	logger apt.Logger
	micro  *apt.Micro
}

// New creates a new realtime gateway application
func New(config *apt.Config, logger apt.Logger) (*App, error) {
	return &App{
		config: config,
		logger: logger,
	}, nil
}

// Initialize sets up all dependencies and components
func (a *App) Initialize(ctx context.Context) error {
	verifier, err := a.tokenVerifier()
	if err != nil {
		return err
	}

	natsURL, _ := a.config.GetString("nats.url")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	// Presence events go out over NATS core regardless of the consume mode.
	publisher, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		return err
	}

	var (
		orderSub   aptevents.Subscriber
		kitchenSub aptevents.Subscriber
		closers    []func() error
	)
	closers = append(closers, publisher.Close)

	streamEnabled, _ := a.config.GetString("nats.stream.enabled")
	if streamEnabled == "true" {
		orderStream, err := pkg.NewNATSStream(pkg.NATSStreamConfig{
			URL:          natsURL,
			StreamName:   "ORDER_EVENTS",
			Topic:        event.OrderItemsTopic,
			ConsumerName: "realtime-orders",
			MaxAge:       24 * time.Hour,
		})
		if err != nil {
			return err
		}
		kitchenStream, err := pkg.NewNATSStream(pkg.NATSStreamConfig{
			URL:          natsURL,
			StreamName:   "KITCHEN_EVENTS",
			Topic:        event.KitchenTicketsTopic,
			ConsumerName: "realtime-kitchen",
			MaxAge:       24 * time.Hour,
		})
		if err != nil {
			return err
		}
		a.logger.Info("NATS streams initialized for broker consumption")
		orderSub = orderStream
		kitchenSub = kitchenStream
		closers = append(closers, orderStream.Close, kitchenStream.Close)
	} else {
		// Fallback to NATS core: fire-and-forget, development only.
		subscriber, err := pkg.NewNATSSubscriber(natsURL)
		if err != nil {
			return err
		}
		orderSub = subscriber
		kitchenSub = subscriber
		closers = append(closers, subscriber.Close)
	}

	hub := realtime.NewHub(a.logger)
	tracker := realtime.NewTracker(a.logger)
	authenticator := realtime.NewAuthenticator(verifier, a.logger)
	gateway := realtime.NewGateway(authenticator, hub, tracker, publisher, a.logger)
	handler := realtime.NewHandler(gateway, tracker, a.config, a.logger)

	ticketCache := bridgeevents.NewTicketCache(a.logger)
	bridge := bridgeevents.NewBridge(orderSub, kitchenSub, hub, ticketCache, a.logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      a.logger,
		DisableCORS: true,
	})

	lifecycles := []interface{}{bridge}
	lifecycles = append(lifecycles, apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			for _, closeFn := range closers {
				closeFn()
			}
			return nil
		},
	})

	options := []apt.Option{
		apt.WithConfig(a.config),
		apt.WithLogger(a.logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(AppName),
	}

	a.micro = apt.NewMicro(options...)
	return nil
}

// tokenVerifier builds the ed25519 verifier from config. Without a
// configured key an ephemeral pair is generated so the service still runs,
// but only guest connections will authenticate.
func (a *App) tokenVerifier() (realtime.TokenVerifier, error) {
	publicKey, _ := a.config.GetString("auth.token.key.public")
	if publicKey == "" {
		generated, _, err := realtime.GenerateKeyPair()
		if err != nil {
			return nil, err
		}
		a.logger.Info("auth.token.key.public not set, using an ephemeral key; staff tokens will not verify")
		publicKey = generated
	}
	return realtime.NewEd25519Verifier(publicKey)
}

// Run starts the application
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("Starting %s(%s)", AppName, AppVersion)
	if err := a.micro.Run(ctx); err != nil {
		return err
	}
	a.logger.Infof("%s(%s) stopped", AppName, AppVersion)
	return nil
}
