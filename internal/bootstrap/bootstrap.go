// Package bootstrap builds every collaborator the kiosk needs from
// configuration and hands them out as one Context.
package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"rumble-survey/internal/common/auth"
	awsclients "rumble-survey/internal/common/aws"
	"rumble-survey/internal/common/config"
	"rumble-survey/internal/common/database"
	"rumble-survey/internal/common/logger"
	"rumble-survey/internal/common/observability"
	"rumble-survey/internal/survey/bank"
	"rumble-survey/internal/survey/flow"
	"rumble-survey/internal/survey/identity"
	"rumble-survey/internal/survey/notify"
	"rumble-survey/internal/survey/sequencer"
	"rumble-survey/internal/survey/store"
	"rumble-survey/internal/survey/submission"
)

const (
	connectRetries = 5
	connectDelay   = time.Second
)

// Context holds the process-wide collaborators.
type Context struct {
	Config   *config.Config
	Log      logger.Logger
	Bank     *bank.Bank
	Store    store.Store // nil when no store is configured
	Identity identity.Provider
	Notifier notify.Notifier
	Obs      *observability.Observability
	Handler  *submission.Handler
	Machine  *flow.Machine

	redis   *database.RedisClient
	closers []func() error
}

// Option adjusts Init.
type Option func(*settings)

type settings struct {
	obs            *observability.Observability
	connectRetries int
	connectDelay   time.Duration
}

// WithObservability supplies a prebuilt Observability instead of registering
// a new exporter on the default prometheus registry.
func WithObservability(obs *observability.Observability) Option {
	return func(s *settings) { s.obs = obs }
}

// WithConnectRetries overrides the startup ping retry schedule.
func WithConnectRetries(n int, delay time.Duration) Option {
	return func(s *settings) { s.connectRetries, s.connectDelay = n, delay }
}

// Init wires the kiosk. Store credentials that are present but unreachable are
// logged and the store is kept: writes then fail with a retryable error the
// respondent sees. No credentials at all means degraded mode.
func Init(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Context, error) {
	s := settings{connectRetries: connectRetries, connectDelay: connectDelay}
	for _, opt := range opts {
		opt(&s)
	}

	c := &Context{Config: cfg, Log: log}
	ok := false
	defer func() {
		if !ok {
			_ = c.Close()
		}
	}()

	var err error
	if cfg.Survey.BankPath != "" {
		c.Bank, err = bank.LoadFile(cfg.Survey.BankPath)
		if err != nil {
			return nil, fmt.Errorf("load question bank: %w", err)
		}
	} else {
		c.Bank = bank.Default()
	}

	if cfg.Database.Redis.Address != "" {
		c.redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis client: %w", err)
		}
		c.closers = append(c.closers, c.redis.Close)
		c.ping(ctx, s, "Redis connection", c.redis.Ping)
	}

	if err := c.initStore(ctx, s); err != nil {
		return nil, err
	}
	c.initIdentity()
	if _, absent := c.Identity.(identity.Absent); absent && c.Store != nil {
		return nil, fmt.Errorf("the %s store needs an identity provider, got %q", c.Store.Backend(), cfg.Identity.Provider)
	}
	if err := c.initNotifier(ctx); err != nil {
		return nil, err
	}

	c.Obs = s.obs
	if c.Obs == nil {
		c.Obs, err = observability.New(cfg.App.Name)
		if err != nil {
			return nil, fmt.Errorf("observability: %w", err)
		}
	}
	c.closers = append(c.closers, func() error { return c.Obs.Shutdown(context.Background()) })

	userAgent := cfg.Survey.UserAgent
	if userAgent == "" {
		userAgent = submission.DefaultUserAgent(cfg.App.Version)
	}

	c.Handler = submission.NewHandler(
		submission.Config{Collection: cfg.Survey.Collection, UserAgent: userAgent},
		c.Store, c.Notifier, c.Obs, log,
	)
	c.Machine = &flow.Machine{
		Questions:       c.Bank.All,
		Rand:            sequencer.NewRand(cfg.Survey.Seed),
		Clock:           time.Now,
		Keys:            submission.NewKeys,
		Device:          submission.DescribeDevice(userAgent),
		ConfirmDelay:    config.GetDuration(cfg.Survey.ConfirmDelay),
		RequireIdentity: c.Store != nil,
	}

	if c.Store == nil {
		log.Warn("no response store configured, running in degraded mode", map[string]interface{}{
			"hint": "set database.postgres, database.elasticsearch or database.redis to persist responses",
		})
	} else {
		log.Info("response store ready", map[string]interface{}{
			"backend":    c.Store.Backend(),
			"collection": cfg.Survey.Collection,
			"identity":   c.Identity.Name(),
		})
	}

	ok = true
	return c, nil
}

func (c *Context) ping(ctx context.Context, s settings, name string, ping func(context.Context) error) {
	if err := database.RetryWithBackoff(ctx, ping, s.connectRetries, s.connectDelay, c.Log, name); err != nil {
		c.Log.WithError(err).Warn("store not reachable at startup, continuing", map[string]interface{}{"target": name})
	}
}

func (c *Context) initStore(ctx context.Context, s settings) error {
	cfg := c.Config

	switch cfg.Store.Backend {
	case config.BackendNone:
		return nil

	case config.BackendMemory:
		c.Store = store.NewMemory()

	case config.BackendPostgres:
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return fmt.Errorf("postgres client: %w", err)
		}
		st := store.NewPostgres(pg.DB)
		c.closers = append(c.closers, st.Close)
		c.ping(ctx, s, "PostgreSQL connection", pg.Ping)
		if err := st.EnsureSchema(ctx, cfg.Survey.Collection); err != nil {
			c.Log.WithError(err).Warn("could not create response table, will retry on first write", nil)
		}
		c.Store = st

	case config.BackendElasticsearch:
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return fmt.Errorf("elasticsearch client: %w", err)
		}
		st := store.NewElasticsearch(es.Client, cfg.Database.Elasticsearch.Pipeline)
		c.ping(ctx, s, "Elasticsearch connection", es.Ping)
		if err := st.EnsurePipeline(ctx); err != nil {
			c.Log.WithError(err).Warn("could not install ingest pipeline, will retry on first write", nil)
		}
		c.Store = st

	case config.BackendRedis:
		if c.redis == nil {
			return fmt.Errorf("redis store selected without database.redis.address")
		}
		c.Store = store.NewRedisStream(c.redis.Client)

	default:
		return fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	return nil
}

func (c *Context) initIdentity() {
	cfg := c.Config

	var registry *identity.Registry
	if c.redis != nil {
		registry = identity.NewRegistry(c.redis.Client, cfg.App.KioskID, time.Duration(cfg.Identity.CacheTTL)*time.Hour)
	}

	switch cfg.Identity.Provider {
	case config.IdentityKeycloak:
		kc := cfg.Identity.Keycloak
		client := auth.NewKeycloakClient(kc.URL, kc.Realm, kc.ClientID, kc.ClientSecret, config.GetDuration(kc.Timeout))
		c.Identity = identity.NewKeycloak(client, cfg.App.KioskID, registry, c.Log)
	case config.IdentityLocal:
		c.Identity = identity.NewLocal(registry, c.Log)
	default:
		c.Identity = identity.Absent{}
	}
}

func (c *Context) initNotifier(ctx context.Context) error {
	n := c.Config.Notifications
	if !n.SNS.Enabled && !n.SES.Enabled {
		c.Notifier = notify.Nop{}
		return nil
	}

	awsCfg, err := awsclients.LoadConfig(ctx, n.AWS.Region)
	if err != nil {
		return fmt.Errorf("aws config: %w", err)
	}

	var snsClient awsclients.SNSAPI
	var sesClient awsclients.SESAPI
	if n.SNS.Enabled {
		snsClient = awsclients.NewSNSClient(awsCfg)
	}
	if n.SES.Enabled {
		sesClient = awsclients.NewSESClient(awsCfg)
	}
	c.Notifier = notify.NewAWS(snsClient, sesClient, notify.Config{
		TopicARN:  n.SNS.TopicARN,
		FromEmail: n.SES.FromEmail,
		FrontDesk: n.SES.FrontDesk,
	})
	return nil
}

// Persisting reports whether submissions are written to a store.
func (c *Context) Persisting() bool {
	return c.Store != nil
}

// Mode describes the store in use for status output.
func (c *Context) Mode() string {
	if c.Store == nil {
		return "degraded (no response store)"
	}
	return "persisting to " + c.Store.Backend()
}

// Check pings the configured store once.
func (c *Context) Check(ctx context.Context) error {
	if c.Store == nil {
		return nil
	}
	return c.Store.Ping(ctx)
}

// Close waits for pending notifications and releases connections.
func (c *Context) Close() error {
	if c.Handler != nil {
		c.Handler.Wait()
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return stderrors.Join(errs...)
}
