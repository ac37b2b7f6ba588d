// cmd/container.go
//
// Root composition root. Owns infrastructure (DB, Redis, email, jobs) and
// composes bounded-context containers. This is the only place that knows
// about ALL modules.
package main

import (
	"context"

	"github.com/Abraxas-365/keygate/pkg/config"
	"github.com/Abraxas-365/keygate/pkg/iam/iamcontainer"
	"github.com/Abraxas-365/keygate/pkg/jobx"
	"github.com/Abraxas-365/keygate/pkg/jobx/jobxredis"
	"github.com/Abraxas-365/keygate/pkg/logx"
	"github.com/Abraxas-365/keygate/pkg/notifx"
	"github.com/Abraxas-365/keygate/pkg/notifx/notifxconsole"
	"github.com/Abraxas-365/keygate/pkg/notifx/notifxses"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and composed module containers.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	DB       *sqlx.DB
	Redis    *redis.Client
	Notifier *notifx.Client
	Jobs     *jobx.Client

	// Bounded-context containers
	IAM *iamcontainer.Container
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initModules()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure — DB, Redis, email, job queue
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Database
	db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("  ✅ Database connected")

	// 2. Redis
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logx.Fatalf("Failed to connect to Redis: %v (Redis is required)", err)
	}
	logx.Info("  ✅ Redis connected")

	// 3. Email provider
	c.initEmailProvider()

	// 4. Job queue
	c.Jobs = jobx.NewClient(
		jobxredis.NewRedisQueue(c.Redis),
		jobx.WithQueues(c.Config.Jobx.Queues...),
		jobx.WithConcurrency(c.Config.Jobx.Concurrency),
		jobx.WithPollInterval(c.Config.Jobx.PollInterval),
		jobx.WithShutdownTimeout(c.Config.Jobx.ShutdownTimeout),
		jobx.WithDequeueTimeout(c.Config.Jobx.DequeueTimeout),
		jobx.WithDefaultRetryDelay(c.Config.Jobx.DefaultRetryDelay),
	)
	logx.Info("  ✅ Job queue configured")

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) initEmailProvider() {
	switch c.Config.Notifx.Provider {
	case "ses":
		awsCfg, err := awsConfig.LoadDefaultConfig(context.Background(),
			awsConfig.WithRegion(c.Config.Notifx.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		provider := notifxses.NewSESProvider(ses.NewFromConfig(awsCfg), c.Config.Notifx.FromAddress)
		c.Notifier = notifx.NewClient(provider)
		logx.Infof("  ✅ SES email provider configured (region: %s)", c.Config.Notifx.AWSRegion)

	case "console":
		c.Notifier = notifx.NewClient(notifxconsole.NewConsoleProvider())
		logx.Warn("  ⚠️  Using console email provider (emails are logged, not sent)")

	default:
		logx.Fatalf("Unknown NOTIFX_PROVIDER: %s (use 'console' or 'ses')", c.Config.Notifx.Provider)
	}
}

// ---------------------------------------------------------------------------
// Modules — bounded contexts
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	c.IAM = iamcontainer.New(iamcontainer.Deps{
		DB:       c.DB,
		Redis:    c.Redis,
		Cfg:      c.Config,
		Notifier: c.Notifier,
		Jobs:     c.Jobs,
	})
}

// StartBackgroundServices launches the job workers and the token cleanup
// loop. They run until ctx is cancelled.
func (c *Container) StartBackgroundServices(ctx context.Context) {
	go func() {
		if err := c.Jobs.Start(ctx); err != nil {
			logx.WithError(err).Error("job workers stopped with error")
		}
	}()
	go c.IAM.StartTokenCleanup(ctx, c.Config.Auth.CleanupInterval)
	logx.Info("✅ Background services started")
}

// Cleanup releases shared infrastructure.
func (c *Container) Cleanup() {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.WithError(err).Warn("failed to close database")
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.WithError(err).Warn("failed to close Redis client")
		}
	}
	logx.Info("🧹 Container cleaned up")
}
