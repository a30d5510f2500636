package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/kelseyhightower/envconfig"
	"github.com/samber/do"
	"github.com/serroba/golinks/internal/container"
	"github.com/serroba/golinks/internal/messaging"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
)

// Config is read from GOLINKS_* environment variables.
type Config struct {
	Storage      string `default:"postgres"       envconfig:"STORAGE"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	DatabaseFile string `default:"golinks.db"     envconfig:"DATABASE_FILE"`
	RedisAddr    string `default:"localhost:6379" envconfig:"REDIS_ADDR"`
	LogFormat    string `default:"console"        envconfig:"LOG_FORMAT"`
}

// options maps the consumer settings onto the server options. The consumer
// only reads the stream, so the remaining fields keep inert values.
func (c Config) options() *container.Options {
	return &container.Options{
		BaseURL:        "http://localhost",
		LogFormat:      c.LogFormat,
		Storage:        c.Storage,
		DatabaseURL:    c.DatabaseURL,
		DatabaseFile:   c.DatabaseFile,
		RedisAddr:      c.RedisAddr,
		Cache:          container.CacheNone,
		AuditSink:      container.AuditStream,
		RateLimitStore: container.StorageMemory,
		RedirectRate:   1,
	}
}

func main() {
	var cfg Config
	if err := envconfig.Process("golinks", &cfg); err != nil {
		log.Fatalf("read config: %v", err)
	}

	injector := do.New()
	do.ProvideValue(injector, cfg.options())
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.SQLitePackage(injector)
	container.RepositoryPackage(injector)
	container.MessagingPackage(injector)
	container.ConsumerGroupPackage(injector)

	logger, err := do.Invoke[*zap.Logger](injector)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	group, err := do.Invoke[*messaging.ConsumerGroup](injector)
	if err != nil {
		logger.Fatal("failed to build consumer group", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("audit consumer running", zap.String("storage", cfg.Storage))

	if err := group.Run(ctx); err != nil {
		logger.Error("consumer group stopped with error", zap.Error(err))
	}

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
