package main

import (
	"fmt"

	"github.com/Vuthangvt1405/studocu-bot/studocu"
	"github.com/sirupsen/logrus"
	"go.uber.org/dig"
)

func ProvideLogger(config *Config) (*logrus.Logger, *LogWriter) {
	return NewLogger(config)
}

func ProvideFieldLogger(logger *logrus.Logger) logrus.FieldLogger {
	return logger
}

// ProvideDatabaseService opens the database on first use, after config validation has passed
func ProvideDatabaseService(config *Config) *DatabaseService {
	return NewLazyDatabaseService(config.DatabaseName)
}

func ProvideLoginClientFactory(config *Config) LoginClientFactory {
	return func(email, password string) (LoginClient, error) {
		return studocu.NewStudocuClient(email, password, config.StudocuBaseURL, config.ProxyDSN)
	}
}

func ProvideCleanupScheduler(dbService *DatabaseService, config *Config, logger logrus.FieldLogger) *CleanupScheduler {
	return NewCleanupScheduler(dbService, config, logger)
}

func ProvideTelegramBot(config *Config, dbService *DatabaseService, scheduler *CleanupScheduler, logger logrus.FieldLogger) *TelegramBot {
	return NewTelegramBot(config, dbService, scheduler, logger)
}

func ProvideApplication(
	config *Config,
	logger logrus.FieldLogger,
	newLoginClient LoginClientFactory,
	bot *TelegramBot,
	dbService *DatabaseService,
	logWriter *LogWriter,
) *Application {
	app := NewApplication(config, logger, newLoginClient, bot, dbService)
	app.OnShutdown(dbService)
	app.OnShutdown(logWriter)
	return app
}

func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	if err := container.Provide(ProvideConfig); err != nil {
		return nil, fmt.Errorf("failed to provide config: %w", err)
	}

	if err := container.Provide(ProvideLogger); err != nil {
		return nil, fmt.Errorf("failed to provide logger: %w", err)
	}

	if err := container.Provide(ProvideFieldLogger); err != nil {
		return nil, fmt.Errorf("failed to provide field logger: %w", err)
	}

	if err := container.Provide(ProvideDatabaseService); err != nil {
		return nil, fmt.Errorf("failed to provide database service: %w", err)
	}

	if err := container.Provide(ProvideLoginClientFactory); err != nil {
		return nil, fmt.Errorf("failed to provide login client factory: %w", err)
	}

	if err := container.Provide(ProvideCleanupScheduler); err != nil {
		return nil, fmt.Errorf("failed to provide cleanup scheduler: %w", err)
	}

	if err := container.Provide(ProvideTelegramBot); err != nil {
		return nil, fmt.Errorf("failed to provide Telegram bot: %w", err)
	}

	if err := container.Provide(ProvideApplication); err != nil {
		return nil, fmt.Errorf("failed to provide application: %w", err)
	}

	return container, nil
}
