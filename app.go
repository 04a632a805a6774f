package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const EXIT_OK = 0
const EXIT_ERROR = 1

type State int

const (
	StateInit State = iota
	StateEnvChecked
	StateLoginChecked
	StateRunning
	StateTerminatedOK
	StateTerminatedError
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateEnvChecked:
		return "ENV_CHECKED"
	case StateLoginChecked:
		return "LOGIN_CHECKED"
	case StateRunning:
		return "RUNNING"
	case StateTerminatedOK:
		return "TERMINATED_OK"
	case StateTerminatedError:
		return "TERMINATED_ERROR"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// LoginResult is the outcome of a credential probe. Reason is empty on success.
type LoginResult struct {
	OK     bool
	Reason string
}

type LoginClient interface {
	Login(ctx context.Context) (bool, error)
}

type LoginClientFactory func(email, password string) (LoginClient, error)

// BotRunner owns the process until ctx is cancelled.
type BotRunner interface {
	Run(ctx context.Context) error
}

type LoginAttemptRecorder interface {
	RecordLoginAttempt(email string, result LoginResult) error
}

type Application struct {
	config         *Config
	logger         logrus.FieldLogger
	newLoginClient LoginClientFactory
	bot            BotRunner
	recorder       LoginAttemptRecorder
	closers        []io.Closer

	stateMu sync.RWMutex
	state   State
}

// NewApplication wires the startup sequence. recorder may be nil.
func NewApplication(
	config *Config,
	logger logrus.FieldLogger,
	newLoginClient LoginClientFactory,
	bot BotRunner,
	recorder LoginAttemptRecorder,
) *Application {
	return &Application{
		config:         config,
		logger:         logger,
		newLoginClient: newLoginClient,
		bot:            bot,
		recorder:       recorder,
		state:          StateInit,
	}
}

// OnShutdown registers a resource closed by Shutdown, in registration order.
func (app *Application) OnShutdown(closer io.Closer) {
	app.closers = append(app.closers, closer)
}

func (app *Application) State() State {
	app.stateMu.RLock()
	defer app.stateMu.RUnlock()
	return app.state
}

func (app *Application) setState(state State) {
	app.stateMu.Lock()
	app.state = state
	app.stateMu.Unlock()
	app.logger.WithField("state", state.String()).Debug("Startup state changed")
}

// Run executes the startup sequence and returns the process exit code.
func (app *Application) Run(ctx context.Context) (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			app.logger.Errorf("Unexpected error: %v", r)
			app.setState(StateTerminatedError)
			exitCode = EXIT_ERROR
		}
	}()

	if ctx.Err() != nil {
		return app.stoppedByUser()
	}

	if err := app.ValidateConfig(); err != nil {
		return app.failed()
	}
	app.setState(StateEnvChecked)

	if ctx.Err() != nil {
		return app.stoppedByUser()
	}

	result := app.ProbeCredentials(ctx)
	if ctx.Err() != nil {
		return app.stoppedByUser()
	}
	if !result.OK {
		return app.failed()
	}
	app.setState(StateLoginChecked)

	app.setState(StateRunning)
	err := app.Launch(ctx)
	if ctx.Err() != nil {
		return app.stoppedByUser()
	}
	if err != nil {
		app.logger.Errorf("Unexpected error: %v", err)
		return app.failed()
	}

	app.logger.Info("Telegram bot exited, shutting down")
	app.setState(StateTerminatedOK)
	return EXIT_OK
}

// ValidateConfig fails with *ConfigError naming every missing required key.
func (app *Application) ValidateConfig() error {
	missing := app.config.Missing()
	if len(missing) == 0 {
		return nil
	}

	app.logger.Errorf("Missing required environment variables: %s", strings.Join(missing, ", "))
	app.logger.Error("Please check your .env file and ensure all required variables are set.")
	return &ConfigError{Missing: missing}
}

// ProbeCredentials logs exactly one line for the outcome. Client errors and panics become a failed result.
func (app *Application) ProbeCredentials(ctx context.Context) LoginResult {
	result, probeErr := app.probe(ctx)

	switch {
	case result.OK:
		app.logger.Info("Successfully authenticated with Studocu")
	case probeErr != nil:
		app.logger.Errorf("Error testing Studocu login: %s", result.Reason)
	default:
		app.logger.WithField("reason", result.Reason).Error("Failed to authenticate with Studocu. Please check your credentials.")
	}

	if app.recorder != nil {
		if err := app.recorder.RecordLoginAttempt(app.config.StudocuEmail, result); err != nil {
			app.logger.WithError(err).Warn("Failed to record login attempt")
		}
	}

	return result
}

func (app *Application) probe(ctx context.Context) (result LoginResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
			result = LoginResult{OK: false, Reason: err.Error()}
		}
	}()

	client, err := app.newLoginClient(app.config.StudocuEmail, app.config.StudocuPassword)
	if err != nil {
		return LoginResult{OK: false, Reason: err.Error()}, err
	}

	ok, err := client.Login(ctx)
	if err != nil {
		return LoginResult{OK: false, Reason: err.Error()}, err
	}
	if !ok {
		reason := "invalid credentials"
		if detailed, ok := client.(interface{ LastError() string }); ok && detailed.LastError() != "" {
			reason = detailed.LastError()
		}
		return LoginResult{OK: false, Reason: reason}, nil
	}

	return LoginResult{OK: true}, nil
}

// Launch hands control to the bot runtime. It blocks until the runtime returns.
func (app *Application) Launch(ctx context.Context) error {
	app.logger.Info("Starting Telegram bot...")
	return app.bot.Run(ctx)
}

func (app *Application) stoppedByUser() int {
	app.logger.Info("Bot stopped by user")
	app.setState(StateTerminatedOK)
	return EXIT_OK
}

func (app *Application) failed() int {
	app.setState(StateTerminatedError)
	return EXIT_ERROR
}

func (app *Application) Shutdown() {
	app.logger.Debug("Shutting down application...")

	for _, closer := range app.closers {
		if err := closer.Close(); err != nil {
			app.logger.WithError(err).Warn("Failed to close resource")
		}
	}
}
