package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildContainer_ResolvesApplication(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(ENV_TELEGRAM_BOT_TOKEN, "123:abc")
	t.Setenv(ENV_STUDOCU_EMAIL, "student@example.com")
	t.Setenv(ENV_STUDOCU_PASSWORD, "secret")
	t.Setenv(ENV_DATABASE_NAME, filepath.Join(dir, "bot.db"))
	t.Setenv(ENV_LOG_FILE, filepath.Join(dir, "logs", "bot.log"))

	container, err := BuildContainer()
	require.NoError(t, err)

	err = container.Invoke(func(app *Application, factory LoginClientFactory) {
		defer app.Shutdown()

		assert.Equal(t, StateInit, app.State())
		assert.NoError(t, app.ValidateConfig())
		assert.Len(t, app.closers, 2)

		client, err := factory("student@example.com", "secret")
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})
	assert.NoError(t, err)
}

func TestBuildContainer_BadProxyFailsFactory(t *testing.T) {
	t.Setenv(ENV_DATABASE_NAME, filepath.Join(t.TempDir(), "bot.db"))
	t.Setenv(ENV_PROXY_DSN, "://bad")

	container, err := BuildContainer()
	require.NoError(t, err)

	err = container.Invoke(func(factory LoginClientFactory) {
		_, err := factory("a", "b")
		assert.Error(t, err)
	})
	assert.NoError(t, err)
}

func TestBuildContainer_MissingEnvReportedBeforeDatabaseOpens(t *testing.T) {
	// sqlite does not create parent directories, so opening this path would fail
	dbPath := filepath.Join(t.TempDir(), "missing", "bot.db")

	t.Setenv(ENV_TELEGRAM_BOT_TOKEN, "123:abc")
	t.Setenv(ENV_STUDOCU_EMAIL, "student@example.com")
	t.Setenv(ENV_STUDOCU_PASSWORD, "")
	t.Setenv(ENV_DATABASE_NAME, dbPath)
	t.Setenv(ENV_LOG_FILE, "")

	container, err := BuildContainer()
	require.NoError(t, err)

	exitCode := EXIT_OK
	var hook *logtest.Hook
	err = container.Invoke(func(app *Application, logger *logrus.Logger) {
		defer app.Shutdown()
		hook = logtest.NewLocal(logger)
		exitCode = app.Run(context.Background())
	})
	require.NoError(t, err)

	assert.Equal(t, EXIT_ERROR, exitCode)
	var messages []string
	for _, entry := range hook.AllEntries() {
		messages = append(messages, entry.Message)
	}
	assert.Contains(t, messages, "Missing required environment variables: "+ENV_STUDOCU_PASSWORD)

	assert.NoFileExists(t, dbPath)
	assert.NoDirExists(t, filepath.Dir(dbPath))
}
