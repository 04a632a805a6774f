package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const ENV_TELEGRAM_BOT_TOKEN = "TELEGRAM_BOT_TOKEN"
const ENV_STUDOCU_EMAIL = "STUDOCU_EMAIL"
const ENV_STUDOCU_PASSWORD = "STUDOCU_PASSWORD"

// Optional settings
const ENV_STUDOCU_BASE_URL = "STUDOCU_BASE_URL"
const ENV_PROXY_DSN = "PROXY_DSN"
const ENV_DATABASE_NAME = "DATABASE_NAME"
const ENV_TELEGRAM_ADMIN_CHAT_ID = "TG_ADMIN_CHAT_ID"
const ENV_LOG_LEVEL = "LOG_LEVEL"
const ENV_LOG_FILE = "LOG_FILE"
const ENV_LOGIN_ATTEMPT_RETENTION_DAYS = "LOGIN_ATTEMPT_RETENTION_DAYS"

const DEFAULT_STUDOCU_BASE_URL = "https://www.studocu.com"
const DEFAULT_DATABASE_NAME = "studocu_bot.db"
const DEFAULT_LOGIN_ATTEMPT_RETENTION_DAYS = 30

// RequiredEnvVars is the order missing keys are reported in.
var RequiredEnvVars = []string{ENV_TELEGRAM_BOT_TOKEN, ENV_STUDOCU_EMAIL, ENV_STUDOCU_PASSWORD}

type Config struct {
	TelegramBotToken          string
	StudocuEmail              string
	StudocuPassword           string
	StudocuBaseURL            string
	ProxyDSN                  string
	DatabaseName              string
	TelegramAdminChatIDs      []int64
	LogLevel                  string
	LogFile                   string
	LoginAttemptRetentionDays int
}

// ConfigError reports required environment variables that are unset or empty.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Missing, ", "))
}

// LoadConfig reads every setting once through lookup. It never fails; presence of the
// required keys is checked separately by Missing.
func LoadConfig(lookup func(string) string) *Config {
	config := &Config{
		TelegramBotToken: lookup(ENV_TELEGRAM_BOT_TOKEN),
		StudocuEmail:     lookup(ENV_STUDOCU_EMAIL),
		StudocuPassword:  lookup(ENV_STUDOCU_PASSWORD),
		StudocuBaseURL:   lookup(ENV_STUDOCU_BASE_URL),
		ProxyDSN:         lookup(ENV_PROXY_DSN),
		DatabaseName:     lookup(ENV_DATABASE_NAME),
		LogLevel:         lookup(ENV_LOG_LEVEL),
		LogFile:          lookup(ENV_LOG_FILE),
	}

	if config.StudocuBaseURL == "" {
		config.StudocuBaseURL = DEFAULT_STUDOCU_BASE_URL
	}
	config.StudocuBaseURL = strings.TrimRight(config.StudocuBaseURL, "/")

	if config.DatabaseName == "" {
		config.DatabaseName = DEFAULT_DATABASE_NAME
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	config.LoginAttemptRetentionDays = DEFAULT_LOGIN_ATTEMPT_RETENTION_DAYS
	if days, err := strconv.Atoi(lookup(ENV_LOGIN_ATTEMPT_RETENTION_DAYS)); err == nil && days > 0 {
		config.LoginAttemptRetentionDays = days
	}

	config.TelegramAdminChatIDs = parseChatIDs(lookup(ENV_TELEGRAM_ADMIN_CHAT_ID))

	return config
}

func ProvideConfig() *Config {
	return LoadConfig(os.Getenv)
}

// Missing returns the required keys that were unset or empty, in RequiredEnvVars order.
func (c *Config) Missing() []string {
	values := map[string]string{
		ENV_TELEGRAM_BOT_TOKEN: c.TelegramBotToken,
		ENV_STUDOCU_EMAIL:      c.StudocuEmail,
		ENV_STUDOCU_PASSWORD:   c.StudocuPassword,
	}
	missing := []string{}
	for _, name := range RequiredEnvVars {
		if values[name] == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// comma-separated, invalid entries are skipped
func parseChatIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
