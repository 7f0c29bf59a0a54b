// Package config loads the agent's domain.Config from a YAML file layered
// with environment-variable overrides, the same "file, then env, then
// default" precedence the teacher's own pkg/config uses for its strategy
// settings.
package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
)

var configFilePath string

// SetConfigPath records the path Load will read from.
func SetConfigPath(path string) {
	configFilePath = path
}

// GetConfigPath returns the path previously set by SetConfigPath.
func GetConfigPath() string {
	return configFilePath
}

// Load reads the file at GetConfigPath (if set and present), merges it onto
// domain.Default(), then applies environment overrides and the missing/NaN
// migration pass. A missing or empty path is not an error — a blank config
// is valid per spec.md 6.
func Load() (domain.Config, error) {
	return LoadFromFile(configFilePath)
}

// LoadFromFile loads and merges filePath, tolerating a missing file.
func LoadFromFile(filePath string) (domain.Config, error) {
	cfg := domain.Default()

	if strings.TrimSpace(filePath) != "" {
		b, err := os.ReadFile(filePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, err
			}
		} else {
			var fromFile domain.Config
			if err := yaml.Unmarshal(b, &fromFile); err != nil {
				return cfg, err
			}
			cfg = cfg.Merge(fromFile)
		}
	}

	cfg = applyEnvOverrides(cfg)
	return domain.Migrate(cfg), nil
}

// applyEnvOverrides lets deployment secrets and a handful of operational
// toggles come from the environment rather than a checked-in file, matching
// the teacher's own getEnvOrUserJSON precedence (env wins over file for the
// fields it names).
func applyEnvOverrides(cfg domain.Config) domain.Config {
	cfg.APIToken = getEnvOrDefault("AGENT_API_TOKEN", cfg.APIToken)
	cfg.KillSwitchSecret = getEnvOrDefault("AGENT_KILL_SWITCH_SECRET", cfg.KillSwitchSecret)
	cfg.DiscordWebhookURL = getEnvOrDefault("AGENT_DISCORD_WEBHOOK_URL", cfg.DiscordWebhookURL)
	cfg.TelegramBotToken = getEnvOrDefault("AGENT_TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	cfg.TelegramChatID = getEnvOrDefault("AGENT_TELEGRAM_CHAT_ID", cfg.TelegramChatID)

	if v, ok := os.LookupEnv("AGENT_DRY_RUN"); ok {
		cfg.DryRun = parseBoolEnv(v, cfg.DryRun)
	}
	if v, ok := os.LookupEnv("AGENT_ENABLED"); ok {
		cfg.Enabled = parseBoolEnv(v, cfg.Enabled)
	}
	if v, ok := os.LookupEnv("AGENT_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
	return cfg
}

func getEnvOrDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func parseBoolEnv(v string, fallback bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
