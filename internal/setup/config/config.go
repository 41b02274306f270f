package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
	ErrMissingToken          = errors.New("discord token is not configured")
	ErrMissingGuildID        = errors.New("discord guild id is not configured")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v0.2.0"

// Current version of the config files.
const (
	CurrentCommonVersion = 1
	CurrentBotVersion    = 1
)

// EnvPrefix is stripped from environment variables that override config keys.
// Nested keys are separated by a double underscore, so
// RAIDBOT_BOT__DISCORD__TOKEN sets bot.discord.token.
const EnvPrefix = "RAIDBOT_"

// Legacy environment variables read by earlier releases.
const (
	LegacyTokenEnv   = "DISCORD_TOKEN"
	LegacyGuildIDEnv = "GUILD_ID"
)

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig `koanf:"common"`
	Bot    BotConfig    `koanf:"bot"`
}

// CommonConfig contains settings that are not specific to Discord.
type CommonConfig struct {
	// Version of the common config.
	Version int   `koanf:"version"`
	Debug   Debug `koanf:"debug"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
	// Also write logs to stderr.
	Console bool `koanf:"console"`
	// Forward error logs as OpenTelemetry spans.
	TraceErrors bool `koanf:"trace_errors"`
}

// BotConfig contains Discord bot specific configuration.
type BotConfig struct {
	// Version of the bot config.
	Version int `koanf:"version"`
	// Request timeout in milliseconds for REST calls.
	RequestTimeout int `koanf:"request_timeout"`
	// Discord configuration.
	Discord Discord `koanf:"discord"`
	// Summary embed configuration.
	Embed Embed `koanf:"embed"`
}

// Discord contains Discord connection configuration.
type Discord struct {
	// Bot token used to authenticate with the gateway.
	Token string `koanf:"token"`
	// Guild where the slash commands are registered.
	GuildID uint64 `koanf:"guild_id"`
	// Sign-up emoji added under each summary, in "name:id" form.
	SignUpEmojis []string `koanf:"sign_up_emojis"`
}

// Embed contains settings for the raid summary embed.
type Embed struct {
	// Embed side colour.
	Color int `koanf:"color"`
	// Footer text shown under every summary.
	Footer string `koanf:"footer"`
}

// DefaultSignUpEmojis are the 1_, 2_ and 3_ custom emoji of the home guild.
var DefaultSignUpEmojis = []string{
	"1_:503269083953758265",
	"2_:503269083731460107",
	"3_:503269084075393024",
}

// Default returns the configuration used for keys that no source sets.
func Default() Config {
	return Config{
		Common: CommonConfig{
			Version: CurrentCommonVersion,
			Debug: Debug{
				LogLevel:      "info",
				MaxLogsToKeep: 10,
				MaxLogLines:   10000,
			},
		},
		Bot: BotConfig{
			Version:        CurrentBotVersion,
			RequestTimeout: 10000,
			Embed: Embed{
				Color:  0x5865F2,
				Footer: "React 1, 2 or 3 to sign up that many characters",
			},
		},
	}
}

// DefaultSearchPaths lists where config files are looked up, in order.
func DefaultSearchPaths() []string {
	paths := []string{".raidbot"}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, homeDir+"/.raidbot/config")
	}

	return append(paths, "/etc/raidbot/config", "/app/config", "config", ".")
}

// LoadConfig loads configuration from the default search paths and the
// environment.
func LoadConfig() (*Config, string, error) {
	return Load(DefaultSearchPaths())
}

// Load reads common.toml and bot.toml from the first search path containing
// each, then applies environment overrides on top. Config files are optional
// so the bot can run from the environment alone, but a file that is present
// must carry the current version. The directory the first file was found in
// is returned alongside the config.
func Load(searchPaths []string) (*Config, string, error) {
	k := koanf.New(".")

	var usedConfigPath string

	loaded := make(map[string]bool)
	for _, configName := range []string{"common", "bot"} {
		for _, path := range searchPaths {
			configPath := fmt.Sprintf("%s/%s.toml", path, configName)
			if _, err := os.Stat(configPath); err != nil {
				continue
			}

			tree := koanf.New(".")
			if err := tree.Load(file.Provider(configPath), toml.Parser()); err != nil {
				return nil, "", fmt.Errorf("error loading %s: %w", configPath, err)
			}

			// Each file holds the keys of its own section
			if err := k.MergeAt(tree, configName); err != nil {
				return nil, "", fmt.Errorf("error merging %s: %w", configPath, err)
			}

			loaded[configName] = true
			if usedConfigPath == "" {
				usedConfigPath = path
			}

			break
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, "", fmt.Errorf("error loading environment: %w", err)
	}

	config := Default()

	// A loaded file must state its own version rather than inherit the default
	if loaded["common"] {
		config.Common.Version = 0
	}
	if loaded["bot"] {
		config.Bot.Version = 0
	}

	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Slices are merged element-wise on unmarshal, so the default list is only
	// applied when nothing was configured
	if len(config.Bot.Discord.SignUpEmojis) == 0 {
		config.Bot.Discord.SignUpEmojis = append([]string(nil), DefaultSignUpEmojis...)
	}

	if err := applyLegacyEnv(&config); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("bot", config.Bot.Version, CurrentBotVersion); err != nil {
		return nil, "", err
	}

	if err := config.Validate(); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// Validate reports missing settings the bot cannot start without.
func (c *Config) Validate() error {
	if c.Bot.Discord.Token == "" {
		return ErrMissingToken
	}

	if c.Bot.Discord.GuildID == 0 {
		return ErrMissingGuildID
	}

	return nil
}

// envKey maps RAIDBOT_BOT__DISCORD__GUILD_ID to bot.discord.guild_id.
// Empty variables are skipped.
func envKey(name, value string) (string, any) {
	if value == "" {
		return "", nil
	}

	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	return strings.ReplaceAll(key, "__", "."), value
}

// applyLegacyEnv fills the token and guild id from the variables used before
// config files existed. Explicit settings take precedence.
func applyLegacyEnv(config *Config) error {
	if config.Bot.Discord.Token == "" {
		config.Bot.Discord.Token = os.Getenv(LegacyTokenEnv)
	}

	if raw := os.Getenv(LegacyGuildIDEnv); raw != "" && config.Bot.Discord.GuildID == 0 {
		guildID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", LegacyGuildIDEnv, err)
		}
		config.Bot.Discord.GuildID = guildID
	}

	return nil
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/robalyx/raidbot/tree/%s/config/%s.toml",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
			RepositoryVersion,
			name,
		)
	}

	return nil
}
