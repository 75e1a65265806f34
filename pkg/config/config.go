package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/zhaopengme/recipeclaw/pkg/extract"
	"github.com/zhaopengme/recipeclaw/pkg/providers"
)

// TokenLifetime is how long Discord keeps an interaction token usable.
const TokenLifetime = 15 * time.Minute

const (
	QueueDriverRedis  = "redis"
	QueueDriverMemory = "memory"
)

type Config struct {
	Discord DiscordConfig
	Queue   QueueConfig
	Retry   RetryConfig
	Parser  ParserConfig
	YouTube YouTubeConfig
	Server  ServerConfig
	Log     LogConfig
	Worker  WorkerConfig
}

type DiscordConfig struct {
	PublicKey     string `env:"DISCORD_BOT_PUBLIC_KEY"`
	ApplicationID string `env:"DISCORD_BOT_APPLICATION_ID"`
	BotToken      string `env:"DISCORD_BOT_TOKEN"`
	ClientSecret  string `env:"DISCORD_CLIENT_SECRET"`
	APIBase       string `env:"DISCORD_API_BASE" envDefault:"https://discord.com/api/v10"`
}

type QueueConfig struct {
	Driver   string `env:"RECIPE_QUEUE_DRIVER" envDefault:"redis"`
	Stream   string `env:"RECIPE_QUEUE_STREAM" envDefault:"recipeclaw:followups"`
	Group    string `env:"RECIPE_QUEUE_GROUP" envDefault:"recipeclaw-workers"`
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
}

type RetryConfig struct {
	MaxAttempts    int     `env:"MAX_RETRIES" envDefault:"3"`
	DelaySeconds   float64 `env:"RETRY_DELAY" envDefault:"1"`
	TimeoutSeconds float64 `env:"TIMEOUT" envDefault:"30"`
}

type ParserConfig struct {
	Provider         string `env:"PARSER_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenAIModel      string `env:"OPENAI_MODEL_ID"`
	OpenAIAPIBase    string `env:"OPENAI_API_BASE"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel   string `env:"ANTHROPIC_MODEL_ID"`
	AnthropicAPIBase string `env:"ANTHROPIC_API_BASE"`
}

type YouTubeConfig struct {
	APIKey  string `env:"YOUTUBE_API_KEY"`
	APIBase string `env:"YOUTUBE_API_BASE"`
}

type ServerConfig struct {
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type WorkerConfig struct {
	Deadline time.Duration `env:"FOLLOWUP_DEADLINE" envDefault:"14m"`
}

// Load reads the given dotenv files (".env" when none are named) into the
// process environment without overriding it, then parses the environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading env file: %w", err)
	}
	return Parse()
}

func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	cfg.Queue.Driver = strings.ToLower(strings.TrimSpace(cfg.Queue.Driver))
	cfg.Parser.Provider = strings.ToLower(strings.TrimSpace(cfg.Parser.Provider))
	return &cfg, nil
}

func (r RetryConfig) EngineConfig() extract.Config {
	return extract.Config{
		MaxAttempts:    r.MaxAttempts,
		Delay:          seconds(r.DelaySeconds),
		AttemptTimeout: seconds(r.TimeoutSeconds),
	}
}

// Budget is the worst-case wall time of one extraction.
func (r RetryConfig) Budget() time.Duration {
	return time.Duration(r.MaxAttempts) * (seconds(r.TimeoutSeconds) + seconds(r.DelaySeconds))
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

func (p ParserConfig) ProvidersConfig() providers.Config {
	return providers.Config{
		Provider:         p.Provider,
		OpenAIAPIKey:     p.OpenAIAPIKey,
		OpenAIModel:      p.OpenAIModel,
		OpenAIAPIBase:    p.OpenAIAPIBase,
		AnthropicAPIKey:  p.AnthropicAPIKey,
		AnthropicModel:   p.AnthropicModel,
		AnthropicAPIBase: p.AnthropicAPIBase,
	}
}

// Validate checks the settings every subcommand shares.
func (c *Config) Validate() error {
	var errs []error
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("MAX_RETRIES must be at least 1, got %d", c.Retry.MaxAttempts))
	}
	if c.Retry.DelaySeconds < 0 {
		errs = append(errs, fmt.Errorf("RETRY_DELAY must not be negative, got %v", c.Retry.DelaySeconds))
	}
	if c.Retry.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("TIMEOUT must be positive, got %v", c.Retry.TimeoutSeconds))
	}
	if b := c.Retry.Budget(); b >= TokenLifetime {
		errs = append(errs, fmt.Errorf("retry budget %s does not fit the %s interaction token lifetime", b, TokenLifetime))
	}
	if c.Worker.Deadline <= 0 || c.Worker.Deadline > TokenLifetime {
		errs = append(errs, fmt.Errorf("FOLLOWUP_DEADLINE must be in (0, %s], got %s", TokenLifetime, c.Worker.Deadline))
	} else if b := c.Retry.Budget(); b >= c.Worker.Deadline {
		// a worst-case run would be cut off and reported as cancelled instead of exhausted
		errs = append(errs, fmt.Errorf("retry budget %s does not fit FOLLOWUP_DEADLINE %s", b, c.Worker.Deadline))
	}
	switch c.Queue.Driver {
	case QueueDriverRedis, QueueDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown RECIPE_QUEUE_DRIVER %q", c.Queue.Driver))
	}
	return errors.Join(errs...)
}

// ValidateServe also requires what the interactions endpoint needs.
func (c *Config) ValidateServe() error {
	var missing []string
	if c.Discord.PublicKey == "" {
		missing = append(missing, "DISCORD_BOT_PUBLIC_KEY")
	}
	if c.Discord.ApplicationID == "" {
		missing = append(missing, "DISCORD_BOT_APPLICATION_ID")
	}
	// the memory driver runs the worker in the same process
	if c.Queue.Driver == QueueDriverMemory {
		missing = append(missing, c.extractionMissing()...)
	}
	return errors.Join(c.Validate(), missingErr(missing))
}

// ValidateWorker also requires what the deferred extraction phase needs.
func (c *Config) ValidateWorker() error {
	var missing []string
	if c.Discord.ApplicationID == "" {
		missing = append(missing, "DISCORD_BOT_APPLICATION_ID")
	}
	missing = append(missing, c.extractionMissing()...)
	return errors.Join(c.Validate(), missingErr(missing))
}

// ValidateRegister requires the application id and one way to authenticate.
func (c *Config) ValidateRegister() error {
	var missing []string
	if c.Discord.ApplicationID == "" {
		missing = append(missing, "DISCORD_BOT_APPLICATION_ID")
	}
	if c.Discord.BotToken == "" && c.Discord.ClientSecret == "" {
		missing = append(missing, "DISCORD_BOT_TOKEN or DISCORD_CLIENT_SECRET")
	}
	return missingErr(missing)
}

// ValidateTry requires what a local extraction needs.
func (c *Config) ValidateTry() error {
	return errors.Join(c.Validate(), missingErr(c.extractionMissing()))
}

func (c *Config) extractionMissing() []string {
	var missing []string
	if c.YouTube.APIKey == "" {
		missing = append(missing, "YOUTUBE_API_KEY")
	}
	switch c.Parser.Provider {
	case "anthropic", "claude":
		if c.Parser.AnthropicAPIKey == "" {
			missing = append(missing, "ANTHROPIC_API_KEY")
		}
	default:
		if c.Parser.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	}
	return missing
}

func missingErr(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
}
