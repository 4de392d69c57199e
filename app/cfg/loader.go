package cfg

import (
	"cmp"
	"fmt"
	"log/slog"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	Storage    string `long:"storage" env:"STORAGE" default:"postgres" choice:"postgres" choice:"memory" description:"Storage backend"`
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"adcomb" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" description:"Database password"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"adcomb" description:"Database name"`

	// Application configuration
	FeedsFile       string `long:"feeds-file" env:"FEEDS_FILE" default:"./feeds.yml" description:"YAML file seeding the RSS feed catalog"`
	MediaDir        string `long:"media-dir" env:"MEDIA_DIR" default:"./media" description:"Directory for generated images"`
	Port            string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl         string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://ads.example.com)"`
	SchedulerAPIKey string `long:"scheduler-key" env:"SCHEDULER_API_KEY" description:"Static key accepted by the scheduled update endpoint"`
	DedupGenerated  string `long:"dedup-generated" env:"DEDUP_GENERATED" default:"true" choice:"true" choice:"false" description:"Skip generated items whose source link already exists for the campaign"`

	// Bootstrap account
	BootstrapToken   string `long:"bootstrap-token" env:"BOOTSTRAP_TOKEN" description:"API token registered for an admin profile at startup (optional)"`
	BootstrapCredits int    `long:"bootstrap-credits" env:"BOOTSTRAP_CREDITS" default:"100" description:"Initial credits of the bootstrap profile"`

	// LLM provider
	OpenAIKey     string `long:"openai-key" env:"OPENAI_API_KEY" description:"API key for the LLM provider"`
	OpenAIBaseURL string `long:"openai-base-url" env:"OPENAI_BASE_URL" description:"Override for OpenAI-compatible endpoints"`
	ChatModel     string `long:"chat-model" env:"CHAT_MODEL" default:"gpt-4o-mini" description:"Chat model used for JSON generation"`
	ImageModel    string `long:"image-model" env:"IMAGE_MODEL" default:"dall-e-3" description:"Image generation model"`

	// Optional integrations
	RedisAddr        string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for the extracted image cache (optional)"`
	TelegramBotToken string `long:"telegram-token" env:"TELEGRAM_BOT_TOKEN" description:"Telegram bot token for update notifications (optional)"`

	// Outbound fetching
	UserAgent      string  `long:"user-agent" env:"USER_AGENT" description:"User agent string for outbound HTTP requests"`
	FeedTimeout    int     `long:"feed-timeout" env:"FEED_TIMEOUT" default:"10" description:"RSS feed fetch timeout in seconds"`
	ArticleTimeout int     `long:"article-timeout" env:"ARTICLE_TIMEOUT" default:"10" description:"Article page fetch timeout in seconds"`
	HeadTimeout    int     `long:"head-timeout" env:"HEAD_TIMEOUT" default:"5" description:"Image validation timeout in seconds"`
	ImageBatchSize int     `long:"image-batch-size" env:"IMAGE_BATCH_SIZE" default:"3" description:"Articles scraped concurrently per batch"`
	ImageBatchWait int     `long:"image-batch-wait" env:"IMAGE_BATCH_WAIT" default:"1000" description:"Pause between scrape batches in milliseconds"`
	ImageBackoff   float64 `long:"image-backoff" env:"IMAGE_BACKOFF" default:"1" description:"Multiplier applied to the batch pause after a batch with failures"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	// Values already present in the environment take precedence over .env
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded .env file")
	}

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := fromRaw(raw)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	return cfg, nil
}

func fromRaw(raw rawCfg) *Cfg {
	return &Cfg{
		Storage:          raw.Storage,
		DBHost:           raw.DBHost,
		DBPort:           raw.DBPort,
		DBUser:           raw.DBUser,
		DBPassword:       raw.DBPassword,
		DBName:           raw.DBName,
		FeedsFile:        raw.FeedsFile,
		MediaDir:         raw.MediaDir,
		Port:             raw.Port,
		BaseUrl:          raw.BaseUrl,
		SchedulerAPIKey:  raw.SchedulerAPIKey,
		DedupGenerated:   raw.DedupGenerated != "false",
		BootstrapToken:   raw.BootstrapToken,
		BootstrapCredits: max(raw.BootstrapCredits, 0),
		OpenAIKey:        raw.OpenAIKey,
		OpenAIBaseURL:    raw.OpenAIBaseURL,
		ChatModel:        raw.ChatModel,
		ImageModel:       raw.ImageModel,
		RedisAddr:        raw.RedisAddr,
		TelegramBotToken: raw.TelegramBotToken,
		UserAgent:        cmp.Or(raw.UserAgent, browserUserAgent),
		FeedTimeout:      seconds(raw.FeedTimeout, 10),
		ArticleTimeout:   seconds(raw.ArticleTimeout, 10),
		HeadTimeout:      seconds(raw.HeadTimeout, 5),
		ImageBatchSize:   max(raw.ImageBatchSize, 1),
		ImageBatchWait:   time.Duration(max(raw.ImageBatchWait, 0)) * time.Millisecond,
		ImageBackoff:     max(raw.ImageBackoff, 1),
		Timezone:         raw.Timezone,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}
}

func validate(cfg *Cfg) error {
	if !cfg.UsesMemoryStorage() && cfg.DBPassword == "" {
		return fmt.Errorf("database password is required for postgres storage")
	}
	return nil
}

func seconds(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
