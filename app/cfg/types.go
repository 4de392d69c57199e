package cfg

import "time"

type Cfg struct {
	// Database configuration
	Storage    string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	FeedsFile       string
	MediaDir        string
	Port            string
	BaseUrl         string
	SchedulerAPIKey string
	DedupGenerated  bool

	// Bootstrap account
	BootstrapToken   string
	BootstrapCredits int

	// LLM provider
	OpenAIKey     string
	OpenAIBaseURL string
	ChatModel     string
	ImageModel    string

	// Optional integrations
	RedisAddr        string
	TelegramBotToken string

	// Outbound fetching
	UserAgent      string
	FeedTimeout    time.Duration
	ArticleTimeout time.Duration
	HeadTimeout    time.Duration
	ImageBatchSize int
	ImageBatchWait time.Duration
	ImageBackoff   float64

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}

func (c *Cfg) UsesMemoryStorage() bool {
	return c.Storage == "memory"
}

// PublicBaseURL returns the configured base URL or a localhost URL on the
// listening port.
func (c *Cfg) PublicBaseURL() string {
	if c.BaseUrl != "" {
		return c.BaseUrl
	}
	return "http://localhost:" + c.Port
}
