package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"review-analyzer/internal/domain"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	Source struct {
		BaseURL      string        `envconfig:"SOURCE_BASE_URL" default:"https://api.digikala.com/v1"`
		UserAgent    string        `envconfig:"SOURCE_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
		Timeout      time.Duration `envconfig:"SOURCE_TIMEOUT" default:"10s"`
		TitleTimeout time.Duration `envconfig:"SOURCE_TITLE_TIMEOUT" default:"5s"`
		MaxComments  int           `envconfig:"SOURCE_MAX_COMMENTS" default:"200"`
		SampleSize   int           `envconfig:"SOURCE_SAMPLE_SIZE" default:"100"`
		PageInterval time.Duration `envconfig:"SOURCE_PAGE_INTERVAL" default:"0s"`
	} `envconfig:""`

	LLM struct {
		Provider string        `envconfig:"LLM_PROVIDER" default:"openai"`
		APIKey   string        `envconfig:"AVALAI_API_KEY"`
		AltKey   string        `envconfig:"LLM_API_KEY"`
		BaseURL  string        `envconfig:"LLM_BASE_URL" default:"https://api.avalai.ir/v1"`
		Model    string        `envconfig:"LLM_MODEL" default:"gpt-4o"`
		Timeout  time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`
	} `envconfig:""`

	Gemini struct {
		APIKey string `envconfig:"GEMINI_API_KEY"`
		Model  string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	} `envconfig:""`

	Store struct {
		Driver     string `envconfig:"STORE_DRIVER" default:"sqlite"`
		SQLitePath string `envconfig:"SQLITE_PATH" default:"database/reviews.db"`
		PGDSN      string `envconfig:"PG_DSN"`
	} `envconfig:""`

	Pipeline struct {
		ItemDelay time.Duration `envconfig:"PIPELINE_ITEM_DELAY" default:"500ms"`
		LockTTL   time.Duration `envconfig:"PIPELINE_LOCK_TTL" default:"30m"`
	} `envconfig:""`

	Output struct {
		Dir string `envconfig:"OUTPUT_DIR" default:"outputs"`
	} `envconfig:""`

	S3 struct {
		Endpoint  string `envconfig:"S3_ENDPOINT"`
		Region    string `envconfig:"S3_REGION"`
		AccessKey string `envconfig:"S3_ACCESS_KEY"`
		SecretKey string `envconfig:"S3_SECRET_KEY"`
		Bucket    string `envconfig:"S3_BUCKET"`
		UseSSL    bool   `envconfig:"S3_USE_SSL" default:"true"`
	} `envconfig:""`

	Queue struct {
		Driver    string `envconfig:"QUEUE_DRIVER" default:"memory"`
		Name      string `envconfig:"ANALYSIS_QUEUE" default:"analysis_jobs"`
		RedisAddr string `envconfig:"REDIS_ADDR"`
		RabbitURL string `envconfig:"RABBITMQ_URL"`
	} `envconfig:""`

	Telegram struct {
		Token  string `envconfig:"TG_BOT_TOKEN"`
		ChatID int64  `envconfig:"TG_CHAT_ID"`
	} `envconfig:""`
}

// Load загружает конфиг из .env (если есть) и окружения.
func Load() (AppConfig, error) {
	_ = godotenv.Load()
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = cfg.LLM.AltKey
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	cfg.Queue.Driver = strings.ToLower(strings.TrimSpace(cfg.Queue.Driver))
	return cfg, nil
}

// RequireLLM проверяет, что для выбранного провайдера задан ключ.
func (c AppConfig) RequireLLM() error {
	switch c.LLM.Provider {
	case "openai", "":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%w: AVALAI_API_KEY is not set", domain.ErrConfiguration)
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY is not set", domain.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown LLM_PROVIDER %q", domain.ErrConfiguration, c.LLM.Provider)
	}
	return nil
}

// RequireStore проверяет настройки хранилища.
func (c AppConfig) RequireStore() error {
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("%w: SQLITE_PATH is empty", domain.ErrConfiguration)
		}
	case "postgres":
		if c.Store.PGDSN == "" {
			return fmt.Errorf("%w: PG_DSN is not set", domain.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown STORE_DRIVER %q", domain.ErrConfiguration, c.Store.Driver)
	}
	return nil
}

// UseS3 сообщает, что отчёты нужно хранить в объектном хранилище.
func (c AppConfig) UseS3() bool {
	return c.S3.Endpoint != "" && c.S3.Bucket != ""
}

// NotifyTelegram сообщает, что отчёт нужно отправить в Telegram.
func (c AppConfig) NotifyTelegram() bool {
	return c.Telegram.Token != "" && c.Telegram.ChatID != 0
}

// InProcessQueue сообщает, что очередь задач живёт в памяти одного процесса.
func (c AppConfig) InProcessQueue() bool {
	return c.Queue.Driver == "" || c.Queue.Driver == "memory"
}

// RequireSharedProgress проверяет, что при внешней очереди дашборд и воркер
// пишут прогресс в общий Redis.
func (c AppConfig) RequireSharedProgress() error {
	if c.InProcessQueue() || c.Queue.RedisAddr != "" {
		return nil
	}
	return fmt.Errorf("%w: REDIS_ADDR is required with QUEUE_DRIVER=%s", domain.ErrConfiguration, c.Queue.Driver)
}
