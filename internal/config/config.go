package config

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfighcl"
	"github.com/joho/godotenv"
)

// Храним в файле в формате hcl, любое поле можно переопределить переменной окружения с префиксом NDB_
type Config struct {
	TelegramBotToken  string `hcl:"telegram_bot_token" env:"TELEGRAM_BOT_TOKEN" required:"true"`
	TelegramChannelID int64  `hcl:"telegram_channel_id" env:"TELEGRAM_CHANNEL_ID" required:"true"`
	// Сколько сообщений в минуту разрешаем себе отправлять в канал
	MessagesPerMinute int `hcl:"messages_per_minute" env:"MESSAGES_PER_MINUTE" default:"20"`

	// groq, openai или gemini
	TextProvider          string        `hcl:"text_provider" env:"TEXT_PROVIDER" default:"groq"`
	TextAPIKey            string        `hcl:"text_api_key" env:"TEXT_API_KEY" required:"true"`
	TextModel             string        `hcl:"text_model" env:"TEXT_MODEL"`
	TextBaseURL           string        `hcl:"text_base_url" env:"TEXT_BASE_URL"`
	TextGenerationTimeout time.Duration `hcl:"text_generation_timeout" env:"TEXT_GENERATION_TIMEOUT" default:"60s"`

	CloudflareAPIToken     string        `hcl:"cloudflare_api_token" env:"CLOUDFLARE_API_TOKEN" required:"true"`
	CloudflareAccountID    string        `hcl:"cloudflare_account_id" env:"CLOUDFLARE_ACCOUNT_ID" required:"true"`
	CloudflareModel        string        `hcl:"cloudflare_model" env:"CLOUDFLARE_MODEL" default:"@cf/stabilityai/stable-diffusion-xl-base-1.0"`
	ImageGenerationTimeout time.Duration `hcl:"image_generation_timeout" env:"IMAGE_GENERATION_TIMEOUT" default:"90s"`
	ImageDownloadTimeout   time.Duration `hcl:"image_download_timeout" env:"IMAGE_DOWNLOAD_TIMEOUT" default:"10s"`
	// Идти ли на страницу статьи за картинкой, если в ленте ее нет
	LookupArticleImage bool `hcl:"lookup_article_image" env:"LOOKUP_ARTICLE_IMAGE" default:"true"`

	// 0 - без ограничений
	MaxTextGenerationsPerDay  int `hcl:"max_text_generations_per_day" env:"MAX_TEXT_GENERATIONS_PER_DAY" default:"0"`
	MaxImageGenerationsPerDay int `hcl:"max_image_generations_per_day" env:"MAX_IMAGE_GENERATIONS_PER_DAY" default:"0"`

	// Путь к yaml со списком лент и ключевых слов. Пусто - встроенный каталог
	CatalogPath  string        `hcl:"catalog_path" env:"CATALOG_PATH"`
	FetchTimeout time.Duration `hcl:"fetch_timeout" env:"FETCH_TIMEOUT" default:"15s"`

	PollIntervalMin time.Duration `hcl:"poll_interval_min" env:"POLL_INTERVAL_MIN" default:"120s"`
	PollIntervalMax time.Duration `hcl:"poll_interval_max" env:"POLL_INTERVAL_MAX" default:"300s"`
	PostDelayMin    time.Duration `hcl:"post_delay_min" env:"POST_DELAY_MIN" default:"6s"`
	PostDelayMax    time.Duration `hcl:"post_delay_max" env:"POST_DELAY_MAX" default:"11s"`
	CatchUpDelayMin time.Duration `hcl:"catch_up_delay_min" env:"CATCH_UP_DELAY_MIN" default:"4500ms"`
	CatchUpDelayMax time.Duration `hcl:"catch_up_delay_max" env:"CATCH_UP_DELAY_MAX" default:"8s"`
	EntriesPerFeed  int           `hcl:"entries_per_feed" env:"ENTRIES_PER_FEED" default:"30"`
	PostsPerCycle   int           `hcl:"posts_per_cycle" env:"POSTS_PER_CYCLE" default:"4"`
	CatchUpLimit    int           `hcl:"catch_up_limit" env:"CATCH_UP_LIMIT" default:"4"`
	RecencyGrace    time.Duration `hcl:"recency_grace" env:"RECENCY_GRACE" default:"90m"`

	// Расписание дайджестов в локальном времени Timezone
	Timezone         string        `hcl:"timezone" env:"TIMEZONE" default:"Asia/Bangkok"`
	MorningAt        string        `hcl:"morning_at" env:"MORNING_AT" default:"07:30"`
	NoonAt           string        `hcl:"noon_at" env:"NOON_AT" default:"12:45"`
	EveningAt        string        `hcl:"evening_at" env:"EVENING_AT" default:"20:00"`
	TriggerWindow    time.Duration `hcl:"trigger_window" env:"TRIGGER_WINDOW" default:"30s"`
	SchedulerTickMin time.Duration `hcl:"scheduler_tick_min" env:"SCHEDULER_TICK_MIN" default:"20s"`
	SchedulerTickMax time.Duration `hcl:"scheduler_tick_max" env:"SCHEDULER_TICK_MAX" default:"25s"`

	// file или postgres
	StateBackend string `hcl:"state_backend" env:"STATE_BACKEND" default:"file"`
	StateDir     string `hcl:"state_dir" env:"STATE_DIR"`
	DatabaseDSN  string `hcl:"database_dsn" env:"DATABASE_DSN"`

	// Пустой урл выключает публикацию событий
	AMQPURL      string `hcl:"amqp_url" env:"AMQP_URL"`
	AMQPExchange string `hcl:"amqp_exchange" env:"AMQP_EXCHANGE" default:"news_digest_bot"`

	// Пустой адрес выключает http мониторинг
	MonitoringAddr string `hcl:"monitoring_addr" env:"MONITORING_ADDR"`

	LogLevel  string `hcl:"log_level" env:"LOG_LEVEL" default:"info"`
	LogFormat string `hcl:"log_format" env:"LOG_FORMAT" default:"text"`
}

// cfg - инстанс конфига, once гарантирует что читать файлы и окружение будем один раз
var (
	cfg  Config
	once sync.Once
)

var DefaultFiles = []string{"./config.hcl", "./config.local.hcl"}

// Get возвращает конфиг процесса. Ошибки загрузки только логируются,
// проверку обязательных полей делает Validate при старте
func Get() Config {
	once.Do(func() {
		var err error
		cfg, err = Load(DefaultFiles...)
		if err != nil {
			log.Printf("[ERROR] failed to load config: %v", err)
		}
	})

	return cfg
}

// Load читает .env, затем файлы и переменные окружения
func Load(files ...string) (Config, error) {
	// .env может и не быть, это нормально
	_ = godotenv.Load()

	var c Config
	loader := aconfig.LoaderFor(&c, aconfig.Config{
		// Префикс, чтобы не пересечься с переменными окружения других программ
		EnvPrefix: "NDB",
		// Флаги разбирает cobra, aconfig в них не лезет
		SkipFlags: true,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".hcl": aconfighcl.New(),
		},
	})

	if err := loader.Load(); err != nil {
		return c, fmt.Errorf("load config: %w", err)
	}

	if c.StateDir == "" {
		c.StateDir = filepath.Join(xdg.StateHome, "news-digest-bot")
	}

	return c, nil
}

// Validate проверяет то, без чего бот запускаться не должен
func (c Config) Validate() error {
	var errs []error

	if c.TelegramBotToken == "" {
		errs = append(errs, errors.New("telegram_bot_token is required"))
	}
	if c.TelegramChannelID == 0 {
		errs = append(errs, errors.New("telegram_channel_id is required"))
	}
	if c.TextAPIKey == "" {
		errs = append(errs, errors.New("text_api_key is required"))
	}
	if c.CloudflareAPIToken == "" {
		errs = append(errs, errors.New("cloudflare_api_token is required"))
	}
	if c.CloudflareAccountID == "" {
		errs = append(errs, errors.New("cloudflare_account_id is required"))
	}

	switch strings.ToLower(c.TextProvider) {
	case "groq", "openai", "gemini":
	default:
		errs = append(errs, fmt.Errorf("text_provider %q is not supported (groq, openai, gemini)", c.TextProvider))
	}

	switch c.StateBackend {
	case "file":
	case "postgres":
		if c.DatabaseDSN == "" {
			errs = append(errs, errors.New("database_dsn is required for postgres state backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("state_backend %q is not supported (file, postgres)", c.StateBackend))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}

	for name, v := range map[string]string{"morning_at": c.MorningAt, "noon_at": c.NoonAt, "evening_at": c.EveningAt} {
		if _, _, err := ParseClock(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if c.PollIntervalMax < c.PollIntervalMin {
		errs = append(errs, errors.New("poll_interval_max must not be less than poll_interval_min"))
	}

	return errors.Join(errs...)
}

func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseClock разбирает время вида "07:30"
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q, want HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}
