package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"sentiment-labeler/internal/logger"

	"gopkg.in/yaml.v3"
)

const (
	OutputCSV     = "csv"
	OutputParquet = "parquet"
	OutputBoth    = "both"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

func (s S3Config) Enabled() bool {
	return strings.TrimSpace(s.Bucket) != ""
}

// CloudWatchConfig enables run metrics when Namespace is set.
type CloudWatchConfig struct {
	Namespace string `yaml:"namespace"`
	Region    string `yaml:"region"`
}

type Config struct {
	DatabaseURL string   `yaml:"database_url"`
	DB          DBConfig `yaml:"db"`

	LookbackHours      int     `yaml:"lookback_hours"`
	SentimentThreshold float64 `yaml:"sentiment_threshold"`
	DedupPolicy        string  `yaml:"dedup_policy"`

	OutputDir    string `yaml:"output_dir"`
	OutputFormat string `yaml:"output_format"`
	ChartWidth   int    `yaml:"chart_width"`
	ChartHeight  int    `yaml:"chart_height"`
	StrictExit   bool   `yaml:"strict_exit"`

	S3 S3Config `yaml:"s3"`

	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`

	RedisURL         string `yaml:"redis_url"`
	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChatID   int64  `yaml:"telegram_chat_id"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogFile   string `yaml:"log_file"`
}

// Load builds the configuration from defaults, an optional YAML file named by
// LABELER_CONFIG, and finally environment variables. Invalid values are
// reported and replaced by their defaults.
func Load() *Config {
	log := logger.GetLogger().WithComponent("config")

	cfg := defaults()
	if path := strings.TrimSpace(os.Getenv("LABELER_CONFIG")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			log.Warnf("Warning: ignoring config file %s: %v", path, err)
		}
	}

	envString("DATABASE_URL", &cfg.DatabaseURL)
	envString("DB_HOST", &cfg.DB.Host)
	envInt("DB_PORT", &cfg.DB.Port)
	envString("DB_NAME", &cfg.DB.Name)
	envString("DB_USER", &cfg.DB.User)
	envString("DB_PASSWORD", &cfg.DB.Password)
	envString("DB_SSLMODE", &cfg.DB.SSLMode)
	envInt("DB_MAX_CONNS", &cfg.DB.MaxConns)

	envInt("LOOKBACK_HOURS", &cfg.LookbackHours)
	envFloat("SENTIMENT_THRESHOLD", &cfg.SentimentThreshold)
	envString("DEDUP_POLICY", &cfg.DedupPolicy)

	envString("OUTPUT_DIR", &cfg.OutputDir)
	envString("OUTPUT_FORMAT", &cfg.OutputFormat)
	envInt("CHART_WIDTH", &cfg.ChartWidth)
	envInt("CHART_HEIGHT", &cfg.ChartHeight)
	envBool("STRICT_EXIT", &cfg.StrictExit)

	envString("S3_BUCKET", &cfg.S3.Bucket)
	envString("S3_PREFIX", &cfg.S3.Prefix)
	envString("S3_REGION", &cfg.S3.Region)
	envString("S3_ENDPOINT", &cfg.S3.Endpoint)
	envBool("S3_PATH_STYLE", &cfg.S3.PathStyle)
	envString("AWS_ACCESS_KEY_ID", &cfg.S3.AccessKeyID)
	envString("AWS_SECRET_ACCESS_KEY", &cfg.S3.SecretAccessKey)

	envString("CLOUDWATCH_NAMESPACE", &cfg.CloudWatch.Namespace)
	envString("CLOUDWATCH_REGION", &cfg.CloudWatch.Region)

	envString("REDIS_URL", &cfg.RedisURL)
	envString("TELEGRAM_BOT_TOKEN", &cfg.TelegramBotToken)
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = n
		} else {
			log.Warnf("Warning: invalid TELEGRAM_CHAT_ID=%q", v)
		}
	}

	envString("LOG_LEVEL", &cfg.LogLevel)
	envString("LOG_FORMAT", &cfg.LogFormat)
	envString("LOG_FILE", &cfg.LogFile)

	cfg.sanitize(log)
	return cfg
}

func defaults() *Config {
	return &Config{
		DB: DBConfig{
			Host:     "localhost",
			Port:     5432,
			Name:     "postgres",
			User:     "postgres",
			Password: "postgres",
			SSLMode:  "prefer",
			MaxConns: 4,
		},
		LookbackHours:      24,
		SentimentThreshold: 0.8,
		DedupPolicy:        "first-stored",
		OutputDir:          ".",
		OutputFormat:       OutputCSV,
		ChartWidth:         1000,
		ChartHeight:        600,
		S3: S3Config{
			Region: "us-east-1",
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}

func (c *Config) sanitize(log *logger.Entry) {
	d := defaults()

	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		log.Warnf("Warning: invalid DB_PORT %d, defaulting to %d", c.DB.Port, d.DB.Port)
		c.DB.Port = d.DB.Port
	}
	if c.DB.MaxConns <= 0 {
		c.DB.MaxConns = d.DB.MaxConns
	}
	if c.LookbackHours <= 0 {
		log.Warnf("Warning: invalid LOOKBACK_HOURS, defaulting to %d", d.LookbackHours)
		c.LookbackHours = d.LookbackHours
	}
	if c.SentimentThreshold < -1 || c.SentimentThreshold >= 1 {
		log.Warnf("Warning: SENTIMENT_THRESHOLD %.3f outside [-1, 1), defaulting to %.1f", c.SentimentThreshold, d.SentimentThreshold)
		c.SentimentThreshold = d.SentimentThreshold
	}
	if strings.TrimSpace(c.DedupPolicy) == "" {
		c.DedupPolicy = d.DedupPolicy
	}

	if strings.TrimSpace(c.OutputDir) == "" {
		c.OutputDir = d.OutputDir
	}
	c.OutputFormat = strings.ToLower(strings.TrimSpace(c.OutputFormat))
	switch c.OutputFormat {
	case OutputCSV, OutputParquet, OutputBoth:
	default:
		log.Warnf("Warning: unsupported OUTPUT_FORMAT=%q, defaulting to %s", c.OutputFormat, OutputCSV)
		c.OutputFormat = OutputCSV
	}
	if c.ChartWidth <= 0 {
		c.ChartWidth = d.ChartWidth
	}
	if c.ChartHeight <= 0 {
		c.ChartHeight = d.ChartHeight
	}

	c.S3.Bucket = strings.TrimSpace(c.S3.Bucket)
	c.S3.Prefix = strings.Trim(strings.TrimSpace(c.S3.Prefix), "/")
	if c.S3.Region == "" {
		c.S3.Region = d.S3.Region
	}
	c.CloudWatch.Namespace = strings.TrimSpace(c.CloudWatch.Namespace)
	if c.CloudWatch.Region == "" {
		c.CloudWatch.Region = c.S3.Region
	}

	if c.TelegramBotToken != "" && c.TelegramChatID == 0 {
		log.Warn("Warning: TELEGRAM_BOT_TOKEN set without TELEGRAM_CHAT_ID, notifications disabled")
	}
}

// WritesCSV reports whether the labeled table goes to CSV.
func (c *Config) WritesCSV() bool {
	return c.OutputFormat == OutputCSV || c.OutputFormat == OutputBoth
}

// WritesParquet reports whether the labeled table goes to parquet.
func (c *Config) WritesParquet() bool {
	return c.OutputFormat == OutputParquet || c.OutputFormat == OutputBoth
}

func (c *Config) NotificationsEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

func envString(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.GetLogger().WithComponent("config").Warnf("Warning: invalid %s=%q, keeping %d", key, v, *dst)
		return
	}
	*dst = n
}

func envFloat(key string, dst *float64) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.GetLogger().WithComponent("config").Warnf("Warning: invalid %s=%q, keeping %g", key, v, *dst)
		return
	}
	*dst = n
}

func envBool(key string, dst *bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	*dst = strings.EqualFold(v, "true") || v == "1"
}
