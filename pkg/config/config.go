package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the full worker configuration. It is constructed once in main
// and passed by parameter into every component; there is no ambient state.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	MySQL      MySQLConfig      `mapstructure:"mysql"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Lmstfy     LmstfyConfig     `mapstructure:"lmstfy"`
	SMTP       SMTPConfig       `mapstructure:"smtp"`
	SharePoint SharePointConfig `mapstructure:"sharepoint"`
	Survey     SurveyConfig     `mapstructure:"survey"`
	Digest     DigestConfig     `mapstructure:"digest"`
	Workers    []WorkerConfig   `mapstructure:"workers"`
}

// AppConfig identifies the deployment.
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

// MySQLConfig holds the read-only forms database connection string.
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig holds the dedup registry connection.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LmstfyConfig holds the work queue connection and queue names.
// Queue receives digest work items; FailQueue receives soft failures
// routed to manual handling.
type LmstfyConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Namespace string `mapstructure:"namespace"`
	Token     string `mapstructure:"token"`
	Queue     string `mapstructure:"queue"`
	FailQueue string `mapstructure:"fail_queue"`
}

// SMTPConfig holds the outbound mail relay.
type SMTPConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	Sender string `mapstructure:"sender"`
}

// SharePointConfig holds the document store location for the export files.
type SharePointConfig struct {
	SiteURL          string `mapstructure:"site_url"`
	Token            string `mapstructure:"token"`
	Folder           string `mapstructure:"folder"`
	SelfReportFile   string `mapstructure:"self_report_file"`
	ParentReportFile string `mapstructure:"parent_report_file"`
	Sheet            string `mapstructure:"sheet"`
}

// SurveyConfig identifies which webform submissions are processed.
type SurveyConfig struct {
	FormType string `mapstructure:"form_type"`
}

// DigestConfig controls email digest building. Recipients maps subject
// identifiers to approved addresses; an empty map bypasses the lookup and
// every digest goes to DefaultMailbox (degraded/test deployments).
type DigestConfig struct {
	DefaultMailbox string            `mapstructure:"default_mailbox"`
	Subject        string            `mapstructure:"subject"`
	Recipients     map[string]string `mapstructure:"recipients"`
	DedupTTL       time.Duration     `mapstructure:"dedup_ttl"`
}

// WorkerConfig configures one dispatch worker.
type WorkerConfig struct {
	Name       string           `mapstructure:"name"`
	QueueName  string           `mapstructure:"queue_name"`
	Subscriber SubscriberConfig `mapstructure:"subscriber"`
	Processor  ProcessorConfig  `mapstructure:"processor"`
}

// SubscriberConfig configures queue consumption.
type SubscriberConfig struct {
	Threads      int           `mapstructure:"threads"`
	Rate         time.Duration `mapstructure:"rate"`
	Timeout      time.Duration `mapstructure:"timeout"`
	TTR          time.Duration `mapstructure:"ttr"`
	ErrorBackoff time.Duration `mapstructure:"error_backoff"`
}

// ProcessorConfig configures item processing.
type ProcessorConfig struct {
	Threads    int           `mapstructure:"threads"`
	BufferSize int           `mapstructure:"buffer_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Load reads the yaml configuration file.
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn is required")
	}
	if c.Lmstfy.Host == "" {
		return fmt.Errorf("lmstfy.host is required")
	}
	if c.Lmstfy.Queue == "" {
		return fmt.Errorf("lmstfy.queue is required")
	}
	if c.Survey.FormType == "" {
		return fmt.Errorf("survey.form_type is required")
	}
	if c.Digest.DefaultMailbox == "" {
		return fmt.Errorf("digest.default_mailbox is required")
	}
	if c.SharePoint.Sheet == "" {
		c.SharePoint.Sheet = "Besvarelser"
	}
	if c.Digest.DedupTTL == 0 {
		c.Digest.DedupTTL = 48 * time.Hour
	}
	return nil
}
