package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
app:
  name: esqsync
  env: test
  log_level: debug

mysql:
  dsn: "user:pass@tcp(localhost:3306)/forms?parseTime=true"

redis:
  addr: "localhost:6379"
  db: 1

lmstfy:
  host: localhost
  port: 7777
  namespace: esq
  token: test-token
  queue: esq_digest_queue
  fail_queue: esq_digest_fail

smtp:
  host: localhost
  port: 25
  sender: noreply@example.dk

sharepoint:
  site_url: "https://example.sharepoint.com/sites/esq"
  folder: "Delte dokumenter/ESQ"
  self_report_file: esq_selvbesvarelser.xlsx
  parent_report_file: esq_foraeldrebesvarelser.xlsx

survey:
  form_type: esq

digest:
  default_mailbox: trivsel@example.dk
  subject: "Nye ESQ besvarelser"
  recipients:
    "1111111111": afdeling@example.dk

workers:
  - name: digest-worker
    queue_name: esq_digest_queue
    subscriber:
      threads: 2
      rate: 100ms
      timeout: 3s
      ttr: 30s
      error_backoff: 1s
    processor:
      threads: 4
      buffer_size: 16
      timeout: 60s
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeTestConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, "esqsync", cfg.App.Name)
	assert.Equal(t, "esq_digest_queue", cfg.Lmstfy.Queue)
	assert.Equal(t, "esq_digest_fail", cfg.Lmstfy.FailQueue)
	assert.Equal(t, "afdeling@example.dk", cfg.Digest.Recipients["1111111111"])

	require.Len(t, cfg.Workers, 1)
	assert.Equal(t, 2, cfg.Workers[0].Subscriber.Threads)
	assert.Equal(t, 30*time.Second, cfg.Workers[0].Subscriber.TTR)
	assert.Equal(t, 4, cfg.Workers[0].Processor.Threads)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(writeTestConfig(t, testYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	// Omitted optionals get their defaults.
	assert.Equal(t, "Besvarelser", cfg.SharePoint.Sheet)
	assert.Equal(t, 48*time.Hour, cfg.Digest.DedupTTL)
}

func TestValidateMissingRequired(t *testing.T) {
	cases := map[string]func(*Config){
		"app.name":               func(c *Config) { c.App.Name = "" },
		"mysql.dsn":              func(c *Config) { c.MySQL.DSN = "" },
		"lmstfy.host":            func(c *Config) { c.Lmstfy.Host = "" },
		"lmstfy.queue":           func(c *Config) { c.Lmstfy.Queue = "" },
		"survey.form_type":       func(c *Config) { c.Survey.FormType = "" },
		"digest.default_mailbox": func(c *Config) { c.Digest.DefaultMailbox = "" },
	}

	for field, clear := range cases {
		t.Run(field, func(t *testing.T) {
			cfg, err := Load(writeTestConfig(t, testYAML))
			require.NoError(t, err)
			clear(cfg)
			assert.ErrorContains(t, cfg.Validate(), field)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
