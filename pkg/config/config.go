package config

import (
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	stringpool "github.com/ajitpratap0/tap-redshift/pkg/strings"
	"github.com/ajitpratap0/tap-redshift/pkg/taperrors"
)

// EnvPrefix is the prefix of environment variables overriding file settings.
const EnvPrefix = "TAP_REDSHIFT"

// DefaultSchema is the schema discovered when none is configured.
const DefaultSchema = "public"

// Config holds the tap settings.
type Config struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	DBName      string `mapstructure:"dbname"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	Schema      string `mapstructure:"schema"`
	TableSchema string `mapstructure:"table_schema"`
	StartDate   string `mapstructure:"start_date"`
	SSLMode     string `mapstructure:"sslmode"`

	ConnectRetries int           `mapstructure:"connect_retries"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`

	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	MetricsFile string `mapstructure:"metrics_file"`
	TraceFile   string `mapstructure:"trace_file"`

	startDate time.Time
}

var defaults = map[string]interface{}{
	"host":            "",
	"port":            5439,
	"dbname":          "",
	"user":            "",
	"password":        "",
	"schema":          "",
	"table_schema":    "",
	"start_date":      "",
	"sslmode":         "prefer",
	"connect_retries": 3,
	"connect_timeout": "30s",
	"log_level":       "info",
	"log_format":      "json",
	"metrics_file":    "",
	"trace_file":      "",
}

// Load reads the config file at path, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("json")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, taperrors.Wrap(err, taperrors.ErrorTypeConfig, "failed to read config file").
			WithDetail("path", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, taperrors.Wrap(err, taperrors.ErrorTypeConfig, "failed to decode config").
			WithDetail("path", path)
	}
	cfg.expandEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required keys and parses derived values.
func (c *Config) Validate() error {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.Port == 0 {
		missing = append(missing, "port")
	}
	if c.DBName == "" {
		missing = append(missing, "dbname")
	}
	if c.User == "" {
		missing = append(missing, "user")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return taperrors.New(taperrors.ErrorTypeConfig, "config is missing required keys: "+strings.Join(missing, ", ")).
			WithDetail("keys", missing)
	}

	if c.StartDate != "" {
		t, err := parseStartDate(c.StartDate)
		if err != nil {
			return taperrors.Wrap(err, taperrors.ErrorTypeConfig, "invalid start_date").
				WithDetail("start_date", c.StartDate)
		}
		c.startDate = t
	}
	if c.SSLMode == "" {
		c.SSLMode = "prefer"
	}
	if c.ConnectRetries < 1 {
		c.ConnectRetries = 1
	}
	return nil
}

// SchemaName returns the database schema to discover and sync.
func (c *Config) SchemaName() string {
	if c.Schema != "" {
		return c.Schema
	}
	if c.TableSchema != "" {
		return c.TableSchema
	}
	return DefaultSchema
}

// StartTime returns the configured start_date. ok is false when unset.
func (c *Config) StartTime() (t time.Time, ok bool) {
	return c.startDate, !c.startDate.IsZero()
}

// ConnString returns a postgres:// URL for the configured database.
func (c *Config) ConnString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.DBName,
	}
	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	if c.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout.Seconds())))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Config) expandEnv() {
	for _, field := range []*string{
		&c.Host, &c.DBName, &c.User, &c.Password, &c.Schema, &c.TableSchema,
		&c.StartDate, &c.SSLMode, &c.MetricsFile, &c.TraceFile,
	} {
		*field = substituteEnvVars(*field)
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
// Substituted values are copied as is and never expanded again.
func substituteEnvVars(content string) string {
	if !strings.Contains(content, "${") {
		return content
	}

	b := stringpool.GetBuilder(stringpool.Small)
	defer stringpool.PutBuilder(b, stringpool.Small)

	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start
		b.WriteString(content[:start])
		b.WriteString(os.Getenv(content[start+2 : end]))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}

var startDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseStartDate(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range startDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
