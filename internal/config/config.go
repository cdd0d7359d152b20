// Package config holds the migration tool's configuration surface: the legacy
// source connection, the target store connection and the knobs of the
// analyzer and importer.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override (SABERCON_SOURCE_HOST, ...).
const EnvPrefix = "SABERCON"

// DBConfig describes one database endpoint.
type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Schema   string `mapstructure:"schema"`
	SSLMode  string `mapstructure:"sslmode"`
	Params   string `mapstructure:"params"`
}

type ImportConfig struct {
	DumpDir      string   `mapstructure:"dump_dir"`
	Entities     []string `mapstructure:"entities"`
	MappingTable string   `mapstructure:"mapping_table"`
}

type AnalyzeConfig struct {
	SampleSize       int `mapstructure:"sample_size"`
	SampleRowCeiling int `mapstructure:"sample_row_ceiling"`
	OversizedText    int `mapstructure:"oversized_text"`
	RowsPerSecond    int `mapstructure:"rows_per_second"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the whole configuration tree.
type Config struct {
	Source  DBConfig      `mapstructure:"source"`
	Target  DBConfig      `mapstructure:"target"`
	Import  ImportConfig  `mapstructure:"import"`
	Analyze AnalyzeConfig `mapstructure:"analyze"`
	Log     LogConfig     `mapstructure:"log"`
}

// SetDefaults registers the local development defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source.driver", "mysql")
	v.SetDefault("source.host", "127.0.0.1")
	v.SetDefault("source.port", 3306)
	v.SetDefault("source.user", "root")
	v.SetDefault("source.password", "root")
	v.SetDefault("source.database", "sabercon")
	v.SetDefault("source.schema", "")
	v.SetDefault("source.params", "")
	v.SetDefault("source.sslmode", "")
	v.SetDefault("source.dsn", "")

	v.SetDefault("target.driver", "postgres")
	v.SetDefault("target.host", "127.0.0.1")
	v.SetDefault("target.port", 5432)
	v.SetDefault("target.user", "postgres")
	v.SetDefault("target.password", "postgres")
	v.SetDefault("target.database", "portal")
	v.SetDefault("target.schema", "public")
	v.SetDefault("target.sslmode", "disable")
	v.SetDefault("target.params", "")
	v.SetDefault("target.dsn", "")

	v.SetDefault("import.dump_dir", "./dumps")
	v.SetDefault("import.entities", []string{})
	v.SetDefault("import.mapping_table", "sabercon_id_mappings")

	v.SetDefault("analyze.sample_size", 100)
	v.SetDefault("analyze.sample_row_ceiling", 100000)
	v.SetDefault("analyze.oversized_text", 65535)
	v.SetDefault("analyze.rows_per_second", 1000)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// BindEnv makes every key overridable through SABERCON_* variables. A .env
// file in the working directory is loaded first when present.
func BindEnv(v *viper.Viper) {
	_ = godotenv.Load()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	switch c.Source.Driver {
	case "mysql", "postgres", "pgx":
	default:
		return fmt.Errorf("unsupported source driver %q", c.Source.Driver)
	}
	switch c.Target.Driver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("unsupported target driver %q (target must be PostgreSQL)", c.Target.Driver)
	}
	if c.Import.MappingTable == "" {
		return fmt.Errorf("import.mapping_table must not be empty")
	}
	if c.Analyze.SampleSize < 0 || c.Analyze.SampleRowCeiling < 0 {
		return fmt.Errorf("analyze sample settings must not be negative")
	}
	if c.Analyze.RowsPerSecond <= 0 {
		return fmt.Errorf("analyze.rows_per_second must be positive")
	}
	return nil
}

// ConnString returns the DSN for the endpoint, composing one from the
// individual fields unless an explicit dsn was configured.
func (d DBConfig) ConnString() string {
	if d.DSN != "" {
		return d.DSN
	}
	if d.Driver == "mysql" {
		return d.mysqlDSN()
	}
	return d.postgresDSN()
}

func (d DBConfig) mysqlDSN() string {
	mc := mysql.NewConfig()
	mc.User = d.User
	mc.Passwd = d.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	mc.DBName = d.Database
	if d.Params != "" {
		if values, err := url.ParseQuery(d.Params); err == nil {
			mc.Params = make(map[string]string, len(values))
			for k := range values {
				mc.Params[k] = values.Get(k)
			}
		}
	}
	return mc.FormatDSN()
}

func (d DBConfig) postgresDSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Database,
	}
	q := url.Values{}
	if d.Params != "" {
		if parsed, err := url.ParseQuery(d.Params); err == nil {
			q = parsed
		}
	}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	if d.Schema != "" && d.Schema != "public" {
		q.Set("search_path", d.Schema)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Redacted returns the DSN with the password masked, for log lines.
func (d DBConfig) Redacted() string {
	masked := d
	if masked.DSN == "" && masked.Password != "" {
		masked.Password = "xxxxx"
		return masked.ConnString()
	}
	if u, err := url.Parse(masked.DSN); err == nil && u.User != nil {
		return u.Redacted()
	}
	if mc, err := mysql.ParseDSN(masked.DSN); err == nil {
		mc.Passwd = "xxxxx"
		return mc.FormatDSN()
	}
	return masked.DSN
}
