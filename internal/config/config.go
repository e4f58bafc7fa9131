package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/healthlab/patientmigrate/internal/source"
)

// Conventional ports used when none is configured.
const (
	DefaultSourcePort = 3306
	DefaultDestPort   = 5432
	DefaultHost       = "localhost"
)

// ConnParams identifies one database. DSN, when set, wins over the
// individual fields.
type ConnParams struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// Config holds all runtime configuration for a patientmigrate run.
type Config struct {
	Source      ConnParams
	Dest        ConnParams
	SnapshotDir string // read the source from a Parquet snapshot instead of MySQL
	LogFormat   string // "text" or "json"
	LogLevel    string

	CreateTables bool   // migrate: apply lab5 table DDL before loading
	SnapshotOut  string // snapshot: output directory
}

// fileConfig is the on-disk YAML structure.
type fileConfig struct {
	Source       fileConn `yaml:"source"`
	Destination  fileConn `yaml:"destination"`
	LogFormat    string   `yaml:"log_format"`
	LogLevel     string   `yaml:"log_level"`
	CreateTables *bool    `yaml:"create_tables"`
}

type fileConn struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Snapshot string `yaml:"snapshot"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
// A value from the file is ignored when explicit reports that the matching
// command-line flag was set; explicit may be nil.
func (c *Config) LoadFromFile(path string, explicit func(flag string) bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	set := func(flag string, present bool, apply func()) {
		if present && (explicit == nil || !explicit(flag)) {
			apply()
		}
	}

	mergeConn := func(prefix string, dst *ConnParams, src fileConn) {
		set(prefix+"-dsn", src.DSN != "", func() { dst.DSN = src.DSN })
		set(prefix+"-host", src.Host != "", func() { dst.Host = src.Host })
		set(prefix+"-port", src.Port != 0, func() { dst.Port = src.Port })
		set(prefix+"-user", src.User != "", func() { dst.User = src.User })
		set(prefix+"-password", src.Password != "", func() { dst.Password = src.Password })
		set(prefix+"-db", src.Database != "", func() { dst.Database = src.Database })
	}
	mergeConn("source", &c.Source, fc.Source)
	mergeConn("dest", &c.Dest, fc.Destination)

	set("source-snapshot", fc.Source.Snapshot != "", func() { c.SnapshotDir = fc.Source.Snapshot })
	set("log-format", fc.LogFormat != "", func() { c.LogFormat = fc.LogFormat })
	set("log-level", fc.LogLevel != "", func() { c.LogLevel = fc.LogLevel })
	set("create-tables", fc.CreateTables != nil, func() { c.CreateTables = *fc.CreateTables })
	return nil
}

// Validate checks the settings shared by every command.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("--log-format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// ValidateSource checks that a source is configured: either a snapshot
// directory or enough to reach MySQL.
func (c *Config) ValidateSource() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.SnapshotDir != "" {
		if _, err := os.Stat(c.SnapshotDir); err != nil {
			return fmt.Errorf("snapshot dir not accessible: %w", err)
		}
		return nil
	}
	return validateConn("source", c.Source)
}

// ValidateDest checks that the destination is configured.
func (c *Config) ValidateDest() error {
	if err := c.Validate(); err != nil {
		return err
	}
	return validateConn("dest", c.Dest)
}

func validateConn(prefix string, p ConnParams) error {
	if p.DSN != "" {
		return nil
	}
	if p.User == "" {
		return fmt.Errorf("--%s-user or --%s-dsn is required", prefix, prefix)
	}
	if p.Database == "" {
		return fmt.Errorf("--%s-db or --%s-dsn is required", prefix, prefix)
	}
	if p.Port < 1 || p.Port > 65535 {
		return fmt.Errorf("--%s-port out of range: %d", prefix, p.Port)
	}
	return nil
}

// SourceParams converts the source settings for the MySQL connector.
func (c *Config) SourceParams() source.MySQLParams {
	return source.MySQLParams{
		Host:     orDefault(c.Source.Host, DefaultHost),
		Port:     c.Source.Port,
		User:     c.Source.User,
		Password: c.Source.Password,
		Database: c.Source.Database,
	}
}

// DestDSN returns the Postgres connection string for the destination.
func (c *Config) DestDSN() string {
	if c.Dest.DSN != "" {
		return c.Dest.DSN
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Dest.User, c.Dest.Password),
		Host:   net.JoinHostPort(orDefault(c.Dest.Host, DefaultHost), strconv.Itoa(c.Dest.Port)),
		Path:   "/" + c.Dest.Database,
	}
	if c.Dest.Password == "" {
		u.User = url.User(c.Dest.User)
	}
	return u.String()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
