package main

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bcomnes/sqly"
	"github.com/bcomnes/sqly/dialect"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// appFs is the filesystem for config files and migration units.
var appFs = afero.NewOsFs()

// cliConfig is the merged view of flags, environment and config file.
type cliConfig struct {
	DatabaseURL  string
	Dialect      string
	MigrationDir string
	LedgerTable  string
	App          string
	LogLevel     string
	LogFormat    string
}

// bindings maps config keys to flag names.
var bindings = map[string]string{
	"database_url":  "database-url",
	"dialect":       "dialect",
	"migration_dir": "dir",
	"ledger_table":  "table",
	"app":           "app",
	"log_level":     "log-level",
	"log_format":    "log-format",
}

func addConfigFlags(flags *pflag.FlagSet) {
	flags.String("database-url", "", "database connection string ($DATABASE_URL)")
	flags.String("dialect", sqly.DefaultConfig.Dialect, "SQL dialect ($DATABASE_DIALECT)")
	flags.String("dir", sqly.DefaultConfig.MigrationDir, "migration directory")
	flags.String("table", sqly.DefaultConfig.LedgerTable, "ledger table name")
	flags.String("app", "", "default app for bare migration keys")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
}

// loadDotenv loads .env and then .env.local when present. Variables already
// set in the environment win over .env; .env.local overrides both.
func loadDotenv(fs afero.Fs) error {
	if ok, _ := afero.Exists(fs, ".env"); ok {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("load .env: %w", err)
		}
	}
	if ok, _ := afero.Exists(fs, ".env.local"); ok {
		if err := godotenv.Overload(".env.local"); err != nil {
			return fmt.Errorf("load .env.local: %w", err)
		}
	}
	return nil
}

// loadConfig merges flags, SQLY_* variables, DATABASE_URL/DATABASE_DIALECT and
// an optional .sqly.yaml from the working directory or ~/.config/sqly.
func loadConfig(flags *pflag.FlagSet, fs afero.Fs) (cliConfig, error) {
	if err := loadDotenv(fs); err != nil {
		return cliConfig{}, err
	}

	v := viper.New()
	v.SetFs(fs)
	v.SetConfigName(".sqly")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "sqly"))
	}
	v.SetEnvPrefix("SQLY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database_url", "SQLY_DATABASE_URL", "DATABASE_URL"); err != nil {
		return cliConfig{}, err
	}
	if err := v.BindEnv("dialect", "SQLY_DIALECT", "DATABASE_DIALECT"); err != nil {
		return cliConfig{}, err
	}
	for key, flag := range bindings {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return cliConfig{}, err
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cliConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	return cliConfig{
		DatabaseURL:  v.GetString("database_url"),
		Dialect:      v.GetString("dialect"),
		MigrationDir: v.GetString("migration_dir"),
		LedgerTable:  v.GetString("ledger_table"),
		App:          v.GetString("app"),
		LogLevel:     v.GetString("log_level"),
		LogFormat:    v.GetString("log_format"),
	}, nil
}

// sqlyConfig converts the CLI view into the library configuration.
func (c cliConfig) sqlyConfig() sqly.Config {
	return sqly.Config{
		Dialect:      c.Dialect,
		LedgerTable:  c.LedgerTable,
		MigrationDir: c.MigrationDir,
		App:          c.App,
	}
}

// openDB opens the database with the dialect's adaptor driver.
func (c cliConfig) openDB() (*sql.DB, error) {
	if c.DatabaseURL == "" {
		return nil, errors.New("no database url: set --database-url or DATABASE_URL")
	}
	d, err := dialect.Resolve(c.Dialect)
	if err != nil {
		return nil, err
	}
	if d.Name == dialect.MySQL {
		if err := sqly.CheckMySQLDSN(c.DatabaseURL); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open(d.Adaptor.Driver, c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d.Name, err)
	}
	return db, nil
}
