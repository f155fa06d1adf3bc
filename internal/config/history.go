package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Journal kinds.
const (
	JournalJSONL    = "jsonl"
	JournalSQLite   = "sqlite"
	JournalPostgres = "postgres"
	JournalNone     = "none"
)

// JournalConfig selects where mint attempts are recorded.
type JournalConfig struct {
	Kind  string
	Path  string
	PGDSN string
}

// Target returns the file path or DSN for the configured kind.
func (c JournalConfig) Target() string {
	if c.Kind == JournalPostgres {
		return c.PGDSN
	}
	return c.Path
}

// HistoryConfig holds configuration for the history command.
type HistoryConfig struct {
	Journal  JournalConfig
	Limit    int
	LogLevel string
}

func setJournalDefaults(v *viper.Viper) {
	v.SetDefault("journal", JournalJSONL)
	v.SetDefault("journal-path", "./data/mints.jsonl")
}

func loadJournal(v *viper.Viper) (JournalConfig, error) {
	cfg := JournalConfig{
		Kind:  strings.ToLower(v.GetString("journal")),
		Path:  v.GetString("journal-path"),
		PGDSN: v.GetString("pg-dsn"),
	}
	switch cfg.Kind {
	case JournalNone:
	case JournalJSONL, JournalSQLite:
		if cfg.Path == "" {
			return JournalConfig{}, fmt.Errorf("journal-path is required for %s journal", cfg.Kind)
		}
	case JournalPostgres:
		if cfg.PGDSN == "" {
			return JournalConfig{}, fmt.Errorf("pg-dsn is required for postgres journal")
		}
	default:
		return JournalConfig{}, fmt.Errorf("unknown journal %q", cfg.Kind)
	}
	return cfg, nil
}

// LoadHistory merges config file, environment variables, and flags into HistoryConfig.
func LoadHistory(cfgFile string, flags *pflag.FlagSet) (HistoryConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		setJournalDefaults(v)
		v.SetDefault("limit", 20)
		v.SetDefault("log-level", "info")
	})
	if err != nil {
		return HistoryConfig{}, err
	}

	journalCfg, err := loadJournal(v)
	if err != nil {
		return HistoryConfig{}, err
	}
	if journalCfg.Kind == JournalNone {
		return HistoryConfig{}, fmt.Errorf("history needs a journal")
	}

	return HistoryConfig{
		Journal:  journalCfg,
		Limit:    v.GetInt("limit"),
		LogLevel: v.GetString("log-level"),
	}, nil
}
