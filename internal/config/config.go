package config

import (
	"fmt"

	"github.com/Makepad-fr/basket/internal/store"
	"github.com/Makepad-fr/basket/internal/store/jsonstore"
	"github.com/Makepad-fr/basket/internal/store/sqlitestore"
)

// Config is shared by every subcommand. Each field can also be set from the
// environment.
type Config struct {
	DB        string `help:"Path of the shopping list database." type:"path" default:"shopping.db" env:"BASKET_DB"`
	Backend   string `help:"Storage backend (${enum})." enum:"sqlite,json" default:"sqlite" env:"BASKET_BACKEND"`
	QueueSize int    `help:"Pending changes allowed before callers wait." default:"64" env:"BASKET_QUEUE_SIZE"`

	LogLevel  string `help:"Log level (${enum})." enum:"debug,info,warn,error" default:"warn" env:"BASKET_LOG_LEVEL"`
	LogFormat string `help:"Log format (${enum})." enum:"text,json" default:"text" env:"BASKET_LOG_FORMAT"`
	LogFile   string `help:"Write logs to this file instead of stderr." type:"path" env:"BASKET_LOG_FILE"`

	Theme string `help:"Output theme (${enum})." enum:"classic,neon,mono" default:"classic" env:"BASKET_THEME"`
	Color string `help:"Colorize output (${enum})." enum:"auto,always,never" default:"auto" env:"BASKET_COLOR"`
}

// OpenStore opens the configured backend. There is one handle per process;
// callers own it and must Close it.
func (c *Config) OpenStore() (store.Store, error) {
	switch c.Backend {
	case "", "sqlite":
		return sqlitestore.Open(c.DB)
	case "json":
		return jsonstore.Open(c.DB)
	default:
		return nil, fmt.Errorf("unknown backend %q", c.Backend)
	}
}
