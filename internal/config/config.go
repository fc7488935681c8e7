// Package config reads the server configuration from flags, falling back to
// GARANCIJA_* environment variables and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the resolved server configuration.
type Config struct {
	DBPath    string
	Addr      string
	AdminUser string
	LogPath   string
	// ExpiringDays is the default window of the expiring warranties listing.
	ExpiringDays int
}

// Defaults.
const (
	DefaultDBPath       = "garancija.sqlite3"
	DefaultAddr         = ":8080"
	DefaultAdminUser    = "Admin"
	DefaultExpiringDays = 30
)

const usage = `Usage: garancija [flags]

Flags:
  -d, -db <path>          SQLite database path (default: garancija.sqlite3, env GARANCIJA_DB)
  -a, -addr <host:port>   listen address (default: :8080, env GARANCIJA_ADDR)
  -u, -user <name>        admin username on first run (default: Admin, env GARANCIJA_ADMIN)
  -l, -log <path>         log file path (default: none, env GARANCIJA_LOG)
  -expiring-days <n>      default window for expiring warranties (default: 30, env GARANCIJA_EXPIRING_DAYS)
  -h, -help               show this help and exit
`

// LoadEnv reads key=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Parse resolves the configuration from args. getenv supplies the fallback
// for every flag not given on the command line. flag.ErrHelp is returned
// when help was requested.
func Parse(args []string, getenv func(string) string, out io.Writer) (Config, error) {
	cfg := Config{
		DBPath:       envOr(getenv, "GARANCIJA_DB", DefaultDBPath),
		Addr:         envOr(getenv, "GARANCIJA_ADDR", DefaultAddr),
		AdminUser:    envOr(getenv, "GARANCIJA_ADMIN", DefaultAdminUser),
		LogPath:      getenv("GARANCIJA_LOG"),
		ExpiringDays: DefaultExpiringDays,
	}
	if v := getenv("GARANCIJA_EXPIRING_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("GARANCIJA_EXPIRING_DAYS: %w", err)
		}
		cfg.ExpiringDays = n
	}

	fs := flag.NewFlagSet("garancija", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() { fmt.Fprint(out, usage) }

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "")
	fs.StringVar(&cfg.AdminUser, "user", cfg.AdminUser, "")
	fs.StringVar(&cfg.AdminUser, "u", cfg.AdminUser, "")
	fs.StringVar(&cfg.LogPath, "log", cfg.LogPath, "")
	fs.StringVar(&cfg.LogPath, "l", cfg.LogPath, "")
	fs.IntVar(&cfg.ExpiringDays, "expiring-days", cfg.ExpiringDays, "")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return Config{}, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	if cfg.ExpiringDays < 0 {
		return Config{}, fmt.Errorf("expiring days must not be negative")
	}

	return cfg, nil
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}
