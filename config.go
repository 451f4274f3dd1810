package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	storageMemory = "memory"
	storageSQLite = "sqlite"
)

type Config struct {
	admin           bool
	bind            string
	database        string
	playerTimeout   time.Duration
	port            int
	prefix          string
	profile         bool
	seedDefaultBank bool
	sessionTimeout  time.Duration
	storage         string
	tlsCert         string
	tlsKey          string
	tokenSecret     string
	tokenTTL        time.Duration
	verbose         bool
	version         bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}

	switch c.storage {
	case storageMemory:
	case storageSQLite:
		if strings.TrimSpace(c.database) == "" {
			return errors.New("--database is required when --storage=sqlite")
		}
	default:
		return fmt.Errorf("invalid storage backend (must be %q or %q): %q", storageMemory, storageSQLite, c.storage)
	}

	if c.tokenTTL <= 0 {
		return fmt.Errorf("invalid token ttl (must be positive): %s", c.tokenTTL)
	}
	if c.playerTimeout < 0 || c.sessionTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	if c.tokenSecret != "" && len(c.tokenSecret) < 16 {
		return errors.New("--token-secret must be at least 16 characters")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("CODENAMES")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "codenames",
		Short:         "A Codenames-style word game for the browser, with shared rooms and live updates.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.BoolVar(&cfg.admin, "admin", false, "allow deleting all rooms through the api (env: CODENAMES_ADMIN)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: CODENAMES_BIND)")
	fs.StringVar(&cfg.database, "database", "codenames.db", "path to the sqlite database (env: CODENAMES_DATABASE)")
	fs.DurationVar(&cfg.playerTimeout, "player-timeout", 10*time.Minute, "time before disconnected players leave their room (env: CODENAMES_PLAYER_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: CODENAMES_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: CODENAMES_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: CODENAMES_PROFILE)")
	fs.BoolVar(&cfg.seedDefaultBank, "seed-default-bank", false, "store the built-in large word bank at startup (env: CODENAMES_SEED_DEFAULT_BANK)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle push sessions are closed (env: CODENAMES_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.storage, "storage", storageMemory, "room storage backend: memory or sqlite (env: CODENAMES_STORAGE)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: CODENAMES_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: CODENAMES_TLS_KEY)")
	fs.StringVar(&cfg.tokenSecret, "token-secret", "", "secret used to sign player tokens; random if unset (env: CODENAMES_TOKEN_SECRET)")
	fs.DurationVar(&cfg.tokenTTL, "token-ttl", 24*time.Hour, "lifetime of player tokens (env: CODENAMES_TOKEN_TTL)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: CODENAMES_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: CODENAMES_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("codenames v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
