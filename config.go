/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/fishbowl/games/fishbowl"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	db             string
	playerTimeout  time.Duration
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	entriesPerPlayer int
	scorePerEntry    int
	turnTime         time.Duration
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.entriesPerPlayer < 0 {
		return fmt.Errorf("invalid entries per player (must not be negative): %d", c.entriesPerPlayer)
	}
	if c.scorePerEntry < 0 {
		return fmt.Errorf("invalid score per entry (must not be negative): %d", c.scorePerEntry)
	}
	if c.turnTime < 0 || c.turnTime%time.Second != 0 {
		return fmt.Errorf("invalid turn time (must be a non-negative whole number of seconds): %s", c.turnTime)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// rules are the settings every new game starts with.
func (c *Config) rules() fishbowl.Config {
	return fishbowl.Config{
		EntriesPerPlayer: c.entriesPerPlayer,
		TurnTime:         int(c.turnTime / time.Second),
		ScorePerEntry:    c.scorePerEntry,
	}
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("FISHBOWL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "fishbowl",
		Short:         "A team party game of guessing names drawn from a shared bowl.",
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

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: FISHBOWL_BIND)")
	fs.StringVar(&cfg.db, "db", "", "path to sqlite database for saved games; games are kept in memory if unset (env: FISHBOWL_DB)")
	fs.IntVar(&cfg.entriesPerPlayer, "entries-per-player", 3, "entries each player submits before a new game can start (env: FISHBOWL_ENTRIES_PER_PLAYER)")
	fs.DurationVar(&cfg.playerTimeout, "player-timeout", 10*time.Minute, "time before disconnected players are removed (env: FISHBOWL_PLAYER_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: FISHBOWL_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: FISHBOWL_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: FISHBOWL_PROFILE)")
	fs.IntVar(&cfg.scorePerEntry, "score-per-entry", 1, "points awarded for each guessed entry in new games (env: FISHBOWL_SCORE_PER_ENTRY)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended (env: FISHBOWL_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: FISHBOWL_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: FISHBOWL_TLS_KEY)")
	fs.DurationVar(&cfg.turnTime, "turn-time", 60*time.Second, "length of each turn in new games (env: FISHBOWL_TURN_TIME)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: FISHBOWL_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: FISHBOWL_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("fishbowl v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
