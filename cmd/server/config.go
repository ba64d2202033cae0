package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/calvinwijaya/dixit-be/internal/db"
	"github.com/calvinwijaya/dixit-be/internal/game"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const storeMemory = "memory"

type Config struct {
	bind        string
	port        int
	store       string
	dsn         string
	frontendURL string
	verbose     bool

	handSize           int
	deckSize           int
	recycle            bool
	noPopularityBonus  bool
	noCorrectnessBonus bool
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	switch c.store {
	case storeMemory:
	case db.DriverSQLite, db.DriverPostgres:
		if c.dsn == "" {
			return fmt.Errorf("--dsn is required for the %s store", c.store)
		}
	default:
		return fmt.Errorf("unknown store %q (must be %s, %s or %s)", c.store, storeMemory, db.DriverSQLite, db.DriverPostgres)
	}
	if c.handSize < 1 {
		return fmt.Errorf("invalid hand size: %d", c.handSize)
	}
	if c.deckSize < c.handSize {
		return errors.New("--deck-size must be at least --hand-size")
	}
	return nil
}

// options returns the settings every new game starts with.
func (c *Config) options() game.Options {
	opts := game.DefaultOptions()
	opts.HandSize = c.handSize
	opts.DeckSize = c.deckSize
	opts.Recycle = c.recycle
	opts.Rules.PopularityBonus = !c.noPopularityBonus
	opts.Rules.CorrectnessBonus = !c.noCorrectnessBonus
	return opts
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("DIXIT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "dixit-server",
		Short:         "Game server for Dixit, the storytelling card game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: DIXIT_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: DIXIT_PORT)")
	fs.StringVar(&cfg.store, "store", storeMemory, "game store: memory, sqlite3 or postgres (env: DIXIT_STORE)")
	fs.StringVar(&cfg.dsn, "dsn", "", "data source name for the sqlite3 or postgres store (env: DIXIT_DSN)")
	fs.StringVar(&cfg.frontendURL, "frontend", "http://localhost:5173", "frontend URL for CORS (env: DIXIT_FRONTEND)")
	fs.IntVar(&cfg.handSize, "hand-size", game.DefaultHandSize, "cards dealt to each player (env: DIXIT_HAND_SIZE)")
	fs.IntVar(&cfg.deckSize, "deck-size", game.DefaultDeckSize, "cards in each new deck (env: DIXIT_DECK_SIZE)")
	fs.BoolVar(&cfg.recycle, "recycle", false, "reshuffle discards when the deck runs short (env: DIXIT_RECYCLE)")
	fs.BoolVar(&cfg.noPopularityBonus, "no-popularity-bonus", false, "disable the bonus for votes drawn by decoys (env: DIXIT_NO_POPULARITY_BONUS)")
	fs.BoolVar(&cfg.noCorrectnessBonus, "no-correctness-bonus", false, "disable the storyteller and guesser bonus (env: DIXIT_NO_CORRECTNESS_BONUS)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "log every game mutation (env: DIXIT_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
