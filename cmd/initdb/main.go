// Command initdb creates the hospitals table and loads its initial rows.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/hospitals/internal/bootstrap"
	"github.com/JonMunkholm/hospitals/internal/config"
	"github.com/JonMunkholm/hospitals/internal/core"
	"github.com/JonMunkholm/hospitals/internal/logging"
	"github.com/JonMunkholm/hospitals/internal/store"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "initdb: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(cfg)
	cmd.SetArgs(normalizeArgs(os.Args[1:]))
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// flagAliases maps legacy flag names onto their current ones.
var flagAliases = map[string]string{
	"db_name": "db",
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		driver     string
		dsn        string
		schemaPath string
		seedPath   string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "initdb",
		Short: "Create the hospitals table and load seed data",
		Long: `initdb applies a schema file to the record store and inserts the
hospitals listed in a JSON array file. The seed is loaded in a single
transaction: either every row is inserted or none is.

Flag defaults come from the same configuration as the server
(HOSPITAL_CONFIG_FILE, then DB_DRIVER, DATABASE_URL and friends).`,
		Example: `  initdb -s internal/store/schema/sqlite.sql -l data/hospitals.json
  initdb -db hospitals.db -s internal/store/schema/sqlite.sql -l data/hospitals.json
  initdb --driver postgres --db postgres://localhost/hospitals -s internal/store/schema/postgres.sql -l data/hospitals.json`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logLevel, cfg.Logging.Format)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := store.Open(ctx, store.Options{
				Driver:          store.Driver(driver),
				DSN:             dsn,
				MaxConns:        cfg.Database.MaxConns,
				MinConns:        cfg.Database.MinConns,
				MaxConnLifetime: cfg.Database.MaxConnLifetime,
				MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
				BusyTimeout:     cfg.Database.BusyTimeout,
			})
			if err != nil {
				return reportFailure(cmd, fmt.Errorf("open store: %w", err))
			}
			defer st.Close()

			n, err := bootstrap.RunFiles(ctx, st, schemaPath, seedPath)
			if err != nil {
				return reportFailure(cmd, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d hospitals (%s)\n", n, driver)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&driver, "driver", cfg.Database.Driver, "store driver: sqlite or postgres")
	flags.StringVar(&dsn, "db", cfg.Database.URL, "SQLite file path or PostgreSQL connection string (alias: db_name)")
	flags.StringVarP(&schemaPath, "schema", "s", "", "path to the schema SQL file")
	flags.StringVarP(&seedPath, "load", "l", "", "path to the JSON array of hospitals to load")
	flags.StringVar(&logLevel, "log-level", cfg.Logging.Level, "log level: debug, info, warn, error")

	cmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		if alias, ok := flagAliases[name]; ok {
			name = alias
		}
		return pflag.NormalizedName(name)
	})

	_ = cmd.MarkFlagRequired("schema")
	_ = cmd.MarkFlagRequired("load")

	return cmd
}

// reportFailure logs err and, when it maps to a known support code, prints
// the user-facing message to stderr.
func reportFailure(cmd *cobra.Command, err error) error {
	slog.Error("initdb failed", "error", err)
	if core.IsUserFacing(err) {
		fmt.Fprintln(cmd.ErrOrStderr(), core.FormatUserError(err))
	}
	return err
}

// normalizeArgs rewrites single-dash long flags such as -db into their
// double-dash form. pflag would otherwise read -db as the shorthands d and b.
func normalizeArgs(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = arg
		if arg == "--" {
			copy(out[i+1:], args[i+1:])
			break
		}
		if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
			continue
		}
		name, _, _ := strings.Cut(arg[1:], "=")
		if name == "db" || name == "driver" || flagAliases[name] != "" {
			out[i] = "-" + arg
		}
	}
	return out
}
