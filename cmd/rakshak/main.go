package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/rakshak-ai/internal/bootstrap"
	"github.com/rakshak-ai/internal/config"
	"github.com/rakshak-ai/internal/directory"
	import_pkg "github.com/rakshak-ai/internal/import"
	"github.com/rakshak-ai/internal/locator"
	"github.com/rakshak-ai/internal/web"
	"github.com/rakshak-ai/internal/web/middleware"
)

var logLevelMap = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

var (
	envFile  string
	logLevel string
	cfg      *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rakshak",
		Short: "Rakshak AI helpline location services",
		Long:  `Resolves caller locations to Nashik Gramin police stations and serves the voice agent's tools`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, ok := logLevelMap[logLevel]
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}
			slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
				Level:      level,
				TimeFormat: time.TimeOnly,
			})))

			if err := config.LoadEnv(envFile); err != nil {
				return fmt.Errorf("load env %s: %w", envFile, err)
			}
			cfg = config.Load()
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&envFile, "env", "e", "", "Env file path (default: first of .env, ../.env, ../../.env)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log", "l", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(createServeCmd())
	rootCmd.AddCommand(createLocateCmd())
	rootCmd.AddCommand(createVillageCmd())
	rootCmd.AddCommand(createStationsCmd())
	rootCmd.AddCommand(createAlertCmd())
	rootCmd.AddCommand(createPingCmd())
	rootCmd.AddCommand(createAuditCmd())
	rootCmd.AddCommand(createTokenCmd())
	rootCmd.AddCommand(createDBCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withApp builds the component graph for one command and closes it after.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	ctx := cmd.Context()
	app, err := bootstrap.New(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// createServeCmd runs the tool server until SIGINT or SIGTERM.
func createServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the voice agent tools over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				webCfg := web.FromServerConfig(cfg.Server)
				if port > 0 {
					webCfg.Server.Port = port
				}
				return web.NewServer(webCfg, app.ServerDeps(), slog.Default()).Start(ctx)
			})
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides WEB_PORT)")
	return cmd
}

func createLocateCmd() *cobra.Command {
	var language string
	cmd := &cobra.Command{
		Use:   "locate [text]",
		Short: "Resolve a spoken location to its police station",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				return printJSON(app.Selector.SelectLocation(ctx, args[0], language))
			})
		},
	}
	cmd.Flags().StringVar(&language, "lang", locator.LanguageEnglish, "Caller language (english, marathi, hindi)")
	return cmd
}

func createVillageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "village [name]",
		Short: "Fuzzy-match a village and show its police station",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				answer := app.Selector.PoliceStation(ctx, args[0])
				if !answer.Found {
					fmt.Println(answer.Message)
					return nil
				}
				fmt.Printf("Match: %s (score %.2f)\n", answer.Village, answer.Score)
				return printJSON(answer.Station)
			})
		},
	}
}

func createStationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stations",
		Short: "List every station name in the directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				names := app.Names.All(ctx)
				for _, n := range names {
					fmt.Println(n)
				}
				fmt.Printf("%d stations\n", len(names))
				return nil
			})
		},
	}
}

func createAlertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alert [message]",
		Short: "Send an alert to the duty officer on WhatsApp",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if app.WhatsApp == nil {
					return fmt.Errorf("WhatsApp is not configured")
				}
				if !app.WhatsApp.AlertOfficer(ctx, args[0]) {
					return fmt.Errorf("alert not sent")
				}
				fmt.Println("Alert sent")
				return nil
			})
		},
	}
}

// createPingCmd tests database connectivity
func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.Store.Ping(ctx); err != nil {
					return err
				}
				fmt.Println("Database connection successful!")

				counts, err := app.Store.Counts(ctx)
				if err != nil {
					return fmt.Errorf("count records: %w", err)
				}
				for table, n := range counts {
					fmt.Printf("%s: %d\n", table, n)
				}
				fmt.Printf("Geocoding: %v\n", app.Fallback.Enabled())
				fmt.Printf("Shared cache: %v\n", app.Redis != nil)
				fmt.Printf("Officer alerts: %v\n", app.WhatsApp != nil)
				return nil
			})
		},
	}
}

// createAuditCmd shows recent location decisions
func createAuditCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show location decision statistics and recent decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				stats, err := app.Audit.GetStatistics(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Decisions: %d\n", stats.Total)
				for decision, n := range stats.ByDecision {
					fmt.Printf("  %s: %d\n", decision, n)
				}
				for strategy, n := range stats.ByStrategy {
					fmt.Printf("  via %s: %d\n", strategy, n)
				}

				recent, err := app.Audit.Recent(ctx, limit)
				if err != nil {
					return err
				}
				for _, d := range recent {
					fmt.Printf("%s  %-10s %-12s %q -> %q %s\n",
						d.DecidedAt.Format(time.DateTime), d.Decision, d.Strategy, d.Input, d.Normalized, d.StationID)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Recent decisions to show")
	return cmd
}

// createTokenCmd mints a bearer token for the voice agent.
func createTokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token [subject]",
		Short: "Sign a tool server bearer token with TOOL_AUTH_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Server.AuthSecret == "" {
				return fmt.Errorf("TOOL_AUTH_SECRET is not set")
			}
			token, err := middleware.NewToken([]byte(cfg.Server.AuthSecret), args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "Token lifetime")
	return cmd
}

// createDBCmd creates database management commands
func createDBCmd() *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}
	dbCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the directory and caller tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if err := directory.EnsureSchema(ctx, app.Conn); err != nil {
					return err
				}
				fmt.Println("Schema ready")
				return nil
			})
		},
	})
	dbCmd.AddCommand(createImportCmd())
	return dbCmd
}

// createImportCmd loads directory CSV exports
func createImportCmd() *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import directory CSV exports",
	}

	var role string
	stationsCmd := &cobra.Command{
		Use:   "stations [filename]",
		Short: "Import a station table CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := directory.Role(role)
			if r != directory.RolePI && r != directory.RoleSP {
				return fmt.Errorf("unknown role %q (want pi or sp)", role)
			}
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				stats, err := import_pkg.NewCSVImporter(app.Conn, slog.Default()).ImportStations(ctx, args[0], r)
				if err != nil {
					return err
				}
				fmt.Printf("Imported %d stations, %d errors\n", stats.Imported, stats.Errors)
				return nil
			})
		},
	}
	stationsCmd.Flags().StringVar(&role, "role", string(directory.RolePI), "Station table (pi or sp)")

	villagesCmd := &cobra.Command{
		Use:   "villages [filename]",
		Short: "Import the village CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				stats, err := import_pkg.NewCSVImporter(app.Conn, slog.Default()).ImportVillages(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Imported %d villages, %d errors\n", stats.Imported, stats.Errors)
				return nil
			})
		},
	}

	importCmd.AddCommand(stationsCmd, villagesCmd)
	return importCmd
}
