package main

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/openpipe/connectorhub/internal/aplog"
	"github.com/openpipe/connectorhub/internal/config"
	"github.com/openpipe/connectorhub/internal/database"
	"github.com/openpipe/connectorhub/internal/service"
	"github.com/openpipe/connectorhub/internal/service/admin"
	"github.com/openpipe/connectorhub/internal/service/public"
	"github.com/openpipe/connectorhub/internal/service/worker"
)

var cfgFile string
var cfg config.C

func loadConfig() error {
	if cfgFile == "" {
		cfgFile = os.Getenv("CONNECTORHUB_CONFIG")
	}

	if cfgFile == "" {
		return errors.New("no configuration file found; must be specified with --config or CONNECTORHUB_CONFIG environment variable")
	}

	var err error
	cfg, err = config.LoadFromFile(cfgFile)
	return errors.Wrapf(err, "failed to load configuration from '%s'", cfgFile)
}

func runServices(noBanner bool, servicesList string) error {
	services := strings.Split(servicesList, ",")
	servers := make([]func(deps *service.Deps) error, 0, len(services))
	names := make([]string, 0, len(services))

	for _, svc := range services {
		switch svc {
		case "public":
			servers = append(servers, public.Serve)
			names = append(names, "public")
		case "admin":
			servers = append(servers, admin.Serve)
			names = append(names, "admin")
		case "worker":
			servers = append(servers, worker.Serve)
			names = append(names, "worker")
		case "all":
			servers = append(servers, public.Serve, admin.Serve, worker.Serve)
			names = append(names, "public", "admin", "worker")
		default:
			return errors.New("unknown service: " + svc)
		}
	}

	if len(servers) == 0 {
		return errors.New("no services provided")
	}

	if !noBanner {
		banner()
	}

	deps, err := service.BuildDeps(cfg, strings.Join(names, ","))
	if err != nil {
		return err
	}
	defer deps.Close()

	wg := new(sync.WaitGroup)
	for i, server := range servers {
		wg.Add(1)
		go func(name string, server func(deps *service.Deps) error) {
			defer wg.Done()
			if err := server(deps); err != nil {
				deps.Logger.Error("service exited", "service", name, "error", err)
			}
		}(names[i], server)
	}

	wg.Wait()

	return nil
}

func banner() {
	banner := `
   ______                            __             __  __      __
  / ____/___  ____  ____  ___  _____/ /_____  _____/ / / /_  __/ /_
 / /   / __ \/ __ \/ __ \/ _ \/ ___/ __/ __ \/ ___/ /_/ / / / / __ \
/ /___/ /_/ / / / / / / /  __/ /__/ /_/ /_/ / /  / __  / /_/ / /_/ /
\____/\____/_/ /_/_/ /_/\___/\___/\__/\____/_/  /_/ /_/\__,_/_.___/
`
	color.Green(banner)
}

func cmdServe() *cobra.Command {
	var noBanner bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start services",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServices(noBanner, args[0])
		},
	}

	cmd.Flags().BoolVar(&noBanner, "no-banner", false, "Don't show banner")

	return cmd
}

func cmdMigrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := aplog.NewDefault(cfg.IsDebugMode())

			db, err := database.NewConnectionForRoot(cfg.GetRoot(), logger)
			if err != nil {
				return errors.Wrap(err, "failed to connect to database")
			}

			if err := db.Migrate(context.Background()); err != nil {
				return errors.Wrap(err, "failed to migrate database")
			}

			logger.Info("database migrated")
			return nil
		},
	}
}

func main() {
	// Optionally load environment variables from a .env file.
	_ = godotenv.Load()

	var rootCmd = &cobra.Command{
		Use: "connectorhub",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file; may also be specified in CONNECTORHUB_CONFIG")

	rootCmd.AddCommand(cmdServe())
	rootCmd.AddCommand(cmdMigrate())
	rootCmd.Execute()
}
