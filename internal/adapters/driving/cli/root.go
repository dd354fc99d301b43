// Package cli implements the trakhound command line.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trakhound/trakhound-core/internal/adapters/driven/config/file"
	"github.com/trakhound/trakhound-core/internal/app"
	"github.com/trakhound/trakhound-core/internal/core/ports/driving"
	"github.com/trakhound/trakhound-core/internal/logger"
)

// skipEngine marks commands that run without opening the drivers.
const skipEngine = "skip-engine"

var (
	version = "dev"

	settings = viper.New()
	cfg      file.Config
	log      = logger.Nop()
	engine   *app.Engine

	entityService driving.EntityService
	queryService  driving.QueryService
	driverService driving.DriverService

	outputJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "trakhound",
	Short: "TrakHound entity storage engine",
	Long: `Reads, publishes and queries TrakHound entities through the configured
storage drivers, or serves them over HTTP.

Configuration is read from <config-dir>/config.toml. Every flag can also be
set through a TRAKHOUND_ environment variable or a .env file.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config-dir", "", "configuration directory (default ~/.trakhound)")
	flags.BoolP("verbose", "v", false, "enable verbose logging")
	flags.BoolVar(&outputJSON, "json", false, "output results as JSON")

	_ = settings.BindPFlag("config-dir", flags.Lookup("config-dir"))
	_ = settings.BindPFlag("verbose", flags.Lookup("verbose"))
	settings.SetEnvPrefix("TRAKHOUND")
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()
}

// Execute runs the root command. Drivers opened for a failed command are
// closed here since cobra skips the post-run hook on error.
func Execute() error {
	err := rootCmd.Execute()
	return errors.Join(err, teardown(rootCmd, nil))
}

// SetVersion sets the version reported by the version command and /health.
func SetVersion(v string) {
	version = v
}

// SetServices injects the services used by the commands. When they are
// set no drivers are opened from configuration.
func SetServices(entities driving.EntityService, query driving.QueryService, drivers driving.DriverService) {
	entityService = entities
	queryService = query
	driverService = drivers
}

// setup loads .env, the configuration file and, unless services were
// injected, opens the configured drivers.
func setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	if f := cmd.Flags().Lookup("listen"); f != nil {
		_ = settings.BindPFlag("listen", f)
	}
	if cmd.Annotations[skipEngine] == "true" {
		return nil
	}

	store, err := file.NewConfigStore(settings.GetString("config-dir"))
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	cfg, err = store.Load()
	if err != nil {
		return err
	}
	if settings.GetBool("verbose") {
		cfg.Logging.Verbose = true
	}
	if listen := settings.GetString("listen"); listen != "" {
		cfg.HTTP.Listen = listen
	}
	log = logger.New(cmd.ErrOrStderr(), cfg.Logging.Verbose)

	if entityService != nil {
		return nil
	}
	engine, err = app.New(cfg, log)
	if err != nil {
		return err
	}
	SetServices(engine.Entities, engine.Query, engine.Drivers)
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if engine == nil {
		return nil
	}
	err := engine.Close()
	engine = nil
	SetServices(nil, nil, nil)
	return err
}
