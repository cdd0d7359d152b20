package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sabercon-migrate/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
)

var RootCmd = &cobra.Command{
	Use:   "sabercon-migrate",
	Short: "Migrates the legacy SaberCon database into the portal",
	Long: `sabercon-migrate moves the legacy SaberCon MySQL data into the new
PostgreSQL portal schema.

  analyze   report type compatibility and data defects of the legacy schema
  plan      show the import order and what each dump holds
  import    import dump files, translating every id through the mapping table
  migrate   create the id mapping table
  generate  write fake dump files to rehearse an import
  clean     remove imported rows and their mappings`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		logger = newLogger(cfg.Log, cmd.ErrOrStderr())
		slog.SetDefault(logger)
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := RootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := RootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./sabercon-migrate.yaml)")
	flags.String("source-dsn", "", "legacy database DSN (overrides source.* settings)")
	flags.String("target-dsn", "", "portal database DSN (overrides target.* settings)")
	flags.String("dump-dir", "", "directory holding <entity>.sql dump files")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-format", "", "text or json")

	for _, side := range []string{"source", "target"} {
		flags.String(side+"-host", "", side+" database host")
		flags.Int(side+"-port", 0, side+" database port")
		flags.String(side+"-user", "", side+" database user")
		flags.String(side+"-password", "", side+" database password")
		flags.String(side+"-database", "", side+" database name")
		flags.String(side+"-schema", "", side+" schema name")
		flags.String(side+"-params", "", side+" driver parameters as a query string")
		for _, key := range []string{"host", "port", "user", "password", "database", "schema", "params"} {
			_ = viper.BindPFlag(side+"."+key, flags.Lookup(side+"-"+key))
		}
	}
	_ = viper.BindPFlag("source.dsn", flags.Lookup("source-dsn"))
	_ = viper.BindPFlag("target.dsn", flags.Lookup("target-dsn"))
	_ = viper.BindPFlag("import.dump_dir", flags.Lookup("dump-dir"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))

	config.SetDefaults(viper.GetViper())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		if ex, err := os.Executable(); err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}
		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("sabercon-migrate")
		viper.SetConfigType("yaml")
	}

	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
