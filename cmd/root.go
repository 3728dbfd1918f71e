package cmd

import (
	"fmt"
	"os"

	"radetzky/config"
	"radetzky/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	configFile string
	v          = config.New()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "radetzky",
	Short: "RadetzkyFM internet radio player",
	Long: `Listen to RadetzkyFM from the terminal.

The "serve" command runs the backend API (stream metadata, stream proxy and
now-playing push); the "play" command runs the player with its visualizer.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is ./radetzky.yaml or $HOME/.config/radetzky/radetzky.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON instead of console output")

	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log.json", rootCmd.PersistentFlags().Lookup("log-json"))

	rootCmd.AddCommand(serveCmd, playCmd)
}

// initializeConfig reads the config file and sets up logging once flags are parsed
func initializeConfig(cmd *cobra.Command) error {
	if err := config.ReadFile(v, configFile); err != nil {
		return err
	}
	if err := bindFlags(cmd, v); err != nil {
		return err
	}

	logging.Setup(v.GetString("log.level"), v.GetBool("log.json"))
	return nil
}

// bindFlags binds every local flag annotated with a config key to viper
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		key, ok := f.Annotations[configKey]
		if !ok || len(key) == 0 {
			return
		}
		if err := v.BindPFlag(key[0], f); err != nil {
			lastErr = err
		}
	})
	return lastErr
}

// configKey annotates a flag with the viper key it overrides
const configKey = "radetzky_config_key"

func flagFor(fs *pflag.FlagSet, name, key string) {
	_ = fs.SetAnnotation(name, configKey, []string{key})
}

// loadConfig decodes the merged configuration
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}
