// Command eosdump prints the structure of HDF-EOS files, reads field
// selections and geolocates grid cells.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rtm0/eos/eos"
	"github.com/rtm0/eos/index"
)

// newRoot builds the command tree. Every flag can also be set with an
// environment variable named EOSDUMP_<flag> or in the file given with
// --config.
func newRoot() *cobra.Command {
	cfg := viper.New()
	root := &cobra.Command{
		Use:          "eosdump",
		Short:        "Inspect HDF-EOS grid and swath files.",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return setConfig(cfg)
		},
	}
	flags := root.PersistentFlags()
	flags.String("config", "", "path to a configuration file")
	flags.Bool("verbose", false, "log debug messages to stderr")

	root.AddCommand(infoCmd(cfg), readCmd(cfg), geolocCmd(cfg))

	cfg.SetEnvPrefix("EOSDUMP")
	cfg.AutomaticEnv()
	if err := cfg.BindPFlags(flags); err != nil {
		panic(err)
	}
	return root
}

// setConfig reads in the configuration file, if there is one.
func setConfig(cfg *viper.Viper) error {
	if path := cfg.GetString("config"); path != "" {
		cfg.SetConfigFile(path)
		if err := cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("problem reading configuration file: %w", err)
		}
	}
	return nil
}

func openOptions(cfg *viper.Viper) []eos.Option {
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	if cfg.GetBool("verbose") {
		opts.Level = slog.LevelDebug
	}
	return []eos.Option{eos.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, opts)))}
}

// subscriptArg parses args[i], defaulting to the full selection.
func subscriptArg(args []string, i int) (index.Subscript, error) {
	if len(args) <= i {
		return index.Ellipsis, nil
	}
	sub, err := index.Parse(args[i])
	if err != nil {
		return nil, fmt.Errorf("subscript %q: %w", args[i], err)
	}
	return sub, nil
}

func main() {
	if err := newRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}
