package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tunaaoguzhann/glyphgate/config"
)

type rootOptions struct {
	ConfigPath string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var opts rootOptions
	cmd := &cobra.Command{
		Use:          "glyphgate",
		Short:        "glyphgate serves the hieroglyph dictionary API",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file (env GLYPH_* overrides it)")
	cmd.AddCommand(serveCmd(&opts), checkConfigCmd(&opts))
	return cmd
}

func checkConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "load and validate the configuration, then exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			warnings, err := cfg.Validate()
			for _, w := range warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: env=%s store=%s ratelimit=%s\n", cfg.App.Env, cfg.Store.Backend, cfg.RateLimit.Backend)
			return nil
		},
	}
}
