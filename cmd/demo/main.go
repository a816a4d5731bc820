// Command demo shows the Blinn-Phong shading pipeline: "run" opens an
// OpenGL window, "preview" renders the same scene on the CPU to a PNG.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shading-engine/config"
	"shading-engine/internal/logger"
)

type options struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "demo",
		Short:         "Blinn-Phong material shading demo",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "TOML settings file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(newRunCommand(opts), newPreviewCommand(opts))
	return root
}

// setup loads the configuration and starts the logger.
func (o *options) setup() (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return config.Config{}, err
		}
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
