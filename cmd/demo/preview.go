package main

import (
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shading-engine/config"
	"shading-engine/internal/logger"
	"shading-engine/shading"
)

func newPreviewCommand(opts *options) *cobra.Command {
	var (
		out    string
		width  int
		height int
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the scene on the CPU and write a PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if width <= 0 || height <= 0 {
				return fmt.Errorf("preview size %dx%d must be positive", width, height)
			}
			cfg.Window.Width, cfg.Window.Height = width, height
			return preview(cfg, out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "preview.png", "output PNG path")
	cmd.Flags().IntVar(&width, "width", 320, "image width in pixels")
	cmd.Flags().IntVar(&height, "height", 240, "image height in pixels")
	return cmd
}

func preview(cfg config.Config, out string) error {
	s, err := buildScene(cfg, nil)
	if err != nil {
		return err
	}
	img, err := shading.RenderScene(s, cfg.Window.Width, cfg.Window.Height)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %q: %w", out, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %q: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Log.Info("preview written", zap.String("path", out),
		zap.Int("width", cfg.Window.Width), zap.Int("height", cfg.Window.Height))
	return nil
}
