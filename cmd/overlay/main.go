package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ymhc/dailyemail/internal/config"
	"github.com/ymhc/dailyemail/internal/logger"
	"github.com/ymhc/dailyemail/internal/overlay"
)

var (
	configFile string
	inputDir   string
	outputDir  string
	hexColor   string
	opacity    float64
)

var rootCmd = &cobra.Command{
	Use:           "overlay",
	Short:         "Tint every image in a directory with the brand color",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runOverlay,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "path to a config file")
	flags.StringVar(&inputDir, "input", "", "directory of source images")
	flags.StringVar(&outputDir, "output", "", "directory for tinted images")
	flags.StringVar(&hexColor, "color", "", "overlay color as #rrggbb")
	flags.Float64Var(&opacity, "opacity", 0, "overlay opacity between 0 and 1")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stdout, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runOverlay(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Overlay.InputDir = inputDir
	}
	if flags.Changed("output") {
		cfg.Overlay.OutputDir = outputDir
	}
	if flags.Changed("color") {
		cfg.Overlay.Color = hexColor
	}
	if flags.Changed("opacity") {
		cfg.Overlay.Opacity = opacity
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	p, err := overlay.NewProcessor(cfg.Overlay, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := p.Run(ctx)
	if err != nil {
		return err
	}
	if res.InputCreated {
		fmt.Printf("Created %s. Place your images in it and run again.\n", cfg.Overlay.InputDir)
	}
	return nil
}
