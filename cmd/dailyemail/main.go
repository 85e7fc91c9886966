package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ymhc/dailyemail/internal/config"
	"github.com/ymhc/dailyemail/internal/email"
	"github.com/ymhc/dailyemail/internal/logger"
	"github.com/ymhc/dailyemail/internal/runlock"
	"github.com/ymhc/dailyemail/internal/selection"
	"github.com/ymhc/dailyemail/internal/service"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "dailyemail",
	Short:         "Send the daily message of support",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSend,
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Render today's email, write the preview and send it",
	RunE:  runSend,
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render today's email and write the preview file without sending",
	RunE:  runPreview,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to a config file")
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(previewCmd)
}

func main() {
	code, msg := exitCode(rootCmd.Execute())
	if msg != "" {
		fmt.Fprint(os.Stdout, msg)
	}
	os.Exit(code)
}

// exitCode maps a run error to the process status and the report printed
// for it. A failed send has already been logged and does not fail the job.
func exitCode(err error) (int, string) {
	if err == nil || errors.Is(err, service.ErrDeliveryFailed) {
		return 0, ""
	}

	var missing *config.MissingEnvError
	if errors.As(err, &missing) {
		return 1, fmt.Sprintf("Error: Missing environment variables: %s\n"+
			"Please check your GitHub Secrets (or .env file locally).\n",
			strings.Join(missing.Names, ", "))
	}

	return 1, fmt.Sprintf("Error: %v\n", err)
}

type app struct {
	cfg   *config.Config
	log   *logger.Logger
	svc   *service.DailyEmailService
	close func()
}

func setup() (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format).WithRunID(uuid.NewString())

	var guard runlock.Guard = runlock.Noop{}
	closeFn := func() {}
	if cfg.Redis.Enabled() {
		rl := runlock.NewRedis(cfg.Redis)
		guard = rl
		closeFn = func() { _ = rl.Close() }
	}

	selector := selection.NewFromEntropy(cfg.Content.ActivityCount)
	svc := service.NewDailyEmailService(selector, senderFactory(cfg), guard, cfg, log)

	return &app{cfg: cfg, log: log, svc: svc, close: closeFn}, nil
}

func senderFactory(cfg *config.Config) service.SenderFactory {
	return func(ctx context.Context) (email.Sender, error) {
		switch cfg.Email.Provider {
		case "gmail":
			return email.NewGmailSender(ctx, cfg.Email.Gmail, cfg.SMTP.User)
		case "", "smtp":
			return email.NewSMTPSender(cfg.SMTP)
		default:
			return nil, fmt.Errorf("unknown email provider %q", cfg.Email.Provider)
		}
	}
}

func runSend(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.log.Info().Str("provider", a.cfg.Email.Provider).Msg("starting daily email run")
	return a.svc.Run(ctx)
}

func runPreview(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	draft, err := a.svc.Prepare(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Preview written to %s\n", draft.PreviewPath)
	return nil
}
