package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"requestarr/internal/appclient"
	"requestarr/internal/config"
	"requestarr/internal/journal"
	"requestarr/internal/logging"
	"requestarr/internal/mediaserver"
	"requestarr/internal/notifications"
	"requestarr/internal/preflight"
	"requestarr/internal/services"
	"requestarr/internal/settings"
	"requestarr/internal/wizard"
)

// errNotCommitted is returned when the application declined to initialize.
var errNotCommitted = errors.New("application did not report initialized; run setup again")

type setupOptions struct {
	locale     string
	skipVerify bool
	force      bool
}

func newSetupCommand(ctx *commandContext) *cobra.Command {
	var opts setupOptions

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Run first-time setup against the configured application",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd, ctx, opts)
		},
	}
	cmd.Flags().StringVar(&opts.locale, "locale", "", "Locale to persist (defaults to app.locale)")
	cmd.Flags().BoolVar(&opts.skipVerify, "skip-verify", false, "Do not probe the media server before continuing")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Run setup even if the application is already initialized")

	cmd.AddCommand(newSetupCheckCommand(ctx))
	cmd.AddCommand(newSetupStatusCommand(ctx))
	cmd.AddCommand(newSetupResetCommand(ctx))
	return cmd
}

func runSetup(cmd *cobra.Command, ctx *commandContext, opts setupOptions) (err error) {
	cfg, logger, client, err := ctx.client(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	runCtx := cmd.Context()

	if dir := preflight.CheckDirectoryAccess("State directory", cfg.Paths.StateDir); !dir.Passed {
		return fmt.Errorf("state directory unusable: %s", dir.Detail)
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire setup lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another setup is running (lock %s)", cfg.LockPath())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release setup lock", logging.Error(err))
		}
	}()

	store, err := journal.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	notifier := notifications.NewService(cfg)
	step := wizard.StepSignIn
	defer func() {
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		if notifyErr := notifier.NotifySetupFailed(context.WithoutCancel(runCtx), err, step.String()); notifyErr != nil {
			logger.Warn("setup failure notification failed", logging.Error(notifyErr))
		}
	}()

	seed, err := client.PublicSettings(runCtx)
	if err != nil {
		logger.Warn("public settings unavailable; seeding defaults", logging.Error(err))
		seed = settings.Default()
	}
	if seed.Initialized && !opts.force {
		fmt.Fprintf(out, "%s is already initialized; use --force to run setup again\n", seed.ApplicationTitle)
		return nil
	}

	snapshots := settings.New(seed, client,
		settings.WithLogger(logger),
		settings.WithFetchTimeout(cfg.RequestTimeout()),
		settings.WithBaseContext(runCtx),
	)
	refreshCtx, stopRefresh := context.WithCancel(runCtx)
	defer func() {
		stopRefresh()
		snapshots.Wait()
	}()
	if interval := cfg.RefreshInterval(); interval > 0 {
		go snapshots.Run(refreshCtx, interval)
	}

	navigator := &cliNavigator{out: out, baseURL: cfg.App.URL, logger: logger}
	sequencer := wizard.NewSequencer(client, snapshots, navigator, logger)
	controller := wizard.NewController(
		mediaserver.NewResolver(client, logger),
		sequencer,
		wizard.WithObserver(store),
		wizard.WithLogger(logger),
	)
	runID := controller.State().RunID
	runCtx = services.WithRunID(runCtx, runID)

	for _, line := range renderSectionHeader(wizard.Message(wizard.LabelWelcome), colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "Run %s\n", runID)

	if err := signIn(runCtx, out, client, colorize); err != nil {
		return err
	}
	if err := controller.Handle(runCtx, wizard.StepCompleted{Step: wizard.StepSignIn}); err != nil {
		fmt.Fprintln(out, renderStatusLine(wizard.Message(wizard.LabelSignIn), statusError, err.Error(), colorize))
		return err
	}
	state := controller.State()
	step = state.Step
	fmt.Fprintln(out, renderIndicators(state, colorize))

	if err := configureMediaServer(runCtx, out, cfg, controller, state.MediaServerType, opts.skipVerify, colorize); err != nil {
		return err
	}
	if err := controller.Handle(runCtx, wizard.StepCompleted{Step: wizard.StepMediaServer}); err != nil {
		return err
	}
	step = controller.Step()
	fmt.Fprintln(out, renderIndicators(controller.State(), colorize))

	locale := strings.TrimSpace(opts.locale)
	if locale == "" {
		locale = cfg.App.Locale
	}
	fmt.Fprintf(out, "%s (%s)\n", wizard.Message(wizard.FinishLabel(wizard.State{Finalizing: true})), locale)
	result, err := controller.Finalize(runCtx, wizard.FinalizeRequested{Locale: locale})
	if err != nil {
		fmt.Fprintln(out, renderStatusLine(wizard.Message(wizard.LabelFinish), statusError, err.Error(), colorize))
		return err
	}
	if !result.Committed {
		fmt.Fprintln(out, renderStatusLine(wizard.Message(wizard.LabelFinish), statusWarn, "application is not ready to initialize", colorize))
		return errNotCommitted
	}
	fmt.Fprintln(out, renderStatusLine(wizard.Message(wizard.LabelFinish), statusOK, "locale "+result.Locale, colorize))
	if notifyErr := notifier.NotifySetupCompleted(runCtx, snapshots.Get().ApplicationTitle, cfg.App.URL+wizard.RootRoute); notifyErr != nil {
		logger.Warn("setup notification failed", logging.Error(notifyErr))
	}
	return nil
}

func signIn(ctx context.Context, out io.Writer, client *appclient.Client, colorize bool) error {
	user, err := client.CurrentUser(ctx)
	if err != nil {
		message := err.Error()
		if errors.Is(err, services.ErrRejected) {
			message = "api key rejected; check app.api_key"
		}
		fmt.Fprintln(out, renderStatusLine(wizard.Message(wizard.LabelSignIn), statusError, message, colorize))
		return fmt.Errorf("sign in: %w", err)
	}
	who := user.DisplayName
	if who == "" {
		who = user.Email
	}
	fmt.Fprintln(out, renderStatusLine(wizard.Message(wizard.LabelSignIn), statusOK, "signed in as "+who, colorize))
	return nil
}

func configureMediaServer(ctx context.Context, out io.Writer, cfg *config.Config, controller *wizard.Controller, kind mediaserver.Type, skipVerify, colorize bool) error {
	label := wizard.Message(wizard.LabelConfigureServer)
	if skipVerify {
		fmt.Fprintln(out, renderStatusLine(label, statusWarn, "verification skipped for "+kind.String(), colorize))
		return controller.Handle(ctx, wizard.MediaServerConfigured{})
	}

	verifier, err := mediaserver.NewVerifier(kind, cfg, nil)
	if err != nil {
		fmt.Fprintln(out, renderStatusLine(label, statusError, err.Error(), colorize))
		return err
	}
	if err := verifier.Verify(ctx); err != nil {
		fmt.Fprintln(out, renderStatusLine(label, statusError, err.Error(), colorize))
		return err
	}
	fmt.Fprintln(out, renderStatusLine(label, statusOK, kind.String()+" reachable", colorize))
	fmt.Fprintln(out, statusIndent+wizard.Message(wizard.LabelTip)+": "+wizard.Message(wizard.LabelScanBackground))
	return controller.Handle(ctx, wizard.MediaServerConfigured{})
}

// cliNavigator ends the wizard by pointing the operator at the application.
type cliNavigator struct {
	out     io.Writer
	baseURL string
	logger  *slog.Logger
}

func (n *cliNavigator) Navigate(ctx context.Context, route string) error {
	target := strings.TrimRight(n.baseURL, "/") + route
	logging.WithContext(ctx, n.logger).Info("setup complete", slog.String("url", target))
	_, err := fmt.Fprintf(n.out, "Setup complete. Open %s\n", target)
	return err
}
