package main

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/fennwick/taskboard/internal/activity"
	"github.com/fennwick/taskboard/internal/claim"
	"github.com/fennwick/taskboard/internal/columns"
	"github.com/fennwick/taskboard/internal/config"
	"github.com/fennwick/taskboard/internal/dashboard"
	"github.com/fennwick/taskboard/internal/db"
	"github.com/fennwick/taskboard/internal/notify"
	"github.com/fennwick/taskboard/internal/pipeline"
	"github.com/fennwick/taskboard/internal/poll"
	"github.com/fennwick/taskboard/internal/selector"
	"github.com/spf13/cobra"
)

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the AUTOCLAUDE daemon",
		Long:  "Connects to the task store, verifies external tools, and polls for claimable tasks until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd)
		},
	}
}

func runStart(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.DigestCron != "" && !notify.ValidDigestCron(cfg.DigestCron) {
		return fmt.Errorf("invalid digest cron expression %q", cfg.DigestCron)
	}

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to task store: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := pipeline.NewExecRunner()
	if err := poll.ValidateDependencies(ctx, runner, cfg.GitBinary, cfg.GhBinary, cfg.CodegenBinary); err != nil {
		return err
	}

	cache := columns.NewCache(selector.ColumnLoader(gdb), cfg.ColumnCacheTTL())
	sel := selector.New(gdb, cache, selector.Options{
		ClaimTimeout:     cfg.ClaimTimeout(),
		MaxRetryAttempts: cfg.MaxRetryAttempts,
		MaxConcurrent:    cfg.MaxConcurrentTasks,
	})
	coord := claim.NewCoordinator(gdb, cfg.InstanceID, cfg.ClaimTimeout())
	pipe := pipeline.New(runner, coord, pipeline.Options{
		WorkspaceRoot:    cfg.WorkspaceRoot,
		ToolTimeout:      cfg.ToolTimeout(),
		CleanupOnSuccess: cfg.CleanupOnSuccess,
		GitBinary:        cfg.GitBinary,
		GhBinary:         cfg.GhBinary,
		CodegenBinary:    cfg.CodegenBinary,
		GitHubToken:      cfg.GitHubToken,
	})
	emitter := activity.NewEmitter(gdb, cfg.InstanceID)
	notifier := buildNotifier(cfg)

	if cfg.DashboardAddr != "" {
		go func() {
			opts := dashboard.StartOpts{
				DB:           gdb,
				Addr:         cfg.DashboardAddr,
				InstanceID:   cfg.InstanceID,
				ClaimTimeout: cfg.ClaimTimeout(),
				Out:          cmd.OutOrStdout(),
			}
			if err := dashboard.Start(ctx, opts); err != nil {
				log.Printf("dashboard: %v", err)
			}
		}()
	}

	if cfg.DigestCron != "" {
		go notify.RunDigest(ctx, notifier, emitter, cfg.DigestCron)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "AUTOCLAUDE started (instance: %s)\n", cfg.InstanceID)
	fmt.Fprintf(out, "  Poll interval:  %s\n", cfg.PollInterval())
	fmt.Fprintf(out, "  Claim timeout:  %s\n", cfg.ClaimTimeout())
	fmt.Fprintf(out, "  Max concurrent: %d\n", cfg.MaxConcurrentTasks)
	if cfg.DashboardAddr != "" {
		fmt.Fprintf(out, "  Dashboard:      http://%s\n", cfg.DashboardAddr)
	}

	loop := poll.New(sel, coord, pipe, emitter, notifier, poll.Options{
		Interval:   cfg.PollInterval(),
		MaxBackoff: cfg.MaxBackoff(),
	})
	return loop.Run(ctx)
}

// buildNotifier wires up whichever webhook adapters the environment
// configures. No adapters is fine; the notifier swallows everything.
func buildNotifier(cfg *config.Config) *notify.Notifier {
	var adapters []notify.Adapter
	if cfg.SlackWebhookURL != "" {
		adapters = append(adapters, notify.NewSlackAdapter(cfg.SlackWebhookURL))
	}
	if cfg.DiscordWebhookID != "" && cfg.DiscordWebhookToken != "" {
		discord, err := notify.NewDiscordAdapter(cfg.DiscordWebhookID, cfg.DiscordWebhookToken)
		if err != nil {
			log.Printf("notify: discord adapter disabled: %v", err)
		} else {
			adapters = append(adapters, discord)
		}
	}
	return notify.New(adapters...)
}
