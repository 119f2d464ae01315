package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KasumiMercury/primind-last-train/internal/domain"
	"github.com/KasumiMercury/primind-last-train/internal/service/departure"
	"github.com/KasumiMercury/primind-last-train/internal/service/route"
)

// Version is set via ldflags at build time
var Version = "dev"

type options struct {
	deadline string
	travel   int
	label    string
	noNotify bool
	rollover string
	from     string
	to       string
	seed     uint64
	verbose  bool
}

func main() {
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "lasttrain",
		Short:        "Count down to the moment you must leave to catch the last train",
		Version:      Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, out, opts)
		},
	}

	cmd.Flags().StringVar(&opts.deadline, "deadline", "", "Last train departure HH:MM")
	cmd.Flags().IntVar(&opts.travel, "travel", 0, "Minutes needed to reach the station")
	cmd.Flags().StringVar(&opts.label, "label", "", "Line name shown in the alert")
	cmd.Flags().BoolVar(&opts.noNotify, "no-notify", false, "Disable the ten-minute alert")
	cmd.Flags().StringVar(&opts.rollover, "rollover", string(departure.RolloverAtDeadline), "When a missed cycle moves to tomorrow: deadline|leave")
	cmd.Flags().StringVar(&opts.from, "from", "", "Plan a mock route from this place instead of --deadline/--travel")
	cmd.Flags().StringVar(&opts.to, "to", "", "Destination for --from")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Seed for the mock route planner (0 = clock)")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Log timer events to stderr")

	cmd.MarkFlagsRequiredTogether("from", "to")
	cmd.MarkFlagsMutuallyExclusive("deadline", "from")

	return cmd
}

func run(ctx context.Context, out io.Writer, opts options) error {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	rollover, ok := departure.ParseRollover(opts.rollover)
	if !ok {
		return fmt.Errorf("invalid --rollover %q: want deadline or leave", opts.rollover)
	}

	cfg, info, err := resolveConfig(ctx, opts)
	if err != nil {
		return err
	}

	screen := newScreen(out)
	if info != nil {
		screen.route(info)
	}

	t, err := departure.NewTimer("cli", cfg,
		departure.WithRollover(rollover),
		departure.WithSink(bellSink{screen: screen}),
		departure.WithTickHook(screen.countdown),
	)
	if err != nil {
		return err
	}

	if err := t.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	t.Stop()
	screen.done()

	return nil
}

func resolveConfig(ctx context.Context, opts options) (domain.TimerConfig, *domain.RouteInfo, error) {
	if opts.from != "" {
		seed := opts.seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}

		info, err := route.NewMockSource(seed).Plan(ctx, opts.from, opts.to)
		if err != nil {
			return domain.TimerConfig{}, nil, err
		}

		label := opts.label
		if label == "" {
			label = info.Steps[1].Line
		}
		return info.TimerConfig(label, !opts.noNotify), info, nil
	}

	if opts.deadline == "" {
		return domain.TimerConfig{}, nil, errors.New("either --deadline or --from/--to is required")
	}

	d, err := domain.ParseDeadline(opts.deadline)
	if err != nil {
		return domain.TimerConfig{}, nil, err
	}

	cfg := domain.TimerConfig{
		Deadline:             d,
		TravelMinutes:        opts.travel,
		NotificationsEnabled: !opts.noNotify,
		Label:                opts.label,
	}
	if err := cfg.Validate(); err != nil {
		return domain.TimerConfig{}, nil, err
	}

	return cfg, nil, nil
}

// bellSink rings the terminal bell and prints the alert.
type bellSink struct {
	screen *screen
}

func (s bellSink) Notify(_ context.Context, n domain.Notification) error {
	s.screen.alert(n)
	return nil
}
