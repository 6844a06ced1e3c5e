package cmd

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/tagset/internal/filter"
	"github.com/zjrosen/tagset/internal/log"
	"github.com/zjrosen/tagset/internal/presentation"
	"github.com/zjrosen/tagset/internal/pubsub"
	"github.com/zjrosen/tagset/internal/tagservice"
	"github.com/zjrosen/tagset/internal/watcher"
)

var watchVerbose bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Resolve tags and reload them when their documents change",
	Long: `Resolve every tag, then watch the tags directory and reload all tags
whenever a document is written, created, removed or renamed. Each reload
prints its report and the membership changes of every tag.

Examples:
  tagset watch
  tagset watch --verbose`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false, "stream log lines to stderr")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	broker := pubsub.NewBroker[tagservice.TagEvent]()
	defer broker.Close()
	if watchVerbose {
		streamLogs(ctx, cmd.ErrOrStderr())
		go printEvents(broker.Subscribe(ctx), cmd.ErrOrStderr())
	}

	a, err := newApp(ctx, broker)
	if err != nil {
		return err
	}
	defer a.Close()

	var itemFilter *filter.ItemFilter
	if len(cfg.Filter.Allow)+len(cfg.Filter.Deny) > 0 {
		itemFilter, err = filter.New(a.service, cfg.Filter, filter.WithTracer(a.tracer.Tracer()))
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	formatter := presentation.NewFormatter(out, outputFormat)
	report, _ := a.service.LoadAll(ctx)
	if err := formatter.FormatReport(presentation.FromReport(report)); err != nil {
		return err
	}

	w, err := watcher.New(watcher.Config{
		Dir:         cfg.Tags.Dir,
		Extension:   ".json",
		DebounceDur: cfg.Watch.Debounce,
	})
	if err != nil {
		return err
	}
	changes, err := w.Start()
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "watching %s (ctrl+c to stop)\n", cfg.Tags.Dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			log.Info(log.CatWatcher, "Tag documents changed", "names", change.Names)
			if err := reloadAndDiff(ctx, a.service, itemFilter, formatter); err != nil {
				return err
			}
		}
	}
}

// reloadAndDiff reloads every tag, prints the report and the membership
// changes, and, when f is set, prints fresh filter decisions for every item
// whose membership changed.
func reloadAndDiff(ctx context.Context, svc *tagservice.Service, f *filter.ItemFilter, formatter *presentation.Formatter) error {
	before := snapshot(svc)

	report, err := svc.Reload(ctx)
	if report == nil {
		// The source could not be listed; keep serving the old generation.
		log.ErrorErr(log.CatTags, "Reload failed", err)
		return nil
	}
	if err := formatter.FormatReport(presentation.FromReport(report)); err != nil {
		return err
	}

	after := snapshot(svc)
	changed := map[string]struct{}{}
	printDiff := func(key string, diff presentation.MembershipDiff) error {
		for _, id := range slices.Concat(diff.Added, diff.Removed) {
			changed[id] = struct{}{}
		}
		return formatter.FormatDiff(key, diff)
	}
	for _, key := range slices.Sorted(maps.Keys(after)) {
		if err := printDiff(key, presentation.DiffMembers(before[key], after[key])); err != nil {
			return err
		}
	}
	for _, key := range report.Removed {
		if err := printDiff(key.String(), presentation.DiffMembers(before[key.String()], nil)); err != nil {
			return err
		}
	}

	if f == nil {
		return nil
	}
	if err := f.Invalidate(ctx); err != nil {
		return err
	}
	if len(changed) == 0 {
		return nil
	}
	decisions := make([]presentation.DecisionDTO, 0, len(changed))
	for _, id := range slices.Sorted(maps.Keys(changed)) {
		d, err := f.Permits(ctx, id)
		if err != nil {
			log.ErrorErr(log.CatFilter, "Filter check failed", err, "item", id)
			continue
		}
		decisions = append(decisions, presentation.FromDecision(id, d))
	}
	return formatter.FormatDecisions(decisions)
}

// snapshot maps every resolved tag to its flattened values.
func snapshot(svc *tagservice.Service) map[string][]string {
	out := map[string][]string{}
	for _, tag := range svc.Tags() {
		if !tag.Resolved() {
			continue
		}
		values := tag.Values()
		members := make([]string, len(values))
		for i, v := range values {
			members[i] = v.String()
		}
		out[tag.Key().String()] = members
	}
	return out
}

func printEvents(events <-chan pubsub.Event[tagservice.TagEvent], w io.Writer) {
	for ev := range events {
		_, _ = fmt.Fprintf(w, "[gen %d] %s %s\n", ev.Payload.Generation, ev.Type, ev.Payload.Key)
	}
}

func streamLogs(ctx context.Context, w io.Writer) {
	lines := log.Subscribe(ctx)
	if lines == nil {
		log.SetOutput(io.Discard)
		log.SetMinLevel(log.LevelInfo)
		lines = log.Subscribe(ctx)
	}
	go func() {
		for line := range lines {
			_, _ = fmt.Fprintln(w, line.Payload)
		}
	}()
}
