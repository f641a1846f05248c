package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/netdraw/pkg/errors"
)

// watchDebounce collapses the burst of events an editor's save produces.
const watchDebounce = 150 * time.Millisecond

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "watch [file]",
		Short: "Re-render a diagram whenever the file changes",
		Long: `Watch renders the diagram once and again after every save until
interrupted. Invalid intermediate saves are reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd.Context(), args[0], &opts)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	abs, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	popts, err := opts.pipelineOptions(abs)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	rerender := func() {
		result, err := runner.Execute(ctx, popts)
		if err != nil {
			printError("%s: %s", input, errors.UserMessage(err))
			printIssues(err)
			return
		}
		printSuccess("Rendered %s", input)
		printStats(result.Document.Stats(), result.CacheInfo.RenderHit)
		if err := writeArtifacts(result.Artifacts, popts.Formats, input, opts.output); err != nil {
			printError("%s", err)
		}
	}

	rerender()
	printInfo("Watching %s (ctrl+c to stop)", input)

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if isChange(ev, abs) {
				logger.Debug("file event", "op", ev.Op.String(), "file", ev.Name)
				debounce = time.After(watchDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		case <-debounce:
			debounce = nil
			rerender()
		}
	}
}

// isChange reports whether ev rewrote the file at path.
func isChange(ev fsnotify.Event, path string) bool {
	if filepath.Clean(ev.Name) != path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}

