package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netdraw/pkg/errors"
	"github.com/matzehuels/netdraw/pkg/pipeline"
	"github.com/matzehuels/netdraw/pkg/render"
)

// renderOpts holds the command-line flags for the render and watch commands.
type renderOpts struct {
	output   string // output file (single format) or base path (several)
	formats  string // comma-separated output formats
	page     string // page id; empty renders the first page
	pinned   bool   // keep document coordinates
	detailed bool   // add device type and id to labels
	noCache  bool   // bypass the artifact cache
}

func (o *renderOpts) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file (single format) or base path (several)")
	cmd.Flags().StringVarP(&o.formats, "format", "f", "", "output format(s): svg (default), png, dot (comma-separated)")
	cmd.Flags().StringVar(&o.page, "page", "", "page id to render (default: first page)")
	cmd.Flags().BoolVar(&o.pinned, "pinned", false, "keep element positions from the document")
	cmd.Flags().BoolVar(&o.detailed, "detailed", false, "show device type and element id in labels")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable the artifact cache")
}

// pipelineOptions converts the flags for one run on input.
func (o *renderOpts) pipelineOptions(input string) (pipeline.Options, error) {
	formats, err := render.ParseFormats(o.formats)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Path:     input,
		Page:     o.page,
		Formats:  formats,
		Pinned:   o.pinned,
		Detailed: o.detailed,
	}, nil
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a diagram page to SVG, PNG or DOT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	popts, err := opts.pipelineOptions(input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering "+filepath.Base(input)+"...")
	spinner.Start()
	result, err := runner.Execute(ctx, popts)
	spinner.Stop()
	if err != nil {
		if spinner.Cancelled() {
			return ctx.Err()
		}
		printError("Render failed: %s", errors.UserMessage(err))
		printIssues(err)
		return err
	}

	for _, w := range result.Warnings {
		printWarning("%s", w)
	}
	printSuccess("Rendered %s", input)
	printStats(result.Document.Stats(), result.CacheInfo.RenderHit)
	return writeArtifacts(result.Artifacts, popts.Formats, input, opts.output)
}

// writeArtifacts writes each rendered format to its output path.
func writeArtifacts(artifacts map[render.Format][]byte, formats []render.Format, input, output string) error {
	for _, f := range formats {
		path := outputPath(output, input, f, len(formats))
		if err := os.WriteFile(path, artifacts[f], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// outputPath picks the file for format f. A single format uses output as
// given; several formats share output's base name. Without output the input
// file name is reused.
func outputPath(output, input string, f render.Format, count int) string {
	if output != "" && count == 1 {
		return output
	}
	return basePath(output, input) + "." + string(f)
}

// basePath strips a known format extension from output, or the extension
// of input when output is empty.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	for _, f := range render.Formats {
		if strings.EqualFold(ext, "."+string(f)) {
			return strings.TrimSuffix(output, ext)
		}
	}
	return output
}
