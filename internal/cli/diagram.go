package cli

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netdraw/pkg/diagram"
	"github.com/matzehuels/netdraw/pkg/errors"
	pkgio "github.com/matzehuels/netdraw/pkg/io"
	"github.com/matzehuels/netdraw/pkg/store"
)

// stdoutPath selects standard output instead of a file.
const stdoutPath = "-"

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var output, format, id string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the default diagram (or a stored one)",
		Long: `Export writes the document an empty editor exports: one page named
"Network Diagram" with no elements. With --id the stored diagram is written
instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := pkgio.ParseFormat(format)
			if err != nil {
				return err
			}
			doc := diagram.NewDocument()
			if id != "" {
				rec, err := c.getStored(cmd.Context(), id)
				if err != nil {
					return err
				}
				doc = rec.Document
			}
			return writeDocument(doc, output, f)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", pkgio.ExportFilename, "output file ('-' for stdout)")
	cmd.Flags().StringVar(&format, "format", "", "encoding: json (default) or xml")
	cmd.Flags().StringVar(&id, "id", "", "export a stored diagram")

	return cmd
}

func writeDocument(doc *diagram.Document, output string, f pkgio.Format) error {
	if output == stdoutPath {
		return pkgio.Write(doc, os.Stdout, f)
	}
	if err := pkgio.Export(doc, output, f); err != nil {
		return err
	}
	printSuccess("Exported diagram")
	printFile(output)
	return nil
}

func (c *CLI) getStored(ctx context.Context, id string) (*store.Record, error) {
	st, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Get(ctx, id)
}

type importOpts struct {
	inspect  bool
	save     string
	name     string
	mode     string
	conflict string
}

// importCommand creates the import command.
func (c *CLI) importCommand() *cobra.Command {
	var opts importOpts

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a .drawio, .json or .xml diagram",
		Long: `Import reads and validates a diagram file and prints what it contains.

With --inspect the file is only parsed as JSON and the result is logged, the
way the editor's import dialog does. With --save the document is written to
the diagram store; --mode merge merges it into an existing stored diagram.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.inspect {
				return c.runInspect(cmd.Context(), args[0])
			}
			return c.runImport(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.inspect, "inspect", false, "only parse and log the file")
	cmd.Flags().StringVar(&opts.save, "save", "", "store the diagram under this id")
	cmd.Flags().StringVar(&opts.name, "name", "", "display name for the stored diagram")
	cmd.Flags().StringVar(&opts.mode, "mode", string(diagram.ModeReplace), "replace or merge into the stored diagram")
	cmd.Flags().StringVar(&opts.conflict, "conflict", string(diagram.ConflictRename), "merge id conflicts: rename, keep or overwrite")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, path string) error {
	ed, err := c.newEditor()
	if err != nil {
		return err
	}
	data, err := pkgio.ReadFile(path)
	if err != nil {
		return err
	}
	rep := ed.Inspect(ctx, path, bytes.NewReader(data))
	if !rep.Valid {
		printError("Could not parse %s", path)
		printDetail("%s", rep.Error)
		return nil
	}
	printSuccess("Parsed %s", path)
	printDetail("run with -v to log the parsed data")
	return nil
}

func (c *CLI) runImport(ctx context.Context, path string, opts importOpts) error {
	logger := loggerFromContext(ctx)
	mode, err := diagram.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	policy, err := diagram.ParseConflictPolicy(opts.conflict)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := pkgio.Import(path)
	if err != nil {
		printError("Import failed: %s", errors.UserMessage(err))
		printIssues(err)
		return err
	}
	logElapsed(logger, start, "decoded diagram", "file", path, "format", res.Format)

	for _, w := range res.Warnings {
		printWarning("%s", w)
	}
	printSuccess("Imported %s (%s)", path, res.Format)
	printStats(res.Document.Stats(), false)

	if opts.save == "" {
		return nil
	}
	return c.saveImported(ctx, res.Document, opts, mode, policy)
}

func (c *CLI) saveImported(ctx context.Context, doc *diagram.Document, opts importOpts, mode diagram.Mode, policy diagram.ConflictPolicy) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	rec := &store.Record{ID: opts.save, Name: opts.name, Document: doc}
	if mode == diagram.ModeMerge {
		existing, err := st.Get(ctx, opts.save)
		switch {
		case err == nil:
			rep, err := diagram.Merge(existing.Document, doc, policy)
			if err != nil {
				return err
			}
			printInfo("Merged: %s", rep)
			rec.Document = existing.Document
			if rec.Name == "" {
				rec.Name = existing.Name
			}
		case errors.Is(err, errors.ErrCodeNotFound):
			printInfo("No stored diagram %q, saving as new", opts.save)
		default:
			return err
		}
	}

	if err := st.Put(ctx, rec); err != nil {
		return err
	}
	printSuccess("Saved as %s", StyleHighlight.Render(rec.ID))
	printNextStep("Render it", "netdraw store get "+rec.ID+" -o "+rec.ID+".json && netdraw render "+rec.ID+".json")
	return nil
}

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a diagram file without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := pkgio.Import(args[0])
			if err != nil {
				printError("%s is not a valid diagram: %s", args[0], errors.UserMessage(err))
				printIssues(err)
				return err
			}
			for _, w := range res.Warnings {
				printWarning("%s", w)
			}
			printSuccess("%s is valid", args[0])
			printStats(res.Document.Stats(), false)
			return nil
		},
	}
}

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert between netdraw JSON and draw.io XML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := pkgio.FormatForPath(output)
			if format != "" {
				var err error
				if f, err = pkgio.ParseFormat(format); err != nil {
					return err
				}
			}
			res, err := pkgio.Import(args[0])
			if err != nil {
				printIssues(err)
				return err
			}
			for _, w := range res.Warnings {
				printWarning("%s", w)
			}
			return writeDocument(res.Document, output, f)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file ('-' for stdout); .xml selects XML")
	cmd.Flags().StringVar(&format, "format", "", "encoding: json or xml (default from the output extension)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
