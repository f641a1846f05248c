package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/netdraw/pkg/io"
	"github.com/matzehuels/netdraw/pkg/store"
)

// storeCommand creates the diagram store command.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage stored diagrams",
	}

	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeGetCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

// storeListCommand creates the "store list" subcommand.
func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored diagrams, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			list, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				printInfo("No stored diagrams")
				printNextStep("Save one", "netdraw import <file> --save <id>")
				return nil
			}
			fmt.Println(summaryTable(list))
			return nil
		},
	}
}

func summaryTable(list []store.Summary) string {
	rows := make([][]string, len(list))
	for i, s := range list {
		rows[i] = []string{
			s.ID,
			s.Name,
			fmt.Sprint(s.Stats.Pages),
			fmt.Sprint(s.Stats.Devices),
			fmt.Sprint(s.Stats.Connections),
			s.UpdatedAt.Local().Format("2006-01-02 15:04"),
		}
	}
	return renderTable([]string{"ID", "Name", "Pages", "Devices", "Links", "Updated"}, rows, 5)
}

// storeGetCommand creates the "store get" subcommand.
func (c *CLI) storeGetCommand() *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Print or write a stored diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := pkgio.ParseFormat(format)
			if err != nil {
				return err
			}
			rec, err := c.getStored(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := writeDocument(rec.Document, output, f); err != nil {
				return err
			}
			if output != stdoutPath {
				printKeyValue("Name", rec.Name)
				printKeyValue("Updated", rec.UpdatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", stdoutPath, "output file ('-' for stdout)")
	cmd.Flags().StringVar(&format, "format", "", "encoding: json (default) or xml")

	return cmd
}

// storeDeleteCommand creates the "store delete" subcommand.
func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a stored diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted %s", args[0])
			return nil
		},
	}
}
