package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"auditdesk/internal/cursors"
)

func newCursorsCommand(ctx *commandContext) *cobra.Command {
	cursorsCmd := &cobra.Command{
		Use:   "cursors",
		Short: "Inspect saved tail bookmarks",
	}

	var jsonOutput bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved tail bookmarks",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cursors.Open(ctx.configValue())
			if err != nil {
				return fmt.Errorf("open cursor store: %w", err)
			}
			defer store.Close()

			list, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, list)
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No saved bookmarks")
				return nil
			}
			rows := make([][]string, 0, len(list))
			for _, c := range list {
				rows = append(rows, []string{
					c.Path,
					strconv.FormatUint(c.Offset, 10),
					c.UpdatedAt.Local().Format(time.DateTime),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Path", "Offset", "Updated"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft}))
			return nil
		},
	}
	listCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print bookmarks as JSON")

	forgetCmd := &cobra.Command{
		Use:   "forget <log-file>",
		Short: "Delete the saved bookmark for a log file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cursors.Open(ctx.configValue())
			if err != nil {
				return fmt.Errorf("open cursor store: %w", err)
			}
			defer store.Close()

			removed, err := store.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if removed {
				fmt.Fprintf(out, "Forgot bookmark for %s\n", args[0])
			} else {
				fmt.Fprintf(out, "No bookmark saved for %s\n", args[0])
			}
			return nil
		},
	}

	cursorsCmd.AddCommand(listCmd, forgetCmd)
	return cursorsCmd
}
