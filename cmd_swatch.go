package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/bartek5186/catalogsync/internal/swatch"
	"github.com/spf13/cobra"
)

func newSwatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swatch",
		Short: "Manage colour and material swatches",
	}

	var s swatch.Swatch
	set := &cobra.Command{
		Use:   "set <handle>",
		Short: "Create or update a swatch by handle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s.Handle = args[0]
			saved, err := swatch.NewRepository(a.dbh.DB, a.log).Upsert(cmd.Context(), s)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "swatch %s saved (%s)\n", saved.Handle, saved.ID)
			return nil
		},
	}
	set.Flags().StringVar(&s.Name, "name", "", "display name")
	set.Flags().StringVar(&s.Hex, "hex", "", "colour as #rrggbb")
	set.Flags().StringVar(&s.ImageURL, "image", "", "image url")
	set.Flags().IntVar(&s.Position, "position", 0, "sort position")

	list := &cobra.Command{
		Use:   "list",
		Short: "List swatches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := swatch.NewRepository(a.dbh.DB, a.log).List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "POS\tHANDLE\tNAME\tHEX\tIMAGE")
			for _, s := range all {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.Position, s.Handle, s.Name, s.Hex, s.ImageURL)
			}
			return tw.Flush()
		},
	}

	del := &cobra.Command{
		Use:   "delete <handle>",
		Short: "Remove a swatch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := swatch.NewRepository(a.dbh.DB, a.log).Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "swatch %s deleted\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(set, list, del)
	return cmd
}
