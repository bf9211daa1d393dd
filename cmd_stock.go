package main

import (
	"fmt"
	"strconv"

	"github.com/bartek5186/catalogsync/internal/channel"
	"github.com/bartek5186/catalogsync/internal/stock"
	"github.com/spf13/cobra"
)

func newStockCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock <variant-id> [quantity]",
		Short: "Show the shared stock of a variant, or set its quantity",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := stock.NewService(a.dbh.DB, a.log)
			if len(args) == 2 {
				qty, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("quantity: %w", err)
				}
				if err := svc.SetQuantity(cmd.Context(), args[0], qty); err != nil {
					return err
				}
			}
			rec, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printStock(cmd, rec)
			return nil
		},
	}
	cmd.AddCommand(newStockChannelCmd(a))
	return cmd
}

func newStockChannelCmd(a *app) *cobra.Command {
	var set stock.Settings
	cmd := &cobra.Command{
		Use:   "channel <variant-id> <channel>",
		Short: "Change how one store sees a variant's shared stock",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, ok := channel.Parse(args[1])
			if !ok {
				return fmt.Errorf("%w: %q", stock.ErrUnknownChannel, args[1])
			}
			svc := stock.NewService(a.dbh.DB, a.log)
			if err := svc.SetChannel(cmd.Context(), args[0], ch, set); err != nil {
				return err
			}
			rec, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printStock(cmd, rec)
			return nil
		},
	}
	cmd.Flags().BoolVar(&set.Enabled, "enabled", true, "store sells from the shared pool")
	cmd.Flags().IntVar(&set.MinStockLevel, "min", stock.DefaultMinStockLevel, "low stock threshold")
	cmd.Flags().BoolVar(&set.AllowBackorder, "backorder", false, "keep selling at zero stock")
	return cmd
}

func printStock(cmd *cobra.Command, rec stock.Record) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: qty=%d status=%s\n", rec.VariantID, rec.SharedQuantity, rec.Status)
	for _, ch := range channel.All() {
		s, ok := rec.Channels[ch]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %s: enabled=%t min=%d backorder=%t sellable=%t\n",
			ch, s.Enabled, s.MinStockLevel, s.AllowBackorder, rec.Sellable(ch))
	}
}
