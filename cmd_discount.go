package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bartek5186/catalogsync/internal/channel"
	"github.com/bartek5186/catalogsync/internal/discount"
	"github.com/bartek5186/catalogsync/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02T15:04"

func newDiscountPreviewCmd(a *app) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "discount-preview <variant-id> <channel> <price>",
		Short: "Show the price a variant would sell at on a store right now",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, ok := channel.Parse(args[1])
			if !ok {
				return fmt.Errorf("unknown channel %q", args[1])
			}
			price, err := pricing.ParseAmount(args[2])
			if err != nil {
				return fmt.Errorf("price: %w", err)
			}
			now := time.Now()
			if at != "" {
				if now, err = time.ParseInLocation(dateLayout, at, time.Local); err != nil {
					return fmt.Errorf("--at: %w", err)
				}
			}

			repo := discount.NewRepository(a.dbh.DB, a.log)
			p, ok, err := repo.Preview(cmd.Context(), args[0], ch, price, now)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintf(w, "no active discount, price %s\n", p.Final.StringFixed(2))
				return nil
			}
			fmt.Fprintf(w, "discount %s (%s): original=%s savings=%s final=%s\n",
				p.DiscountID, p.Type, p.Original.StringFixed(2), p.Savings.StringFixed(2), p.Final.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "evaluate at this local time ("+dateLayout+") instead of now")
	return cmd
}

func newDiscountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discount",
		Short: "Manage time-windowed discounts",
	}
	cmd.AddCommand(newDiscountListCmd(a), newDiscountSaveCmd(a, false), newDiscountSaveCmd(a, true), newDiscountDeleteCmd(a))
	return cmd
}

func newDiscountListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List discounts in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := discount.NewRepository(a.dbh.DB, a.log).List(cmd.Context())
			if err != nil {
				return err
			}
			now := time.Now()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTYPE\tVALUE\tSTATE\tSTARTS\tENDS\tSTORES\tVARIANTS")
			for _, d := range list {
				stores := make([]string, len(d.Stores))
				for i, s := range d.Stores {
					stores[i] = string(s)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
					d.ID, d.Name, d.Type, d.Value.String(), d.StateAt(now),
					d.StartsAt.Local().Format(dateLayout), d.EndsAt.Local().Format(dateLayout),
					strings.Join(stores, ","), len(d.Products))
			}
			return tw.Flush()
		},
	}
}

// newDiscountSaveCmd builds "add" or, with update set, "update <id>".
func newDiscountSaveCmd(a *app, update bool) *cobra.Command {
	var (
		name, typ, value, starts, ends string
		stores, products               []string
	)
	use, short, posArgs := "add", "Append a discount to the list", cobra.PositionalArgs(cobra.NoArgs)
	if update {
		use, short, posArgs = "update <id>", "Replace a discount, keeping its place in the list", cobra.ExactArgs(1)
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  posArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := discount.Discount{Name: name, Type: discount.Type(strings.ToLower(typ)), Products: products}
			var err error
			if d.Value, err = decimal.NewFromString(value); err != nil {
				return fmt.Errorf("--value: %w", err)
			}
			if d.StartsAt, err = time.ParseInLocation(dateLayout, starts, time.Local); err != nil {
				return fmt.Errorf("--starts: %w", err)
			}
			if d.EndsAt, err = time.ParseInLocation(dateLayout, ends, time.Local); err != nil {
				return fmt.Errorf("--ends: %w", err)
			}
			for _, s := range stores {
				ch, ok := channel.Parse(s)
				if !ok {
					return fmt.Errorf("%w: %q", discount.ErrInvalidStore, s)
				}
				d.Stores = append(d.Stores, ch)
			}

			repo := discount.NewRepository(a.dbh.DB, a.log)
			if update {
				d.ID = args[0]
				if err := repo.Update(cmd.Context(), d); err != nil {
					return err
				}
			} else if d, err = repo.Create(cmd.Context(), d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "discount %s saved (%s)\n", d.ID, d.StateAt(time.Now()))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&typ, "type", string(discount.Percentage), "percentage or fixed")
	cmd.Flags().StringVar(&value, "value", "", "percent (0-100] or fixed amount")
	cmd.Flags().StringVar(&starts, "starts", "", "window start, "+dateLayout)
	cmd.Flags().StringVar(&ends, "ends", "", "window end, "+dateLayout)
	cmd.Flags().StringSliceVar(&stores, "store", nil, "store the discount applies to (repeatable)")
	cmd.Flags().StringSliceVar(&products, "variant", nil, "variant id the discount applies to (repeatable)")
	for _, f := range []string{"value", "starts", "ends"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newDiscountDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a discount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := discount.NewRepository(a.dbh.DB, a.log).Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "discount %s deleted\n", args[0])
			return nil
		},
	}
}
