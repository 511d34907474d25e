package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pfm/internal/cli"
	"pfm/internal/core"
	"pfm/internal/export"
	apphttp "pfm/internal/http"
	"pfm/internal/log"
	"pfm/internal/services"
)

func newServeCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := st.app
			srv := apphttp.NewServer(apphttp.Options{
				Addr:               net.JoinHostPort("", app.Config.Port),
				RateLimitPerMinute: app.Config.RateLimitPerMinute,
				Logger:             app.Logger,
			}, app.Ledger, app.Dashboard, app.Backend.Store)

			ctx, cancel := cli.GracefulShutdown(commandContext(cmd), app.Logger, shutdownTimeout, func(ctx context.Context) {
				if err := srv.Shutdown(ctx); err != nil {
					app.Logger.Error("Server shutdown error", log.FieldError, err)
				}
			})
			defer cancel()

			app.Logger.Info("Starting pfm server", "port", app.Config.Port, log.FieldBackend, app.Backend.Type.String())
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve: %w", err)
			}
			<-ctx.Done()
			app.Logger.Info("Server stopped gracefully")
			return nil
		},
	}
}

func newAddCmd(st *rootState) *cobra.Command {
	var date, txType, category, amount, notes string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Quick log one transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := services.QuickLog{
				Type:     core.TxType(txType),
				Category: category,
				Notes:    notes,
			}
			if date != "" {
				d, err := core.ParseDate(date)
				if err != nil {
					return &core.ValidationError{Field: "date", Value: date, Err: err}
				}
				in.Date = d
			}
			amt, err := core.ParseAmount(amount)
			if err != nil {
				return err
			}
			in.Amount = amt

			t, err := st.app.Ledger.QuickLog(commandContext(cmd), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged %s: %s %s %s %s\n",
				t.ID, t.Date, t.Type, t.Category, t.Amount.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&txType, "type", string(core.Expense), "Expense or Income")
	cmd.Flags().StringVar(&category, "category", "", "category (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount, at least 0.01 (required)")
	cmd.Flags().StringVar(&notes, "notes", "", "free text")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newLoadFixedCmd(st *rootState) *cobra.Command {
	var sf selectionFlags
	cmd := &cobra.Command{
		Use:   "load-fixed",
		Short: "Insert every fixed expense template for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := sf.resolve(st.app.Dashboard.Today())
			if err != nil {
				return err
			}
			rows, err := st.app.Ledger.LoadFixedExpenses(commandContext(cmd), sel)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range rows {
				fmt.Fprintf(out, "%s  %-15s %10s  %s\n", r.Date, r.Category, r.Amount.StringFixed(2), r.Notes)
			}
			fmt.Fprintf(out, "loaded %d fixed expenses\n", len(rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&sf.year, "year", "", `year (default current year)`)
	cmd.Flags().StringVar(&sf.month, "month", "", `month number or name (default current month)`)
	return cmd
}

func newListCmd(st *rootState) *cobra.Command {
	var sf selectionFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := sf.resolve(st.app.Dashboard.Today())
			if err != nil {
				return err
			}
			txs, err := st.app.Dashboard.Transactions(commandContext(cmd), sel)
			if err != nil {
				return err
			}
			return writeTable(cmd.OutOrStdout(), txs)
		},
	}
	sf.register(cmd)
	return cmd
}

func newDeleteCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID [ID...]",
		Short: "Delete transactions by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := st.app.Ledger.DeleteMany(commandContext(cmd), args)
			out := cmd.OutOrStdout()
			for _, id := range res.Deleted {
				fmt.Fprintf(out, "deleted %s\n", id)
			}
			return res.Err()
		},
	}
}

func newSummaryCmd(st *rootState) *cobra.Command {
	var sf selectionFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show budget status, projection and category breakdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := sf.resolve(st.app.Dashboard.Today())
			if err != nil {
				return err
			}
			d, err := st.app.Dashboard.Build(commandContext(cmd), sel)
			if err != nil {
				return err
			}
			return writeSummary(cmd.OutOrStdout(), d)
		},
	}
	sf.register(cmd)
	return cmd
}

func newExportCmd(st *rootState) *cobra.Command {
	var (
		sf     selectionFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the selected transactions as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := sf.resolve(st.app.Dashboard.Today())
			if err != nil {
				return err
			}
			txs, err := st.app.Dashboard.Transactions(commandContext(cmd), sel)
			if err != nil {
				return err
			}
			if output == "-" {
				return export.WriteCSV(cmd.OutOrStdout(), txs)
			}
			if output == "" {
				output = export.FileName(sel)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := export.WriteCSV(f, txs); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d transactions to %s\n", len(txs), output)
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "-" for stdout (default finance_data_<year>_<month>.csv)`)
	return cmd
}

func writeTable(w io.Writer, txs []core.Transaction) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tCATEGORY\tAMOUNT\tNOTES")
	for _, t := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Date, t.Type, t.Category, t.Amount.StringFixed(2), t.Notes)
	}
	return tw.Flush()
}

func writeSummary(w io.Writer, d *core.Dashboard) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	p := d.Projection

	year := "All"
	if d.Selection.Year != core.All {
		year = fmt.Sprint(d.Selection.Year)
	}
	category := d.Selection.Category
	if category == core.AllCategories {
		category = "All"
	}
	fmt.Fprintf(tw, "Period\t%s %s\n", core.MonthNames[d.Selection.Month], year)
	fmt.Fprintf(tw, "Category\t%s\n", category)
	fmt.Fprintf(tw, "Monthly budget\t%s\n", d.MonthlyBudget.StringFixed(2))
	fmt.Fprintf(tw, "Total expenses\t%s\n", d.TotalExpenses.StringFixed(2))
	fmt.Fprintf(tw, "Total income\t%s\n", d.TotalIncome.StringFixed(2))
	fmt.Fprintf(tw, "Budget status\t%s\n", d.BudgetStatus.StringFixed(2))

	switch p.Mode {
	case core.ModeCurrentMonth:
		fmt.Fprintf(tw, "%s\t%s\n", p.Label, p.DailyAvg.StringFixed(2))
		fmt.Fprintf(tw, "Fixed so far\t%s\n", p.FixedSoFar.StringFixed(2))
		fmt.Fprintf(tw, "Variable so far\t%s\n", p.VariableSoFar.StringFixed(2))
		fmt.Fprintf(tw, "Future booked\t%s\n", p.FutureBooked.StringFixed(2))
		fmt.Fprintf(tw, "Days passed\t%d/%d\n", p.DaysPassed, p.DaysInMonth)
		fmt.Fprintf(tw, "Projected total\t%s\n", p.ProjectedTotal.StringFixed(2))
	case core.ModeCalendarMonth:
		fmt.Fprintf(tw, "%s\t%s\n", p.Label, p.DailyAvg.StringFixed(2))
	case core.ModeAggregate:
		fmt.Fprintf(tw, "%s\t%d\n", p.Label, p.Count)
	}
	if d.OverBudget {
		fmt.Fprintln(tw, "Warning\tover budget")
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(d.Breakdown) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "CATEGORY\tAMOUNT\t")
		for _, c := range d.Breakdown {
			fmt.Fprintf(tw, "%s\t%s\t\n", c.Category, c.Amount.StringFixed(2))
		}
		return tw.Flush()
	}
	return nil
}
