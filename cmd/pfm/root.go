package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"pfm/internal/cli"
	"pfm/internal/core"
	"pfm/internal/log"
)

// rootState carries the bootstrapped app from the pre-run hook to the
// subcommands.
type rootState struct {
	envFiles []string
	clock    core.Clock
	app      *cli.App
}

func newRootCmd(clock core.Clock) (*cobra.Command, *rootState) {
	st := &rootState{clock: clock}

	cmd := &cobra.Command{
		Use:   "pfm",
		Short: "Personal finance manager: log transactions and project monthly spending.",
		Long: `pfm keeps a ledger of expenses and income, classifies fixed expenses
against configured templates and projects the month-end total.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.Bootstrap(cmd.Context(), cli.Options{
				EnvFiles:   st.envFiles,
				Component:  log.ComponentCLI,
				WithEvents: true,
				Clock:      st.clock,
			})
			if err != nil {
				return err
			}
			st.app = app
			return nil
		},
	}
	cmd.PersistentFlags().StringSliceVar(&st.envFiles, "env-file", nil, "dotenv files to load (default .env)")

	cmd.AddCommand(
		newServeCmd(st),
		newAddCmd(st),
		newLoadFixedCmd(st),
		newListCmd(st),
		newDeleteCmd(st),
		newSummaryCmd(st),
		newExportCmd(st),
	)
	return cmd, st
}

// close releases the app if a command got far enough to build one.
func (st *rootState) close() error {
	if st.app == nil {
		return nil
	}
	err := st.app.Close()
	st.app = nil
	return err
}

// selectionFlags are the --year, --month and --category filters shared
// by the read commands. Empty year or month means the current one.
type selectionFlags struct {
	year     string
	month    string
	category string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.year, "year", "", `year or "all" (default current year)`)
	cmd.Flags().StringVar(&f.month, "month", "", `month number, name or "all" (default current month)`)
	cmd.Flags().StringVar(&f.category, "category", "", "category (default all)")
}

func (f *selectionFlags) resolve(today core.Date) (core.Selection, error) {
	sel := core.Selection{Year: today.Year(), Month: int(today.Month()), Category: core.ParseCategory(f.category)}
	if f.year != "" {
		y, err := core.ParseYear(f.year)
		if err != nil {
			return core.Selection{}, err
		}
		sel.Year = y
	}
	if f.month != "" {
		m, err := core.ParseMonth(f.month)
		if err != nil {
			return core.Selection{}, err
		}
		sel.Month = m
	}
	return sel, sel.Validate()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

const shutdownTimeout = 30 * time.Second
