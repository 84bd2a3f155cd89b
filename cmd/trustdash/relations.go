package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"trustdash/internal/trust/models"
	trustservice "trustdash/internal/trust/service"
)

const relationsTimeout = 30 * time.Second

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	mutualStyle  = cellStyle.Foreground(lipgloss.Color("42"))
	pendingStyle = cellStyle.Foreground(lipgloss.Color("214")).Italic(true)
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func newRelationsCmd() *cobra.Command {
	var account string
	cmd := &cobra.Command{
		Use:   "relations",
		Short: "Print the reconciled trust relations of an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), relationsTimeout)
			defer cancel()

			st := newStack(cfg, cliLogger(cmd, cfg), nil)
			defer st.close()

			ledger, err := st.ledger(ctx)
			if err != nil {
				return fmt.Errorf("build trust ledger: %w", err)
			}
			svc, err := trustservice.New(ledger, trustservice.WithLogger(st.logger))
			if err != nil {
				return err
			}
			view, err := svc.Refresh(ctx, account)
			if err != nil {
				return fmt.Errorf("load relations: %w", err)
			}
			return renderRelations(cmd.OutOrStdout(), account, view)
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "wallet address to inspect")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

// renderRelations writes the dashboard rows of view as a table.
func renderRelations(w io.Writer, account string, view models.View) error {
	rows := view.Rows()
	data := make([][]string, 0, len(rows))
	for _, row := range rows {
		data = append(data, []string{
			row.Date.UTC().Format(time.DateTime),
			row.Relation,
			row.Address,
			row.Action,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("DATE", "RELATION", "ADDRESS", "ACTION").
		Rows(data...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case rows[row].Action == models.ActionPending:
				return pendingStyle
			case rows[row].Relation == models.DirectionMutual.Label():
				return mutualStyle
			default:
				return cellStyle
			}
		})

	summary := summaryStyle.Render(fmt.Sprintf("%s: %d relations, %d pending", account, len(rows), len(view.Pending)))
	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, t.Render(), summary))
	return err
}
