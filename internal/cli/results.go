package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/export"
	"github.com/joseph-ayodele/claims-validator/internal/services/results"
)

func newResultsCmd(a *app) *cobra.Command {
	var tenantCode string
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Show the latest classified claims and metrics of a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := a.tenant(cmd.Context(), tenantCode)
			if err != nil {
				return err
			}
			res, err := results.NewService(a.store, a.logger).Results(cmd.Context(), t.ID)
			if err != nil {
				return err
			}
			if a.flags.json {
				return a.printJSON(res)
			}

			rows := make([][]string, 0, len(res.Claims))
			for _, c := range res.Claims {
				service := ""
				if c.ServiceCode != nil {
					service = *c.ServiceCode
				}
				rows = append(rows, []string{
					c.ClaimID, service, c.PaidAmountAED.StringFixed(2),
					a.styles.status(string(c.Status)), string(c.ErrorType), strings.ReplaceAll(c.ErrorExplanation, "\n", " "),
				})
			}
			a.printf("%s\n", a.styles.title.Render("Claims"))
			a.styles.table(a.stdout, []string{"CLAIM", "SERVICE", "PAID (AED)", "STATUS", "ERROR TYPE", "EXPLANATION"}, rows)

			a.printf("\n%s\n", a.styles.title.Render("Metrics"))
			if res.Metric == nil {
				a.printf("%s\n", a.styles.dim.Render("no validation run yet"))
				return nil
			}
			mrows := make([][]string, 0, len(constants.KnownErrorTypes))
			for _, et := range constants.KnownErrorTypes {
				mrows = append(mrows, []string{
					string(et),
					fmt.Sprint(res.Metric.CountsByError[et]),
					res.Metric.PaidByError[et].StringFixed(2),
				})
			}
			a.styles.table(a.stdout, []string{"ERROR TYPE", "CLAIMS", "PAID (AED)"}, mrows)
			a.printf("%s\n", a.styles.dim.Render("as of "+res.Metric.AsOf.Format(time.RFC3339)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&tenantCode, "tenant", "t", "", "tenant code")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func newAuditCmd(a *app) *cobra.Command {
	var tenantCode string
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List the most recent validation runs of a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := a.tenant(cmd.Context(), tenantCode)
			if err != nil {
				return err
			}
			jobs, err := results.NewService(a.store, a.logger).Audit(cmd.Context(), t.ID)
			if err != nil {
				return err
			}
			if a.flags.json {
				return a.printJSON(jobs)
			}
			rows := make([][]string, 0, len(jobs))
			for _, j := range jobs {
				finished := ""
				if j.FinishedAt != nil {
					finished = j.FinishedAt.Format(time.RFC3339)
				}
				rows = append(rows, []string{
					j.ID.String(), j.JobType, a.styles.status(string(j.Status)),
					j.CreatedAt.Format(time.RFC3339), finished, j.ErrorDetail(),
				})
			}
			a.styles.table(a.stdout, []string{"RUN", "TYPE", "STATUS", "CREATED", "FINISHED", "ERROR"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVarP(&tenantCode, "tenant", "t", "", "tenant code")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var tenantCode, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the latest results of a tenant to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := a.tenant(cmd.Context(), tenantCode)
			if err != nil {
				return err
			}
			data, err := export.NewService(a.store.Claims, a.store.Metrics, a.logger).ExportResultsXLSX(cmd.Context(), t.ID)
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("%s-results.xlsx", t.Code)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			if a.flags.json {
				return a.printJSON(map[string]any{"path": out, "bytes": len(data)})
			}
			a.printf("%s %s (%d bytes)\n", a.styles.ok.Render("wrote"), out, len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&tenantCode, "tenant", "t", "", "tenant code")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default <tenant>-results.xlsx)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
