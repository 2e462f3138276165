package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/claims-validator/internal/ingest"
)

func newRulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage tenant rule sets",
	}

	var tenantCode string
	var up ingest.RuleUpload
	upload := &cobra.Command{
		Use:   "upload",
		Short: "Upload technical and medical rule files as the active rule set",
		Long: "Upload technical and medical rule files (.yaml, .yml, .json, .csv, .xlsx).\n" +
			"The rule set is created or replaced by (tenant, name, version) and becomes active.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if up.TechnicalPath == "" && up.MedicalPath == "" {
				return usageError{errNoRuleFiles}
			}
			t, err := a.tenant(cmd.Context(), tenantCode)
			if err != nil {
				return err
			}
			rs, err := ingest.NewIngestor(a.store, a.logger).UploadRules(cmd.Context(), t.ID, up)
			if err != nil {
				return err
			}
			if a.flags.json {
				return a.printJSON(rs)
			}
			a.printf("%s rule set %s/%s (%s): %d technical, %d medical rules\n",
				a.styles.ok.Render("active"), rs.Name, rs.Version, rs.ID, rs.TechnicalRules.Len(), rs.MedicalRules.Len())
			return nil
		},
	}
	upload.Flags().StringVarP(&tenantCode, "tenant", "t", "", "tenant code")
	upload.Flags().StringVar(&up.TechnicalPath, "technical", "", "technical rules file")
	upload.Flags().StringVar(&up.MedicalPath, "medical", "", "medical rules file")
	upload.Flags().StringVar(&up.Name, "name", "default", "rule set name")
	upload.Flags().StringVar(&up.Version, "version", "v1", "rule set version")
	_ = upload.MarkFlagRequired("tenant")

	var listTenant string
	list := &cobra.Command{
		Use:   "list",
		Short: "List a tenant's rule sets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := a.tenant(cmd.Context(), listTenant)
			if err != nil {
				return err
			}
			sets, err := a.store.RuleSets.ListByTenant(cmd.Context(), t.ID)
			if err != nil {
				return err
			}
			if a.flags.json {
				return a.printJSON(sets)
			}
			rows := make([][]string, 0, len(sets))
			for _, rs := range sets {
				active := ""
				if rs.IsActive {
					active = a.styles.ok.Render("yes")
				}
				rows = append(rows, []string{
					rs.Name, rs.Version, active,
					strconv.Itoa(rs.TechnicalRules.Len()), strconv.Itoa(rs.MedicalRules.Len()),
					rs.CreatedAt.Format(time.RFC3339), rs.ID.String(),
				})
			}
			a.styles.table(a.stdout, []string{"NAME", "VERSION", "ACTIVE", "TECHNICAL", "MEDICAL", "CREATED", "ID"}, rows)
			return nil
		},
	}
	list.Flags().StringVarP(&listTenant, "tenant", "t", "", "tenant code")
	_ = list.MarkFlagRequired("tenant")

	cmd.AddCommand(upload, list)
	return cmd
}
