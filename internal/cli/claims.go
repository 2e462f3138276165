package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/claims-validator/internal/ingest"
)

var errNoRuleFiles = errors.New("at least one of --technical or --medical is required")

func newClaimsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claims",
		Short: "Manage claims",
	}

	var tenantCode string
	var includeHidden bool
	ingestCmd := &cobra.Command{
		Use:   "ingest <file-or-dir>",
		Short: "Upsert claims from a CSV or XLSX file, or every such file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.tenant(cmd.Context(), tenantCode)
			if err != nil {
				return err
			}
			ing := ingest.NewIngestor(a.store, a.logger)

			info, err := os.Stat(args[0])
			if err != nil {
				return usageError{err}
			}
			if !info.IsDir() {
				res, err := ing.IngestFile(cmd.Context(), t.ID, args[0])
				if err != nil {
					return err
				}
				if a.flags.json {
					return a.printJSON(res)
				}
				a.printf("%s %d claims from %s\n", a.styles.ok.Render("ingested"), res.Claims, res.SourcePath)
				return nil
			}

			results, stats, err := ing.IngestDirectory(cmd.Context(), t.ID, args[0], !includeHidden)
			if err != nil {
				return err
			}
			if a.flags.json {
				return a.printJSON(map[string]any{"stats": stats, "results": results})
			}
			for _, r := range results {
				if r.Err != "" {
					a.printf("%s %s: %s\n", a.styles.err.Render("failed"), r.SourcePath, r.Err)
				}
			}
			a.printf("%s %d claims from %d of %d files\n", a.styles.ok.Render("ingested"), stats.Claims, stats.Succeeded, stats.Matched)
			if stats.Failed > 0 {
				return errors.New("some files failed to ingest")
			}
			return nil
		},
	}
	ingestCmd.Flags().StringVarP(&tenantCode, "tenant", "t", "", "tenant code")
	ingestCmd.Flags().BoolVar(&includeHidden, "hidden", false, "include hidden files and directories")
	_ = ingestCmd.MarkFlagRequired("tenant")

	cmd.AddCommand(ingestCmd)
	return cmd
}
