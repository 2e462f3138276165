package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

func newValidateCmd(a *app) *cobra.Command {
	var tenantCode string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate every claim of a tenant against its active rule set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := a.tenant(cmd.Context(), tenantCode)
			if err != nil {
				return err
			}
			proc, err := a.processor(a.store)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			job, runErr := proc.RunActive(ctx, t.ID)
			if job != nil {
				if a.flags.json {
					if err := a.printJSON(job); err != nil {
						return err
					}
				} else {
					a.printJob(job)
				}
			}
			return runErr
		},
	}
	cmd.Flags().StringVarP(&tenantCode, "tenant", "t", "", "tenant code")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "stop the run after this long (0 means no limit)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func (a *app) printJob(job *entity.JobRun) {
	a.printf("run %s %s\n", job.ID, a.styles.status(string(job.Status)))
	if msg := job.ErrorDetail(); msg != "" {
		a.printf("  %s\n", a.styles.err.Render(msg))
	} else if n, ok := job.Detail["claims"]; ok {
		a.printf("  %v claims validated\n", n)
	}
}
