package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/claims-validator/internal/services/tenant"
)

func newTenantsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenants",
		Short: "Manage tenants",
	}

	var name string
	create := &cobra.Command{
		Use:   "create <code>",
		Short: "Register a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			t, err := tenant.NewService(store.Tenants, a.logger).CreateTenant(cmd.Context(), tenant.CreateTenantRequest{Code: args[0], Name: name})
			if err != nil {
				return err
			}
			if a.flags.json {
				return a.printJSON(t)
			}
			a.printf("%s tenant %s (%s)\n", a.styles.ok.Render("created"), t.Code, t.ID)
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "display name (defaults to the code)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List tenants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			tenants, err := tenant.NewService(store.Tenants, a.logger).ListTenants(cmd.Context())
			if err != nil {
				return err
			}
			if a.flags.json {
				return a.printJSON(tenants)
			}
			rows := make([][]string, 0, len(tenants))
			for _, t := range tenants {
				rows = append(rows, []string{t.Code, t.Name, t.ID.String(), t.CreatedAt.Format(time.RFC3339)})
			}
			a.styles.table(a.stdout, []string{"CODE", "NAME", "ID", "CREATED"}, rows)
			return nil
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}
