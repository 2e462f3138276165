package cli

import (
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/claims-validator/internal/repository"
	"github.com/joseph-ayodele/claims-validator/internal/seed"
)

func newMigrateCmd(a *app) *cobra.Command {
	var printOnly string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if printOnly != "" {
				d := dialect.SQLite
				if strings.HasPrefix(printOnly, "postgres") {
					d = dialect.Postgres
				}
				stmts, err := repository.SchemaStatements(d)
				if err != nil {
					return err
				}
				for _, s := range stmts {
					a.printf("%s;\n", s)
				}
				return nil
			}
			if _, err := a.open(cmd.Context()); err != nil {
				return err
			}
			if err := a.db.HealthCheck(cmd.Context(), a.cfg.Database.DialTimeout, a.logger); err != nil {
				return err
			}
			a.printf("%s schema is up to date (%s)\n", a.styles.ok.Render("ok"), a.db.Dialect)
			return nil
		},
	}
	cmd.Flags().StringVar(&printOnly, "print", "", "print DDL for a dialect (sqlite|postgres) without connecting")
	return cmd
}

func newSeedDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-demo",
		Short: "Create the demo tenant, rules and claims, then validate them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			proc, err := a.processor(store)
			if err != nil {
				return err
			}
			res, err := seed.Demo(cmd.Context(), store, proc, a.logger)
			if err != nil {
				return err
			}
			if a.flags.json {
				return a.printJSON(res)
			}
			a.printf("%s\n", a.styles.title.Render("Demo seeded"))
			a.printf("tenant   %s (%s)\n", res.Tenant.Code, res.Tenant.ID)
			a.printf("rule set %s/%s (%s)\n", res.RuleSet.Name, res.RuleSet.Version, res.RuleSet.ID)
			a.printf("run      %s %s\n", res.Run.ID, a.styles.status(string(res.Run.Status)))
			a.printf("%s\n", a.styles.dim.Render(fmt.Sprintf("next: claimsctl results --tenant %s", res.Tenant.Code)))
			return nil
		},
	}
}
