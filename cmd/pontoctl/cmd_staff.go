package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/espacohidro/pontocerto/internal/application/access"
	"github.com/espacohidro/pontocerto/internal/application/command"
	"github.com/espacohidro/pontocerto/internal/infrastructure/report"
)

// staffCmd manages employees
var staffCmd = &cobra.Command{
	Use:   "staff",
	Short: "Manage staff accounts",
}

var staffListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every account",
	Args:  cobra.NoArgs,
	RunE:  runStaffList,
}

var staffImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Create accounts from a .xlsx or .xls roster",
	Long: `Create accounts from a roster spreadsheet.

The first row holds headers such as Nome, Email, Senha, Cargo and Perfil;
accents and case are ignored and only the name column is required.
Rows that fail validation are reported and skipped; the others are created
and receive a welcome email.`,
	Args: cobra.ExactArgs(1),
	RunE: runStaffImport,
}

func init() {
	staffCmd.AddCommand(staffListCmd, staffImportCmd)
}

func runStaffList(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	users, err := a.Queries.Users.ListUsers(cmd.Context(), access.System)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tPOSITION")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role, u.Position)
	}
	return tw.Flush()
}

func runStaffImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	rows, err := report.ReadRoster(f, filepath.Base(args[0]))
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Commands.ImportRoster.Handle(cmd.Context(), command.ImportRosterCommand{
		ActorID: access.System,
		Rows:    rows,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, u := range res.Created {
		fmt.Fprintf(out, "created %s <%s>\n", u.Name, u.Email)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(out, "line %d: %s\n", e.Line, e.Reason)
	}
	fmt.Fprintf(out, "%d created, %d rejected\n", len(res.Created), len(res.Errors))
	return nil
}
