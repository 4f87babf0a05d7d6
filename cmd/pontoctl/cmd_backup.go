package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/espacohidro/pontocerto/internal/application/access"
	"github.com/espacohidro/pontocerto/internal/application/command"
)

var backupOutput string

// backupCmd exports and restores full snapshots
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or restore a full JSON backup",
}

var backupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a backup of users, logs and settings",
	Long: `Write a backup of users, logs and settings.

Without --output the file is named backup_pontocerto_<date>.json and written
to the current directory. Use --output - to write to stdout.`,
	Args: cobra.NoArgs,
	RunE: runBackupExport,
}

var backupImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace all users, logs and settings with a backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupImport,
}

func init() {
	backupExportCmd.Flags().StringVarP(&backupOutput, "output", "o", "", "output file (- for stdout)")
	backupCmd.AddCommand(backupExportCmd, backupImportCmd)
}

func runBackupExport(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Queries.ExportBackup.Handle(cmd.Context(), access.System)
	if err != nil {
		return err
	}

	if backupOutput == "-" {
		_, err := cmd.OutOrStdout().Write(res.Data)
		return err
	}
	path := backupOutput
	if path == "" {
		path = res.FileName
	}
	if err := os.WriteFile(path, res.Data, 0o600); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported %d users and %d logs to %s\n",
		len(res.Snapshot.Users), len(res.Snapshot.Logs), path)
	return nil
}

func runBackupImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Commands.ImportBackup.Handle(cmd.Context(), command.ImportBackupCommand{
		ActorID: access.System,
		Data:    data,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "restored %d users and %d logs\n", res.Users, res.Logs)
	return nil
}
