// Package main - device archive maintenance CLI
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alwitt/witness/db"
	"github.com/alwitt/witness/models"
	"github.com/alwitt/witness/store"
	"github.com/apex/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"
)

var archiveFile string

// openArchive open the device archive named by the --db flag
func openArchive(ctx context.Context) (store.DeviceStore, error) {
	persistence, err := db.NewConnection(db.GetSqliteDialector(archiveFile), logger.Error)
	if err != nil {
		return nil, fmt.Errorf("failed to open device archive [%w]", err)
	}
	return store.NewDeviceStore(ctx, persistence, nil)
}

func newExportCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the device archive as a JSON bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			archive, err := openArchive(ctx)
			if err != nil {
				return err
			}

			bundle, err := archive.ExportData(ctx)
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(&bundle, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode export bundle [%w]", err)
			}

			if outputFile == "" {
				fmt.Printf("%s\n", encoded)
				return nil
			}
			if err := os.WriteFile(outputFile, encoded, 0o600); err != nil {
				return fmt.Errorf("failed to write export bundle [%w]", err)
			}
			fmt.Printf("Exported %d recordings to %s\n", len(bundle.Recordings), outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Bundle output file. Defaults to stdout.")
	return cmd
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [bundle file]",
		Short: "Import a JSON bundle, replacing the archive contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			archive, err := openArchive(ctx)
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read bundle file [%w]", err)
			}
			var bundle models.ExportBundle
			if err := json.Unmarshal(raw, &bundle); err != nil {
				return fmt.Errorf("failed to parse bundle file [%w]", err)
			}

			if err := archive.ImportData(ctx, bundle); err != nil {
				return err
			}
			fmt.Printf("Imported %d recordings\n", len(bundle.Recordings))
			return nil
		},
	}
	return cmd
}

func newWipeCmd() *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Remove all data from the device archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return fmt.Errorf("pass --yes to confirm wiping the archive")
			}

			ctx := context.Background()
			archive, err := openArchive(ctx)
			if err != nil {
				return err
			}

			if err := archive.ClearAllData(ctx); err != nil {
				return err
			}
			fmt.Println("Device archive wiped")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "Confirm the wipe")
	return cmd
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show archive contents summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			archive, err := openArchive(ctx)
			if err != nil {
				return err
			}

			profile := archive.GetUser(ctx)
			stats, err := archive.StorageStats(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("User: %s\n", profile.UserID)
			fmt.Printf("Subscription: %s\n", profile.SubscriptionStatus)
			if profile.SubscriptionExpiry != nil {
				fmt.Printf("Expires: %s\n", profile.SubscriptionExpiry)
			}
			fmt.Printf("Items: %d\n", stats.ItemCount)
			fmt.Printf("Size: %d bytes\n", stats.TotalSize)
			for family, size := range stats.Breakdown {
				fmt.Printf("  %s: %d bytes\n", family, size)
			}
			return nil
		},
	}
	return cmd
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "witness-cli",
		Short: "Device archive maintenance tool",
	}
	rootCmd.PersistentFlags().StringVar(
		&archiveFile, "db", "witness.db", "Device archive SQLite file",
	)
	rootCmd.AddCommand(newExportCmd(), newImportCmd(), newWipeCmd(), newStatusCmd())

	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Fatal("Command failed")
	}
}
