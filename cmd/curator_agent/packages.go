package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/content-curator/internal/observability"
	"github.com/jonathan/content-curator/internal/types"
)

var packagesCommand = &cobra.Command{
	Use:   "packages",
	Short: "Inspect and manage stored packages",
}

var packagesListCommand = &cobra.Command{
	Use:   "list",
	Short: "List the newest packages",
	Args:  cobra.NoArgs,
	RunE:  runPackagesList,
}

var packagesShowCommand = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a package and its ordered items",
	Args:  cobra.ExactArgs(1),
	RunE:  runPackagesShow,
}

var packagesArchiveCommand = &cobra.Command{
	Use:   "archive <id>",
	Short: "Archive a package (or restore it with --restore)",
	Args:  cobra.ExactArgs(1),
	RunE:  runPackagesArchive,
}

var (
	packagesLimit   int
	packagesRestore bool
)

func init() {
	packagesListCommand.Flags().IntVar(&packagesLimit, "limit", 20, "Maximum number of packages to list")
	packagesArchiveCommand.Flags().BoolVar(&packagesRestore, "restore", false, "Set the package back to active")

	packagesCommand.AddCommand(packagesListCommand, packagesShowCommand, packagesArchiveCommand)
	rootCmd.AddCommand(packagesCommand)
}

func runPackagesList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if packagesLimit <= 0 {
		return fmt.Errorf("--limit must be positive")
	}

	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	summaries, err := database.ListPackages(ctx, packagesLimit)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No packages stored yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tITEMS\tCREATED")
	for _, s := range summaries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", s.ID, s.Name, s.Status, s.ItemCount, s.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runPackagesShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, err := parsePackageID(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	pkg, err := database.GetPackage(ctx, id)
	if err != nil {
		return err
	}
	if pkg == nil {
		return fmt.Errorf("package %d not found", id)
	}
	observability.NewPrinter(os.Stdout).PrintPackage(pkg)
	return nil
}

func runPackagesArchive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, err := parsePackageID(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	status := targetStatus(packagesRestore)
	if err := database.SetPackageStatus(ctx, id, status); err != nil {
		return err
	}
	fmt.Printf("Package %d is now %s.\n", id, status)
	return nil
}

func targetStatus(restore bool) types.PackageStatus {
	if restore {
		return types.PackageStatusActive
	}
	return types.PackageStatusArchived
}

func parsePackageID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid package id %q", raw)
	}
	return id, nil
}
