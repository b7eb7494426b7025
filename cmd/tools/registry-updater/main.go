// cmd/tools/registry-updater/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"analytics-chat/internal/common/config"
	"analytics-chat/internal/common/database"
	"analytics-chat/internal/common/logger"
	retrieveviewdata "analytics-chat/internal/workers/analytics-chat/retrieve-view-data"
	"analytics-chat/pkg/registry"
)

const defaultPath = "configs/view-registry.json"

func main() {
	syncCmd := flag.NewFlagSet("sync", flag.ExitOnError)
	syncPath := syncCmd.String("path", defaultPath, "Path to registry file")
	syncVersion := syncCmd.String("version", "1.0.0", "Registry version to record")
	syncConfig := syncCmd.String("config", "", "Config file (defaults to ./configs/config.yaml)")

	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validatePath := validateCmd.String("path", defaultPath, "Path to registry file")

	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	listPath := listCmd.String("path", "", "Path to registry file (built-in catalog when empty)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "sync":
		_ = syncCmd.Parse(os.Args[2:])
		err = syncRegistry(*syncConfig, *syncPath, *syncVersion)
	case "validate":
		_ = validateCmd.Parse(os.Args[2:])
		err = validateRegistry(*validatePath)
	case "list":
		_ = listCmd.Parse(os.Args[2:])
		err = listRegistry(*listPath)
	default:
		help()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// syncRegistry rewrites the registry file from the live ai_* views.
func syncRegistry(configPath, path, version string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	known, err := registry.Load(cfg.Pipeline.RegistryPath)
	if err != nil {
		known = registry.Default()
	}
	provider := retrieveviewdata.NewSchemaProvider(pg.DB, nil, known, logger.NewStructured("info", "console"))
	views, err := provider.LiveViews(ctx)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		return fmt.Errorf("no ai_* views found in %s", cfg.Database.Postgres.Database)
	}

	reg := registry.NewCatalog(views).ToRegistry(version, time.Now().Format("2006-01-02"))
	if err := registry.SaveRegistry(path, reg); err != nil {
		return err
	}
	fmt.Printf("Wrote %d views to %s\n", len(reg.Views), path)
	return nil
}

func validateRegistry(path string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return err
	}
	if problems := registry.Validate(reg); len(problems) > 0 {
		for _, p := range problems {
			fmt.Println("  -", p)
		}
		return fmt.Errorf("%s has %d problem(s)", path, len(problems))
	}
	fmt.Printf("%s is valid (%d views)\n", path, len(reg.Views))
	return nil
}

func listRegistry(path string) error {
	catalog, err := registry.Load(path)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"View", "Description", "Columns", "Tags"})
	for _, v := range catalog.Views() {
		table.Append([]string{v.Name, v.Description, fmt.Sprint(len(v.Columns)), strings.Join(v.Tags, ", ")})
	}
	table.Render()
	return nil
}

func help() {
	fmt.Println("Usage: registry-updater <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  sync      Rewrite the registry from the live database views")
	fmt.Println("  validate  Check a registry file")
	fmt.Println("  list      Print the catalog")
}
