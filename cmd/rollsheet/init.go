package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"rollsheet/internal/assets"
	"rollsheet/internal/config"
)

func initCmd() *cobra.Command {
	var projectName string
	var dir string
	var dsn string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a project config with editable copies of the schema and seed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			if err := runInit(dir, projectName, dsn); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s in %s\n", projectName, dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to initialize")
	cmd.Flags().StringVar(&dsn, "dsn", "sqlite://rollsheet.db", "Database DSN written to the config")
	return cmd
}

func runInit(dir, projectName, dsn string) error {
	configFile := filepath.Join(dir, config.DefaultPath)
	schemaFile := filepath.Join(dir, assets.SchemaFile)
	seedFile := filepath.Join(dir, assets.SeedFile)
	for _, path := range []string{configFile, schemaFile, seedFile} {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	cfg := config.Default()
	cfg.Project = projectName
	cfg.Database.DSN = dsn
	cfg.Assets.Schema = assets.SchemaFile
	cfg.Assets.Seed = assets.SeedFile
	contents, err := config.Marshal(cfg)
	if err != nil {
		return err
	}

	for name, path := range map[string]string{assets.SchemaFile: schemaFile, assets.SeedFile: seedFile} {
		data, err := assets.Embedded(name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	if err := os.WriteFile(configFile, contents, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configFile, err)
	}
	return nil
}
