package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/fenilsonani/flclean/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display configuration file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, err := resolveConfigPath()
		if err != nil {
			return err
		}

		fmt.Printf("Config file: %s\n", cfgPath)

		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			color.Yellow("Config file does not exist. Using default configuration.")
			fmt.Println("\nTo create a config file:")
			fmt.Println("  flclean config init")
		}

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the example configuration if none exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("config file already exists: %s", configPath)
			}
			if err := os.WriteFile(configPath, []byte(config.GetExampleConfig()), 0644); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}
			color.Green("Created %s", configPath)
			return nil
		}

		cfgPath, err := config.EnsureConfigExists()
		if err != nil {
			return err
		}
		color.Green("Config file: %s", cfgPath)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	},
}
