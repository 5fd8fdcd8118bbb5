package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/partscout/pkg/config"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	cmd.AddCommand(c.configPathCommand())
	cmd.AddCommand(c.configShowCommand())

	return cmd
}

// configPathCommand creates the "config path" subcommand.
func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(c.resolvedConfigDir())
			return nil
		},
	}
}

// configShowCommand creates the "config show" subcommand.
func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective global settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			fmt.Println(StyleTitle.Render("Configuration"))
			printKeyValue("directory", cfg.Dir)
			printKeyValue("currency", orDash(cfg.Currency))
			printKeyValue("language", orDash(cfg.Language))
			printKeyValue("location", orDash(cfg.Location))
			printKeyValue("max results", fmt.Sprint(cfg.MaxResults))
			printKeyValue("timeout", cfg.RequestTimeout.String())
			printKeyValue("retries", fmt.Sprintf("%d every %s", cfg.RetryAttempts, cfg.RetryDelay))
			printKeyValue("workers", fmt.Sprint(cfg.Workers))
			printKeyValue("cache", fmt.Sprintf("%s (ttl %s)", cfg.Cache.Backend, cfg.Cache.TTL))
			printKeyValue("inventory", cfg.Inventory.Backend)
			printKeyValue("suppliers", filepath.Join(cfg.Dir, config.SuppliersFile))
			return nil
		},
	}
}

func (c *CLI) resolvedConfigDir() string {
	if c.configDir != "" {
		return c.configDir
	}
	return config.DefaultDir()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
