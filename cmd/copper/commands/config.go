package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/copperhq/copper-client/internal/constants"
)

// configKeys are the settings the config command manages.
var configKeys = map[string]bool{
	"endpoint": true,
	"email":    true,
	"token":    true,
	"output":   true,
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Get and set the endpoint, credentials and output settings stored in the config file",
	}

	cmd.AddCommand(newConfigGetCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Show one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !configKeys[key] {
				return fmt.Errorf("%w: %q", constants.ErrUnknownConfigKey, key)
			}

			value := viper.GetString(key)
			if key == "token" && value != "" {
				value = "***"
			}

			fmt.Printf("%s: %s\n", key, value)

			return nil
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY [VALUE]",
		Short: "Store one configuration value",
		Long:  "Store one configuration value. Setting the token without a value prompts for it without echoing.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !configKeys[key] {
				return fmt.Errorf("%w: %q", constants.ErrUnknownConfigKey, key)
			}

			var value string

			switch {
			case len(args) == 2:
				value = args[1]
			case key == "token":
				prompted, err := promptToken()
				if err != nil {
					return err
				}

				value = prompted
			default:
				return fmt.Errorf("%w: %q", constants.ErrConfigValueRequired, key)
			}

			viper.Set(key, value)

			return writeConfig()
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Remove one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !configKeys[key] {
				return fmt.Errorf("%w: %q", constants.ErrUnknownConfigKey, key)
			}

			viper.Set(key, "")

			return writeConfig()
		},
	}
}

// promptToken reads the API token without echoing it.
func promptToken() (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", constants.ErrTokenPromptTerminal
	}

	fmt.Print("API token: ")

	tokenBytes, err := term.ReadPassword(int(syscall.Stdin))

	fmt.Println()

	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}

	return string(tokenBytes), nil
}

// writeConfig persists the managed keys to the config file.
func writeConfig() error {
	path := viper.ConfigFileUsed()
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}

		configDir := filepath.Join(home, ".copper")

		err = os.MkdirAll(configDir, constants.ConfigDirPerm)
		if err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		path = filepath.Join(configDir, "config.yml")
	}

	settings := map[string]string{}

	for key := range configKeys {
		if value := viper.GetString(key); value != "" {
			settings[key] = value
		}
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	err = os.WriteFile(path, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Println("Config written to", path)

	return nil
}
