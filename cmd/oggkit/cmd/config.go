package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/oggkit/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  `Commands for managing oggkit configuration.`,
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the default configuration",
	Long: `Dump the default configuration values in YAML format.

You can redirect this output to a file to create a configuration template:

  oggkit config dump > ~/.oggkit.yaml

Configuration can be set via:
  - Config file (.oggkit.yaml in $HOME or the working directory, /etc/oggkit/.oggkit.yaml)
  - Environment variables (OGGKIT_VALIDATE_MAX_ERRORS, OGGKIT_MERGE_READ_SIZE, etc.)
  - Command-line flags

Environment variables use the OGGKIT_ prefix and underscores for nesting.
Example: validate.max_errors -> OGGKIT_VALIDATE_MAX_ERRORS`,
	RunE: runConfigDump,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configDumpCmd)
}

func runConfigDump(cmd *cobra.Command, _ []string) error {
	yamlData, err := yaml.Marshal(config.Defaults())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "# oggkit default configuration")
	fmt.Fprintln(out, "# Sizes accept units such as 512, 4KB or 1MB.")
	fmt.Fprintln(out)
	_, err = out.Write(yamlData)
	return err
}
