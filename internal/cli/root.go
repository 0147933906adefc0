package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/shed/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
// The CLI logger is attached to every command's context.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Shed inventories the open-source dependencies of a repository",
		Long: `Shed detects the languages of a repository, lists its dependencies with
each ecosystem's own tooling in an isolated environment, and resolves the
license of every package. Results are written to <repo>/.shed/.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.runCommand())
	root.AddCommand(c.detectCommand())
	root.AddCommand(c.strategiesCommand())
	root.AddCommand(c.declarationCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}
