package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/matzehuels/shed/pkg/report"
)

// declarationCommand creates the declaration command. The document is
// rebuilt from dependencies.json so edits to the records are reflected
// without a new run.
func (c *CLI) declarationCommand() *cobra.Command {
	var (
		configPath string
		appName    string
		raw        bool
		write      bool
	)

	cmd := &cobra.Command{
		Use:   "declaration [repo]",
		Short: "Show the open-source declaration of a repository",
		Long: `Render the open-source declaration from <repo>/.shed/dependencies.json.

Examples:
  shed declaration                  # Render in the terminal
  shed declaration ./billing --raw  # Print Markdown
  shed declaration . --write        # Regenerate open_source_declaration.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := repoArg(args)
			records, err := report.ReadFile(repo)
			if err != nil {
				return err
			}
			cfg, err := (&runFlags{configPath: configPath}).loadConfig(repo)
			if err != nil {
				return err
			}

			name := appName
			if name == "" {
				if s, err := report.ReadSummary(repo); err == nil {
					name = s.AppName
				}
			}
			if name == "" {
				name = cfg.AppName
			}
			if name == "" {
				if abs, err := filepath.Abs(repo); err == nil {
					name = filepath.Base(abs)
				}
			}

			var buf bytes.Buffer
			d := report.NewDeclaration(name, cfg.Company.Name, cfg.Company.Email, records)
			if err := d.Render(&buf); err != nil {
				return err
			}

			if write {
				path := report.PathsFor(repo).Declaration
				if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				printSuccess("Declaration written")
				printFile(path)
				return nil
			}
			if raw {
				_, err := os.Stdout.Write(buf.Bytes())
				return err
			}

			renderer, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(100),
			)
			if err != nil {
				return fmt.Errorf("markdown renderer: %w", err)
			}
			out, err := renderer.Render(buf.String())
			if err != nil {
				return fmt.Errorf("render declaration: %w", err)
			}
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file for company details")
	cmd.Flags().StringVarP(&appName, "app-name", "n", "", "application name (default: name of the last run)")
	cmd.Flags().BoolVar(&raw, "raw", false, "print Markdown without terminal styling")
	cmd.Flags().BoolVar(&write, "write", false, "rewrite open_source_declaration.md")
	return cmd
}
