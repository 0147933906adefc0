package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/shed/pkg/deps"
	"github.com/matzehuels/shed/pkg/deps/languages"
	"github.com/matzehuels/shed/pkg/detect"
)

// detectCommand creates the detect command, which shows what a run would
// extract without running anything.
func (c *CLI) detectCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "detect [repo]",
		Short: "Detect the languages of a repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo := repoArg(args)

			spinner := newSpinnerWithContext(ctx, "Classifying files...")
			spinner.Start()
			cands, err := detect.New(loggerFromContext(ctx)).Detect(ctx, repo)
			spinner.Stop()
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(cands)
			}
			if len(cands) == 0 {
				printWarning("No source files recognized in %s", repo)
				return nil
			}
			fmt.Println(renderCandidates(cands, languages.Default, repo))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print candidates as JSON")
	return cmd
}

// renderCandidates tabulates detected languages with the strategies that
// would run for each.
func renderCandidates(cands []detect.Candidate, reg *deps.Registry, repo string) string {
	t := newTable("Language", "Confidence", "Files", "Bytes", "Strategies")
	for _, cand := range cands {
		strategies := StyleWarning.Render("unsupported")
		if lang, ok := reg.Lookup(cand.Language); ok {
			names := strategyNames(lang.Applicable(repo))
			strategies = StyleDim.Render("none applicable")
			if len(names) > 0 {
				strategies = strings.Join(names, ", ")
			}
		}
		t.Row(cand.Language,
			fmt.Sprintf("%.1f%%", cand.Confidence*100),
			strconv.Itoa(cand.Files),
			strconv.FormatInt(cand.Bytes, 10),
			strategies)
	}
	return t.Render()
}

// strategiesCommand creates the strategies command, which lists the
// extraction registry.
func (c *CLI) strategiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies [repo]",
		Short: "List extraction strategies",
		Long: `List the extraction strategies of every supported language.

With a repository argument, strategies that would run against it are marked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := ""
			if len(args) > 0 {
				repo = args[0]
			}
			fmt.Println(renderStrategies(languages.Default, repo))
			printNewline()
			printDetail("Supported languages: %s", languages.Default.Supported())
			return nil
		},
	}
}

func renderStrategies(reg *deps.Registry, repo string) string {
	headers := []string{"Language", "Strategy", "Ecosystem", "Manifests", "Timeout"}
	if repo != "" {
		headers = append(headers, "Applies")
	}
	t := newTable(headers...)
	for _, lang := range reg.Languages() {
		for _, s := range lang.Strategies {
			row := []string{
				lang.Name,
				s.Name,
				string(s.Ecosystem),
				strings.Join(s.Manifests, " "),
				s.EffectiveTimeout().String(),
			}
			if repo != "" {
				applies := StyleDim.Render("no")
				if s.Applies(repo) {
					applies = StyleSuccess.Render("yes")
				}
				row = append(row, applies)
			}
			t.Row(row...)
		}
	}
	return t.Render()
}

func strategyNames(ss []*deps.Strategy) []string {
	names := make([]string, len(ss))
	for i, s := range ss {
		names[i] = s.Name
	}
	return names
}
