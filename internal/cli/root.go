package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bnema/serpref/internal/serp"
)

// extractionConcurrency caps the number of URLs classified in parallel when
// arguments are passed on the command line.
const extractionConcurrency = 8

type extractFlags struct {
	naive       bool
	noLowerCase bool
	noTrim      bool
	noCollapse  bool
}

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// SetVersionInfo records build metadata injected by the linker.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	buildDate = d
}

// NewRootCmd builds the serpref command tree.
func NewRootCmd() *cobra.Command {
	var flags extractFlags

	rootCmd := &cobra.Command{
		Use:   "serpref [url...]",
		Short: "Classify search engine referrer URLs and extract keywords",
		Long: `serpref classifies referrer URLs against a registry of known search
engines and extracts the search keyword when the URL is a search results page.

URLs are read from the arguments, or from stdin (one per line) when no
arguments are given. Each result is printed as a CSV line of the form
"engine","keyword"; non-SERP URLs print "","".`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
				return runStream(cmd, app, flags)
			}
			return runBatch(cmd, app, args, app.extractOptions(flags))
		},
	}

	rootCmd.Flags().BoolVar(&flags.naive, "naive", false, "fall back to naive keyword detection for unknown engines")
	rootCmd.Flags().BoolVar(&flags.noLowerCase, "no-lowercase", false, "keep the keyword's original case")
	rootCmd.Flags().BoolVar(&flags.noTrim, "no-trim", false, "keep surrounding whitespace on the keyword")
	rootCmd.Flags().BoolVar(&flags.noCollapse, "no-collapse", false, "keep internal whitespace runs in the keyword")

	rootCmd.AddCommand(newEnginesCmd())
	rootCmd.AddCommand(newParamsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// runBatch classifies the given URLs concurrently and prints the results in
// argument order.
func runBatch(cmd *cobra.Command, app *App, urls []string, opts []serp.ExtractOption) error {
	results := make([]*serp.ExtractResult, len(urls))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(extractionConcurrency)
	for i, raw := range urls {
		i, raw := i, raw
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results[i] = app.Extractor.Extract(raw, opts...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, res := range results {
		fmt.Fprintln(out, formatResult(res))
	}
	return nil
}

// runStream reads URLs from stdin one per line. Config watching is enabled so
// that extraction defaults can change mid-stream.
func runStream(cmd *cobra.Command, app *App, flags extractFlags) error {
	app.Manager.Watch()

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fmt.Fprintln(out, formatResult(app.Extractor.Extract(line, app.extractOptions(flags)...)))
	}
	return scanner.Err()
}

// formatResult renders a result as a two-field CSV line. A nil result (not a
// SERP, or a malformed URL) renders as "","".
func formatResult(res *serp.ExtractResult) string {
	if res == nil {
		return `"",""`
	}
	return csvField(res.Engine) + "," + csvField(res.Keyword)
}

func csvField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
