// Package cmd defines and implements the CLI commands for the linksweep
// executable.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command. linksweep has a
// single meaningful action, so LOCATION is accepted directly on the root
// command rather than requiring a "check" subcommand, mirroring the CLI
// surface it's compatible with.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linksweep LOCATION [LOCATION...]",
		Short: "Find broken links, missing images, and other bad links in a site.",
		Long: `linksweep crawls one or more URLs or local files/directories, follows
the links it finds, and reports which ones are broken. It supports crawling
whole sites, checking Markdown files, and retrying rate-limited or flaky
responses.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCheck,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a linksweep.config.json file")

	flags := cmd.Flags()
	flags.Int("concurrency", 0, "number of connections to make simultaneously (default 100)")
	flags.Duration("timeout", 0, "timeout for each link as a duration (e.g. 500ms, 5s); 0 disables it")
	flags.BoolP("recurse", "r", false, "recursively follow links on the same origin as the seed")
	flags.Bool("markdown", false, "treat local .md files (and text/markdown responses) as HTML-equivalent")
	flags.Bool("directory-listing", false, "serve directory listings for local directories without an index.html")
	flags.String("server-root", "", "root directory to use for the local static server (default: derived from the seed path)")
	flags.StringArrayP("skip", "s", nil, "regex (or comma/whitespace-separated regexes) of pages to skip; repeatable")
	flags.Bool("retry", false, "retry 429 responses that include a retry-after header")
	flags.Bool("retry-no-header", false, "also retry 429 responses that lack a retry-after header")
	flags.Int("retry-no-header-count", 0, "max retries for headerless 429s; -1 for unbounded (default 3)")
	flags.Duration("retry-no-header-delay", 0, "fixed delay between headerless 429 retries (default 100ms)")
	flags.Bool("retry-errors", false, "retry 5xx responses and network errors with exponential backoff")
	flags.Int("retry-errors-count", 0, "max retries for 5xx/network errors (default 3)")
	flags.Duration("retry-errors-jitter", 0, "max jitter added atop exponential backoff for error retries (default 500ms)")
	flags.String("user-agent", "", "user agent to use for requests (default linksweep/1.0)")
	flags.String("url-rewrite-search", "", "regex to search for in discovered URLs; requires --url-rewrite-replace")
	flags.String("url-rewrite-replace", "", "replacement text for --url-rewrite-search")
	flags.String("format", "TEXT", "output format: TEXT, JSON, or CSV")
	flags.Bool("silent", false, "suppress all log output (the report is still written); conflicts with --verbosity")
	flags.String("verbosity", "info", "log verbosity: debug, info, warning, error, or none")

	return cmd
}

// Execute is the CLI's entry point.
func Execute() error {
	return newRootCmd().Execute()
}
