// Package config loads linksweep's CheckOptions from a JSON config file,
// environment variables, and CLI flags, with CLI flags taking precedence.
package config

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/websieve/linksweep/internal/linkcheck"
)

// defaultConfigName is the base name Viper searches for; the ".json"
// extension is inferred from SetConfigType.
const defaultConfigName = "linksweep.config"

// New builds a Viper instance seeded with linksweep's defaults, bound to
// flags, and loaded from cfgFile (or the default search paths if empty).
// Flags set on the command line always win over the config file, which in
// turn wins over the built-in defaults, matching Viper's normal precedence
// once BindPFlag has been called for every flag.
func New(flags *pflag.FlagSet, cfgFile string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("concurrency", linkcheck.DefaultConcurrency)
	v.SetDefault("timeout", 0)
	v.SetDefault("recurse", false)
	v.SetDefault("markdown", false)
	v.SetDefault("directory-listing", false)
	v.SetDefault("server-root", "")
	v.SetDefault("skip", []string{})
	v.SetDefault("retry", false)
	v.SetDefault("retry-no-header", false)
	v.SetDefault("retry-no-header-count", linkcheck.DefaultRetryNoHeaderCount)
	v.SetDefault("retry-no-header-delay", linkcheck.DefaultRetryNoHeaderDelay)
	v.SetDefault("retry-errors", false)
	v.SetDefault("retry-errors-count", linkcheck.DefaultRetryErrorsCount)
	v.SetDefault("retry-errors-jitter", linkcheck.DefaultRetryErrorsJitter)
	v.SetDefault("user-agent", linkcheck.DefaultUserAgent)
	v.SetDefault("url-rewrite-search", "")
	v.SetDefault("url-rewrite-replace", "")
	v.SetDefault("format", "TEXT")
	v.SetDefault("silent", false)
	// "verbosity" gets no SetDefault: BuildOptions uses IsSet to detect an
	// explicit --verbosity, and a registered default would make IsSet always
	// true. An unset verbosity resolves to the flag's default or to "" (info).

	v.SetEnvPrefix("LINKSWEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("json")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	return v, nil
}

// BuildOptions translates a loaded Viper instance into a linkcheck.CheckOptions.
// path holds the positional LOCATION arguments, which have no config-file
// equivalent.
func BuildOptions(v *viper.Viper, path []string) (linkcheck.CheckOptions, error) {
	opts := linkcheck.CheckOptions{
		Path:               path,
		Concurrency:        v.GetInt("concurrency"),
		Timeout:            v.GetDuration("timeout"),
		Recurse:            v.GetBool("recurse"),
		Markdown:           v.GetBool("markdown"),
		DirectoryListing:   v.GetBool("directory-listing"),
		ServerRoot:         v.GetString("server-root"),
		LinksToSkip:        splitSkipPatterns(v.GetStringSlice("skip")),
		Retry:              v.GetBool("retry"),
		RetryNoHeader:      v.GetBool("retry-no-header"),
		RetryNoHeaderCount: v.GetInt("retry-no-header-count"),
		RetryNoHeaderDelay: v.GetDuration("retry-no-header-delay"),
		RetryErrors:        v.GetBool("retry-errors"),
		RetryErrorsCount:   v.GetInt("retry-errors-count"),
		RetryErrorsJitter:  v.GetDuration("retry-errors-jitter"),
		UserAgent:          v.GetString("user-agent"),
		ExtraHeaders:       make(http.Header),
	}

	search := v.GetString("url-rewrite-search")
	replace := v.GetString("url-rewrite-replace")
	if (search == "") != (replace == "") {
		return linkcheck.CheckOptions{}, fmt.Errorf("config: --url-rewrite-search and --url-rewrite-replace require each other")
	}
	if search != "" {
		re, err := regexp.Compile(search)
		if err != nil {
			return linkcheck.CheckOptions{}, fmt.Errorf("config: invalid url-rewrite-search pattern %q: %w", search, err)
		}
		opts.URLRewriteExpressions = []linkcheck.UrlRewriteRule{{Pattern: re, Replacement: replace}}
	}

	silent := v.GetBool("silent")
	verbosity := v.GetString("verbosity")
	if silent && v.IsSet("verbosity") {
		return linkcheck.CheckOptions{}, fmt.Errorf("config: --silent and --verbosity are mutually exclusive")
	}
	if silent {
		verbosity = "none"
	}
	if err := opts.Validate(); err != nil {
		return linkcheck.CheckOptions{}, err
	}

	// Verbosity is consumed by the CLI layer, not CheckOptions, but validated
	// here so a bad value fails before any work starts. Format is validated
	// separately by Format.
	if _, err := ParseVerbosity(verbosity); err != nil {
		return linkcheck.CheckOptions{}, err
	}
	return opts, nil
}

// Verbosity returns the resolved --verbosity value (honoring --silent),
// for callers that need it outside BuildOptions (the CLI's logger setup).
func Verbosity(v *viper.Viper) string {
	if v.GetBool("silent") {
		return "none"
	}
	return v.GetString("verbosity")
}

// ParseVerbosity validates a verbosity string against the documented set.
func ParseVerbosity(s string) (string, error) {
	switch strings.ToLower(s) {
	case "", "debug", "info", "warning", "error", "none":
		return s, nil
	default:
		return "", fmt.Errorf("config: unknown verbosity %q", s)
	}
}

// Format returns the resolved --format value, validated against the
// documented set.
func Format(v *viper.Viper) (string, error) {
	f := strings.ToUpper(v.GetString("format"))
	switch f {
	case "TEXT", "JSON", "CSV":
		return f, nil
	default:
		return "", fmt.Errorf("config: unknown format %q", f)
	}
}

// splitSkipPatterns expands whitespace/comma-separated entries so that a
// single --skip flag value like "a.com, b.com" becomes two patterns.
func splitSkipPatterns(raw []string) []string {
	var out []string
	for _, entry := range raw {
		for _, field := range strings.FieldsFunc(entry, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		}) {
			if field != "" {
				out = append(out, field)
			}
		}
	}
	return out
}
