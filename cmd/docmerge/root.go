package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/randalmurphal/docmerge/pkg/docmerge/config"
)

// envPrefix prefixes every environment override, e.g.
// DOCMERGE_TEMPLATES_DIR or DOCMERGE_LOG_LEVEL.
const envPrefix = "DOCMERGE"

// settingKeys are bound to environment variables so AllSettings reports
// them even when no flag or file sets them.
var settingKeys = []string{
	"templates.dir",
	"templates.base_url",
	"templates.catalog",
	"templates.fallback",
	"templates.cache",
	"templates.watch",
	"templates.fetch_timeout",
	"templates.retries",
	"records.file",
	"records.id_field",
	"records.name_field",
	"engine.trusted_fields",
	"engine.raw_substrings",
	"export.dir",
	"history.db",
	"log.level",
	"log.format",
}

// cli carries per-invocation state shared by all subcommands.
type cli struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
	app    *app
}

// execute runs the command line in args.
func execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	c := &cli{v: viper.New(), out: out, errOut: errOut}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	defer c.close()
	return root.ExecuteContext(ctx)
}

func (c *cli) rootCmd() *cobra.Command {
	defaults := config.Defaults()

	root := &cobra.Command{
		Use:   "docmerge",
		Short: "Fill employee document templates with record data",
		Long: `docmerge merges HTML document templates containing {{field}} markers
with employee records and exports the result.

Configuration comes from, highest priority first:
  1. command-line flags
  2. DOCMERGE_* environment variables (DOCMERGE_TEMPLATES_DIR, DOCMERGE_LOG_LEVEL, ...)
  3. the file given by --config or DOCMERGE_CONFIG (YAML or JSON)
  4. built-in defaults`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (YAML or JSON; also DOCMERGE_CONFIG)")
	flags.String("log-level", defaults.Log.Level, "log level (debug, info, warn, error)")
	flags.String("log-format", defaults.Log.Format, "log format (text, json)")
	flags.String("templates-dir", defaults.Templates.Dir, "directory holding template files")
	flags.String("templates-url", defaults.Templates.BaseURL, "base URL to fetch templates from")
	flags.String("records-file", defaults.Records.File, "JSON file with employee records")
	flags.String("catalog", defaults.Templates.Catalog, "template catalog file (YAML or JSON)")
	flags.String("history-db", defaults.History.DB, "SQLite file for export history (empty keeps it in memory for this run)")

	c.bindFlags(flags, map[string]string{
		"log.level":          "log-level",
		"log.format":         "log-format",
		"templates.dir":      "templates-dir",
		"templates.base_url": "templates-url",
		"records.file":       "records-file",
		"templates.catalog":  "catalog",
		"history.db":         "history-db",
	})

	root.AddCommand(
		c.renderCmd(),
		c.fieldsCmd(),
		c.validateCmd(),
		c.templatesCmd(),
		c.employeesCmd(),
		c.historyCmd(),
	)
	return root
}

func (c *cli) bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if f := flags.Lookup(name); f != nil {
			_ = c.v.BindPFlag(key, f)
		}
	}
}

// loadSettings reads the config file and environment into Settings.
func (c *cli) loadSettings(cmd *cobra.Command) (config.Settings, error) {
	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.v.AutomaticEnv()
	for _, key := range settingKeys {
		_ = c.v.BindEnv(key)
	}

	cfgFile, _ := cmd.Root().PersistentFlags().GetString("config")
	if cfgFile == "" {
		cfgFile = os.Getenv(envPrefix + "_CONFIG")
	}
	if cfgFile != "" {
		c.v.SetConfigFile(cfgFile)
		if err := c.v.ReadInConfig(); err != nil {
			return config.Settings{}, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	settings := config.Resolve(config.New(c.v.AllSettings()))
	if err := settings.Validate(); err != nil {
		return config.Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return settings, nil
}

func (c *cli) setup(cmd *cobra.Command) error {
	if c.app != nil {
		return nil
	}
	settings, err := c.loadSettings(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), settings, c.errOut)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *cli) close() {
	if c.app == nil {
		return
	}
	if err := c.app.Close(); err != nil {
		fmt.Fprintln(c.errOut, "Warning:", err)
	}
}
