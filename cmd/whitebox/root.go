package main

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/whitebox/internal/config"
	"gitlab.bluewillows.net/root/whitebox/internal/metrics"
)

// cli holds the global flags and the app they configure.
type cli struct {
	configPath string
	dryRun     bool
	logLevel   string
	logFormat  string

	out    io.Writer
	errOut io.Writer
	app    *app
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}

	cmd := &cobra.Command{
		Use:   "whitebox",
		Short: "Inspect an OpenStack compute deployment over SSH",
		Long: `whitebox reaches into the hosts of an OpenStack compute deployment
over SSH and reports what the services actually see: libvirt domain XML,
rows of the compute database and nova-manage output.

Configuration is read from --config (YAML, or TOML for .toml files) and
WHITEBOX_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	flags := cmd.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "configuration file (default $WHITEBOX_CONFIG)")
	flags.BoolVar(&c.dryRun, "dry-run", false, "print the wrapped commands instead of running them")
	flags.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&c.logFormat, "log-format", "", "log format: json, text")

	cmd.AddCommand(
		newDumpXMLCmd(c),
		newDomainsCmd(c),
		newSQLCmd(c),
		newManageCmd(c),
		newDiscoverCmd(c),
		newContainersCmd(c),
		newServeCmd(c),
		newVersionCmd(out),
	)

	return cmd
}

// setup loads the configuration, applies flag overrides and builds the app.
// Commands that talk to the deployment call it first.
func (c *cli) setup(cmd *cobra.Command) (*app, error) {
	if c.app != nil {
		return c.app, nil
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if c.dryRun {
		cfg.DryRun = true
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if c.logFormat != "" {
		cfg.LogFormat = c.logFormat
	}

	logger := setupLogger(c.errOut, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	metrics.SetBuildInfo(Version, runtime.Version())

	a, err := newApp(cmd.Context(), cfg, logger, c.out)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func newVersionCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(out, "whitebox %s (built %s, %s)\n", Version, BuildDate, runtime.Version())
		},
	}
}
