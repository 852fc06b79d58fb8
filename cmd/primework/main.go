package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"primework.dev/node/node"
)

// usageError marks bad flags, arguments or configuration; run maps it to exit code 2.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

type cli struct {
	stdout io.Writer
	stderr io.Writer

	configPath    string
	logLevel      string
	maxChainLinks uint32

	cfg    node.Config
	logger *zap.Logger
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
	var uerr *usageError
	if errors.As(err, &uerr) {
		return 2
	}
	return 1
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:   "primework",
		Short: "Certify Cunningham and bi-twin prime chains",
		Long: `primework certifies Cunningham chains of the first and second kind and
bi-twin chains rooted at an origin, scores them as fixed-point difficulties,
scans origins for chains, and verifies prime proof-of-work block headers.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	defaults := node.DefaultConfig()
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", defaults.LogLevel, "log level: debug|info|warn|error")
	root.PersistentFlags().Uint32Var(&c.maxChainLinks, "max-chain-links", defaults.MaxChainLinks, "safety bound on links per chain walk")

	root.AddCommand(
		c.newCertifyCmd(),
		c.newScanCmd(),
		c.newHeaderCmd(),
		c.newConfigCmd(),
	)
	return root
}

// setup loads the config file, applies flag overrides, validates the result and
// builds the logger. Flags win over the file.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg := node.DefaultConfig()
	if c.configPath != "" {
		loaded, err := node.LoadConfig(c.configPath)
		if err != nil {
			return &usageError{err: err}
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if flags.Changed("max-chain-links") {
		cfg.MaxChainLinks = c.maxChainLinks
	}
	if err := applyScanFlags(cmd, &cfg.Scan); err != nil {
		return err
	}
	if err := node.ValidateConfig(cfg); err != nil {
		return usagef("invalid config: %w", err)
	}

	logger, err := node.NewLogger(cfg.LogLevel, c.stderr)
	if err != nil {
		return &usageError{err: err}
	}
	c.cfg = cfg
	c.logger = logger
	return nil
}
