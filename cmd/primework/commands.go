package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"primework.dev/node/consensus"
	"primework.dev/node/node"
)

const chainTypeAll = "all"

func (c *cli) newCertifyCmd() *cobra.Command {
	var typeName string
	cmd := &cobra.Command{
		Use:   "certify <origin>",
		Short: "Certify the chains rooted at origin",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			origin, err := node.ParseOrigin(args[0])
			if err != nil {
				return &usageError{err: err}
			}
			params := c.cfg.ChainParams(node.ZapDiagnostics(c.logger))
			if strings.EqualFold(strings.TrimSpace(typeName), chainTypeAll) {
				results, err := consensus.CertifyAll(cmd.Context(), origin, params)
				if err != nil {
					return fmt.Errorf("certify: %w", err)
				}
				for _, r := range results {
					printResult(c, "", r)
				}
				best, _ := results.Best()
				printResult(c, "best: ", best)
				return nil
			}

			t, err := consensus.ParseChainType(typeName)
			if err != nil {
				return &usageError{err: err}
			}
			d, err := consensus.CertifyContext(cmd.Context(), origin, t, params)
			if err != nil {
				return fmt.Errorf("certify %s: %w", t, err)
			}
			printResult(c, "", consensus.ChainResult{Type: t, Difficulty: d})
			return nil
		},
	}
	cmd.Flags().StringVar(&typeName, "type", chainTypeAll, "chain type: all|1cc|2cc|twn")
	return cmd
}

func printResult(c *cli, prefix string, r consensus.ChainResult) {
	_, _ = fmt.Fprintf(c.stdout, "%stype=%s length=%d difficulty=%s value=%.6f\n",
		prefix, r.Type, r.Difficulty.ChainLength(), r.Difficulty, r.Difficulty.Float64())
}

func (c *cli) newScanCmd() *cobra.Command {
	defaults := node.DefaultConfig().Scan
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan origins start, start+step, ... for chains",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			scfg, err := node.NewScannerConfig(c.cfg, node.ZapDiagnostics(c.logger))
			if err != nil {
				return &usageError{err: err}
			}
			scanner, err := node.NewScanner(scfg, c.logger)
			if err != nil {
				return &usageError{err: err}
			}
			stats, err := scanner.Scan(cmd.Context(), func(hit node.ScanHit) error {
				_, err := fmt.Fprintf(c.stdout, "hit: origin=%s type=%s difficulty=%s\n",
					hit.Origin, hit.Result.Type, hit.Result.Difficulty)
				return err
			})
			last := "-"
			if stats.Last != nil {
				last = stats.Last.String()
			}
			_, _ = fmt.Fprintf(c.stdout, "scan: tested=%d hits=%d last=%s\n", stats.Tested, stats.Hits, last)
			return err
		},
	}
	cmd.Flags().String("start", defaults.Start, "first origin")
	cmd.Flags().Uint64("step", defaults.Step, "origin increment")
	cmd.Flags().Uint64("count", defaults.Count, "origins to test, 0 until interrupted")
	cmd.Flags().Uint32("min-length", defaults.MinChainLength, "minimum chain length reported as a hit")
	return cmd
}

// applyScanFlags copies explicitly set scan flags over the file values. Commands
// without scan flags are left untouched.
func applyScanFlags(cmd *cobra.Command, scan *node.ScanConfig) error {
	flags := cmd.Flags()
	var err error
	if flags.Lookup("start") != nil && flags.Changed("start") {
		if scan.Start, err = flags.GetString("start"); err != nil {
			return &usageError{err: err}
		}
	}
	if flags.Lookup("step") != nil && flags.Changed("step") {
		if scan.Step, err = flags.GetUint64("step"); err != nil {
			return &usageError{err: err}
		}
	}
	if flags.Lookup("count") != nil && flags.Changed("count") {
		if scan.Count, err = flags.GetUint64("count"); err != nil {
			return &usageError{err: err}
		}
	}
	if flags.Lookup("min-length") != nil && flags.Changed("min-length") {
		if scan.MinChainLength, err = flags.GetUint32("min-length"); err != nil {
			return &usageError{err: err}
		}
	}
	return nil
}

func (c *cli) newHeaderCmd() *cobra.Command {
	var rawHex bool
	cmd := &cobra.Command{
		Use:   "header <file|hex>",
		Short: "Verify the prime proof of work of an 80- or 128-byte block header",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verifier, err := node.NewVerifierFromConfig(c.cfg, c.logger)
			if err != nil {
				return &usageError{err: err}
			}
			var report node.HeaderReport
			if rawHex {
				raw, decodeErr := hex.DecodeString(strings.TrimSpace(args[0]))
				if decodeErr != nil {
					return usagef("header hex: %w", decodeErr)
				}
				report, err = verifier.VerifyHeaderBytes(cmd.Context(), raw)
			} else {
				report, err = verifier.VerifyHeaderFile(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			h := report.Header
			_, _ = fmt.Fprintf(c.stdout, "header: hash=%s version=%d time=%d bits=%s nonce=%d\n",
				report.HashHex(), h.Version, h.Time, h.Bits, h.Nonce)
			if report.Origin != nil {
				_, _ = fmt.Fprintf(c.stdout, "origin: bits=%d multiplier=%s\n", report.Origin.BitLen(), h.Multiplier())
			}
			if report.Best != nil {
				printResult(c, "best: ", *report.Best)
			}
			if report.PowErr != nil {
				_, _ = fmt.Fprintln(c.stdout, "pow: invalid")
				return fmt.Errorf("proof of work rejected: %w", report.PowErr)
			}
			_, _ = fmt.Fprintln(c.stdout, "pow: valid")
			return nil
		},
	}
	cmd.Flags().BoolVar(&rawHex, "hex", false, "treat the argument as hex-encoded header bytes")
	return cmd
}

func (c *cli) newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as JSON",
		Args:  exactArgs(0),
		RunE: func(*cobra.Command, []string) error {
			c.logger.Debug("effective config", zap.String("header_hash", c.cfg.HeaderHash))
			enc := json.NewEncoder(c.stdout)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(c.cfg)
		},
	}
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}
