// Package cmdutil wires the cobra command tree, following the teacher's
// cmd package conventions (a package-level Root command, CheckArgs for
// positional-argument validation, Run for the common "execute and report
// error" wrapper).
package cmdutil

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/firmadyne-tools/fwextract/internal/rlog"
	"github.com/firmadyne-tools/fwextract/internal/traverse"
)

// Root is the top-level command, analogous to the teacher's cmd.Root.
var Root = &cobra.Command{
	Use:   "fwextract source [output]",
	Short: "Recursively extract a Linux kernel and root filesystem from a firmware image",
	Long: `
fwextract walks a firmware blob (or an already-unpacked directory tree),
recursively opening archives, decompressing payloads, decrypting known
vendor encryption schemes, and carving bundled kernel/rootfs images,
until it has produced a kernel and a root filesystem tarball or run out
of things to try.`,
	Run: func(command *cobra.Command, args []string) {
		CheckArgs(1, 2, command, args)

		noKernel, _ := command.Flags().GetBool("no-kernel")
		noFilesystem, _ := command.Flags().GetBool("no-filesystem")
		verbose, _ := command.Flags().GetBool("verbose")
		rlog.SetVerbose(verbose)

		output := "images"
		if len(args) > 1 {
			output = args[1]
		}

		Run(func() error {
			result, err := traverse.Extract(context.Background(), traverse.Options{
				Input:      args[0],
				Output:     output,
				WantKernel: !noKernel,
				WantRootfs: !noFilesystem,
			})
			if err != nil {
				return err
			}
			if result.KernelPath != "" {
				fmt.Fprintf(os.Stdout, "kernel: %s\n", result.KernelPath)
			}
			if result.RootfsPath != "" {
				fmt.Fprintf(os.Stdout, "rootfs: %s\n", result.RootfsPath)
			}
			return nil
		})
	},
}

func init() {
	addFlags(Root.Flags())
}

func addFlags(flags *pflag.FlagSet) {
	flags.Bool("no-kernel", false, "Do not attempt to extract a kernel")
	flags.Bool("no-filesystem", false, "Do not attempt to extract a root filesystem")
	flags.BoolP("verbose", "v", false, "Print debug-level trace output")
}

// argparseAliases maps the original extractor.py's single-dash,
// multi-letter argparse flags (-nf, -nk) to their pflag long-flag
// equivalents. pflag's shorthand mechanism only accepts a single ASCII
// character, so "-nf"/"-nk" cannot be registered as shorthands directly;
// this rewrite runs once, ahead of cobra's own parsing, to keep the
// original flag spelling working (§6).
var argparseAliases = map[string]string{
	"-nf": "--no-filesystem",
	"-nk": "--no-kernel",
}

// translateArgs rewrites argparse-style single-dash flags into their
// pflag long-flag equivalents, leaving every other argument untouched.
func translateArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if long, ok := argparseAliases[a]; ok {
			out[i] = long
			continue
		}
		out[i] = a
	}
	return out
}

// CheckArgs checks that args has between min and max positional entries,
// printing usage and exiting on failure, matching the teacher's
// cmd.CheckArgs contract.
func CheckArgs(min, max int, command *cobra.Command, args []string) {
	if len(args) < min {
		_ = command.Usage()
		fmt.Fprintf(os.Stderr, "Command %s needs %d arguments minimum: you provided %d\n", command.Name(), min, len(args))
		os.Exit(1)
	}
	if max >= 0 && len(args) > max {
		_ = command.Usage()
		fmt.Fprintf(os.Stderr, "Command %s needs %d arguments maximum: you provided %d\n", command.Name(), max, len(args))
		os.Exit(1)
	}
}

// Run executes f, reporting any error to stderr and exiting non-zero,
// matching the teacher's cmd.Run(showStats, showSpeed, command, f) shape
// trimmed to this tool's single always-run command.
func Run(f func() error) {
	if err := f(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", errors.Cause(err))
		os.Exit(1)
	}
}

// Execute runs the root command, called from main.
func Execute() {
	Root.SetArgs(translateArgs(os.Args[1:]))
	if err := Root.Execute(); err != nil {
		os.Exit(1)
	}
}
