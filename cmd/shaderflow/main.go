// SPDX-License-Identifier: Apache-2.0
package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"shaderflow/internal/config"
	"shaderflow/internal/errors"
	"shaderflow/internal/export"
	"shaderflow/internal/parser"
	"shaderflow/internal/pipeline"
	"shaderflow/internal/structure"
	"shaderflow/repl"
)

var version = "0.1.0"

// ErrFailed indicates that at least one input had errors. The diagnostics
// have already been written when it is returned.
var ErrFailed = stderrors.New("structuring failed")

// options holds the persistent flags and the configuration they resolve to
type options struct {
	configPath string
	format     string
	noColor    bool
	verbose    int
	parallel   int

	cfg *config.Config
}

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		if !stderrors.Is(err, ErrFailed) {
			fmt.Fprintf(os.Stderr, "shaderflow: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "shaderflow",
		Short: "shaderflow recovers structured control flow from shader IR",
		Long: `shaderflow reads shader assembly, builds the control-flow graph of each
function and reconstructs the nested If/Loop/Switch structure that a
structured shading language needs.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.configure(cmd)
		},
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "read configuration from this file instead of the default locations")
	flags.StringVar(&opts.format, "format", "", "output format: text, json, yaml or msgpack")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	flags.CountVarP(&opts.verbose, "verbose", "v", "increase log verbosity (repeatable)")
	flags.IntVar(&opts.parallel, "parallel", 0, "number of functions processed at once")

	rootCmd.AddCommand(
		newStructureCmd(opts, out, errOut),
		newCFGCmd(opts, out, errOut),
		newCheckCmd(opts, errOut),
		newReplCmd(in, out),
	)
	return rootCmd
}

// configure loads the configuration and applies flag overrides on top
func (o *options) configure(cmd *cobra.Command) error {
	var cfg *config.Config
	var err error
	if o.configPath != "" {
		cfg, err = config.LoadFromFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = o.format
	}
	if flags.Changed("no-color") && o.noColor {
		cfg.Color = config.ColorNever
	}
	if flags.Changed("verbose") {
		cfg.Verbosity = o.verbose
	}
	if flags.Changed("parallel") {
		cfg.Parallel = o.parallel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	switch cfg.Color {
	case config.ColorAlways:
		color.NoColor = false
	case config.ColorNever:
		color.NoColor = true
	}

	commonlog.Configure(logVerbosity(cfg.Verbosity), cfg.LogFilePath())
	o.cfg = cfg
	return nil
}

// logVerbosity maps the -v count to a commonlog verbosity. Failures are
// reported as diagnostics, so without -v only errors are logged.
func logVerbosity(v int) int {
	if v == 0 {
		return -2
	}
	return v
}

// unit is one processed input file
type unit struct {
	path    string
	source  string
	results []pipeline.Result
	diags   []errors.CompilerError
}

// process reads, parses and structurizes one file. Only I/O failures are
// returned as errors; everything else ends up in the unit's diagnostics.
func (o *options) process(path string) (*unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	u := &unit{path: path, source: string(data)}
	module, diags := parser.ParseSource(path, u.source)
	u.diags = diags
	if module == nil {
		return u, nil
	}

	u.results = pipeline.Run(module, pipeline.Options{Parallel: o.cfg.Parallel})
	u.diags = append(u.diags, pipeline.Diagnostics(u.results)...)
	return u, nil
}

// report writes the unit's diagnostics and tells whether any is an error
func (u *unit) report(w io.Writer) bool {
	if len(u.diags) > 0 {
		reporter := errors.NewErrorReporter(u.path, u.source)
		fmt.Fprint(w, reporter.FormatErrors(u.diags))
	}
	return parser.HasErrors(u.diags)
}

// forEachFile processes every path in order and calls fn with the unit. It
// returns ErrFailed when any file reported errors.
func (o *options) forEachFile(paths []string, errOut io.Writer, fn func(u *unit) error) error {
	failed := false
	for _, path := range paths {
		u, err := o.process(path)
		if err != nil {
			return err
		}
		if u.report(errOut) {
			failed = true
		}
		if err := fn(u); err != nil {
			return err
		}
	}
	if failed {
		return ErrFailed
	}
	return nil
}

func newStructureCmd(opts *options, out, errOut io.Writer) *cobra.Command {
	var showDepth, showBlocks bool

	cmd := &cobra.Command{
		Use:   "structure <file>...",
		Short: "Print the structure tree of each function",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(opts.cfg.Format)
			if err != nil {
				return err
			}
			return opts.forEachFile(args, errOut, func(u *unit) error {
				if format != export.FormatText {
					return export.Encode(out, format, export.FromResults(u.path, u.results))
				}
				for _, r := range u.results {
					if r.Tree == nil {
						continue
					}
					if len(u.results) > 1 {
						fmt.Fprintf(out, "; function %s\n", r.Function.Name)
					}
					fmt.Fprint(out, structure.NewPrinter(showDepth, showBlocks).Print(r.Tree))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&showDepth, "depth", false, "show the nesting depth of each node")
	cmd.Flags().BoolVar(&showBlocks, "blocks", false, "list the instructions of each block")
	return cmd
}

func newCFGCmd(opts *options, out, errOut io.Writer) *cobra.Command {
	var dominators bool

	cmd := &cobra.Command{
		Use:   "cfg <file>...",
		Short: "Print the control-flow graph of each function",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(opts.cfg.Format)
			if err != nil {
				return err
			}
			showIdom := dominators || opts.cfg.ShowDominators
			return opts.forEachFile(args, errOut, func(u *unit) error {
				if format != export.FormatText {
					snap := export.ModuleSnapshot{Source: u.path}
					for _, r := range u.results {
						snap.Functions = append(snap.Functions, export.Snapshot(r.Function, r.CFG, nil, r.Err))
					}
					return export.Encode(out, format, snap)
				}
				for _, r := range u.results {
					if r.CFG == nil {
						continue
					}
					fmt.Fprintf(out, "; function %s\n", r.Function.Name)
					fmt.Fprint(out, formatCFG(r, showIdom))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dominators, "dominators", false, "show the immediate dominator of each block")
	return cmd
}

// formatCFG lists each block with its successors, one block per line
func formatCFG(r pipeline.Result, showIdom bool) string {
	var sb strings.Builder
	g := r.CFG
	dom := g.Dominators()
	for _, b := range g.Blocks() {
		sb.WriteString(b.String())
		if succs := g.Successors(b.ID); len(succs) > 0 {
			names := make([]string, len(succs))
			for i, s := range succs {
				names[i] = g.Block(s).String()
			}
			sb.WriteString(" -> ")
			sb.WriteString(strings.Join(names, ", "))
		}
		switch {
		case !dom.Reachable(b.ID):
			sb.WriteString(" ; unreachable")
		case showIdom:
			if idom, ok := dom.ImmediateDominator(b.ID); ok {
				fmt.Fprintf(&sb, " ; idom %s", g.Block(idom))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func newCheckCmd(opts *options, errOut io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>...",
		Short: "Report diagnostics without printing any output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := false
			for _, path := range args {
				startTime := time.Now()
				u, err := opts.process(path)
				if err != nil {
					return err
				}
				hasErrors := u.report(errOut)
				duration := formatDuration(time.Since(startTime))

				if hasErrors {
					failed = true
					color.New(color.FgRed).Fprintf(errOut, "Structuring failed for %s after %s\n", u.path, duration)
				} else {
					color.New(color.FgGreen).Fprintf(errOut, "Successfully structured %s (%d function(s)) in %s\n",
						u.path, len(u.results), duration)
				}
			}
			if failed {
				return ErrFailed
			}
			return nil
		},
	}
}

func newReplCmd(in io.Reader, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Structurize assembly typed interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if currentUser, err := user.Current(); err == nil {
				fmt.Fprintf(out, "Welcome to the shaderflow REPL, %s!\n", currentUser.Username)
			} else {
				fmt.Fprintln(out, "Welcome to the shaderflow REPL!")
			}
			repl.Start(in, out)
			return nil
		},
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fmin", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}
