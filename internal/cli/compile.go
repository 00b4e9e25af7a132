package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fetchview/fetchview/internal/fetchxml"
	"github.com/fetchview/fetchview/internal/importer"
	"github.com/fetchview/fetchview/internal/odata"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	SchemaDir string // offline schema snapshot directory
	Output    string // optional model snapshot output path
	Refresh   bool   // bust the metadata cache first
}

// CompileResult is the compile command's JSON payload.
type CompileResult struct {
	Query   string             `json:"query"`
	Columns int                `json:"columns"`
	Joins   int                `json:"joins"`
	Dropped []importer.Dropped `json:"dropped,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <view.xml>",
		Short: "Compile a FetchXML view to an OData query string",
		Long: `Compile parses a FetchXML view definition, resolves its joins against
entity metadata (live or a --schema snapshot), and prints the compiled
OData query string.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SchemaDir, "schema", "", "compile offline against a CUE schema snapshot directory")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the canonical model snapshot to this path")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "discard the metadata cache before compiling")

	return cmd
}

func runCompile(opts *CompileOptions, viewPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	res, err := importView(cmd.Context(), opts.RootOptions, opts.SchemaDir, opts.Refresh, viewPath, formatter)
	if err != nil {
		return err
	}

	queryString, err := odata.Compile(res.Graph, res.Columns, res.Filter, res.Orders)
	if err != nil {
		return fail(formatter, ErrCodeCompile, err.Error())
	}

	if opts.Output != "" {
		snapshot, err := res.Snapshot()
		if err != nil {
			return fail(formatter, ErrCodeWrite, fmt.Sprintf("building model snapshot: %v", err))
		}
		if err := os.WriteFile(opts.Output, snapshot, 0644); err != nil {
			return fail(formatter, ErrCodeWrite, fmt.Sprintf("writing %s: %v", opts.Output, err))
		}
		formatter.VerboseLog("Wrote model snapshot to %s", opts.Output)
	}

	result := &CompileResult{
		Query:   queryString,
		Columns: len(res.Columns),
		Joins:   len(res.Graph.Nodes()) - 1,
		Dropped: res.Dropped,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, queryString)
	if len(res.Dropped) > 0 {
		fmt.Fprintf(formatter.Writer, "\n%d part(s) of the view could not be reproduced:\n", len(res.Dropped))
		for _, d := range res.Dropped {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", d.Path, d.Reason)
		}
	}
	return nil
}

// importView is the shared parse+import path for compile and export.
func importView(ctx context.Context, opts *RootOptions, schemaDir string, refresh bool, viewPath string, formatter *OutputFormatter) (*importer.Result, error) {
	data, err := os.ReadFile(viewPath)
	if err != nil {
		return nil, failCommand(formatter, ErrCodeNotFound, fmt.Sprintf("reading view: %v", err))
	}

	doc, err := fetchxml.Parse(data)
	if err != nil {
		return nil, failCommand(formatter, ErrCodeParse, err.Error())
	}

	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, failCommand(formatter, ErrCodeConfig, err.Error())
	}

	resolver, cleanup, err := newResolver(cfg, schemaDir, refresh)
	if err != nil {
		return nil, failCommand(formatter, ErrCodeConfig, err.Error())
	}
	defer cleanup()

	formatter.VerboseLog("Importing view rooted at %s", doc.Entity.Name)
	res, err := importer.New(resolver).Import(ctx, doc)
	if err != nil {
		return nil, fail(formatter, ErrCodeImport, err.Error())
	}
	for _, d := range res.Dropped {
		formatter.VerboseLog("Dropped %s: %s", d.Path, d.Reason)
	}
	return res, nil
}

// fail reports an operation failure (exit code 1).
func fail(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Fail(code, message)
	return WrapExitError(ExitFailure, fmt.Sprintf("%s: %s", code, message), nil)
}

// failCommand reports a command-level error (exit code 2).
func failCommand(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Fail(code, message)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}
