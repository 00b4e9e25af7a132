package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fetchview/fetchview/internal/dataapi"
	"github.com/fetchview/fetchview/internal/odata"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Out     string // CSV output path; empty writes to stdout
	Refresh bool
}

// ExportResult is the export command's JSON payload.
type ExportResult struct {
	Query   string `json:"query"`
	Records int    `json:"records"`
	Out     string `json:"out,omitempty"`
	// Truncated is set when the page ceiling stopped pagination early.
	Truncated bool `json:"truncated,omitempty"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <view.xml>",
		Short: "Execute a view and export every matching record as CSV",
		Long: `Export compiles a FetchXML view, executes the query against the data API,
follows continuation links until the full result set is retrieved, and
writes it as CSV keyed by the view's column names.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "CSV output path (default stdout)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "discard the metadata cache before compiling")

	return cmd
}

func runExport(opts *ExportOptions, viewPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return failCommand(formatter, ErrCodeConfig, err.Error())
	}
	if cfg.APIURL == "" {
		return failCommand(formatter, ErrCodeConfig, "export needs a live data API; set apiUrl in the config file")
	}

	res, err := importView(cmd.Context(), opts.RootOptions, "", opts.Refresh, viewPath, formatter)
	if err != nil {
		return err
	}

	queryString, err := odata.Compile(res.Graph, res.Columns, res.Filter, res.Orders)
	if err != nil {
		return fail(formatter, ErrCodeCompile, err.Error())
	}
	formatter.VerboseLog("Executing %s", queryString)

	client := dataapi.NewClient(cfg.APIURL, cfg.Token)
	fetchOpts := dataapi.FetchOptions{MaxPages: cfg.MaxPages}
	records, err := client.FetchAll(cmd.Context(), queryString, fetchOpts, func(accumulated int, last bool) {
		formatter.VerboseLog("Fetched %d record(s), last=%v", accumulated, last)
	})
	truncated := errors.Is(err, dataapi.ErrPageLimit)
	if err != nil && !truncated {
		return fail(formatter, ErrCodeExecute, err.Error())
	}

	table, err := dataapi.BuildTable(res.Graph, res.Columns, records)
	if err != nil {
		return fail(formatter, ErrCodeExecute, err.Error())
	}

	out := cmd.OutOrStdout()
	if opts.Out != "" {
		f, err := os.Create(opts.Out)
		if err != nil {
			return fail(formatter, ErrCodeWrite, fmt.Sprintf("creating %s: %v", opts.Out, err))
		}
		defer f.Close()
		out = f
	}
	if err := dataapi.WriteCSV(out, table); err != nil {
		return fail(formatter, ErrCodeWrite, err.Error())
	}

	if formatter.Format == "json" && opts.Out != "" {
		return formatter.Success(&ExportResult{
			Query:     queryString,
			Records:   len(records),
			Out:       opts.Out,
			Truncated: truncated,
		})
	}
	if opts.Out != "" {
		fmt.Fprintf(formatter.Writer, "Wrote %d record(s) to %s\n", len(records), opts.Out)
		if truncated {
			fmt.Fprintln(formatter.Writer, "Result truncated by the configured page limit.")
		}
	}
	return nil
}
