package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"aucperm/adapters/report"
	"aucperm/adapters/render"
	"aucperm/app"
	"aucperm/domain/auc"
	apperrors "aucperm/internal/errors"
	"aucperm/ports"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newPValuesCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "pvalues",
		Short: "Print a permutation-test p-value per method and diagnosis",
		Long: `Pool the unpermuted test AUCs, take one mean per permuted run, and print
p = (#{permuted >= true} + 1) / (#permuted + 1) for every method and diagnosis.

Example: aucperm pvalues --results-dir ./results --methods logistic_regression_ovr,xgboost_cce`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPValues(cmd.Context(), cmd.OutOrStdout(), opts, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, csv or json")
	return cmd
}

func runPValues(ctx context.Context, w io.Writer, opts *globalOptions, format string) error {
	c, err := opts.load()
	if err != nil {
		return err
	}

	loaded, err := c.Service.LoadTestAUC(ctx, c.Methods(), c.Segmentation())
	if err != nil {
		return err
	}
	table, err := c.Service.PermutationTest(ctx, loaded.Permuted, loaded.Truth)
	if err != nil {
		return err
	}

	if format == "table" {
		printPValueTable(w, table)
		return nil
	}
	writer, err := report.NewWriter(format)
	if err != nil {
		return err
	}
	if writer.Format() == "xlsx" {
		return apperrors.InvalidInput("xlsx is binary; use the export command")
	}
	return writer.Write(ctx, w, &ports.Report{
		Segmentation: c.Segmentation(),
		Methods:      c.Methods(),
		PValues:      table,
		TrueAUCs:     loaded.Truth,
	})
}

func newPlotCmd(opts *globalOptions) *cobra.Command {
	var output string
	var xmin, xmax, width, height float64
	var labels []string

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Draw the permuted-label AUC violins of two methods with p-values",
		Long: `Draw split violins of the permuted-label mean AUCs of exactly two methods per
diagnosis, mark each method's true AUC and annotate its p-value.

The output format follows the file extension: png, svg, pdf, eps, jpg or tif.

Example: aucperm plot --results-dir ./results --output auc_violin.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlot(cmd, opts, output, xmin, xmax, width, height, labels)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default auc_violin_<segmentation>.png)")
	cmd.Flags().Float64Var(&xmin, "xmin", 0, "Lower AUC axis limit (XLIM_MIN)")
	cmd.Flags().Float64Var(&xmax, "xmax", 0, "Upper AUC axis limit (XLIM_MAX)")
	cmd.Flags().Float64Var(&width, "width", 0, "Figure width in inches (PLOT_WIDTH_IN)")
	cmd.Flags().Float64Var(&height, "height", 0, "Figure height in inches (PLOT_HEIGHT_IN)")
	cmd.Flags().StringSliceVar(&labels, "diagnosis-labels", nil, "Display names for the diagnoses, in column order")
	return cmd
}

func runPlot(cmd *cobra.Command, opts *globalOptions, output string, xmin, xmax, width, height float64, labels []string) error {
	ctx := cmd.Context()
	c, err := opts.load()
	if err != nil {
		return err
	}

	if output == "" {
		output = fmt.Sprintf("auc_violin_%s.png", c.Segmentation())
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
	if format == "" {
		return apperrors.InvalidInput(fmt.Sprintf("cannot tell the format of %q; use one of %s",
			output, strings.Join(render.SupportedFormats, ", ")))
	}

	renderOpts := c.RenderOptions(format)
	renderOpts.DiagnosisLabels = labels
	if cmd.Flags().Changed("xmin") {
		renderOpts.XMin = xmin
	}
	if cmd.Flags().Changed("xmax") {
		renderOpts.XMax = xmax
	}
	if cmd.Flags().Changed("width") {
		renderOpts.Width = width
	}
	if cmd.Flags().Changed("height") {
		renderOpts.Height = height
	}

	loaded, err := c.Service.LoadTestAUC(ctx, c.Methods(), c.Segmentation())
	if err != nil {
		return err
	}

	// Render fully before touching the output file
	var buf bytes.Buffer
	if err := c.Service.RenderViolin(ctx, &buf, loaded.Permuted, loaded.Truth, c.Methods(), renderOpts); err != nil {
		return err
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return apperrors.Wrapf(err, "writing %s", output)
	}

	printDone(cmd.OutOrStdout(), "plot saved to %s", output)
	return nil
}

func newUnadjustedCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unadjusted",
		Short: "Compare mean test AUCs with and without covariate adjustment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnadjusted(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
}

func runUnadjusted(ctx context.Context, w io.Writer, opts *globalOptions) error {
	c, err := opts.load()
	if err != nil {
		return err
	}

	unadjusted, err := c.Service.LoadUnadjustedAUC(ctx, c.Methods(), c.Segmentation())
	if err != nil {
		return err
	}

	adjusted := auc.TrueAUCs{}
	if loaded, err := c.Service.LoadTestAUC(ctx, c.Methods(), c.Segmentation()); err == nil {
		adjusted = loaded.Truth
	} else {
		c.Logger.Warn("adjusted runs unavailable, showing unadjusted means only: %v", err)
	}

	diagnoses := make(map[auc.Method][]auc.Diagnosis)
	for _, m := range unadjusted.Pool.Methods() {
		diagnoses[m] = unadjusted.Pool.Diagnoses(m)
	}
	printAUCComparison(w, unadjusted.Pool.Methods(), adjusted, unadjusted.Truth, diagnoses)
	return nil
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the full report as csv, xlsx or json",
		Long: `Run the whole pipeline and write the report. The format follows the extension of
--output: csv (one row per pair), xlsx (p-values on Sheet1, means on "true_auc") or json.

Example: aucperm export --results-dir ./results -o pvalues.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), cmd.OutOrStdout(), opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (required)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runExport(ctx context.Context, w io.Writer, opts *globalOptions, output string) error {
	writer, err := report.NewWriter(filepath.Ext(output))
	if err != nil {
		return err
	}
	c, err := opts.load()
	if err != nil {
		return err
	}

	rep, err := c.Service.BuildReport(ctx, app.ReportRequest{
		Methods:      c.Methods(),
		Segmentation: c.Segmentation(),
	})
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := writer.Write(ctx, &buf, rep); err != nil {
		return err
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return apperrors.Wrapf(err, "writing %s", output)
	}

	printDone(w, "report %s (%d p-values, %d significant) saved to %s",
		rep.RunID, len(rep.PValues.Entries), rep.PValues.SignificantCount(), output)
	return nil
}

func newServeCmd(opts *globalOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the p-value table and plot over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				c.Config.Server.Port = port
			}

			gin.SetMode(c.Config.Server.GinMode)
			viewer, err := c.Viewer()
			if err != nil {
				return err
			}
			return viewer.Start(":" + c.Config.Server.Port)
		},
	}

	cmd.Flags().StringVar(&port, "port", "8080", "Listen port (PORT)")
	return cmd
}
