package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/jonx"
	"github.com/ajitpratap0/jonx/pkg/compression"
	jsonpool "github.com/ajitpratap0/jonx/pkg/json"
)

func (a *app) options() []jonx.Option {
	return []jonx.Option{jonx.WithCodec(a.codec), jonx.WithLogger(a.logger)}
}

// withExt replaces the extension of path.
func withExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func newEncodeCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "encode <input.json>",
		Short: "Encode a JSON array of records into a JONX container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if output == "" {
				output = withExt(input, ".jonx")
			}
			s, err := jonx.EncodeFile(input, output, a.options()...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Encoded %s -> %s\n", input, output)
			fmt.Fprintf(out, "  Rows:          %d\n", s.Rows)
			fmt.Fprintf(out, "  Columns:       %d\n", s.Columns)
			fmt.Fprintf(out, "  Original size: %d bytes\n", s.InputBytes)
			fmt.Fprintf(out, "  JONX size:     %d bytes\n", s.OutputBytes)
			fmt.Fprintf(out, "  Saving:        %.1f%%\n", s.Saving())
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output container (default: input with .jonx extension)")
	return cmd
}

func newDecodeCmd(a *app) *cobra.Command {
	var output, algo string
	var indent int
	cmd := &cobra.Command{
		Use:   "decode <input.jonx>",
		Short: "Decode a JONX container back into a JSON array",
		Long: `Decode a JONX container back into a JSON array of records.

Use -o - to write to standard output. With --compress the JSON is written
through the chosen compressor and the extension is appended to the default
output name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			alg, err := compression.ParseAlgorithm(algo)
			if err != nil {
				return err
			}
			if output == "" {
				output = withExt(input, ".json") + alg.Extension()
			}

			res, err := jonx.DecodeFile(input, a.options()...)
			if err != nil {
				return err
			}

			toStdout := output == "-"
			var dst io.Writer = cmd.OutOrStdout()
			if !toStdout {
				f, err := os.Create(output) //nolint:gosec // G304: operator-chosen output path
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				dst = f
			}
			if err := writeRows(dst, alg, res.WriteRows, strings.Repeat(" ", indent)); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			a.logger.Info("decoded container",
				zap.String("source", input),
				zap.String("destination", output),
				zap.String("compression", string(alg)),
				zap.Int("rows", res.NumRows))
			if !toStdout {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Decoded %s -> %s\n", input, output)
				fmt.Fprintf(out, "  Version: %d\n", res.Version)
				fmt.Fprintf(out, "  Rows:    %d\n", res.NumRows)
				fmt.Fprintf(out, "  Columns: %d\n", len(res.Fields))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output JSON file (default: input with .json extension)")
	cmd.Flags().IntVar(&indent, "indent", 2, "Spaces of indentation, 0 for a single line")
	cmd.Flags().StringVar(&algo, "compress", string(compression.None), "Compress the output (none, zstd, gzip, snappy, s2, lz4)")
	return cmd
}

func writeRows(dst io.Writer, alg compression.Algorithm, write func(io.Writer, string) error, indent string) error {
	codec, err := compression.New(alg, compression.Options{})
	if err != nil {
		return err
	}
	w, err := codec.NewWriter(dst)
	if err != nil {
		return err
	}
	err = write(w, indent)
	if err == nil && indent != "" {
		_, err = io.WriteString(w, "\n")
	}
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return err
}

func newInfoCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "info <file.jonx>",
		Short: "Show the layout of a JONX container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := jonx.Open(args[0], a.options()...)
			if err != nil {
				return err
			}
			info, err := f.Info()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				data, err := jsonpool.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			fmt.Fprintf(out, "Path:      %s\n", info.Path)
			fmt.Fprintf(out, "Version:   %d\n", info.Version)
			fmt.Fprintf(out, "Rows:      %d\n", info.NumRows)
			fmt.Fprintf(out, "Columns:   %d\n", info.NumColumns)
			fmt.Fprintf(out, "File size: %d bytes\n", info.FileSize)
			fmt.Fprintln(out)
			for _, field := range info.Fields {
				mark := " "
				if f.HasIndex(field) {
					mark = "*"
				}
				fmt.Fprintf(out, "  [%s] %-20s %s\n", mark, field, info.Types[field])
			}
			if len(info.Indexes) > 0 {
				fmt.Fprintf(out, "\nIndexes: %s\n", strings.Join(info.Indexes, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	var schemaOnly bool
	cmd := &cobra.Command{
		Use:   "validate <file.jonx>",
		Short: "Check a JONX container; exits with status 1 when it is invalid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := jonx.Open(args[0], a.options()...)
			if err != nil {
				return err
			}
			r := f.Validate
			if schemaOnly {
				r = f.CheckSchema
			}
			report := r()

			out := cmd.OutOrStdout()
			if report.Valid {
				fmt.Fprintf(out, "%s is valid\n", args[0])
			} else {
				fmt.Fprintf(out, "%s is invalid\n", args[0])
				printList(out, "Errors", report.Errors)
			}
			printList(out, "Warnings", report.Warnings)
			if !report.Valid {
				return fmt.Errorf("%d validation errors in %s", len(report.Errors), args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&schemaOnly, "schema-only", false, "Check the metadata without decoding columns")
	return cmd
}

func printList(out io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s (%d):\n", title, len(items))
	for _, s := range items {
		fmt.Fprintf(out, "  - %s\n", s)
	}
}

func newQueryCmd(a *app) *cobra.Command {
	var doMin, doMax, doSum, doAvg, doCount, useIndex bool
	cmd := &cobra.Command{
		Use:   "query <file.jonx> <column>",
		Short: "Compute an aggregate over one column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !doMin && !doMax && !doSum && !doAvg && !doCount {
				return fmt.Errorf("one of --min, --max, --sum, --avg or --count is required")
			}
			f, err := jonx.Open(args[0], a.options()...)
			if err != nil {
				return err
			}
			field := args[1]
			out := cmd.OutOrStdout()

			switch {
			case doMin:
				v, err := f.FindMin(field, useIndex)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "min(%s) = %s\n", field, v)
			case doMax:
				v, err := f.FindMax(field, useIndex)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "max(%s) = %s\n", field, v)
			case doSum:
				v, err := f.Sum(field)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "sum(%s) = %s\n", field, v)
			case doAvg:
				v, err := f.Avg(field)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "avg(%s) = %s\n", field, strconv.FormatFloat(v, 'g', -1, 64))
			case doCount:
				n, err := f.Count(field)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "count(%s) = %d\n", field, n)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&doMin, "min", false, "Smallest non-null value")
	flags.BoolVar(&doMax, "max", false, "Largest non-null value")
	flags.BoolVar(&doSum, "sum", false, "Sum of a numeric column")
	flags.BoolVar(&doAvg, "avg", false, "Mean of a numeric column")
	flags.BoolVar(&doCount, "count", false, "Number of rows")
	flags.BoolVar(&useIndex, "use-index", false, "Answer --min/--max from the stored index")
	cmd.MarkFlagsMutuallyExclusive("min", "max", "sum", "avg", "count")
	return cmd
}
