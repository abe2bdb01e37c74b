// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/report-drafter/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <report-id>",
	Short: "Export a report to DOCX, HTML, YAML or JSON",
	Long: `Export writes a report to a file. DOCX and HTML go to --output (default:
Report_<topic>.docx or .html in the current directory); YAML and JSON go to
<data-dir>/exports/<report-id>.yaml or .json.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	switch format {
	case "yaml":
		path, err := st.ExportYAML(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println("Exported to", path)
		return nil
	case "json":
		path, err := st.ExportJSON(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println("Exported to", path)
		return nil
	case "docx", "html":
	default:
		return fmt.Errorf("unsupported format %q: use docx, html, yaml or json", format)
	}

	doc, err := st.GetReport(ctx, args[0])
	if err != nil {
		return err
	}
	if output == "" {
		output = export.Filename(doc.Topic)
		if format == "html" {
			output = output[:len(output)-len(filepath.Ext(output))] + ".html"
		}
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	write := export.WriteDocx
	if format == "html" {
		write = export.WriteHTML
	}
	if err := write(f, doc); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", output, err)
	}
	fmt.Println("Exported to", output)
	return nil
}

func init() {
	exportCmd.Flags().String("format", "docx", "export format: docx, html, yaml or json")
	exportCmd.Flags().StringP("output", "o", "", "output file for docx and html")

	rootCmd.AddCommand(exportCmd)
}
