// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/report-drafter/internal/store"
	"github.com/pdiddy/report-drafter/internal/workflow"
	"github.com/pdiddy/report-drafter/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate <report-id> <section>",
	Short: "Draft one section of a report",
	Long: `Generate drafts one section in a single call and stores it in the report.
Earlier sections are passed to the model as context, so drafting in document
order gives the most consistent text. Use 'deepdive' for a detailed measures
section.`,
	Args: cobra.ExactArgs(2),
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	sectionID := types.SectionID(args[1])
	if !sectionID.IsContent() {
		return fmt.Errorf("unknown section %q: run 'report-drafter sections'", args[1])
	}
	guidance, _ := cmd.Flags().GetString("guidance")

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.store.GetReport(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if err := checkCredits(cmd.Context(), a.store, doc.AccountID); err != nil {
		return err
	}

	pub := store.SectionWriter{Store: a.store, ReportID: doc.ID}
	drafter := workflow.NewDrafter(a.gate, a.gen, pub, a.settings, logger)
	progress := newProgressPrinter(os.Stderr)
	text, err := drafter.Draft(cmd.Context(), sectionID, types.NewGenerationContext(doc, guidance), progress.Status)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, text)
	return nil
}

// progressPrinter writes status and progress lines, skipping repeats.
type progressPrinter struct {
	mu       sync.Mutex
	w        io.Writer
	status   string
	progress int
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, progress: -1}
}

func (p *progressPrinter) Status(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if text == "" || text == p.status {
		return
	}
	p.status = text
	fmt.Fprintf(p.w, "  %s\n", text)
}

func (p *progressPrinter) Progress(percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if percent == p.progress {
		return
	}
	p.progress = percent
	fmt.Fprintf(p.w, "  [%3d%%]\n", percent)
}

func init() {
	generateCmd.Flags().String("guidance", "", "extra instructions for the model (empty lets it work from the topic)")

	rootCmd.AddCommand(generateCmd)
}
