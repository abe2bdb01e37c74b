// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/report-drafter/internal/store"
	"github.com/pdiddy/report-drafter/internal/workflow"
	"github.com/pdiddy/report-drafter/pkg/types"
)

var deepdiveCmd = &cobra.Command{
	Use:   "deepdive <report-id>",
	Short: "Write the measures section with the Deep Dive workflow",
	Long: `Deepdive proposes a short list of measures for the report, then writes
each measure in detail, one call at a time. The section is saved after every
measure, so an interrupted run keeps what was written.

Pass --item (repeatable) to replace the proposed list with your own, or
--propose-only to stop after the list is proposed.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeepDive,
}

func runDeepDive(cmd *cobra.Command, args []string) error {
	guidance, _ := cmd.Flags().GetString("guidance")
	items, _ := cmd.Flags().GetStringArray("item")
	proposeOnly, _ := cmd.Flags().GetBool("propose-only")
	count, _ := cmd.Flags().GetInt("count")

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if count > 0 {
		cfg.DeepDive.ItemCount = count
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	doc, err := a.store.GetReport(ctx, args[0])
	if err != nil {
		return err
	}

	if err := checkCredits(cmd.Context(), a.store, doc.AccountID); err != nil {
		return err
	}

	pub := store.SectionWriter{Store: a.store, ReportID: doc.ID}
	progress := newProgressPrinter(os.Stderr)
	m := workflow.NewMachine(
		workflow.NewProducer(a.gate, a.gen, a.settings, logger),
		workflow.NewExpander(a.gate, a.gen, pub, a.settings, logger),
		workflow.WithObserver(progress),
		workflow.WithNotifier(workflow.NotifierFunc(func(msg string, severity types.Severity) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", strings.ToUpper(string(severity)), msg)
		})),
		workflow.WithLogger(logger),
	)

	if err := m.Start(ctx, types.NewGenerationContext(doc, guidance)); err != nil {
		return err
	}
	if len(items) > 0 {
		if err := replaceItems(m, items); err != nil {
			return err
		}
	}

	fmt.Fprintln(os.Stdout, "Measures:")
	for i, label := range m.Snapshot().Items {
		fmt.Fprintf(os.Stdout, "  %d. %s\n", i+1, label)
	}
	if proposeOnly {
		return nil
	}

	if err := m.Expand(ctx); err != nil {
		return err
	}
	snap := m.Snapshot()
	fmt.Fprintf(os.Stdout, "\nWrote %d measures (%d characters) to section %s.\n",
		len(snap.Items), len(snap.Document), types.SectionMeasures)
	return nil
}

// replaceItems swaps the proposed list for labels through the review
// operations of the machine.
func replaceItems(m *workflow.Machine, labels []string) error {
	for len(m.Snapshot().Items) > 0 {
		if err := m.RemoveItem(0); err != nil {
			return err
		}
	}
	for i, label := range labels {
		if _, err := m.AddItem(); err != nil {
			return err
		}
		if err := m.EditItem(i, strings.TrimSpace(label)); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	deepdiveCmd.Flags().String("guidance", "", "extra instructions for proposing measures")
	deepdiveCmd.Flags().StringArray("item", nil, "measure label to write instead of the proposed list (repeatable)")
	deepdiveCmd.Flags().Bool("propose-only", false, "stop after proposing the list")
	deepdiveCmd.Flags().Int("count", 0, "number of measures to propose (0 = configured default)")

	rootCmd.AddCommand(deepdiveCmd)
}
