// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/report-drafter/pkg/types"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "List the sections of a report",
	RunE: func(cmd *cobra.Command, args []string) error {
		guide, _ := cmd.Flags().GetBool("guide")
		for _, def := range types.Sections() {
			fmt.Fprintf(os.Stdout, "%-18s  %s\n", def.ID, def.Title)
			if guide {
				fmt.Fprintf(os.Stdout, "%20s%s\n", "", def.Description)
				for _, line := range strings.Split(def.Guide, "\n") {
					fmt.Fprintf(os.Stdout, "%20s%s\n", "", line)
				}
				fmt.Fprintln(os.Stdout)
			}
		}
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Create, inspect and edit reports",
}

// --- create subcommand ---

var reportCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a report from its general information",
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		subject, _ := cmd.Flags().GetString("subject")
		grade, _ := cmd.Flags().GetString("grade")
		account, _ := cmd.Flags().GetString("account")

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		if account != "" {
			if _, err := st.GetAccount(ctx, account); err != nil {
				return err
			}
		}
		doc, err := st.CreateReport(ctx, topic, subject, grade)
		if err != nil {
			return err
		}
		if account != "" {
			if err := st.SetOwner(ctx, doc.ID, account); err != nil {
				return err
			}
		}
		fmt.Println(doc.ID)
		return nil
	},
}

// --- set-info subcommand ---

var reportSetInfoCmd = &cobra.Command{
	Use:   "set-info <report-id>",
	Short: "Update the topic, subject and grade of a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		doc, err := st.GetReport(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("topic") {
			doc.Topic, _ = cmd.Flags().GetString("topic")
		}
		if cmd.Flags().Changed("subject") {
			doc.Subject, _ = cmd.Flags().GetString("subject")
		}
		if cmd.Flags().Changed("grade") {
			doc.Grade, _ = cmd.Flags().GetString("grade")
		}
		return st.SetInfo(cmd.Context(), doc.ID, doc.Topic, doc.Subject, doc.Grade)
	},
}

// --- set-owner subcommand ---

var reportSetOwnerCmd = &cobra.Command{
	Use:   "set-owner <report-id> [account]",
	Short: "Attach the account whose credits pay for generating the report",
	Long:  "Set-owner attaches an account (id or email) to a report. Without an account the report is detached and generation is no longer limited.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		account := ""
		if len(args) == 2 {
			account = args[1]
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		return st.SetOwner(cmd.Context(), args[0], account)
	},
}

// --- list subcommand ---

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reports, most recently updated first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		reports, err := st.ListReports(cmd.Context())
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			fmt.Println("No reports.")
			return nil
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-8s  %-20s  %s\n", "ID", "Sections", "Updated", "Topic")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
		for _, r := range reports {
			fmt.Fprintf(os.Stdout, "%-36s  %-8d  %-20s  %s\n",
				r.ID, r.Sections, r.UpdatedAt.Local().Format("2006-01-02 15:04"), r.Topic)
		}
		return nil
	},
}

// --- show subcommand ---

var reportShowCmd = &cobra.Command{
	Use:   "show <report-id>",
	Short: "Print a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		doc, err := st.GetReport(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		}
		printReport(os.Stdout, doc)
		return nil
	},
}

func printReport(w io.Writer, doc types.DocumentState) {
	fmt.Fprintf(w, "Topic:   %s\nSubject: %s\nGrade:   %s\n", doc.Topic, doc.Subject, doc.Grade)
	if doc.AccountID != "" {
		fmt.Fprintf(w, "Owner:   %s\n", doc.AccountID)
	}
	for _, def := range types.Sections() {
		text := doc.Section(def.ID)
		if !def.ID.IsContent() || text == "" {
			continue
		}
		fmt.Fprintf(w, "\n== %s ==\n\n%s\n", def.Title, strings.TrimSpace(text))
	}
}

// --- edit subcommand ---

var reportEditCmd = &cobra.Command{
	Use:   "edit <report-id> <section>",
	Short: "Replace the text of a section with a file or stdin",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sectionID := types.SectionID(args[1])
		if !sectionID.IsContent() {
			return fmt.Errorf("unknown section %q: run 'report-drafter sections'", args[1])
		}
		file, _ := cmd.Flags().GetString("file")

		var text []byte
		var err error
		if file == "" || file == "-" {
			text, err = io.ReadAll(os.Stdin)
		} else {
			text, err = os.ReadFile(file)
		}
		if err != nil {
			return fmt.Errorf("reading section text: %w", err)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		return st.PublishSection(cmd.Context(), args[0], sectionID, string(text))
	},
}

// --- delete subcommand ---

var reportDeleteCmd = &cobra.Command{
	Use:   "delete <report-id>",
	Short: "Delete a report and its sections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		return st.DeleteReport(cmd.Context(), args[0])
	},
}

func init() {
	sectionsCmd.Flags().Bool("guide", false, "print the writing guide of every section")

	for _, c := range []*cobra.Command{reportCreateCmd, reportSetInfoCmd} {
		c.Flags().String("topic", "", "report topic")
		c.Flags().String("subject", "", "subject taught")
		c.Flags().String("grade", "", "grade or class")
	}
	reportCreateCmd.Flags().String("account", "", "account (id or email) whose credits pay for generation")
	reportShowCmd.Flags().Bool("json", false, "output the report as JSON")
	reportEditCmd.Flags().String("file", "", "file with the new text (default: stdin)")

	reportCmd.AddCommand(reportCreateCmd)
	reportCmd.AddCommand(reportSetInfoCmd)
	reportCmd.AddCommand(reportSetOwnerCmd)
	reportCmd.AddCommand(reportListCmd)
	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportEditCmd)
	reportCmd.AddCommand(reportDeleteCmd)

	rootCmd.AddCommand(sectionsCmd)
	rootCmd.AddCommand(reportCmd)
}
