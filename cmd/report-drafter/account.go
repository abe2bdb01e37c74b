// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/report-drafter/internal/server"
	"github.com/pdiddy/report-drafter/internal/store"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage accounts and their generation credits",
}

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		quota, _ := cmd.Flags().GetInt("quota")

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		a, err := st.CreateAccount(cmd.Context(), email, quota)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s  quota=%d\n", a.ID, a.Email, a.Quota)
		return nil
	},
}

var accountShowCmd = &cobra.Command{
	Use:   "show <id-or-email>",
	Short: "Print an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		a, err := st.GetAccount(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s  quota=%d  active=%t\n", a.ID, a.Email, a.Quota, a.Active)
		return nil
	},
}

var accountRechargeInfoCmd = &cobra.Command{
	Use:   "recharge-info <id-or-email>",
	Short: "List credit packages and the transfer reference for each",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		a, err := st.GetAccount(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s has %d credits.\n\n", a.Email, a.Quota)
		fmt.Printf("%-8s  %-10s  %7s  %12s  %s\n", "Package", "Name", "Credits", "Price (VND)", "Transfer reference")
		fmt.Println(strings.Repeat("-", 80))
		for _, p := range store.RechargePackages() {
			fmt.Printf("%-8s  %-10s  %7d  %12d  %s\n", p.ID, p.Name, p.Credits, p.PriceVND, store.TransferReference(a.Email, p.ID))
		}
		return nil
	},
}

var accountRechargeCmd = &cobra.Command{
	Use:   "recharge <id-or-email> <package>",
	Short: "Credit a paid package to an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		total, err := st.Recharge(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Quota is now %d.\n", total)
		return nil
	},
}

var accountUseQuotaCmd = &cobra.Command{
	Use:   "use-quota <id>",
	Short: "Spend one credit of an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		left, err := st.UseQuota(cmd.Context(), args[0])
		switch {
		case errors.Is(err, store.ErrAccountInactive):
			return fmt.Errorf("account %s is locked", args[0])
		case errors.Is(err, store.ErrQuotaExhausted):
			return fmt.Errorf("account %s has no credits left", args[0])
		case err != nil:
			return err
		}
		fmt.Printf("One credit used, %d left.\n", left)
		return nil
	},
}

var accountSetActiveCmd = &cobra.Command{
	Use:   "set-active <id> <true|false>",
	Short: "Lock or unlock an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var active bool
		switch args[1] {
		case "true", "yes", "1":
			active = true
		case "false", "no", "0":
		default:
			return fmt.Errorf("invalid state %q: use true or false", args[1])
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		return st.SetActive(cmd.Context(), args[0], active)
	},
}

var accountAddQuotaCmd = &cobra.Command{
	Use:   "add-quota <id> <credits>",
	Short: "Grant credits to an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var n int
		if _, err := fmt.Sscanf(args[1], "%d", &n); err != nil || n <= 0 {
			return fmt.Errorf("invalid credit count %q", args[1])
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		total, err := st.AddQuota(cmd.Context(), args[0], n)
		if err != nil {
			return err
		}
		fmt.Printf("Quota is now %d.\n", total)
		return nil
	},
}

func init() {
	accountCreateCmd.Flags().String("email", "", "account email")
	accountCreateCmd.Flags().Int("quota", server.DefaultQuota, "initial credits")

	accountCmd.AddCommand(accountCreateCmd)
	accountCmd.AddCommand(accountShowCmd)
	accountCmd.AddCommand(accountUseQuotaCmd)
	accountCmd.AddCommand(accountSetActiveCmd)
	accountCmd.AddCommand(accountAddQuotaCmd)
	accountCmd.AddCommand(accountRechargeInfoCmd)
	accountCmd.AddCommand(accountRechargeCmd)

	rootCmd.AddCommand(accountCmd)
}

// checkCredits refuses generation for a report whose owning account is
// locked or out of credits.
func checkCredits(ctx context.Context, st *store.Store, accountID string) error {
	err := st.CheckCredits(ctx, accountID)
	switch {
	case errors.Is(err, store.ErrQuotaExhausted):
		return fmt.Errorf("account %s has no credits left: run 'report-drafter account recharge-info %s'", accountID, accountID)
	case errors.Is(err, store.ErrAccountInactive):
		return fmt.Errorf("account %s is locked", accountID)
	}
	return err
}
