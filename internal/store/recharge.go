// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"strings"
)

// RechargePackage is a bundle of credits sold by bank transfer.
type RechargePackage struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Credits  int    `json:"credits" yaml:"credits"`
	PriceVND int    `json:"price_vnd" yaml:"price_vnd"`
}

var rechargePackages = []RechargePackage{
	{ID: "COBAN", Name: "Basic", Credits: 4, PriceVND: 100000},
	{ID: "NANGCAO", Name: "Advanced", Credits: 10, PriceVND: 200000},
	{ID: "VIP", Name: "VIP", Credits: 30, PriceVND: 500000},
}

// RechargePackages returns the packages in catalog order.
func RechargePackages() []RechargePackage {
	out := make([]RechargePackage, len(rechargePackages))
	copy(out, rechargePackages)
	return out
}

// LookupPackage finds a package by id, ignoring case.
func LookupPackage(id string) (RechargePackage, bool) {
	for _, p := range rechargePackages {
		if strings.EqualFold(p.ID, strings.TrimSpace(id)) {
			return p, true
		}
	}
	return RechargePackage{}, false
}

// TransferReference is the text a buyer puts on the bank transfer, so the
// payment can be matched to the account and package: email_PACKAGE.
func TransferReference(email, packageID string) string {
	return email + "_" + strings.ToUpper(packageID)
}

// Recharge credits an account with one package and returns the new quota.
func (s *Store) Recharge(ctx context.Context, idOrEmail, packageID string) (int, error) {
	pkg, ok := LookupPackage(packageID)
	if !ok {
		return 0, fmt.Errorf("recharge package %q: %w", packageID, ErrNotFound)
	}
	a, err := s.GetAccount(ctx, idOrEmail)
	if err != nil {
		return 0, err
	}
	return s.AddQuota(ctx, a.ID, pkg.Credits)
}
