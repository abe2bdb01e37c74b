// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrAccountInactive reports a disabled account.
	ErrAccountInactive = errors.New("account is inactive")

	// ErrQuotaExhausted reports an account with no credits left.
	ErrQuotaExhausted = errors.New("quota exhausted")
)

// Account holds the generation credits of one user.
type Account struct {
	ID        string    `json:"id" yaml:"id"`
	Email     string    `json:"email" yaml:"email"`
	Quota     int       `json:"quota" yaml:"quota"`
	Active    bool      `json:"active" yaml:"active"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// CreateAccount inserts an active account with quota credits.
func (s *Store) CreateAccount(ctx context.Context, email string, quota int) (Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Account{}, errors.New("email is required")
	}
	if quota < 0 {
		quota = 0
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, quota, active, created_at) VALUES (?, ?, ?, 1, ?)`,
		id, email, quota, s.timestamp())
	if err != nil {
		return Account{}, fmt.Errorf("inserting account %s: %w", email, err)
	}
	return s.GetAccount(ctx, id)
}

// GetAccount loads an account by id or email.
func (s *Store) GetAccount(ctx context.Context, idOrEmail string) (Account, error) {
	var a Account
	var active int
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, quota, active, created_at FROM accounts WHERE id = ? OR email = ?`,
		idOrEmail, strings.ToLower(idOrEmail),
	).Scan(&a.ID, &a.Email, &a.Quota, &active, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, fmt.Errorf("account %s: %w", idOrEmail, ErrNotFound)
	}
	if err != nil {
		return Account{}, fmt.Errorf("querying account %s: %w", idOrEmail, err)
	}
	a.Active = active != 0
	a.CreatedAt, _ = time.Parse(timeLayout, created)
	return a, nil
}

// SetActive enables or disables an account.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE accounts SET active = ? WHERE id = ?`, boolInt(active), id)
	if err != nil {
		return fmt.Errorf("updating account %s: %w", id, err)
	}
	return expectRow(res, "account", id)
}

// AddQuota grants n more credits.
func (s *Store) AddQuota(ctx context.Context, id string, n int) (int, error) {
	var quota int
	err := s.db.QueryRowContext(ctx,
		`UPDATE accounts SET quota = quota + ? WHERE id = ? RETURNING quota`, n, id,
	).Scan(&quota)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("adding quota to %s: %w", id, err)
	}
	return quota, nil
}

// UseQuota spends one credit and returns the credits left. The decrement
// is a single conditional update, so concurrent callers can never take the
// quota below zero.
func (s *Store) UseQuota(ctx context.Context, id string) (int, error) {
	var quota int
	err := s.db.QueryRowContext(ctx,
		`UPDATE accounts SET quota = quota - 1
		 WHERE id = ? AND active = 1 AND quota > 0
		 RETURNING quota`, id,
	).Scan(&quota)
	if err == nil {
		return quota, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("using quota of %s: %w", id, err)
	}

	a, err := s.GetAccount(ctx, id)
	if err != nil {
		return 0, err
	}
	if !a.Active {
		return 0, ErrAccountInactive
	}
	return 0, ErrQuotaExhausted
}

// SetOwner attaches the account idOrEmail to a report, so generating for
// the report needs that account's credits. An empty idOrEmail detaches it.
func (s *Store) SetOwner(ctx context.Context, reportID, idOrEmail string) error {
	accountID := ""
	if idOrEmail != "" {
		a, err := s.GetAccount(ctx, idOrEmail)
		if err != nil {
			return err
		}
		accountID = a.ID
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET account_id = ?, updated_at = ? WHERE id = ?`, accountID, s.timestamp(), reportID)
	if err != nil {
		return fmt.Errorf("updating owner of report %s: %w", reportID, err)
	}
	return expectRow(res, "report", reportID)
}

// CheckCredits reports whether accountID may generate: ErrAccountInactive
// for a locked account, ErrQuotaExhausted once no credits are left. An
// empty accountID is never limited.
func (s *Store) CheckCredits(ctx context.Context, accountID string) error {
	if accountID == "" {
		return nil
	}
	a, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if !a.Active {
		return ErrAccountInactive
	}
	if a.Quota <= 0 {
		return ErrQuotaExhausted
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
