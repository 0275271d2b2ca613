package portfolio

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/SHLOK333/xion-trade-miniapp/internal/database"
	"github.com/SHLOK333/xion-trade-miniapp/internal/domain"
)

// Repository handles account and position database operations.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a new portfolio repository
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

// Account retrieves an account by ID.
func (r *Repository) Account(id string) (*domain.Account, error) {
	query := `SELECT id, name, cash_balance, currency, updated_at FROM accounts WHERE id = ?`

	var acc domain.Account
	var updatedAt string
	err := r.db.Conn().QueryRow(query, id).Scan(&acc.ID, &acc.Name, &acc.CashBalance, &acc.Currency, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "account", Key: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	acc.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &acc, nil
}

// UpsertAccount creates or updates an account.
func (r *Repository) UpsertAccount(acc domain.Account) error {
	query := `
		INSERT INTO accounts (id, name, cash_balance, currency, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			cash_balance = excluded.cash_balance,
			currency = excluded.currency,
			updated_at = excluded.updated_at
	`
	_, err := r.db.Conn().Exec(query, acc.ID, acc.Name, acc.CashBalance, acc.Currency, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}
	return nil
}

// Positions retrieves all open positions for an account.
func (r *Repository) Positions(accountID string) ([]domain.Position, error) {
	query := `
		SELECT id, account_id, symbol, quantity, entry_price, current_price, opened_at, last_updated
		FROM positions
		WHERE account_id = ? AND quantity > 0
		ORDER BY symbol
	`

	rows, err := r.db.Conn().Query(query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, pos)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

// PositionBySymbol retrieves one position, matching the symbol
// case-insensitively.
func (r *Repository) PositionBySymbol(accountID, symbol string) (*domain.Position, error) {
	query := `
		SELECT id, account_id, symbol, quantity, entry_price, current_price, opened_at, last_updated
		FROM positions
		WHERE account_id = ? AND UPPER(symbol) = ? AND quantity > 0
	`

	rows, err := r.db.Conn().Query(query, accountID, strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, &domain.NotFoundError{Entity: "position", Key: symbol}
	}
	pos, err := scanPosition(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan position: %w", err)
	}

	return &pos, nil
}

// UpsertPosition creates or replaces a position.
func (r *Repository) UpsertPosition(pos domain.Position) error {
	now := time.Now().Format(time.RFC3339)
	openedAt := pos.OpenedAt
	if openedAt.IsZero() {
		openedAt = time.Now()
	}

	query := `
		INSERT INTO positions (account_id, symbol, quantity, entry_price, current_price, opened_at, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id, symbol) DO UPDATE SET
			quantity = excluded.quantity,
			entry_price = excluded.entry_price,
			current_price = excluded.current_price,
			last_updated = excluded.last_updated
	`
	_, err := r.db.Conn().Exec(query,
		pos.AccountID,
		strings.ToUpper(strings.TrimSpace(pos.Symbol)),
		pos.Quantity,
		pos.EntryPrice,
		pos.CurrentPrice,
		openedAt.Format(time.RFC3339),
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert position: %w", err)
	}
	return nil
}

// UpdatePrice updates the current price of a position.
func (r *Repository) UpdatePrice(accountID, symbol string, price float64) error {
	query := `
		UPDATE positions SET current_price = ?, last_updated = ?
		WHERE account_id = ? AND UPPER(symbol) = ?
	`
	_, err := r.db.Conn().Exec(query, price, time.Now().Format(time.RFC3339), accountID, strings.ToUpper(symbol))
	if err != nil {
		return fmt.Errorf("failed to update price: %w", err)
	}
	return nil
}

// ApplyTrade reduces a position by the sold quantity and credits the
// proceeds to the account's cash balance in a single transaction. A
// position reduced to zero (or below) is deleted.
func (r *Repository) ApplyTrade(accountID, symbol string, quantity, price float64) error {
	pos, err := r.PositionBySymbol(accountID, symbol)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	remaining := pos.Quantity - quantity
	now := time.Now().Format(time.RFC3339)

	if remaining <= 0 {
		if _, err := tx.Exec(`DELETE FROM positions WHERE id = ?`, pos.ID); err != nil {
			return fmt.Errorf("failed to close position: %w", err)
		}
	} else {
		if _, err := tx.Exec(
			`UPDATE positions SET quantity = ?, last_updated = ? WHERE id = ?`,
			remaining, now, pos.ID,
		); err != nil {
			return fmt.Errorf("failed to reduce position: %w", err)
		}
	}

	proceeds := quantity * price
	if _, err := tx.Exec(
		`UPDATE accounts SET cash_balance = cash_balance + ?, updated_at = ? WHERE id = ?`,
		proceeds, now, accountID,
	); err != nil {
		return fmt.Errorf("failed to credit proceeds: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trade: %w", err)
	}

	r.log.Info().
		Str("symbol", pos.Symbol).
		Float64("quantity", quantity).
		Float64("remaining", remaining).
		Float64("proceeds", proceeds).
		Msg("Trade applied")

	return nil
}

func scanPosition(rows *sql.Rows) (domain.Position, error) {
	var pos domain.Position
	var openedAt, lastUpdated string
	err := rows.Scan(
		&pos.ID,
		&pos.AccountID,
		&pos.Symbol,
		&pos.Quantity,
		&pos.EntryPrice,
		&pos.CurrentPrice,
		&openedAt,
		&lastUpdated,
	)
	if err != nil {
		return domain.Position{}, err
	}
	pos.OpenedAt, _ = time.Parse(time.RFC3339, openedAt)
	pos.LastUpdated, _ = time.Parse(time.RFC3339, lastUpdated)
	return pos, nil
}
