package trading

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/SHLOK333/xion-trade-miniapp/internal/database"
)

// Repository handles the persisted trade ledger.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a new trade repository
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "trading").Logger(),
	}
}

// Record appends an execution record to the ledger.
func (r *Repository) Record(exec TradeExecution) error {
	query := `
		INSERT INTO trades
		(execution_id, account_id, symbol, action, quantity, price, total_value,
		 reason, alert_type, success, error, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Conn().Exec(query,
		exec.ID,
		exec.AccountID,
		strings.ToUpper(strings.TrimSpace(exec.Symbol)),
		string(exec.Action),
		exec.Quantity,
		exec.Price,
		exec.TotalValue,
		exec.Reason,
		nullString(exec.AlertType),
		boolToInt(exec.Success),
		nullString(exec.Error),
		exec.Timestamp.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record trade: %w", err)
	}

	r.log.Info().
		Str("symbol", exec.Symbol).
		Str("action", string(exec.Action)).
		Float64("quantity", exec.Quantity).
		Bool("success", exec.Success).
		Msg("Trade recorded")

	return nil
}

// History retrieves execution records for an account, most recent first.
func (r *Repository) History(accountID string, limit int) ([]TradeExecution, error) {
	query := `
		SELECT execution_id, account_id, symbol, action, quantity, price, total_value,
		       reason, alert_type, success, error, executed_at
		FROM trades
		WHERE account_id = ?
		ORDER BY executed_at DESC
		LIMIT ?
	`

	rows, err := r.db.Conn().Query(query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade history: %w", err)
	}
	defer rows.Close()

	var execs []TradeExecution
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		execs = append(execs, exec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return execs, nil
}

func scanExecution(rows *sql.Rows) (TradeExecution, error) {
	var exec TradeExecution
	var action, executedAt string
	var alertType, errMsg sql.NullString
	var success int

	err := rows.Scan(
		&exec.ID,
		&exec.AccountID,
		&exec.Symbol,
		&action,
		&exec.Quantity,
		&exec.Price,
		&exec.TotalValue,
		&exec.Reason,
		&alertType,
		&success,
		&errMsg,
		&executedAt,
	)
	if err != nil {
		return TradeExecution{}, err
	}

	exec.Action = TradeAction(action)
	exec.AlertType = alertType.String
	exec.Error = errMsg.String
	exec.Success = success != 0
	exec.Timestamp, _ = time.Parse(time.RFC3339, executedAt)

	return exec, nil
}

func nullString(val string) sql.NullString {
	return sql.NullString{String: val, Valid: val != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
