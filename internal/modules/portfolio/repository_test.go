package portfolio

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SHLOK333/xion-trade-miniapp/internal/database"
	"github.com/SHLOK333/xion-trade-miniapp/internal/domain"
)

const testAccount = "test-account"

func setupRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(db, zerolog.Nop())
	require.NoError(t, repo.UpsertAccount(domain.Account{ID: testAccount, Name: "Test", CashBalance: 1000, Currency: "USD"}))
	return repo
}

func TestAccountRoundTrip(t *testing.T) {
	repo := setupRepo(t)

	acc, err := repo.Account(testAccount)
	require.NoError(t, err)
	assert.Equal(t, "Test", acc.Name)
	assert.Equal(t, 1000.0, acc.CashBalance)
	assert.Equal(t, "USD", acc.Currency)

	// Upsert overwrites in place
	acc.CashBalance = 2500
	require.NoError(t, repo.UpsertAccount(*acc))
	updated, err := repo.Account(testAccount)
	require.NoError(t, err)
	assert.Equal(t, 2500.0, updated.CashBalance)
}

func TestAccount_NotFound(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.Account("nope")
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "account", notFound.Entity)
}

func TestPositions_OrderedAndFiltered(t *testing.T) {
	repo := setupRepo(t)

	require.NoError(t, repo.UpsertPosition(domain.Position{AccountID: testAccount, Symbol: "msft", Quantity: 5, EntryPrice: 200, CurrentPrice: 210}))
	require.NoError(t, repo.UpsertPosition(domain.Position{AccountID: testAccount, Symbol: "AAPL", Quantity: 10, EntryPrice: 100, CurrentPrice: 105}))
	require.NoError(t, repo.UpsertPosition(domain.Position{AccountID: testAccount, Symbol: "ZERO", Quantity: 0, EntryPrice: 50, CurrentPrice: 50}))

	positions, err := repo.Positions(testAccount)
	require.NoError(t, err)
	require.Len(t, positions, 2)

	// Symbols are normalized to upper case and ordered
	assert.Equal(t, "AAPL", positions[0].Symbol)
	assert.Equal(t, "MSFT", positions[1].Symbol)
}

func TestPositionBySymbol_CaseInsensitive(t *testing.T) {
	repo := setupRepo(t)
	require.NoError(t, repo.UpsertPosition(domain.Position{AccountID: testAccount, Symbol: "AAPL", Quantity: 10, EntryPrice: 100, CurrentPrice: 105}))

	pos, err := repo.PositionBySymbol(testAccount, " aapl ")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", pos.Symbol)
	assert.Equal(t, 10.0, pos.Quantity)

	_, err = repo.PositionBySymbol(testAccount, "TSLA")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestUpsertPosition_ReplacesExisting(t *testing.T) {
	repo := setupRepo(t)

	require.NoError(t, repo.UpsertPosition(domain.Position{AccountID: testAccount, Symbol: "AAPL", Quantity: 10, EntryPrice: 100, CurrentPrice: 100}))
	require.NoError(t, repo.UpsertPosition(domain.Position{AccountID: testAccount, Symbol: "AAPL", Quantity: 15, EntryPrice: 98, CurrentPrice: 104}))

	positions, err := repo.Positions(testAccount)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 15.0, positions[0].Quantity)
	assert.Equal(t, 98.0, positions[0].EntryPrice)
}

func TestUpdatePrice(t *testing.T) {
	repo := setupRepo(t)
	require.NoError(t, repo.UpsertPosition(domain.Position{AccountID: testAccount, Symbol: "AAPL", Quantity: 10, EntryPrice: 100, CurrentPrice: 100}))

	require.NoError(t, repo.UpdatePrice(testAccount, "aapl", 123.45))

	pos, err := repo.PositionBySymbol(testAccount, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 123.45, pos.CurrentPrice)
}

func TestApplyTrade_PartialSell(t *testing.T) {
	repo := setupRepo(t)
	require.NoError(t, repo.UpsertPosition(domain.Position{AccountID: testAccount, Symbol: "AAPL", Quantity: 10, EntryPrice: 100, CurrentPrice: 110}))

	require.NoError(t, repo.ApplyTrade(testAccount, "AAPL", 4, 110))

	pos, err := repo.PositionBySymbol(testAccount, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 6.0, pos.Quantity)

	acc, err := repo.Account(testAccount)
	require.NoError(t, err)
	assert.Equal(t, 1440.0, acc.CashBalance)
}

func TestApplyTrade_FullSellClosesPosition(t *testing.T) {
	repo := setupRepo(t)
	require.NoError(t, repo.UpsertPosition(domain.Position{AccountID: testAccount, Symbol: "AAPL", Quantity: 10, EntryPrice: 100, CurrentPrice: 110}))

	require.NoError(t, repo.ApplyTrade(testAccount, "AAPL", 10, 110))

	_, err := repo.PositionBySymbol(testAccount, "AAPL")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	acc, err := repo.Account(testAccount)
	require.NoError(t, err)
	assert.Equal(t, 2100.0, acc.CashBalance)
}

func TestApplyTrade_NoPosition(t *testing.T) {
	repo := setupRepo(t)

	err := repo.ApplyTrade(testAccount, "GHOST", 5, 100)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)

	// Cash is untouched on failure
	acc, err := repo.Account(testAccount)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, acc.CashBalance)
}

func TestPositions_IsolatedByAccount(t *testing.T) {
	repo := setupRepo(t)
	require.NoError(t, repo.UpsertAccount(domain.Account{ID: "other", Name: "Other", CashBalance: 0, Currency: "USD"}))
	require.NoError(t, repo.UpsertPosition(domain.Position{AccountID: testAccount, Symbol: "AAPL", Quantity: 10, EntryPrice: 100, CurrentPrice: 100}))
	require.NoError(t, repo.UpsertPosition(domain.Position{AccountID: "other", Symbol: "MSFT", Quantity: 5, EntryPrice: 200, CurrentPrice: 200}))

	mine, err := repo.Positions(testAccount)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "AAPL", mine[0].Symbol)
}
