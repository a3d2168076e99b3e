package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/finlens/bank_recon_app/internal/apperrors"
	"github.com/finlens/bank_recon_app/internal/core/domain"
	portsrepo "github.com/finlens/bank_recon_app/internal/core/ports/repositories"
	"github.com/finlens/bank_recon_app/internal/models"
	"github.com/finlens/bank_recon_app/internal/utils/accounting"
	"github.com/finlens/bank_recon_app/internal/utils/mapping"
	"github.com/finlens/bank_recon_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxLedgerRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
}

// newPgxLedgerRepository creates a new repository for transaction and ledger entry data.
func newPgxLedgerRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountRepositoryFacade) portsrepo.LedgerRepositoryWithTx {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

// Ensure PgxLedgerRepository implements portsrepo.LedgerRepositoryWithTx
var _ portsrepo.LedgerRepositoryWithTx = (*PgxLedgerRepository)(nil)

// numberPrefixes maps transaction types to the prefix of their sequential numbers.
var numberPrefixes = map[domain.TransactionType]string{
	domain.JournalTransaction:    "JRN",
	domain.PaymentTransaction:    "PAY",
	domain.AdjustmentTransaction: "ADJ",
}

// nextTransactionNumber assigns the next sequential number for the
// organization, transaction type and calendar month of the transaction date.
// The counter upsert runs inside the posting transaction so concurrent posts
// serialize on the counter row and no number is ever skipped or reused.
func nextTransactionNumber(ctx context.Context, tx pgx.Tx, organizationID string, txnType domain.TransactionType, txnDate time.Time) (string, error) {
	prefix, ok := numberPrefixes[txnType]
	if !ok {
		return "", apperrors.NewAppError(500, "unknown transaction type "+string(txnType), nil)
	}
	period := txnDate.Format("2006-01")

	query := `
		INSERT INTO transaction_counters (organization_id, transaction_type, period, counter)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (organization_id, transaction_type, period)
		DO UPDATE SET counter = transaction_counters.counter + 1
		RETURNING counter;
	`
	var counter int64
	if err := tx.QueryRow(ctx, query, organizationID, string(txnType), period).Scan(&counter); err != nil {
		return "", apperrors.NewAppError(500, "failed to advance transaction counter for "+organizationID, err)
	}

	return fmt.Sprintf("%s-%s-%04d", prefix, period, counter), nil
}

// SaveTransaction persists a transaction with its entries and applies balance
// deltas within a DB transaction it owns.
func (r *PgxLedgerRepository) SaveTransaction(ctx context.Context, txn domain.Transaction, entries []domain.LedgerEntry, balanceChanges map[string]decimal.Decimal) (*domain.Transaction, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	// Ignored if the transaction commits successfully
	defer r.Rollback(ctx, tx)

	saved, err := r.SaveTransactionInTx(ctx, tx, txn, entries, balanceChanges)
	if err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return saved, nil
}

// SaveTransactionInTx persists a transaction inside a caller-owned DB transaction.
// It assigns the sequential number, inserts the header, locks the touched
// accounts, applies balance deltas, and batch-inserts the entries with per-entry
// running balances computed from the locked balances.
func (r *PgxLedgerRepository) SaveTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction, entries []domain.LedgerEntry, balanceChanges map[string]decimal.Decimal) (*domain.Transaction, error) {
	accountRepo := r.accountRepo

	now := txn.CreatedAt // Use consistent time from the transaction header
	userID := txn.CreatedBy

	// 1. Assign the sequential number under the counter row lock
	number, err := nextTransactionNumber(ctx, tx, txn.OrganizationID, txn.TransactionType, txn.TransactionDate)
	if err != nil {
		return nil, err
	}
	txn.Number = number

	// 2. Insert the transaction header
	modelTxn := mapping.ToModelTransaction(txn)
	headerQuery := `
		INSERT INTO transactions (
			transaction_id, organization_id, number, transaction_type, transaction_date,
			description, currency_code, status, original_transaction_id, reversing_transaction_id,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err = tx.Exec(ctx, headerQuery,
		modelTxn.TransactionID,
		modelTxn.OrganizationID,
		modelTxn.Number,
		modelTxn.TransactionType,
		modelTxn.TransactionDate,
		modelTxn.Description,
		modelTxn.CurrencyCode,
		modelTxn.Status,
		modelTxn.OriginalTransactionID,
		modelTxn.ReversingTransactionID,
		modelTxn.CreatedAt,
		modelTxn.CreatedBy,
		modelTxn.LastUpdatedAt,
		modelTxn.LastUpdatedBy,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to insert transaction "+modelTxn.TransactionID, err)
	}

	// 3. Lock accounts and get current balances
	accountIDs := make([]string, 0, len(balanceChanges))
	for accID := range balanceChanges {
		accountIDs = append(accountIDs, accID)
	}

	lockedAccounts, err := accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs)
	if err != nil {
		// Error includes ErrNotFound if any account is missing
		return nil, apperrors.NewAppError(500, "failed to lock accounts for update", err)
	}

	// 4. Update account balances
	if err := accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, userID, now); err != nil {
		return nil, apperrors.NewAppError(500, "failed to update account balances", err)
	}

	// 5. Insert ledger entries with calculated running balances
	batch := &pgx.Batch{}
	entryQuery := `
		INSERT INTO ledger_entries (entry_id, transaction_id, account_id, entry_type, amount, notes, created_at, created_by, last_updated_at, last_updated_by, running_balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	// Running balances per account start from the balance *before* this transaction's changes
	currentRunningBalances := make(map[string]decimal.Decimal)
	for accID, lockedAcc := range lockedAccounts {
		currentRunningBalances[accID] = lockedAcc.Balance
	}

	// Sort by EntryID for deterministic running balance order within the transaction
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].EntryID < entries[j].EntryID
	})

	for i := range entries {
		entry := &entries[i]
		entry.TransactionID = txn.TransactionID

		lockedAccount, ok := lockedAccounts[entry.AccountID]
		if !ok {
			// Should not happen, the locking step finds all accounts
			return nil, apperrors.NewAppError(500, "internal error: locked account "+entry.AccountID+" not found during entry processing", nil)
		}

		signedAmount, err := accounting.CalculateSignedAmount(*entry, lockedAccount.AccountType)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to calculate signed amount for entry "+entry.EntryID, err)
		}

		newRunningBalance := currentRunningBalances[entry.AccountID].Add(signedAmount)
		entry.RunningBalance = newRunningBalance
		currentRunningBalances[entry.AccountID] = newRunningBalance

		modelEntry := mapping.ToModelLedgerEntry(*entry)
		modelEntry.CreatedAt = now
		modelEntry.LastUpdatedAt = now
		modelEntry.CreatedBy = userID
		modelEntry.LastUpdatedBy = userID

		batch.Queue(entryQuery,
			modelEntry.EntryID,
			modelEntry.TransactionID,
			modelEntry.AccountID,
			modelEntry.EntryType,
			modelEntry.Amount,
			modelEntry.Notes,
			modelEntry.CreatedAt,
			modelEntry.CreatedBy,
			modelEntry.LastUpdatedAt,
			modelEntry.LastUpdatedBy,
			modelEntry.RunningBalance,
		)
	}

	br := tx.SendBatch(ctx, batch)
	err = br.Close() // Close the batch results to check for errors in each command
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to execute entry batch for transaction "+modelTxn.TransactionID, err)
	}

	txn.Entries = entries
	return &txn, nil
}

// FindTransactionByID retrieves a transaction header by its ID.
func (r *PgxLedgerRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `
		SELECT transaction_id, organization_id, number, transaction_type, transaction_date,
		       description, currency_code, status, original_transaction_id, reversing_transaction_id,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM transactions
		WHERE transaction_id = $1;
	`
	var modelTxn models.Transaction
	var originalID sql.NullString
	var reversingID sql.NullString

	err := r.Pool.QueryRow(ctx, query, transactionID).Scan(
		&modelTxn.TransactionID,
		&modelTxn.OrganizationID,
		&modelTxn.Number,
		&modelTxn.TransactionType,
		&modelTxn.TransactionDate,
		&modelTxn.Description,
		&modelTxn.CurrencyCode,
		&modelTxn.Status,
		&originalID,
		&reversingID,
		&modelTxn.CreatedAt,
		&modelTxn.CreatedBy,
		&modelTxn.LastUpdatedAt,
		&modelTxn.LastUpdatedBy,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find transaction by ID "+transactionID, err)
	}

	if originalID.Valid {
		modelTxn.OriginalTransactionID = &originalID.String
	}
	if reversingID.Valid {
		modelTxn.ReversingTransactionID = &reversingID.String
	}

	domainTxn := mapping.ToDomainTransaction(modelTxn)
	return &domainTxn, nil
}

// FindEntriesByTransactionID retrieves all ledger entries of a transaction.
func (r *PgxLedgerRepository) FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	query := `
		SELECT entry_id, transaction_id, account_id, entry_type, amount, notes, created_at, created_by, last_updated_at, last_updated_by, running_balance
		FROM ledger_entries
		WHERE transaction_id = $1
		ORDER BY entry_id;
	`
	rows, err := r.Pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query entries for transaction "+transactionID, err)
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		var e models.LedgerEntry
		err := rows.Scan(
			&e.EntryID,
			&e.TransactionID,
			&e.AccountID,
			&e.EntryType,
			&e.Amount,
			&e.Notes,
			&e.CreatedAt,
			&e.CreatedBy,
			&e.LastUpdatedAt,
			&e.LastUpdatedBy,
			&e.RunningBalance,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan entry row for transaction "+transactionID, err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating entry rows for transaction "+transactionID, err)
	}

	return mapping.ToDomainLedgerEntrySlice(entries), nil
}

// FindEntriesByTransactionIDs retrieves entries for a list of transaction IDs,
// grouped by transaction ID.
func (r *PgxLedgerRepository) FindEntriesByTransactionIDs(ctx context.Context, transactionIDs []string) (map[string][]domain.LedgerEntry, error) {
	if len(transactionIDs) == 0 {
		return map[string][]domain.LedgerEntry{}, nil
	}

	query := `
		SELECT entry_id, transaction_id, account_id, entry_type, amount, notes, created_at, created_by, last_updated_at, last_updated_by, running_balance
		FROM ledger_entries
		WHERE transaction_id = ANY($1)
		ORDER BY transaction_id, entry_id;
	`

	rows, err := r.Pool.Query(ctx, query, transactionIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query entries for transaction IDs", err)
	}
	defer rows.Close()

	entriesMap := make(map[string][]domain.LedgerEntry)
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(
			&e.EntryID,
			&e.TransactionID,
			&e.AccountID,
			&e.EntryType,
			&e.Amount,
			&e.Notes,
			&e.CreatedAt,
			&e.CreatedBy,
			&e.LastUpdatedAt,
			&e.LastUpdatedBy,
			&e.RunningBalance,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan entry row during batch fetch", err)
		}
		entriesMap[e.TransactionID] = append(entriesMap[e.TransactionID], mapping.ToDomainLedgerEntry(e))
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating entry rows during batch fetch", err)
	}

	return entriesMap, nil
}

// ListEntriesByAccountID retrieves a paginated list of entries for a specific account using token-based pagination.
// It returns the entries, a token for the next page, and an error.
func (r *PgxLedgerRepository) ListEntriesByAccountID(ctx context.Context, organizationID, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	baseQuery := `
		SELECT e.entry_id, e.transaction_id, e.account_id, e.entry_type, e.amount, e.notes,
		       e.created_at, e.created_by, e.last_updated_at, e.last_updated_by, e.running_balance, t.transaction_date
		FROM ledger_entries e
		JOIN transactions t ON e.transaction_id = t.transaction_id
		WHERE e.account_id = $1 AND t.organization_id = $2 AND t.status != 'DRAFT'
	`
	// Ordering must be stable: transaction_date DESC with created_at DESC as tie-breaker.
	orderByClause := `ORDER BY t.transaction_date DESC, e.created_at DESC`

	var rows pgx.Rows
	var err error
	args := []interface{}{accountID, organizationID}

	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}

		// Tuple comparison is concise and efficient in Postgres
		cursorClause := `AND (t.transaction_date, e.created_at) < ($3, $4)`
		args = append(args, lastDate, lastCreatedAt)

		query := baseQuery + " " + cursorClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)

		rows, err = r.Pool.Query(ctx, query, args...)
	} else {
		query := baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	}

	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query entries for account "+accountID+" in organization "+organizationID, err)
	}
	defer rows.Close()

	type entryWithDate struct {
		entry models.LedgerEntry
		date  time.Time
	}
	fetched := make([]entryWithDate, 0, fetchLimit)

	for rows.Next() {
		var e models.LedgerEntry
		var txnDate time.Time
		err := rows.Scan(
			&e.EntryID,
			&e.TransactionID,
			&e.AccountID,
			&e.EntryType,
			&e.Amount,
			&e.Notes,
			&e.CreatedAt,
			&e.CreatedBy,
			&e.LastUpdatedAt,
			&e.LastUpdatedBy,
			&e.RunningBalance,
			&txnDate,
		)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan entry row for account "+accountID, err)
		}
		fetched = append(fetched, entryWithDate{entry: e, date: txnDate})
	}

	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating entry rows for account "+accountID, err)
	}

	// Determine the next token
	var nextTokenVal *string
	var results []models.LedgerEntry
	if len(fetched) > limit {
		// The token points to the last item included in this response page;
		// the next query starts after it.
		last := fetched[limit-1]
		token := pagination.EncodeToken(last.date, last.entry.CreatedAt)
		nextTokenVal = &token

		results = make([]models.LedgerEntry, limit)
		for i := 0; i < limit; i++ {
			results[i] = fetched[i].entry
		}
	} else {
		results = make([]models.LedgerEntry, len(fetched))
		for i, f := range fetched {
			results[i] = f.entry
		}
	}

	return mapping.ToDomainLedgerEntrySlice(results), nextTokenVal, nil
}

// SumEntriesByAccountID recomputes the signed sum of all applied entries for an
// account directly in SQL, the consistency check behind the materialized balance.
// Voided transactions stay included: a void never unwinds balances, its
// offsetting reversal does.
func (r *PgxLedgerRepository) SumEntriesByAccountID(ctx context.Context, accountID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE
				WHEN a.account_type IN ('ASSET', 'EXPENSE') AND e.entry_type = 'DEBIT' THEN e.amount
				WHEN a.account_type IN ('ASSET', 'EXPENSE') THEN -e.amount
				WHEN e.entry_type = 'CREDIT' THEN e.amount
				ELSE -e.amount
			END
		), 0)
		FROM ledger_entries e
		JOIN transactions t ON e.transaction_id = t.transaction_id
		JOIN accounts a ON e.account_id = a.account_id
		WHERE e.account_id = $1 AND t.status != 'DRAFT';
	`
	var sum decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, accountID).Scan(&sum); err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum entries for account "+accountID, err)
	}
	return sum, nil
}

// UpdateTransactionStatusAndLinks updates the status and reversal linkage of a transaction.
func (r *PgxLedgerRepository) UpdateTransactionStatusAndLinks(ctx context.Context, transactionID string, status domain.TransactionStatus, reversingTransactionID *string, originalTransactionID *string, updatedByUserID string, updatedAt time.Time) error {
	return updateTransactionStatusAndLinks(ctx, r.Pool, transactionID, status, reversingTransactionID, originalTransactionID, updatedByUserID, updatedAt)
}

// UpdateTransactionStatusAndLinksInTx is UpdateTransactionStatusAndLinks inside a caller-owned DB transaction.
func (r *PgxLedgerRepository) UpdateTransactionStatusAndLinksInTx(ctx context.Context, tx pgx.Tx, transactionID string, status domain.TransactionStatus, reversingTransactionID *string, originalTransactionID *string, updatedByUserID string, updatedAt time.Time) error {
	return updateTransactionStatusAndLinks(ctx, tx, transactionID, status, reversingTransactionID, originalTransactionID, updatedByUserID, updatedAt)
}

// execer is the subset of pgxpool.Pool and pgx.Tx needed for single statements.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func updateTransactionStatusAndLinks(ctx context.Context, db execer, transactionID string, status domain.TransactionStatus, reversingTransactionID *string, originalTransactionID *string, updatedByUserID string, updatedAt time.Time) error {
	query := `
		UPDATE transactions
		SET status = $2,
		    reversing_transaction_id = COALESCE($3, reversing_transaction_id),
		    original_transaction_id = COALESCE($4, original_transaction_id),
		    last_updated_at = $5,
		    last_updated_by = $6
		WHERE transaction_id = $1;
	`
	cmdTag, err := db.Exec(ctx, query, transactionID, string(status), reversingTransactionID, originalTransactionID, updatedAt, updatedByUserID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status for transaction "+transactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
