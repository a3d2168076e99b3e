package pgsql

import (
	portsrepo "github.com/finlens/bank_recon_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	ledgerRepo := newPgxLedgerRepository(dbPool, accountRepo)
	paymentRepo := newPgxPaymentRepository(dbPool)
	bankTransactionRepo := newPgxBankTransactionRepository(dbPool)
	reconciliationRepo := newPgxReconciliationRepository(dbPool)
	invoiceRepo := newPgxInvoiceRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo:         accountRepo,
		LedgerRepo:          ledgerRepo,
		PaymentRepo:         paymentRepo,
		BankTransactionRepo: bankTransactionRepo,
		ReconciliationRepo:  reconciliationRepo,
		InvoiceRepo:         invoiceRepo,
	}
}
