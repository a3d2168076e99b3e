package services

import (
	portsrepo "github.com/finlens/bank_recon_app/internal/core/ports/repositories"
	portssvc "github.com/finlens/bank_recon_app/internal/core/ports/services"
	"github.com/finlens/bank_recon_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Account and ledger come first since most services depend on them
	container.Account = NewAccountService(repos.AccountRepo)
	container.Ledger = NewLedgerService(repos.LedgerRepo, container.Account)

	container.BankTransaction = NewBankTransactionService(repos.BankTransactionRepo, container.Account)

	container.Payment = NewPaymentService(
		repos.PaymentRepo,
		repos.LedgerRepo,
		repos.InvoiceRepo,
		repos.BankTransactionRepo,
		repos.ReconciliationRepo,
		container.Ledger,
		container.Account,
	)

	container.Matching = NewMatchingService(
		repos.ReconciliationRepo,
		repos.PaymentRepo,
		repos.BankTransactionRepo,
		cfg.MatchAmountTolerance,
		cfg.MatchDateWindowDays,
	)

	container.Clearing = NewClearingService(
		repos.ReconciliationRepo,
		repos.PaymentRepo,
		repos.BankTransactionRepo,
		repos.LedgerRepo,
	)

	container.Adjustment = NewAdjustmentService(
		repos.ReconciliationRepo,
		repos.LedgerRepo,
		container.Ledger,
		container.Account,
	)

	container.Reconciliation = NewReconciliationService(
		repos.ReconciliationRepo,
		container.Account,
		container.Clearing,
		container.Matching,
		cfg.ReconGapEpsilon,
	)

	return container
}
