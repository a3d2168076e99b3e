package mapping

import (
	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/finlens/bank_recon_app/internal/models"
)

// ToModelBankTransaction converts a domain BankTransaction to a model BankTransaction
func ToModelBankTransaction(d domain.BankTransaction) models.BankTransaction {
	return models.BankTransaction{
		BankTransactionID:       d.BankTransactionID,
		OrganizationID:          d.OrganizationID,
		BankAccountID:           d.BankAccountID,
		Amount:                  d.Amount,
		Direction:               string(d.Direction),
		TransactionDate:         d.TransactionDate,
		Description:             d.Description,
		Reference:               d.Reference,
		MatchedPaymentID:        d.MatchedPaymentID,
		MatchedReconciliationID: d.MatchedReconciliationID,
		MatchedBy:               d.MatchedBy,
		MatchedAt:               d.MatchedAt,
		AuditFields:             ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainBankTransaction converts a model BankTransaction to a domain BankTransaction
func ToDomainBankTransaction(m models.BankTransaction) domain.BankTransaction {
	return domain.BankTransaction{
		BankTransactionID:       m.BankTransactionID,
		OrganizationID:          m.OrganizationID,
		BankAccountID:           m.BankAccountID,
		Amount:                  m.Amount,
		Direction:               domain.FlowDirection(m.Direction),
		TransactionDate:         m.TransactionDate,
		Description:             m.Description,
		Reference:               m.Reference,
		MatchedPaymentID:        m.MatchedPaymentID,
		MatchedReconciliationID: m.MatchedReconciliationID,
		MatchedBy:               m.MatchedBy,
		MatchedAt:               m.MatchedAt,
		AuditFields:             ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainBankTransactionSlice converts model BankTransactions to domain BankTransactions
func ToDomainBankTransactionSlice(ms []models.BankTransaction) []domain.BankTransaction {
	ds := make([]domain.BankTransaction, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainBankTransaction(m)
	}
	return ds
}
