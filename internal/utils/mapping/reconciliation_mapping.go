package mapping

import (
	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/finlens/bank_recon_app/internal/models"
)

// ToModelBankReconciliation converts a domain BankReconciliation to a model BankReconciliation
func ToModelBankReconciliation(d domain.BankReconciliation) models.BankReconciliation {
	return models.BankReconciliation{
		ReconciliationID:      d.ReconciliationID,
		OrganizationID:        d.OrganizationID,
		BankAccountID:         d.BankAccountID,
		StatementDate:         d.StatementDate,
		StatementBalance:      d.StatementBalance,
		OpeningBalance:        d.OpeningBalance,
		Status:                models.ReconciliationStatus(d.Status),
		ClearedPaymentIDs:     d.ClearedPaymentIDs,
		ClearedTransactionIDs: d.ClearedTransactionIDs,
		AdjustmentEntryIDs:    d.AdjustmentEntryIDs,
		FinalizedAt:           d.FinalizedAt,
		FinalizedBy:           d.FinalizedBy,
		Version:               d.Version,
		AuditFields:           ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainBankReconciliation converts a model BankReconciliation to a domain BankReconciliation
func ToDomainBankReconciliation(m models.BankReconciliation) domain.BankReconciliation {
	return domain.BankReconciliation{
		ReconciliationID:      m.ReconciliationID,
		OrganizationID:        m.OrganizationID,
		BankAccountID:         m.BankAccountID,
		StatementDate:         m.StatementDate,
		StatementBalance:      m.StatementBalance,
		OpeningBalance:        m.OpeningBalance,
		Status:                domain.ReconciliationStatus(m.Status),
		ClearedPaymentIDs:     m.ClearedPaymentIDs,
		ClearedTransactionIDs: m.ClearedTransactionIDs,
		AdjustmentEntryIDs:    m.AdjustmentEntryIDs,
		FinalizedAt:           m.FinalizedAt,
		FinalizedBy:           m.FinalizedBy,
		Version:               m.Version,
		AuditFields:           ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainInvoice converts a model Invoice to a domain Invoice
func ToDomainInvoice(m models.Invoice) domain.Invoice {
	return domain.Invoice{
		InvoiceID:      m.InvoiceID,
		OrganizationID: m.OrganizationID,
		Number:         m.Number,
		IssueDate:      m.IssueDate,
		Total:          m.Total,
		Balance:        m.Balance,
		Status:         domain.InvoiceStatus(m.Status),
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainInvoiceSlice converts model Invoices to domain Invoices
func ToDomainInvoiceSlice(ms []models.Invoice) []domain.Invoice {
	ds := make([]domain.Invoice, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainInvoice(m)
	}
	return ds
}
