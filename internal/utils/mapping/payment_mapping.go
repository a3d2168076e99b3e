package mapping

import (
	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/finlens/bank_recon_app/internal/models"
)

// ToModelPayment converts a domain Payment to a model Payment
func ToModelPayment(d domain.Payment) models.Payment {
	return models.Payment{
		PaymentID:      d.PaymentID,
		OrganizationID: d.OrganizationID,
		BankAccountID:  d.BankAccountID,
		Amount:         d.Amount,
		Direction:      string(d.Direction),
		PaymentDate:    d.PaymentDate,
		Reference:      d.Reference,
		Status:         models.PaymentStatus(d.Status),
		TransactionID:  d.TransactionID,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPayment converts a model Payment to a domain Payment
func ToDomainPayment(m models.Payment) domain.Payment {
	return domain.Payment{
		PaymentID:      m.PaymentID,
		OrganizationID: m.OrganizationID,
		BankAccountID:  m.BankAccountID,
		Amount:         m.Amount,
		Direction:      domain.FlowDirection(m.Direction),
		PaymentDate:    m.PaymentDate,
		Reference:      m.Reference,
		Status:         domain.PaymentStatus(m.Status),
		TransactionID:  m.TransactionID,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainPaymentSlice converts a slice of model Payments to domain Payments
func ToDomainPaymentSlice(ms []models.Payment) []domain.Payment {
	ds := make([]domain.Payment, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainPayment(m)
	}
	return ds
}

// ToModelPaymentAllocation converts a domain PaymentAllocation to a model PaymentAllocation
func ToModelPaymentAllocation(d domain.PaymentAllocation) models.PaymentAllocation {
	return models.PaymentAllocation{
		AllocationID: d.AllocationID,
		PaymentID:    d.PaymentID,
		InvoiceID:    d.InvoiceID,
		Amount:       d.Amount,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPaymentAllocation converts a model PaymentAllocation to a domain PaymentAllocation
func ToDomainPaymentAllocation(m models.PaymentAllocation) domain.PaymentAllocation {
	return domain.PaymentAllocation{
		AllocationID: m.AllocationID,
		PaymentID:    m.PaymentID,
		InvoiceID:    m.InvoiceID,
		Amount:       m.Amount,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainPaymentAllocationSlice converts model PaymentAllocations to domain PaymentAllocations
func ToDomainPaymentAllocationSlice(ms []models.PaymentAllocation) []domain.PaymentAllocation {
	ds := make([]domain.PaymentAllocation, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainPaymentAllocation(m)
	}
	return ds
}
