package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/finlens/bank_recon_app/internal/apperrors"
	"github.com/finlens/bank_recon_app/internal/core/domain"
	portssvc "github.com/finlens/bank_recon_app/internal/core/ports/services"
	"github.com/finlens/bank_recon_app/internal/core/services"
	"github.com/finlens/bank_recon_app/internal/dto"
)

type ClearingServiceTestSuite struct {
	suite.Suite
	mockReconRepo   *MockReconciliationRepository
	mockPaymentRepo *MockPaymentRepository
	mockBankTxnRepo *MockBankTransactionRepository
	mockLedgerRepo  *MockLedgerRepository
	service         portssvc.ClearingSvcFacade
	ctx             context.Context

	organizationID string
	userID         string
	bankAccountID  string
	recon          *domain.BankReconciliation
}

func (suite *ClearingServiceTestSuite) SetupTest() {
	suite.mockReconRepo = new(MockReconciliationRepository)
	suite.mockPaymentRepo = new(MockPaymentRepository)
	suite.mockBankTxnRepo = new(MockBankTransactionRepository)
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.service = services.NewClearingService(
		suite.mockReconRepo,
		suite.mockPaymentRepo,
		suite.mockBankTxnRepo,
		suite.mockLedgerRepo,
	)
	suite.ctx = context.Background()

	suite.organizationID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.bankAccountID = uuid.NewString()
	suite.recon = &domain.BankReconciliation{
		ReconciliationID: uuid.NewString(),
		OrganizationID:   suite.organizationID,
		BankAccountID:    suite.bankAccountID,
		StatementDate:    time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		StatementBalance: decimal.NewFromInt(1500),
		OpeningBalance:   decimal.NewFromInt(1000),
		Status:           domain.ReconciliationInProgress,
		Version:          1,
	}
}

func (suite *ClearingServiceTestSuite) clearingPayment(amount decimal.Decimal, direction domain.FlowDirection) domain.Payment {
	return domain.Payment{
		PaymentID:      uuid.NewString(),
		OrganizationID: suite.organizationID,
		BankAccountID:  suite.bankAccountID,
		Amount:         amount,
		Direction:      direction,
		PaymentDate:    time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		Reference:      "INV-042",
		Status:         domain.PaymentUnapplied,
	}
}

func (suite *ClearingServiceTestSuite) clearingBankTxn(amount decimal.Decimal, direction domain.FlowDirection) domain.BankTransaction {
	return domain.BankTransaction{
		BankTransactionID: uuid.NewString(),
		OrganizationID:    suite.organizationID,
		BankAccountID:     suite.bankAccountID,
		Amount:            amount,
		Direction:         direction,
		TransactionDate:   time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
		Description:       "Card settlement",
		Reference:         uuid.NewString(),
	}
}

func (suite *ClearingServiceTestSuite) expectWorksheet(payments []domain.Payment, bankTxns []domain.BankTransaction, clearedElsewhere map[string]struct{}) {
	suite.mockPaymentRepo.On("ListPaymentsForClearing", suite.ctx, suite.organizationID, suite.bankAccountID, suite.recon.StatementDate).
		Return(payments, nil).Once()
	suite.mockBankTxnRepo.On("ListBankTransactionsForClearing", suite.ctx, suite.organizationID, suite.bankAccountID, suite.recon.StatementDate).
		Return(bankTxns, nil).Once()
	suite.mockReconRepo.On("ListItemIDsClearedElsewhere", suite.ctx, suite.organizationID, suite.bankAccountID, suite.recon.ReconciliationID).
		Return(clearedElsewhere, nil).Once()
}

func (suite *ClearingServiceTestSuite) TestGetClearableItems_ExcludesItemsClearedElsewhere() {
	cleared := suite.clearingPayment(decimal.NewFromInt(300), domain.Inflow)
	suite.recon.ClearedPaymentIDs = []string{cleared.PaymentID}

	takenElsewhere := suite.clearingPayment(decimal.NewFromInt(75), domain.Inflow)
	uncleared := suite.clearingBankTxn(decimal.NewFromInt(40), domain.Outflow)

	suite.mockReconRepo.On("FindReconciliationByID", suite.ctx, suite.recon.ReconciliationID).Return(suite.recon, nil).Once()
	suite.expectWorksheet(
		[]domain.Payment{cleared, takenElsewhere},
		[]domain.BankTransaction{uncleared},
		map[string]struct{}{takenElsewhere.PaymentID: {}},
	)

	result, err := suite.service.GetClearableItems(suite.ctx, suite.organizationID, suite.recon.ReconciliationID)

	suite.Require().NoError(err)
	suite.Require().Len(result.Items, 2)
	suite.Equal(cleared.PaymentID, result.Items[0].ItemID)
	suite.True(result.Items[0].IsCleared)
	suite.Equal(uncleared.BankTransactionID, result.Items[1].ItemID)
	suite.False(result.Items[1].IsCleared)

	// Opening 1000 plus the cleared 300 inflow; statement says 1500.
	suite.True(result.ExpectedBalance.Equal(decimal.NewFromInt(1300)))
	suite.True(result.Gap.Equal(decimal.NewFromInt(200)))
}

func (suite *ClearingServiceTestSuite) TestGetClearableItems_WrongOrganization() {
	suite.recon.OrganizationID = uuid.NewString()

	suite.mockReconRepo.On("FindReconciliationByID", suite.ctx, suite.recon.ReconciliationID).Return(suite.recon, nil).Once()

	result, err := suite.service.GetClearableItems(suite.ctx, suite.organizationID, suite.recon.ReconciliationID)

	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.Nil(result)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "ListPaymentsForClearing")
}

func (suite *ClearingServiceTestSuite) TestComputeGap_IncludesAdjustmentBankLeg() {
	payment := suite.clearingPayment(decimal.NewFromInt(450), domain.Inflow)
	suite.recon.ClearedPaymentIDs = []string{payment.PaymentID}

	// A posted bank fee adjustment: credit on the bank account, so an outflow,
	// cleared because adjustments are appended to the cleared set when posted.
	adjustmentID := uuid.NewString()
	suite.recon.AdjustmentEntryIDs = []string{adjustmentID}
	suite.recon.ClearedTransactionIDs = []string{adjustmentID}
	adjustmentTxn := &domain.Transaction{
		TransactionID:   adjustmentID,
		OrganizationID:  suite.organizationID,
		TransactionType: domain.AdjustmentTransaction,
		TransactionDate: time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC),
		Description:     "Monthly bank fee",
		Status:          domain.Posted,
	}
	adjustmentEntries := []domain.LedgerEntry{
		{EntryID: uuid.NewString(), TransactionID: adjustmentID, AccountID: uuid.NewString(), EntryType: domain.Debit, Amount: decimal.NewFromInt(25)},
		{EntryID: uuid.NewString(), TransactionID: adjustmentID, AccountID: suite.bankAccountID, EntryType: domain.Credit, Amount: decimal.NewFromInt(25)},
	}

	suite.expectWorksheet([]domain.Payment{payment}, nil, map[string]struct{}{})
	suite.mockLedgerRepo.On("FindTransactionByID", suite.ctx, adjustmentID).Return(adjustmentTxn, nil).Once()
	suite.mockLedgerRepo.On("FindEntriesByTransactionID", suite.ctx, adjustmentID).Return(adjustmentEntries, nil).Once()

	gap, err := suite.service.ComputeGap(suite.ctx, suite.recon)

	suite.Require().NoError(err)
	// 1000 + 450 - 25 = 1425 expected, statement 1500.
	suite.True(gap.ExpectedBalance.Equal(decimal.NewFromInt(1425)))
	suite.True(gap.Gap.Equal(decimal.NewFromInt(75)))
}

func (suite *ClearingServiceTestSuite) TestComputeGap_SkipsVoidedAdjustment() {
	adjustmentID := uuid.NewString()
	suite.recon.AdjustmentEntryIDs = []string{adjustmentID}
	voided := &domain.Transaction{
		TransactionID: adjustmentID,
		Status:        domain.Void,
	}

	suite.expectWorksheet(nil, nil, map[string]struct{}{})
	suite.mockLedgerRepo.On("FindTransactionByID", suite.ctx, adjustmentID).Return(voided, nil).Once()

	gap, err := suite.service.ComputeGap(suite.ctx, suite.recon)

	suite.Require().NoError(err)
	suite.True(gap.Gap.Equal(decimal.NewFromInt(500)))
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "FindEntriesByTransactionID")
}

func boolPtr(b bool) *bool {
	return &b
}

func (suite *ClearingServiceTestSuite) expectClearingLock() {
	suite.mockReconRepo.On("WithReconciliationLock", suite.ctx, suite.recon.ReconciliationID, mock.Anything).
		Return(suite.recon, nil).Once()
}

func (suite *ClearingServiceTestSuite) TestToggleClear_SetCleared() {
	existing := uuid.NewString()
	suite.recon.ClearedPaymentIDs = []string{existing}
	payment := suite.clearingPayment(decimal.NewFromInt(120), domain.Inflow)

	suite.expectClearingLock()
	suite.mockPaymentRepo.On("FindPaymentByID", suite.ctx, payment.PaymentID).Return(&payment, nil).Once()
	suite.mockReconRepo.On("ListItemIDsClearedElsewhere", suite.ctx, suite.organizationID, suite.bankAccountID, suite.recon.ReconciliationID).
		Return(map[string]struct{}{}, nil).Once()
	suite.mockReconRepo.On("UpdateClearedSetsInTx", suite.ctx, nil, suite.recon.ReconciliationID, []string{existing, payment.PaymentID}, []string(nil), suite.userID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()

	req := dto.ToggleClearRequest{ItemID: payment.PaymentID, ItemType: "PAYMENT", IsCleared: boolPtr(true)}
	err := suite.service.ToggleClear(suite.ctx, suite.organizationID, suite.recon.ReconciliationID, req, suite.userID)

	suite.Require().NoError(err)
	suite.mockReconRepo.AssertExpectations(suite.T())
}

func (suite *ClearingServiceTestSuite) TestToggleClear_NoOpWhenAlreadyInDesiredState() {
	payment := suite.clearingPayment(decimal.NewFromInt(120), domain.Inflow)
	suite.recon.ClearedPaymentIDs = []string{payment.PaymentID}

	suite.expectClearingLock()
	suite.mockPaymentRepo.On("FindPaymentByID", suite.ctx, payment.PaymentID).Return(&payment, nil).Once()
	suite.mockReconRepo.On("ListItemIDsClearedElsewhere", suite.ctx, suite.organizationID, suite.bankAccountID, suite.recon.ReconciliationID).
		Return(map[string]struct{}{}, nil).Once()

	req := dto.ToggleClearRequest{ItemID: payment.PaymentID, ItemType: "PAYMENT", IsCleared: boolPtr(true)}
	err := suite.service.ToggleClear(suite.ctx, suite.organizationID, suite.recon.ReconciliationID, req, suite.userID)

	suite.Require().NoError(err)
	suite.mockReconRepo.AssertNotCalled(suite.T(), "UpdateClearedSetsInTx")
}

func (suite *ClearingServiceTestSuite) TestToggleClear_Unclear() {
	bankTxn := suite.clearingBankTxn(decimal.NewFromInt(90), domain.Outflow)
	suite.recon.ClearedTransactionIDs = []string{bankTxn.BankTransactionID}

	suite.expectClearingLock()
	suite.mockBankTxnRepo.On("FindBankTransactionByID", suite.ctx, bankTxn.BankTransactionID).Return(&bankTxn, nil).Once()
	suite.mockReconRepo.On("UpdateClearedSetsInTx", suite.ctx, nil, suite.recon.ReconciliationID, []string(nil), []string{}, suite.userID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()

	req := dto.ToggleClearRequest{ItemID: bankTxn.BankTransactionID, ItemType: "BANK_TXN", IsCleared: boolPtr(false)}
	err := suite.service.ToggleClear(suite.ctx, suite.organizationID, suite.recon.ReconciliationID, req, suite.userID)

	suite.Require().NoError(err)
	// Unclearing never has to consult other sessions.
	suite.mockReconRepo.AssertNotCalled(suite.T(), "ListItemIDsClearedElsewhere")
}

func (suite *ClearingServiceTestSuite) TestToggleClear_ItemClearedElsewhere() {
	payment := suite.clearingPayment(decimal.NewFromInt(120), domain.Inflow)

	suite.expectClearingLock()
	suite.mockPaymentRepo.On("FindPaymentByID", suite.ctx, payment.PaymentID).Return(&payment, nil).Once()
	suite.mockReconRepo.On("ListItemIDsClearedElsewhere", suite.ctx, suite.organizationID, suite.bankAccountID, suite.recon.ReconciliationID).
		Return(map[string]struct{}{payment.PaymentID: {}}, nil).Once()

	req := dto.ToggleClearRequest{ItemID: payment.PaymentID, ItemType: "PAYMENT", IsCleared: boolPtr(true)}
	err := suite.service.ToggleClear(suite.ctx, suite.organizationID, suite.recon.ReconciliationID, req, suite.userID)

	suite.ErrorIs(err, services.ErrItemClearedElsewhere)
	suite.mockReconRepo.AssertNotCalled(suite.T(), "UpdateClearedSetsInTx")
}

func (suite *ClearingServiceTestSuite) TestToggleClear_Finalized() {
	suite.recon.Status = domain.ReconciliationFinalized

	suite.expectClearingLock()

	req := dto.ToggleClearRequest{ItemID: uuid.NewString(), ItemType: "PAYMENT", IsCleared: boolPtr(true)}
	err := suite.service.ToggleClear(suite.ctx, suite.organizationID, suite.recon.ReconciliationID, req, suite.userID)

	suite.ErrorIs(err, services.ErrReconciliationFinalized)
}

func (suite *ClearingServiceTestSuite) TestToggleClear_AdjustmentEntryRejected() {
	adjustmentID := uuid.NewString()
	suite.recon.AdjustmentEntryIDs = []string{adjustmentID}
	suite.recon.ClearedTransactionIDs = []string{adjustmentID}

	suite.expectClearingLock()

	req := dto.ToggleClearRequest{ItemID: adjustmentID, ItemType: "BANK_TXN", IsCleared: boolPtr(false)}
	err := suite.service.ToggleClear(suite.ctx, suite.organizationID, suite.recon.ReconciliationID, req, suite.userID)

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockBankTxnRepo.AssertNotCalled(suite.T(), "FindBankTransactionByID")
	suite.mockReconRepo.AssertNotCalled(suite.T(), "UpdateClearedSetsInTx")
}

func (suite *ClearingServiceTestSuite) TestToggleClear_UnknownItemType() {
	req := dto.ToggleClearRequest{ItemID: uuid.NewString(), ItemType: "INVOICE", IsCleared: boolPtr(true)}
	err := suite.service.ToggleClear(suite.ctx, suite.organizationID, suite.recon.ReconciliationID, req, suite.userID)

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockReconRepo.AssertNotCalled(suite.T(), "WithReconciliationLock")
}

func (suite *ClearingServiceTestSuite) TestToggleClear_VoidedPayment() {
	payment := suite.clearingPayment(decimal.NewFromInt(120), domain.Inflow)
	payment.Status = domain.PaymentVoided

	suite.expectClearingLock()
	suite.mockPaymentRepo.On("FindPaymentByID", suite.ctx, payment.PaymentID).Return(&payment, nil).Once()

	req := dto.ToggleClearRequest{ItemID: payment.PaymentID, ItemType: "PAYMENT", IsCleared: boolPtr(true)}
	err := suite.service.ToggleClear(suite.ctx, suite.organizationID, suite.recon.ReconciliationID, req, suite.userID)

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func TestClearingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ClearingServiceTestSuite))
}
