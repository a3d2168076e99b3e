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

// --- Mock ClearingService ---

type MockClearingService struct {
	mock.Mock
}

var _ portssvc.ClearingSvcFacade = (*MockClearingService)(nil)

func (m *MockClearingService) GetClearableItems(ctx context.Context, organizationID string, reconciliationID string) (*dto.ClearableItemsResponse, error) {
	args := m.Called(ctx, organizationID, reconciliationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ClearableItemsResponse), args.Error(1)
}

func (m *MockClearingService) ToggleClear(ctx context.Context, organizationID string, reconciliationID string, req dto.ToggleClearRequest, userID string) error {
	args := m.Called(ctx, organizationID, reconciliationID, req, userID)
	return args.Error(0)
}

func (m *MockClearingService) ComputeGap(ctx context.Context, recon *domain.BankReconciliation) (*domain.ReconciliationGap, error) {
	args := m.Called(ctx, recon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationGap), args.Error(1)
}

// --- Mock MatchingService ---

type MockMatchingService struct {
	mock.Mock
}

var _ portssvc.MatchingSvcFacade = (*MockMatchingService)(nil)

func (m *MockMatchingService) FindMatches(ctx context.Context, organizationID string, reconciliationID string) ([]domain.MatchCandidate, error) {
	args := m.Called(ctx, organizationID, reconciliationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MatchCandidate), args.Error(1)
}

func (m *MockMatchingService) MatchTransaction(ctx context.Context, organizationID string, reconciliationID string, req dto.MatchRequest, userID string) error {
	args := m.Called(ctx, organizationID, reconciliationID, req, userID)
	return args.Error(0)
}

func (m *MockMatchingService) UnmatchTransaction(ctx context.Context, organizationID string, bankTransactionID string, userID string) error {
	args := m.Called(ctx, organizationID, bankTransactionID, userID)
	return args.Error(0)
}

func (m *MockMatchingService) BulkMatch(ctx context.Context, organizationID string, reconciliationID string, req dto.BulkMatchRequest, userID string) (*domain.BulkMatchResult, error) {
	args := m.Called(ctx, organizationID, reconciliationID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BulkMatchResult), args.Error(1)
}

// --- Test Suite ---

type ReconciliationServiceTestSuite struct {
	suite.Suite
	mockReconRepo   *MockReconciliationRepository
	mockAccountSvc  *MockAccountService
	mockClearingSvc *MockClearingService
	mockMatchingSvc *MockMatchingService
	service         portssvc.ReconciliationSvcFacade
	ctx             context.Context

	organizationID string
	userID         string
	bankAccount    domain.Account
}

func (suite *ReconciliationServiceTestSuite) SetupTest() {
	suite.mockReconRepo = new(MockReconciliationRepository)
	suite.mockAccountSvc = new(MockAccountService)
	suite.mockClearingSvc = new(MockClearingService)
	suite.mockMatchingSvc = new(MockMatchingService)
	suite.service = services.NewReconciliationService(
		suite.mockReconRepo,
		suite.mockAccountSvc,
		suite.mockClearingSvc,
		suite.mockMatchingSvc,
		decimal.NewFromFloat(0.01),
	)
	suite.ctx = context.Background()

	suite.organizationID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.bankAccount = domain.Account{
		AccountID:      uuid.NewString(),
		OrganizationID: suite.organizationID,
		Code:           "1010",
		Name:           "Operating Bank Account",
		AccountType:    domain.Asset,
		CurrencyCode:   "USD",
		IsBankAccount:  true,
		IsActive:       true,
		Balance:        decimal.NewFromInt(1000),
	}
}

func (suite *ReconciliationServiceTestSuite) createRequest(statementDate time.Time) dto.CreateReconciliationRequest {
	return dto.CreateReconciliationRequest{
		BankAccountID:    suite.bankAccount.AccountID,
		StatementDate:    statementDate,
		StatementBalance: decimal.NewFromInt(1500),
	}
}

func (suite *ReconciliationServiceTestSuite) TestCreateReconciliation_FirstSessionOpensFromLedgerBalance() {
	req := suite.createRequest(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))

	suite.mockAccountSvc.On("GetAccountByID", suite.ctx, suite.organizationID, suite.bankAccount.AccountID).
		Return(&suite.bankAccount, nil).Once()
	suite.mockReconRepo.On("FindLatestFinalized", suite.ctx, suite.organizationID, suite.bankAccount.AccountID).
		Return(nil, nil).Once()
	suite.mockReconRepo.On("SaveReconciliation", suite.ctx, mock.AnythingOfType("domain.BankReconciliation")).
		Return(nil).Once()

	recon, err := suite.service.CreateReconciliation(suite.ctx, suite.organizationID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.ReconciliationInProgress, recon.Status)
	suite.True(recon.OpeningBalance.Equal(decimal.NewFromInt(1000)))
	suite.Equal(int64(1), recon.Version)
	suite.Empty(recon.ClearedPaymentIDs)
	suite.mockReconRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestCreateReconciliation_CarriesForwardOpeningBalance() {
	req := suite.createRequest(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))
	latest := &domain.BankReconciliation{
		ReconciliationID: uuid.NewString(),
		OrganizationID:   suite.organizationID,
		BankAccountID:    suite.bankAccount.AccountID,
		StatementDate:    time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC),
		StatementBalance: decimal.NewFromInt(1200),
		Status:           domain.ReconciliationFinalized,
	}

	suite.mockAccountSvc.On("GetAccountByID", suite.ctx, suite.organizationID, suite.bankAccount.AccountID).
		Return(&suite.bankAccount, nil).Once()
	suite.mockReconRepo.On("FindLatestFinalized", suite.ctx, suite.organizationID, suite.bankAccount.AccountID).
		Return(latest, nil).Once()
	suite.mockReconRepo.On("SaveReconciliation", suite.ctx, mock.AnythingOfType("domain.BankReconciliation")).
		Return(nil).Once()

	recon, err := suite.service.CreateReconciliation(suite.ctx, suite.organizationID, req, suite.userID)

	suite.Require().NoError(err)
	suite.True(recon.OpeningBalance.Equal(decimal.NewFromInt(1200)))
}

func (suite *ReconciliationServiceTestSuite) TestCreateReconciliation_StatementDateNotAfterLast() {
	req := suite.createRequest(time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC))
	latest := &domain.BankReconciliation{
		ReconciliationID: uuid.NewString(),
		StatementDate:    time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC),
		StatementBalance: decimal.NewFromInt(1200),
		Status:           domain.ReconciliationFinalized,
	}

	suite.mockAccountSvc.On("GetAccountByID", suite.ctx, suite.organizationID, suite.bankAccount.AccountID).
		Return(&suite.bankAccount, nil).Once()
	suite.mockReconRepo.On("FindLatestFinalized", suite.ctx, suite.organizationID, suite.bankAccount.AccountID).
		Return(latest, nil).Once()

	_, err := suite.service.CreateReconciliation(suite.ctx, suite.organizationID, req, suite.userID)

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockReconRepo.AssertNotCalled(suite.T(), "SaveReconciliation")
}

func (suite *ReconciliationServiceTestSuite) TestCreateReconciliation_NotBankAccount() {
	suite.bankAccount.IsBankAccount = false
	req := suite.createRequest(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))

	suite.mockAccountSvc.On("GetAccountByID", suite.ctx, suite.organizationID, suite.bankAccount.AccountID).
		Return(&suite.bankAccount, nil).Once()

	_, err := suite.service.CreateReconciliation(suite.ctx, suite.organizationID, req, suite.userID)

	suite.ErrorIs(err, services.ErrNotBankAccount)
	suite.mockReconRepo.AssertNotCalled(suite.T(), "FindLatestFinalized")
}

func (suite *ReconciliationServiceTestSuite) TestCreateReconciliation_InactiveAccount() {
	suite.bankAccount.IsActive = false
	req := suite.createRequest(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))

	suite.mockAccountSvc.On("GetAccountByID", suite.ctx, suite.organizationID, suite.bankAccount.AccountID).
		Return(&suite.bankAccount, nil).Once()

	_, err := suite.service.CreateReconciliation(suite.ctx, suite.organizationID, req, suite.userID)

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ReconciliationServiceTestSuite) inProgressRecon() *domain.BankReconciliation {
	return &domain.BankReconciliation{
		ReconciliationID:      uuid.NewString(),
		OrganizationID:        suite.organizationID,
		BankAccountID:         suite.bankAccount.AccountID,
		StatementDate:         time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		StatementBalance:      decimal.NewFromInt(1500),
		OpeningBalance:        decimal.NewFromInt(1000),
		Status:                domain.ReconciliationInProgress,
		ClearedPaymentIDs:     []string{},
		ClearedTransactionIDs: []string{},
		AdjustmentEntryIDs:    []string{},
		Version:               3,
	}
}

func (suite *ReconciliationServiceTestSuite) TestFinalizeReconciliation_Success() {
	recon := suite.inProgressRecon()

	suite.mockReconRepo.On("WithReconciliationLock", suite.ctx, recon.ReconciliationID, mock.Anything).
		Return(recon, nil).Once()
	suite.mockClearingSvc.On("ComputeGap", suite.ctx, recon).
		Return(&domain.ReconciliationGap{ExpectedBalance: decimal.NewFromInt(1500), Gap: decimal.Zero}, nil).Once()
	suite.mockReconRepo.On("FinalizeInTx", suite.ctx, nil, recon.ReconciliationID, int64(3), suite.userID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()

	finalized, err := suite.service.FinalizeReconciliation(suite.ctx, suite.organizationID, recon.ReconciliationID, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.ReconciliationFinalized, finalized.Status)
	suite.Equal(int64(4), finalized.Version)
	suite.Require().NotNil(finalized.FinalizedBy)
	suite.Equal(suite.userID, *finalized.FinalizedBy)
	suite.NotNil(finalized.FinalizedAt)
	suite.mockReconRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestFinalizeReconciliation_GapNotZero() {
	recon := suite.inProgressRecon()

	suite.mockReconRepo.On("WithReconciliationLock", suite.ctx, recon.ReconciliationID, mock.Anything).
		Return(recon, nil).Once()
	suite.mockClearingSvc.On("ComputeGap", suite.ctx, recon).
		Return(&domain.ReconciliationGap{ExpectedBalance: decimal.NewFromInt(1420), Gap: decimal.NewFromInt(80)}, nil).Once()

	_, err := suite.service.FinalizeReconciliation(suite.ctx, suite.organizationID, recon.ReconciliationID, suite.userID)

	suite.ErrorIs(err, services.ErrGapNotZero)
	suite.mockReconRepo.AssertNotCalled(suite.T(), "FinalizeInTx")
}

func (suite *ReconciliationServiceTestSuite) TestFinalizeReconciliation_GapWithinEpsilon() {
	recon := suite.inProgressRecon()

	suite.mockReconRepo.On("WithReconciliationLock", suite.ctx, recon.ReconciliationID, mock.Anything).
		Return(recon, nil).Once()
	suite.mockClearingSvc.On("ComputeGap", suite.ctx, recon).
		Return(&domain.ReconciliationGap{ExpectedBalance: decimal.NewFromInt(1500), Gap: decimal.NewFromFloat(-0.01)}, nil).Once()
	suite.mockReconRepo.On("FinalizeInTx", suite.ctx, nil, recon.ReconciliationID, int64(3), suite.userID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()

	_, err := suite.service.FinalizeReconciliation(suite.ctx, suite.organizationID, recon.ReconciliationID, suite.userID)

	suite.Require().NoError(err)
	suite.mockReconRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestFinalizeReconciliation_AlreadyFinalized() {
	recon := suite.inProgressRecon()
	recon.Status = domain.ReconciliationFinalized

	suite.mockReconRepo.On("WithReconciliationLock", suite.ctx, recon.ReconciliationID, mock.Anything).
		Return(recon, nil).Once()

	_, err := suite.service.FinalizeReconciliation(suite.ctx, suite.organizationID, recon.ReconciliationID, suite.userID)

	suite.ErrorIs(err, services.ErrReconciliationFinalized)
	suite.mockClearingSvc.AssertNotCalled(suite.T(), "ComputeGap")
}

func (suite *ReconciliationServiceTestSuite) TestGetReconciliationDetails_WrongOrganization() {
	recon := suite.inProgressRecon()
	recon.OrganizationID = uuid.NewString()

	suite.mockReconRepo.On("FindReconciliationByID", suite.ctx, recon.ReconciliationID).Return(recon, nil).Once()

	result, err := suite.service.GetReconciliationDetails(suite.ctx, suite.organizationID, recon.ReconciliationID)

	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.Nil(result)
	suite.mockClearingSvc.AssertNotCalled(suite.T(), "GetClearableItems")
	suite.mockMatchingSvc.AssertNotCalled(suite.T(), "FindMatches")
}

func (suite *ReconciliationServiceTestSuite) TestGetReconciliationDetails_Success() {
	recon := suite.inProgressRecon()
	worksheet := &dto.ClearableItemsResponse{
		Items: []dto.ClearableItemResponse{
			{
				ItemID:      uuid.NewString(),
				ItemType:    domain.ClearableBankTxn,
				Date:        time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
				Description: "Wire received",
				Amount:      decimal.NewFromInt(500),
				Direction:   domain.Inflow,
				IsCleared:   false,
			},
		},
		ExpectedBalance: decimal.NewFromInt(1450),
		Gap:             decimal.NewFromInt(50),
	}
	candidates := []domain.MatchCandidate{
		{
			BankTransaction: domain.BankTransaction{BankTransactionID: uuid.NewString()},
			Payment:         domain.Payment{PaymentID: uuid.NewString()},
			Confidence:      domain.MatchExact,
			AmountDelta:     decimal.Zero,
			DateDeltaDays:   0,
		},
	}

	suite.mockReconRepo.On("FindReconciliationByID", suite.ctx, recon.ReconciliationID).Return(recon, nil).Once()
	suite.mockClearingSvc.On("GetClearableItems", suite.ctx, suite.organizationID, recon.ReconciliationID).
		Return(worksheet, nil).Once()
	suite.mockMatchingSvc.On("FindMatches", suite.ctx, suite.organizationID, recon.ReconciliationID).
		Return(candidates, nil).Once()

	result, err := suite.service.GetReconciliationDetails(suite.ctx, suite.organizationID, recon.ReconciliationID)

	suite.Require().NoError(err)
	suite.Equal(recon.ReconciliationID, result.Reconciliation.ReconciliationID)
	suite.Require().Len(result.Items, 1)
	suite.Equal("Wire received", result.Items[0].Description)
	suite.Require().Len(result.Candidates, 1)
	suite.Equal(domain.MatchExact, result.Candidates[0].Confidence)
	suite.True(result.ExpectedBalance.Equal(decimal.NewFromInt(1450)))
	suite.True(result.Gap.Equal(decimal.NewFromInt(50)))
}

func (suite *ReconciliationServiceTestSuite) TestGetReconciliationDetails_FinalizedSkipsSuggestions() {
	recon := suite.inProgressRecon()
	recon.Status = domain.ReconciliationFinalized

	suite.mockReconRepo.On("FindReconciliationByID", suite.ctx, recon.ReconciliationID).Return(recon, nil).Once()
	suite.mockClearingSvc.On("GetClearableItems", suite.ctx, suite.organizationID, recon.ReconciliationID).
		Return(&dto.ClearableItemsResponse{Items: []dto.ClearableItemResponse{}, ExpectedBalance: decimal.NewFromInt(1500), Gap: decimal.Zero}, nil).Once()

	result, err := suite.service.GetReconciliationDetails(suite.ctx, suite.organizationID, recon.ReconciliationID)

	suite.Require().NoError(err)
	suite.Empty(result.Candidates)
	suite.mockMatchingSvc.AssertNotCalled(suite.T(), "FindMatches")
}

func TestReconciliationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceTestSuite))
}
