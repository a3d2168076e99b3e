package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/finlens/bank_recon_app/internal/apperrors"
	"github.com/finlens/bank_recon_app/internal/core/domain"
	portsrepo "github.com/finlens/bank_recon_app/internal/core/ports/repositories"
	portssvc "github.com/finlens/bank_recon_app/internal/core/ports/services"
	"github.com/finlens/bank_recon_app/internal/core/services"
	"github.com/finlens/bank_recon_app/internal/dto"
)

// --- Mock LedgerRepository ---

type MockLedgerRepository struct {
	mock.Mock
}

var _ portsrepo.LedgerRepositoryWithTx = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) FindEntriesByTransactionIDs(ctx context.Context, transactionIDs []string) (map[string][]domain.LedgerEntry, error) {
	args := m.Called(ctx, transactionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) ListEntriesByAccountID(ctx context.Context, organizationID, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	args := m.Called(ctx, organizationID, accountID, limit, nextToken)
	var entries []domain.LedgerEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.LedgerEntry)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return entries, token, args.Error(2)
}

func (m *MockLedgerRepository) SumEntriesByAccountID(ctx context.Context, accountID string) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerRepository) SaveTransaction(ctx context.Context, txn domain.Transaction, entries []domain.LedgerEntry, balanceChanges map[string]decimal.Decimal) (*domain.Transaction, error) {
	args := m.Called(ctx, txn, entries, balanceChanges)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) SaveTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction, entries []domain.LedgerEntry, balanceChanges map[string]decimal.Decimal) (*domain.Transaction, error) {
	args := m.Called(ctx, tx, txn, entries, balanceChanges)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) UpdateTransactionStatusAndLinks(ctx context.Context, transactionID string, status domain.TransactionStatus, reversingTransactionID *string, originalTransactionID *string, updatedByUserID string, updatedAt time.Time) error {
	args := m.Called(ctx, transactionID, status, reversingTransactionID, originalTransactionID, updatedByUserID, updatedAt)
	return args.Error(0)
}

func (m *MockLedgerRepository) UpdateTransactionStatusAndLinksInTx(ctx context.Context, tx pgx.Tx, transactionID string, status domain.TransactionStatus, reversingTransactionID *string, originalTransactionID *string, updatedByUserID string, updatedAt time.Time) error {
	args := m.Called(ctx, tx, transactionID, status, reversingTransactionID, originalTransactionID, updatedByUserID, updatedAt)
	return args.Error(0)
}

func (m *MockLedgerRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockLedgerRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockLedgerRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// --- Mock AccountService ---

type MockAccountService struct {
	mock.Mock
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

func (m *MockAccountService) GetAccountByID(ctx context.Context, organizationID string, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, organizationID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountsByIDs(ctx context.Context, organizationID string, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, organizationID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, organizationID string, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, organizationID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountService) CreateAccount(ctx context.Context, organizationID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	args := m.Called(ctx, organizationID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) DeactivateAccount(ctx context.Context, organizationID string, accountID string, userID string) error {
	args := m.Called(ctx, organizationID, accountID, userID)
	return args.Error(0)
}

func (m *MockAccountService) GetAccountBalance(ctx context.Context, organizationID string, accountID string) (decimal.Decimal, error) {
	args := m.Called(ctx, organizationID, accountID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- Test Suite ---

type LedgerServiceTestSuite struct {
	suite.Suite
	mockLedgerRepo *MockLedgerRepository
	mockAccountSvc *MockAccountService
	service        portssvc.LedgerSvcFacade
	ctx            context.Context

	organizationID string
	userID         string
	bankAccount    domain.Account
	incomeAccount  domain.Account
	expenseAccount domain.Account

	capturedReversal domain.Transaction
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockAccountSvc = new(MockAccountService)
	suite.service = services.NewLedgerService(suite.mockLedgerRepo, suite.mockAccountSvc)
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
	}
	suite.incomeAccount = domain.Account{
		AccountID:      uuid.NewString(),
		OrganizationID: suite.organizationID,
		Code:           "4000",
		Name:           "Sales Revenue",
		AccountType:    domain.Income,
		CurrencyCode:   "USD",
		IsActive:       true,
	}
	suite.expenseAccount = domain.Account{
		AccountID:      uuid.NewString(),
		OrganizationID: suite.organizationID,
		Code:           "6000",
		Name:           "Bank Charges",
		AccountType:    domain.Expense,
		CurrencyCode:   "USD",
		IsActive:       true,
	}
}

func (suite *LedgerServiceTestSuite) accountsMap(accounts ...domain.Account) map[string]domain.Account {
	result := make(map[string]domain.Account, len(accounts))
	for _, acc := range accounts {
		result[acc.AccountID] = acc
	}
	return result
}

func (suite *LedgerServiceTestSuite) postRequest(amount decimal.Decimal) dto.PostTransactionRequest {
	return dto.PostTransactionRequest{
		TransactionDate: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		Description:     "Cash sale",
		CurrencyCode:    "USD",
		Entries: []dto.EntryInput{
			{AccountID: suite.bankAccount.AccountID, EntryType: domain.Debit, Amount: amount},
			{AccountID: suite.incomeAccount.AccountID, EntryType: domain.Credit, Amount: amount},
		},
	}
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_Success() {
	req := suite.postRequest(decimal.NewFromInt(250))

	suite.mockAccountSvc.On("GetAccountsByIDs", suite.ctx, suite.organizationID, mock.AnythingOfType("[]string")).
		Return(suite.accountsMap(suite.bankAccount, suite.incomeAccount), nil).Once()

	suite.mockLedgerRepo.On("SaveTransaction", suite.ctx, mock.AnythingOfType("domain.Transaction"), mock.AnythingOfType("[]domain.LedgerEntry"), mock.AnythingOfType("map[string]decimal.Decimal")).
		Run(func(args mock.Arguments) {
			txn := args.Get(1).(domain.Transaction)
			suite.Equal(domain.JournalTransaction, txn.TransactionType)
			suite.Equal(domain.Posted, txn.Status)
			suite.Equal(suite.organizationID, txn.OrganizationID)

			changes := args.Get(3).(map[string]decimal.Decimal)
			suite.True(changes[suite.bankAccount.AccountID].Equal(decimal.NewFromInt(250)))
			suite.True(changes[suite.incomeAccount.AccountID].Equal(decimal.NewFromInt(250)))
		}).
		Return(&domain.Transaction{TransactionID: uuid.NewString(), Number: "JRN-2025-06-0001", Status: domain.Posted}, nil).Once()

	result, err := suite.service.PostTransaction(suite.ctx, suite.organizationID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(result)
	suite.Equal("JRN-2025-06-0001", result.Number)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_Unbalanced() {
	req := suite.postRequest(decimal.NewFromInt(100))
	req.Entries[1].Amount = decimal.NewFromInt(90)

	result, err := suite.service.PostTransaction(suite.ctx, suite.organizationID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrUnbalancedEntry)
	suite.Nil(result)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "SaveTransaction")
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_MinEntries() {
	req := suite.postRequest(decimal.NewFromInt(100))
	req.Entries = req.Entries[:1]

	_, err := suite.service.PostTransaction(suite.ctx, suite.organizationID, req, suite.userID)

	suite.ErrorIs(err, services.ErrMinEntries)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_MinAccounts() {
	req := suite.postRequest(decimal.NewFromInt(100))
	req.Entries[1].AccountID = suite.bankAccount.AccountID

	_, err := suite.service.PostTransaction(suite.ctx, suite.organizationID, req, suite.userID)

	suite.ErrorIs(err, services.ErrMinAccounts)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_DescriptionMissing() {
	req := suite.postRequest(decimal.NewFromInt(100))
	req.Description = ""

	_, err := suite.service.PostTransaction(suite.ctx, suite.organizationID, req, suite.userID)

	suite.ErrorIs(err, services.ErrDescriptionMissing)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_NonPositiveAmount() {
	req := suite.postRequest(decimal.NewFromInt(100))
	req.Entries[0].Amount = decimal.Zero

	_, err := suite.service.PostTransaction(suite.ctx, suite.organizationID, req, suite.userID)

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_AccountNotFound() {
	req := suite.postRequest(decimal.NewFromInt(100))

	// Only the bank account comes back; the income account is unknown.
	suite.mockAccountSvc.On("GetAccountsByIDs", suite.ctx, suite.organizationID, mock.AnythingOfType("[]string")).
		Return(suite.accountsMap(suite.bankAccount), nil).Once()

	_, err := suite.service.PostTransaction(suite.ctx, suite.organizationID, req, suite.userID)

	suite.ErrorIs(err, services.ErrAccountNotFound)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "SaveTransaction")
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_InactiveAccount() {
	req := suite.postRequest(decimal.NewFromInt(100))
	inactive := suite.incomeAccount
	inactive.IsActive = false

	suite.mockAccountSvc.On("GetAccountsByIDs", suite.ctx, suite.organizationID, mock.AnythingOfType("[]string")).
		Return(suite.accountsMap(suite.bankAccount, inactive), nil).Once()

	_, err := suite.service.PostTransaction(suite.ctx, suite.organizationID, req, suite.userID)

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_CurrencyMismatch() {
	req := suite.postRequest(decimal.NewFromInt(100))
	euroIncome := suite.incomeAccount
	euroIncome.CurrencyCode = "EUR"

	suite.mockAccountSvc.On("GetAccountsByIDs", suite.ctx, suite.organizationID, mock.AnythingOfType("[]string")).
		Return(suite.accountsMap(suite.bankAccount, euroIncome), nil).Once()

	_, err := suite.service.PostTransaction(suite.ctx, suite.organizationID, req, suite.userID)

	suite.ErrorIs(err, services.ErrCurrencyMismatch)
}

func (suite *LedgerServiceTestSuite) postedTransaction() *domain.Transaction {
	return &domain.Transaction{
		TransactionID:   uuid.NewString(),
		OrganizationID:  suite.organizationID,
		Number:          "JRN-2025-06-0007",
		TransactionType: domain.JournalTransaction,
		TransactionDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		Description:     "Cash sale",
		CurrencyCode:    "USD",
		Status:          domain.Posted,
	}
}

func (suite *LedgerServiceTestSuite) originalEntries(transactionID string) []domain.LedgerEntry {
	return []domain.LedgerEntry{
		{EntryID: uuid.NewString(), TransactionID: transactionID, AccountID: suite.bankAccount.AccountID, EntryType: domain.Debit, Amount: decimal.NewFromInt(250)},
		{EntryID: uuid.NewString(), TransactionID: transactionID, AccountID: suite.incomeAccount.AccountID, EntryType: domain.Credit, Amount: decimal.NewFromInt(250)},
	}
}

func (suite *LedgerServiceTestSuite) expectReversalPersistence(original *domain.Transaction, originalStatus domain.TransactionStatus) *domain.Transaction {
	saved := &domain.Transaction{
		TransactionID: uuid.NewString(),
		Number:        "JRN-2025-06-0008",
		Status:        domain.Posted,
	}

	suite.mockLedgerRepo.On("Begin", suite.ctx).Return(nil, nil).Once()
	suite.mockLedgerRepo.On("SaveTransactionInTx", suite.ctx, mock.Anything, mock.AnythingOfType("domain.Transaction"), mock.AnythingOfType("[]domain.LedgerEntry"), mock.AnythingOfType("map[string]decimal.Decimal")).
		Run(func(args mock.Arguments) {
			reversal := args.Get(2).(domain.Transaction)
			suite.capturedReversal = reversal
			suite.Equal("Reversal of: Cash sale", reversal.Description)
			suite.Require().NotNil(reversal.OriginalTransactionID)
			suite.Equal(original.TransactionID, *reversal.OriginalTransactionID)

			entries := args.Get(3).([]domain.LedgerEntry)
			suite.Require().Len(entries, 2)
			suite.Equal(domain.Credit, entries[0].EntryType)
			suite.Equal(domain.Debit, entries[1].EntryType)
		}).
		Return(saved, nil).Once()
	suite.mockLedgerRepo.On("UpdateTransactionStatusAndLinksInTx", suite.ctx, mock.Anything, original.TransactionID, originalStatus, &saved.TransactionID, (*string)(nil), suite.userID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()
	suite.mockLedgerRepo.On("Commit", suite.ctx, mock.Anything).Return(nil).Once()
	suite.mockLedgerRepo.On("Rollback", suite.ctx, mock.Anything).Return(nil).Maybe()

	return saved
}

func (suite *LedgerServiceTestSuite) TestReverseTransaction_Success() {
	original := suite.postedTransaction()

	suite.mockLedgerRepo.On("FindTransactionByID", suite.ctx, original.TransactionID).Return(original, nil).Once()
	suite.mockLedgerRepo.On("FindEntriesByTransactionID", suite.ctx, original.TransactionID).Return(suite.originalEntries(original.TransactionID), nil).Once()
	suite.mockAccountSvc.On("GetAccountsByIDs", suite.ctx, suite.organizationID, mock.AnythingOfType("[]string")).
		Return(suite.accountsMap(suite.bankAccount, suite.incomeAccount), nil).Once()
	saved := suite.expectReversalPersistence(original, domain.Posted)

	result, err := suite.service.ReverseTransaction(suite.ctx, suite.organizationID, original.TransactionID, nil, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(saved.TransactionID, result.TransactionID)
	suite.NotEqual(original.TransactionDate, suite.capturedReversal.TransactionDate)
	suite.WithinDuration(time.Now().UTC(), suite.capturedReversal.TransactionDate, time.Minute)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestReverseTransaction_SuppliedDate() {
	original := suite.postedTransaction()
	reversalDate := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	suite.mockLedgerRepo.On("FindTransactionByID", suite.ctx, original.TransactionID).Return(original, nil).Once()
	suite.mockLedgerRepo.On("FindEntriesByTransactionID", suite.ctx, original.TransactionID).Return(suite.originalEntries(original.TransactionID), nil).Once()
	suite.mockAccountSvc.On("GetAccountsByIDs", suite.ctx, suite.organizationID, mock.AnythingOfType("[]string")).
		Return(suite.accountsMap(suite.bankAccount, suite.incomeAccount), nil).Once()
	suite.expectReversalPersistence(original, domain.Posted)

	_, err := suite.service.ReverseTransaction(suite.ctx, suite.organizationID, original.TransactionID, &reversalDate, suite.userID)

	suite.Require().NoError(err)
	suite.True(reversalDate.Equal(suite.capturedReversal.TransactionDate))
}

func (suite *LedgerServiceTestSuite) TestVoidTransaction_MarksOriginalVoid() {
	original := suite.postedTransaction()

	suite.mockLedgerRepo.On("FindTransactionByID", suite.ctx, original.TransactionID).Return(original, nil).Once()
	suite.mockLedgerRepo.On("FindEntriesByTransactionID", suite.ctx, original.TransactionID).Return(suite.originalEntries(original.TransactionID), nil).Once()
	suite.mockAccountSvc.On("GetAccountsByIDs", suite.ctx, suite.organizationID, mock.AnythingOfType("[]string")).
		Return(suite.accountsMap(suite.bankAccount, suite.incomeAccount), nil).Once()
	suite.expectReversalPersistence(original, domain.Void)

	_, err := suite.service.VoidTransaction(suite.ctx, suite.organizationID, original.TransactionID, nil, suite.userID)

	suite.Require().NoError(err)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestReverseTransaction_AlreadyReversed() {
	original := suite.postedTransaction()
	reversingID := uuid.NewString()
	original.ReversingTransactionID = &reversingID

	suite.mockLedgerRepo.On("FindTransactionByID", suite.ctx, original.TransactionID).Return(original, nil).Once()
	suite.mockLedgerRepo.On("FindEntriesByTransactionID", suite.ctx, original.TransactionID).Return(suite.originalEntries(original.TransactionID), nil).Once()

	_, err := suite.service.ReverseTransaction(suite.ctx, suite.organizationID, original.TransactionID, nil, suite.userID)

	suite.ErrorIs(err, services.ErrAlreadyReversed)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "Begin")
}

func (suite *LedgerServiceTestSuite) TestReverseTransaction_AlreadyVoided() {
	original := suite.postedTransaction()
	original.Status = domain.Void

	suite.mockLedgerRepo.On("FindTransactionByID", suite.ctx, original.TransactionID).Return(original, nil).Once()
	suite.mockLedgerRepo.On("FindEntriesByTransactionID", suite.ctx, original.TransactionID).Return(suite.originalEntries(original.TransactionID), nil).Once()

	_, err := suite.service.ReverseTransaction(suite.ctx, suite.organizationID, original.TransactionID, nil, suite.userID)

	suite.ErrorIs(err, services.ErrAlreadyVoided)
}

func (suite *LedgerServiceTestSuite) TestGetTransactionByID_WrongOrganization() {
	original := suite.postedTransaction()
	original.OrganizationID = uuid.NewString()

	suite.mockLedgerRepo.On("FindTransactionByID", suite.ctx, original.TransactionID).Return(original, nil).Once()

	result, err := suite.service.GetTransactionByID(suite.ctx, suite.organizationID, original.TransactionID)

	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.Nil(result)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "FindEntriesByTransactionID")
}

func (suite *LedgerServiceTestSuite) TestListEntriesByAccount_DefaultLimit() {
	entries := suite.originalEntries(uuid.NewString())

	suite.mockAccountSvc.On("GetAccountByID", suite.ctx, suite.organizationID, suite.bankAccount.AccountID).
		Return(&suite.bankAccount, nil).Once()
	suite.mockLedgerRepo.On("ListEntriesByAccountID", suite.ctx, suite.organizationID, suite.bankAccount.AccountID, 20, (*string)(nil)).
		Return(entries, nil, nil).Once()

	result, err := suite.service.ListEntriesByAccount(suite.ctx, suite.organizationID, suite.bankAccount.AccountID, dto.ListEntriesParams{})

	suite.Require().NoError(err)
	suite.Len(result.Entries, 2)
	suite.Nil(result.NextToken)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
