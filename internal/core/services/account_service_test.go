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

// --- Mock AccountRepository ---

type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, organizationID string, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, organizationID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	args := m.Called(ctx, accountID, userID, now)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[string]decimal.Decimal, userID string, now time.Time) error {
	args := m.Called(ctx, tx, balanceChanges, userID, now)
	return args.Error(0)
}

// --- Test Suite ---

type AccountServiceTestSuite struct {
	suite.Suite
	mockAccountRepo *MockAccountRepository
	service         portssvc.AccountSvcFacade
	ctx             context.Context

	organizationID string
	userID         string
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.service = services.NewAccountService(suite.mockAccountRepo)
	suite.ctx = context.Background()

	suite.organizationID = uuid.NewString()
	suite.userID = uuid.NewString()
}

func (suite *AccountServiceTestSuite) TestCreateAccount_Success() {
	req := dto.CreateAccountRequest{
		Code:          "1010",
		Name:          "Operating Bank Account",
		AccountType:   domain.Asset,
		CurrencyCode:  "USD",
		IsBankAccount: true,
	}

	suite.mockAccountRepo.On("SaveAccount", suite.ctx, mock.AnythingOfType("domain.Account")).
		Run(func(args mock.Arguments) {
			account := args.Get(1).(domain.Account)
			suite.Equal(suite.organizationID, account.OrganizationID)
			suite.True(account.IsActive)
			suite.True(account.Balance.IsZero())
		}).
		Return(nil).Once()

	account, err := suite.service.CreateAccount(suite.ctx, suite.organizationID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal("1010", account.Code)
	suite.True(account.IsBankAccount)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccount_BankAccountMustBeAsset() {
	req := dto.CreateAccountRequest{
		Code:          "4000",
		Name:          "Sales Revenue",
		AccountType:   domain.Income,
		CurrencyCode:  "USD",
		IsBankAccount: true,
	}

	_, err := suite.service.CreateAccount(suite.ctx, suite.organizationID, req, suite.userID)

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SaveAccount")
}

func (suite *AccountServiceTestSuite) TestGetAccountByID_WrongOrganization() {
	account := &domain.Account{
		AccountID:      uuid.NewString(),
		OrganizationID: uuid.NewString(),
		Code:           "1010",
	}

	suite.mockAccountRepo.On("FindAccountByID", suite.ctx, account.AccountID).Return(account, nil).Once()

	result, err := suite.service.GetAccountByID(suite.ctx, suite.organizationID, account.AccountID)

	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.Nil(result)
}

func (suite *AccountServiceTestSuite) TestGetAccountsByIDs_DropsForeignAccounts() {
	mine := domain.Account{AccountID: uuid.NewString(), OrganizationID: suite.organizationID}
	foreign := domain.Account{AccountID: uuid.NewString(), OrganizationID: uuid.NewString()}
	ids := []string{mine.AccountID, foreign.AccountID}

	suite.mockAccountRepo.On("FindAccountsByIDs", suite.ctx, ids).
		Return(map[string]domain.Account{
			mine.AccountID:    mine,
			foreign.AccountID: foreign,
		}, nil).Once()

	result, err := suite.service.GetAccountsByIDs(suite.ctx, suite.organizationID, ids)

	suite.Require().NoError(err)
	suite.Len(result, 1)
	suite.Contains(result, mine.AccountID)
	suite.NotContains(result, foreign.AccountID)
}

func (suite *AccountServiceTestSuite) TestListAccounts_DefaultLimit() {
	suite.mockAccountRepo.On("ListAccounts", suite.ctx, suite.organizationID, 20, 0).
		Return(nil, nil).Once()

	accounts, err := suite.service.ListAccounts(suite.ctx, suite.organizationID, 0, 0)

	suite.Require().NoError(err)
	suite.NotNil(accounts)
	suite.Empty(accounts)
}

func (suite *AccountServiceTestSuite) TestDeactivateAccount_Success() {
	account := &domain.Account{
		AccountID:      uuid.NewString(),
		OrganizationID: suite.organizationID,
		IsActive:       true,
	}

	suite.mockAccountRepo.On("FindAccountByID", suite.ctx, account.AccountID).Return(account, nil).Once()
	suite.mockAccountRepo.On("DeactivateAccount", suite.ctx, account.AccountID, suite.userID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()

	err := suite.service.DeactivateAccount(suite.ctx, suite.organizationID, account.AccountID, suite.userID)

	suite.Require().NoError(err)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestGetAccountBalance() {
	account := &domain.Account{
		AccountID:      uuid.NewString(),
		OrganizationID: suite.organizationID,
		Balance:        decimal.NewFromFloat(1234.56),
	}

	suite.mockAccountRepo.On("FindAccountByID", suite.ctx, account.AccountID).Return(account, nil).Once()

	balance, err := suite.service.GetAccountBalance(suite.ctx, suite.organizationID, account.AccountID)

	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromFloat(1234.56)))
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
