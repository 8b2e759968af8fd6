package service

import (
	"context"
	"errors"
	"testing"

	"stakeforge/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newStakeServiceMocks() (*MockUnitOfWork, *MockUnitOfWorkFactory, *MockUserRepository, *MockStakeRepository) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockStakeRepo := new(MockStakeRepository)

	mockUoW.SetRepositories(mockUserRepo, mockStakeRepo)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	return mockUoW, mockFactory, mockUserRepo, mockStakeRepo
}

func TestStakeService_CreateStake(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, mockStakeRepo := newStakeServiceMocks()
	mockUoW.On("Commit").Return(nil)

	service := NewStakeService(mockFactory)

	user := &models.User{ID: 7, Coins: 100}

	mockUserRepo.On("GetByID", ctx, int64(7)).Return(user, nil)
	mockUserRepo.On("DeductCoins", ctx, int64(7), int64(30)).Return(nil)
	mockStakeRepo.On("Create", ctx, mock.MatchedBy(func(s *models.Stake) bool {
		return s.UserID == 7 &&
			s.IssueID == 1001 &&
			s.Repository == "octocat/hello-world" &&
			s.Amount == 30 &&
			s.Status == models.StakeStatusPending
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Stake).ID = 42
	})

	stake, err := service.CreateStake(ctx, 7, 1001, "octocat/hello-world", 30, nil)

	assert.NoError(t, err)
	assert.NotNil(t, stake)
	assert.Equal(t, int64(42), stake.ID)
	assert.Equal(t, models.StakeStatusPending, stake.Status)
	assert.Len(t, mockUoW.PublishedEvents(), 2)

	mockUserRepo.AssertExpectations(t)
	mockStakeRepo.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
}

func TestStakeService_CreateStake_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, mockUserRepo, mockStakeRepo := newStakeServiceMocks()

	service := NewStakeService(mockFactory)

	user := &models.User{ID: 7, Coins: 10}

	mockUserRepo.On("GetByID", ctx, int64(7)).Return(user, nil)
	mockUserRepo.On("DeductCoins", ctx, int64(7), int64(30)).Return(ErrInsufficientFunds)

	stake, err := service.CreateStake(ctx, 7, 1001, "octocat/hello-world", 30, nil)

	assert.Nil(t, stake)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	// The stake insert must never run after a failed debit
	mockStakeRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestStakeService_CreateStake_InvalidAmount(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, _, _ := newStakeServiceMocks()

	service := NewStakeService(mockFactory)

	stake, err := service.CreateStake(ctx, 7, 1001, "octocat/hello-world", 0, nil)
	assert.Nil(t, stake)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	stake, err = service.CreateStake(ctx, 7, 1001, "octocat/hello-world", -5, nil)
	assert.Nil(t, stake)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStakeService_UpdateStakeStatus_Accepted(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, mockStakeRepo := newStakeServiceMocks()
	mockUoW.On("Commit").Return(nil)

	service := NewStakeService(mockFactory)

	pending := &models.Stake{
		ID:     42,
		UserID: 7,
		Amount: 50,
		Status: models.StakeStatusPending,
	}

	mockStakeRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(pending, nil)
	mockStakeRepo.On("UpdateStatusIfPending", ctx, int64(42), models.StakeStatusAccepted, int64(100), int64(20)).Return(true, nil)
	// Acceptance returns the 50 escrowed coins plus the 20 earned
	mockUserRepo.On("AddCoins", ctx, int64(7), int64(70)).Return(nil)
	mockUserRepo.On("AddXP", ctx, int64(7), int64(100)).Return(nil)

	stake, err := service.UpdateStakeStatus(ctx, 42, models.StakeStatusAccepted, 100, 20)

	assert.NoError(t, err)
	assert.Equal(t, models.StakeStatusAccepted, stake.Status)
	assert.Equal(t, int64(100), stake.XPEarned)
	assert.Equal(t, int64(20), stake.CoinsEarned)

	mockStakeRepo.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
}

func TestStakeService_UpdateStakeStatus_Rejected(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, mockStakeRepo := newStakeServiceMocks()
	mockUoW.On("Commit").Return(nil)

	service := NewStakeService(mockFactory)

	pending := &models.Stake{
		ID:     42,
		UserID: 7,
		Amount: 50,
		Status: models.StakeStatusPending,
	}

	mockStakeRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(pending, nil)
	mockStakeRepo.On("UpdateStatusIfPending", ctx, int64(42), models.StakeStatusRejected, int64(0), int64(10)).Return(true, nil)
	// The escrow is forfeited; only the consolation coins come back
	mockUserRepo.On("AddCoins", ctx, int64(7), int64(10)).Return(nil)

	stake, err := service.UpdateStakeStatus(ctx, 42, models.StakeStatusRejected, 0, 10)

	assert.NoError(t, err)
	assert.Equal(t, models.StakeStatusRejected, stake.Status)
	mockUserRepo.AssertNotCalled(t, "AddXP", mock.Anything, mock.Anything, mock.Anything)
	mockUserRepo.AssertExpectations(t)
}

func TestStakeService_UpdateStakeStatus_RejectedFullForfeit(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, mockStakeRepo := newStakeServiceMocks()
	mockUoW.On("Commit").Return(nil)

	service := NewStakeService(mockFactory)

	pending := &models.Stake{
		ID:     42,
		UserID: 7,
		Amount: 50,
		Status: models.StakeStatusPending,
	}

	mockStakeRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(pending, nil)
	mockStakeRepo.On("UpdateStatusIfPending", ctx, int64(42), models.StakeStatusRejected, int64(0), int64(0)).Return(true, nil)

	stake, err := service.UpdateStakeStatus(ctx, 42, models.StakeStatusRejected, 0, 0)

	assert.NoError(t, err)
	assert.Equal(t, models.StakeStatusRejected, stake.Status)
	// Nothing earned means no credit call at all
	mockUserRepo.AssertNotCalled(t, "AddCoins", mock.Anything, mock.Anything, mock.Anything)
}

func TestStakeService_UpdateStakeStatus_Expired(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, mockStakeRepo := newStakeServiceMocks()
	mockUoW.On("Commit").Return(nil)

	service := NewStakeService(mockFactory)

	pending := &models.Stake{
		ID:     42,
		UserID: 7,
		Amount: 50,
		Status: models.StakeStatusPending,
	}

	mockStakeRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(pending, nil)
	mockStakeRepo.On("UpdateStatusIfPending", ctx, int64(42), models.StakeStatusExpired, int64(0), int64(0)).Return(true, nil)
	// Expiry returns the escrow untouched
	mockUserRepo.On("AddCoins", ctx, int64(7), int64(50)).Return(nil)

	stake, err := service.UpdateStakeStatus(ctx, 42, models.StakeStatusExpired, 0, 0)

	assert.NoError(t, err)
	assert.Equal(t, models.StakeStatusExpired, stake.Status)
	mockUserRepo.AssertExpectations(t)
}

func TestStakeService_UpdateStakeStatus_AlreadyResolved(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, mockUserRepo, mockStakeRepo := newStakeServiceMocks()

	service := NewStakeService(mockFactory)

	resolved := &models.Stake{
		ID:     42,
		UserID: 7,
		Amount: 50,
		Status: models.StakeStatusAccepted,
	}

	mockStakeRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(resolved, nil)

	stake, err := service.UpdateStakeStatus(ctx, 42, models.StakeStatusRejected, 0, 0)

	assert.Nil(t, stake)
	assert.ErrorIs(t, err, ErrStakeNotPending)
	// A second transition must have no economic effect
	mockUserRepo.AssertNotCalled(t, "AddCoins", mock.Anything, mock.Anything, mock.Anything)
	mockUserRepo.AssertNotCalled(t, "AddXP", mock.Anything, mock.Anything, mock.Anything)
	mockStakeRepo.AssertNotCalled(t, "UpdateStatusIfPending", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStakeService_UpdateStakeStatus_LostRace(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, mockUserRepo, mockStakeRepo := newStakeServiceMocks()

	service := NewStakeService(mockFactory)

	pending := &models.Stake{
		ID:     42,
		UserID: 7,
		Amount: 50,
		Status: models.StakeStatusPending,
	}

	mockStakeRepo.On("GetByIDForUpdate", ctx, int64(42)).Return(pending, nil)
	mockStakeRepo.On("UpdateStatusIfPending", ctx, int64(42), models.StakeStatusAccepted, int64(100), int64(20)).Return(false, nil)

	stake, err := service.UpdateStakeStatus(ctx, 42, models.StakeStatusAccepted, 100, 20)

	assert.Nil(t, stake)
	assert.ErrorIs(t, err, ErrStakeNotPending)
	mockUserRepo.AssertNotCalled(t, "AddCoins", mock.Anything, mock.Anything, mock.Anything)
}

func TestStakeService_UpdateStakeStatus_InvalidTarget(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, _, _ := newStakeServiceMocks()

	service := NewStakeService(mockFactory)

	stake, err := service.UpdateStakeStatus(ctx, 42, models.StakeStatusPending, 0, 0)
	assert.Nil(t, stake)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	stake, err = service.UpdateStakeStatus(ctx, 42, models.StakeStatus("SETTLED"), 0, 0)
	assert.Nil(t, stake)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStakeService_UpdateStakeStatus_NotFound(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, _, mockStakeRepo := newStakeServiceMocks()

	service := NewStakeService(mockFactory)

	mockStakeRepo.On("GetByIDForUpdate", ctx, int64(99)).Return(nil, nil)

	stake, err := service.UpdateStakeStatus(ctx, 99, models.StakeStatusExpired, 0, 0)

	assert.Nil(t, stake)
	assert.ErrorIs(t, err, ErrStakeNotFound)
}

func TestStakeService_GetUserStakes(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, _, mockStakeRepo := newStakeServiceMocks()
	mockUoW.On("Commit").Return(nil)

	service := NewStakeService(mockFactory)

	expected := []*models.Stake{
		{ID: 2, UserID: 7, Status: models.StakeStatusPending},
		{ID: 1, UserID: 7, Status: models.StakeStatusAccepted},
	}
	mockStakeRepo.On("GetByUser", ctx, int64(7)).Return(expected, nil)

	stakes, err := service.GetUserStakes(ctx, 7)

	assert.NoError(t, err)
	assert.Equal(t, expected, stakes)
}

func TestStakeService_CreateStake_CommitFailure(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, mockStakeRepo := newStakeServiceMocks()
	mockUoW.On("Commit").Return(errors.New("connection reset"))

	service := NewStakeService(mockFactory)

	user := &models.User{ID: 7, Coins: 100}
	mockUserRepo.On("GetByID", ctx, int64(7)).Return(user, nil)
	mockUserRepo.On("DeductCoins", ctx, int64(7), int64(30)).Return(nil)
	mockStakeRepo.On("Create", ctx, mock.Anything).Return(nil)

	stake, err := service.CreateStake(ctx, 7, 1001, "octocat/hello-world", 30, nil)

	assert.Nil(t, stake)
	assert.Error(t, err)
}
