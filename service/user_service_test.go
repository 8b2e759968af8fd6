package service

import (
	"context"
	"errors"
	"testing"

	"stakeforge/events"
	"stakeforge/github"
	"stakeforge/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

func newUserServiceMocks() (*MockUnitOfWork, *MockUnitOfWorkFactory, *MockUserRepository, *MockGitHubClient) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockGH := new(MockGitHubClient)

	mockUoW.SetRepositories(mockUserRepo, new(MockStakeRepository))
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	return mockUoW, mockFactory, mockUserRepo, mockGH
}

func TestUserService_Register_Contributor(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, mockGH := newUserServiceMocks()

	service := NewUserService(mockFactory, mockGH, 100)

	mockUserRepo.On("GetByGitHubUsernameAndRole", ctx, "octocat", models.RoleContributor).Return(nil, nil)
	mockUserRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Role == models.RoleContributor &&
			u.GitHubUsername == "octocat" &&
			u.Coins == 100 &&
			u.PasswordHash != "" &&
			u.PasswordHash != "hunter2"
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = 7
	})

	user, err := service.Register(ctx, "octo@example.com", "hunter2", models.RoleContributor, "octocat")

	assert.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, int64(100), user.Coins)

	published := mockUoW.PublishedEvents()
	assert.Len(t, published, 1)
	created, ok := published[0].(events.UserCreatedEvent)
	assert.True(t, ok)
	assert.Equal(t, int64(100), created.StartingCoins)

	mockUserRepo.AssertExpectations(t)
}

func TestUserService_Register_DuplicateIdentity(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, mockUserRepo, mockGH := newUserServiceMocks()

	service := NewUserService(mockFactory, mockGH, 100)

	existing := &models.User{ID: 1, Role: models.RoleCompany, Email: "dev@acme.com"}
	mockUserRepo.On("GetByEmailAndRole", ctx, "dev@acme.com", models.RoleCompany).Return(existing, nil)

	user, err := service.Register(ctx, "Dev@Acme.com", "hunter2", models.RoleCompany, "")

	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrUserExists)
	mockUserRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserService_Register_MissingIdentity(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, _, mockGH := newUserServiceMocks()

	service := NewUserService(mockFactory, mockGH, 100)

	_, err := service.Register(ctx, "", "hunter2", models.RoleCompany, "")
	assert.Error(t, err)

	_, err = service.Register(ctx, "a@b.c", "hunter2", models.RoleContributor, "")
	assert.Error(t, err)

	_, err = service.Register(ctx, "a@b.c", "hunter2", models.Role("admin"), "x")
	assert.Error(t, err)
}

func TestUserService_Authenticate(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, mockUserRepo, mockGH := newUserServiceMocks()

	service := NewUserService(mockFactory, mockGH, 100)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	assert.NoError(t, err)

	stored := &models.User{ID: 7, Role: models.RoleContributor, GitHubUsername: "octocat", PasswordHash: string(hash)}
	mockUserRepo.On("GetByGitHubUsernameAndRole", ctx, "octocat", models.RoleContributor).Return(stored, nil)

	user, err := service.Authenticate(ctx, "", "hunter2", models.RoleContributor, "octocat")
	assert.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)

	user, err = service.Authenticate(ctx, "", "wrong", models.RoleContributor, "octocat")
	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_Authenticate_UnknownUser(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, mockUserRepo, mockGH := newUserServiceMocks()

	service := NewUserService(mockFactory, mockGH, 100)

	mockUserRepo.On("GetByGitHubUsernameAndRole", ctx, "ghost", models.RoleContributor).Return(nil, nil)

	user, err := service.Authenticate(ctx, "", "hunter2", models.RoleContributor, "ghost")
	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_GetProfile_RefreshOnMiss(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, mockUserRepo, mockGH := newUserServiceMocks()

	service := NewUserService(mockFactory, mockGH, 100)

	stored := &models.User{
		ID:             7,
		Role:           models.RoleContributor,
		GitHubUsername: "octocat",
		AccessToken:    "tok",
	}
	mockUserRepo.On("GetByID", ctx, int64(7)).Return(stored, nil)
	mockGH.On("GetUser", ctx, "tok", "octocat").Return(&github.UserProfile{
		Login:     "octocat",
		Name:      "The Octocat",
		Followers: 4242,
	}, nil)
	mockUserRepo.On("UpdateGitHubInfo", ctx, int64(7), mock.MatchedBy(func(info *models.GitHubInfo) bool {
		return info.Version == models.GitHubInfoVersion &&
			info.Name == "The Octocat" &&
			info.Followers == 4242
	})).Return(nil)

	user, err := service.GetProfile(ctx, 7)

	assert.NoError(t, err)
	assert.NotNil(t, user.GitHubInfo)
	assert.Equal(t, "The Octocat", user.GitHubInfo.Name)
	mockUserRepo.AssertExpectations(t)
	mockGH.AssertExpectations(t)
}

func TestUserService_GetProfile_UpstreamFailureStoresDefaults(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, mockUserRepo, mockGH := newUserServiceMocks()

	service := NewUserService(mockFactory, mockGH, 100)

	stored := &models.User{
		ID:             7,
		Role:           models.RoleContributor,
		GitHubUsername: "octocat",
		AccessToken:    "tok",
	}
	mockUserRepo.On("GetByID", ctx, int64(7)).Return(stored, nil)
	mockGH.On("GetUser", ctx, "tok", "octocat").Return(nil, errors.New("502 bad gateway"))
	mockUserRepo.On("UpdateGitHubInfo", ctx, int64(7), mock.MatchedBy(func(info *models.GitHubInfo) bool {
		return info.Name == "octocat" && info.HTMLURL == "https://github.com/octocat"
	})).Return(nil)

	user, err := service.GetProfile(ctx, 7)

	assert.NoError(t, err)
	assert.NotNil(t, user.GitHubInfo)
	assert.Equal(t, "octocat", user.GitHubInfo.Name)
}

func TestUserService_GetProfile_SnapshotAlreadyStored(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, mockUserRepo, mockGH := newUserServiceMocks()

	service := NewUserService(mockFactory, mockGH, 100)

	stored := &models.User{
		ID:             7,
		GitHubUsername: "octocat",
		AccessToken:    "tok",
		GitHubInfo:     &models.GitHubInfo{Version: models.GitHubInfoVersion, Name: "cached"},
	}
	mockUserRepo.On("GetByID", ctx, int64(7)).Return(stored, nil)

	user, err := service.GetProfile(ctx, 7)

	assert.NoError(t, err)
	assert.Equal(t, "cached", user.GitHubInfo.Name)
	mockGH.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything, mock.Anything)
	mockUserRepo.AssertNotCalled(t, "UpdateGitHubInfo", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_ConnectGitHub(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, mockUserRepo, mockGH := newUserServiceMocks()

	service := NewUserService(mockFactory, mockGH, 100)

	stored := &models.User{ID: 7, Role: models.RoleContributor, GitHubUsername: "octocat"}
	mockUserRepo.On("GetByID", ctx, int64(7)).Return(stored, nil)
	mockGH.On("GetUser", ctx, "new-tok", "octocat").Return(&github.UserProfile{
		Login: "octocat",
		Name:  "The Octocat",
	}, nil)
	mockUserRepo.On("UpdateAccessToken", ctx, int64(7), "new-tok").Return(nil)
	mockUserRepo.On("UpdateGitHubInfo", ctx, int64(7), mock.MatchedBy(func(info *models.GitHubInfo) bool {
		return info.Name == "The Octocat"
	})).Return(nil)

	err := service.ConnectGitHub(ctx, 7, "new-tok")

	assert.NoError(t, err)
	mockUserRepo.AssertExpectations(t)
	mockGH.AssertExpectations(t)
}

func TestUserService_ConnectGitHub_RejectedToken(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, mockUserRepo, mockGH := newUserServiceMocks()

	service := NewUserService(mockFactory, mockGH, 100)

	stored := &models.User{ID: 7, Role: models.RoleContributor, GitHubUsername: "octocat"}
	mockUserRepo.On("GetByID", ctx, int64(7)).Return(stored, nil)
	mockGH.On("GetUser", ctx, "bad-tok", "octocat").Return(nil, &github.APIError{StatusCode: 401, Body: "bad credentials"})

	err := service.ConnectGitHub(ctx, 7, "bad-tok")

	assert.ErrorIs(t, err, ErrGitHubAuthRequired)
	mockUserRepo.AssertNotCalled(t, "UpdateAccessToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_ConnectGitHub_Invalid(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, mockUserRepo, mockGH := newUserServiceMocks()

	service := NewUserService(mockFactory, mockGH, 100)

	err := service.ConnectGitHub(ctx, 7, "   ")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// Company accounts carry no github identity to verify against
	company := &models.User{ID: 8, Role: models.RoleCompany, Email: "dev@acme.com"}
	mockUserRepo.On("GetByID", ctx, int64(8)).Return(company, nil)

	err = service.ConnectGitHub(ctx, 8, "tok")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	mockGH.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_GetUser_NotFound(t *testing.T) {
	ctx := context.Background()
	_, mockFactory, mockUserRepo, mockGH := newUserServiceMocks()

	service := NewUserService(mockFactory, mockGH, 100)

	mockUserRepo.On("GetByID", ctx, int64(99)).Return(nil, nil)

	user, err := service.GetUser(ctx, 99)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
