package testutil

import (
	"stakeforge/models"
)

// CreateTestUser creates a contributor with default values
func CreateTestUser(githubUsername string) *models.User {
	return &models.User{
		Email:          githubUsername + "@example.com",
		PasswordHash:   "$2a$04$testhashtesthashtesthashtesthashtesthashtesthashtesA",
		Role:           models.RoleContributor,
		GitHubUsername: githubUsername,
		Coins:          100,
	}
}

// CreateTestUserWithCoins creates a contributor with a specific coin balance
func CreateTestUserWithCoins(githubUsername string, coins int64) *models.User {
	user := CreateTestUser(githubUsername)
	user.Coins = coins
	return user
}

// CreateTestCompany creates a company user keyed by email
func CreateTestCompany(email string) *models.User {
	return &models.User{
		Email:        email,
		PasswordHash: "$2a$04$testhashtesthashtesthashtesthashtesthashtesthashtesA",
		Role:         models.RoleCompany,
		Coins:        100,
	}
}

// CreateTestStake creates a pending stake for the given user
func CreateTestStake(userID int64, issueID int64, amount int64) *models.Stake {
	return &models.Stake{
		UserID:     userID,
		IssueID:    issueID,
		Repository: "octocat/hello-world",
		Amount:     amount,
		Status:     models.StakeStatusPending,
	}
}
