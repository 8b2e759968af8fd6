package models

import (
	"time"
)

// Difficulty is the tier an issue is classified into from its label set
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// AnalyzedRepository is one repository from the aggregated set, annotated
// with the fields the scorer filters on
type AnalyzedRepository struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"fullName"`
	Description     string    `json:"description"`
	HTMLURL         string    `json:"htmlUrl"`
	Language        string    `json:"language"`
	StargazersCount int       `json:"stargazersCount"`
	ForksCount      int       `json:"forksCount"`
	OpenIssuesCount int       `json:"openIssuesCount"`
	Topics          []string  `json:"topics"`
	IsPrivate       bool      `json:"isPrivate"`
	IsFork          bool      `json:"isFork"`
	HasIssues       bool      `json:"hasIssues"`
	IsContributable bool      `json:"isContributable"`
	UpdatedAt       time.Time `json:"updatedAt"`
	PushedAt        time.Time `json:"pushedAt"`
}

// RepositorySummary is the slice of repository data attached to an opportunity
type RepositorySummary struct {
	Name            string `json:"name"`
	FullName        string `json:"fullName"`
	HTMLURL         string `json:"htmlUrl"`
	StargazersCount int    `json:"stargazersCount"`
	Language        string `json:"language"`
}

// IssueLabel is an upstream issue label
type IssueLabel struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Opportunity is a scored, stake-able issue candidate. It is derived from
// upstream label data on every scorer invocation and never persisted; only
// the underlying issue ID is stable across calls.
type Opportunity struct {
	ID              int64             `json:"id"`
	Number          int               `json:"number"`
	Title           string            `json:"title"`
	Body            string            `json:"body"`
	Repository      RepositorySummary `json:"repository"`
	Labels          []IssueLabel      `json:"labels"`
	Difficulty      Difficulty        `json:"difficulty"`
	Bounty          int64             `json:"bounty"`
	XPReward        int64             `json:"xpReward"`
	StakingRequired int64             `json:"stakingRequired"`
	HTMLURL         string            `json:"htmlUrl"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// RepositoryAnalysis is the full result of one aggregation + scoring pass
type RepositoryAnalysis struct {
	Repositories       []*AnalyzedRepository `json:"repositories"`
	ContributableRepos int                   `json:"contributableRepos"`
	TotalRepos         int                   `json:"totalRepos"`
	Languages          []string              `json:"languages"`
	SuggestedIssues    []*Opportunity        `json:"suggestedIssues"`
}
