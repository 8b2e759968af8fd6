package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"stakeforge/github"
	"stakeforge/models"

	log "github.com/sirupsen/logrus"
)

const (
	// MaxReposToScan caps how many contributable repositories the scorer
	// fetches issues for on a single analysis pass
	MaxReposToScan = 5

	// IssuesPerRepo caps how many open issues are pulled per repository
	IssuesPerRepo = 5

	// contributionLabels is the label filter sent to the issues endpoint
	contributionLabels = "good first issue,help wanted"
)

// difficultyTier holds the reward policy for one difficulty class
type difficultyTier struct {
	difficulty models.Difficulty
	bounty     int64
	xpReward   int64
	staking    int64
}

// difficultyTiers is checked in order; the first label-substring match wins.
// The beginner tier is the fallthrough for unlabelled difficulty.
var difficultyTiers = []struct {
	substrings []string
	tier       difficultyTier
}{
	{[]string{"advanced", "hard"}, difficultyTier{models.DifficultyAdvanced, 200, 500, 50}},
	{[]string{"medium", "intermediate"}, difficultyTier{models.DifficultyIntermediate, 100, 250, 25}},
}

var beginnerTier = difficultyTier{models.DifficultyBeginner, 50, 100, 10}

// analysisService implements the AnalysisService interface
type analysisService struct {
	githubClient GitHubClient
}

// NewAnalysisService creates a new repository analysis service
func NewAnalysisService(githubClient GitHubClient) AnalysisService {
	return &analysisService{
		githubClient: githubClient,
	}
}

// AnalyzeRepositories aggregates every repository the user can reach and
// scores stake-able issue candidates. Upstream sub-fetches degrade to
// partial results; only a missing or rejected token fails the pass as a
// whole.
func (s *analysisService) AnalyzeRepositories(ctx context.Context, user *models.User) (*models.RepositoryAnalysis, error) {
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.HasGitHubAccess() {
		return nil, ErrGitHubAuthRequired
	}

	repos, err := s.aggregateRepositories(ctx, user)
	if err != nil {
		return nil, err
	}

	analyzed := make([]*models.AnalyzedRepository, 0, len(repos))
	languageSet := make(map[string]struct{})
	contributable := 0

	for _, repo := range repos {
		ar := analyzeRepository(repo)
		analyzed = append(analyzed, ar)
		if ar.IsContributable {
			contributable++
		}
		if ar.Language != "" {
			languageSet[ar.Language] = struct{}{}
		}
	}

	languages := make([]string, 0, len(languageSet))
	for lang := range languageSet {
		languages = append(languages, lang)
	}
	sort.Strings(languages)

	suggested := s.scoreOpportunities(ctx, user.AccessToken, analyzed)

	log.WithFields(log.Fields{
		"userID":        user.ID,
		"totalRepos":    len(analyzed),
		"contributable": contributable,
		"suggested":     len(suggested),
	}).Info("Repository analysis complete")

	return &models.RepositoryAnalysis{
		Repositories:       analyzed,
		ContributableRepos: contributable,
		TotalRepos:         len(analyzed),
		Languages:          languages,
		SuggestedIssues:    suggested,
	}, nil
}

// aggregateRepositories unions personal and organization repositories,
// deduplicated by repository ID with the first-seen entry winning. A
// rejected token aborts the pass; any other upstream failure degrades to
// whichever listings still succeed.
func (s *analysisService) aggregateRepositories(ctx context.Context, user *models.User) ([]*github.Repository, error) {
	personal, err := s.githubClient.ListPersonalRepos(ctx, user.AccessToken)
	if err != nil {
		if isCredentialRejected(err) {
			return nil, fmt.Errorf("github rejected access token: %w", ErrGitHubAuthRequired)
		}
		log.WithFields(log.Fields{
			"userID":      user.ID,
			"rateLimited": isRateLimited(err),
			"error":       err,
		}).Warn("Failed to list personal repositories, continuing with organizations")
		personal = nil
	}

	seen := make(map[int64]struct{}, len(personal))
	repos := make([]*github.Repository, 0, len(personal))
	for _, repo := range personal {
		if _, ok := seen[repo.ID]; ok {
			continue
		}
		seen[repo.ID] = struct{}{}
		repos = append(repos, repo)
	}

	orgs, err := s.githubClient.ListOrgs(ctx, user.AccessToken)
	if err != nil {
		log.WithFields(log.Fields{
			"userID":      user.ID,
			"rateLimited": isRateLimited(err),
			"error":       err,
		}).Warn("Failed to list organizations, continuing with personal repositories")
		return repos, nil
	}

	for _, org := range orgs {
		orgRepos, err := s.githubClient.ListOrgRepos(ctx, user.AccessToken, org.Login)
		if err != nil {
			log.WithFields(log.Fields{
				"userID": user.ID,
				"org":    org.Login,
				"error":  err,
			}).Warn("Failed to list organization repositories, skipping")
			continue
		}
		for _, repo := range orgRepos {
			if _, ok := seen[repo.ID]; ok {
				continue
			}
			seen[repo.ID] = struct{}{}
			repos = append(repos, repo)
		}
	}

	return repos, nil
}

// scoreOpportunities walks the first MaxReposToScan contributable,
// non-fork repositories in aggregation order and turns their open
// contribution-labelled issues into scored opportunities.
func (s *analysisService) scoreOpportunities(ctx context.Context, token string, repos []*models.AnalyzedRepository) []*models.Opportunity {
	opportunities := make([]*models.Opportunity, 0)
	scanned := 0

	for _, repo := range repos {
		if scanned >= MaxReposToScan {
			break
		}
		if !repo.IsContributable || repo.IsFork {
			continue
		}
		scanned++

		issues, err := s.githubClient.ListIssues(ctx, token, repo.FullName, contributionLabels, IssuesPerRepo)
		if err != nil {
			log.WithFields(log.Fields{
				"repository":  repo.FullName,
				"rateLimited": isRateLimited(err),
				"error":       err,
			}).Warn("Failed to fetch issues, skipping repository")
			continue
		}

		summary := models.RepositorySummary{
			Name:            repo.Name,
			FullName:        repo.FullName,
			HTMLURL:         repo.HTMLURL,
			StargazersCount: repo.StargazersCount,
			Language:        repo.Language,
		}

		for _, issue := range issues {
			// The issues endpoint also returns pull requests
			if issue.IsPullRequest() {
				continue
			}
			opportunities = append(opportunities, scoreIssue(issue, summary))
		}
	}

	return opportunities
}

// analyzeRepository annotates one upstream repository with the flags the
// scorer filters on
func analyzeRepository(repo *github.Repository) *models.AnalyzedRepository {
	return &models.AnalyzedRepository{
		ID:              repo.ID,
		Name:            repo.Name,
		FullName:        repo.FullName,
		Description:     repo.Description,
		HTMLURL:         repo.HTMLURL,
		Language:        repo.Language,
		StargazersCount: repo.StargazersCount,
		ForksCount:      repo.ForksCount,
		OpenIssuesCount: repo.OpenIssuesCount,
		Topics:          repo.Topics,
		IsPrivate:       repo.Private,
		IsFork:          repo.Fork,
		HasIssues:       repo.HasIssues,
		IsContributable: !repo.Archived && repo.HasIssues && repo.OpenIssuesCount > 0,
		UpdatedAt:       repo.UpdatedAt,
		PushedAt:        repo.PushedAt,
	}
}

// scoreIssue classifies an issue into a difficulty tier from its labels and
// attaches the tier's reward policy
func scoreIssue(issue *github.Issue, repo models.RepositorySummary) *models.Opportunity {
	tier := classifyDifficulty(issue.Labels)

	labels := make([]models.IssueLabel, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, models.IssueLabel{Name: l.Name, Color: l.Color})
	}

	return &models.Opportunity{
		ID:              issue.ID,
		Number:          issue.Number,
		Title:           issue.Title,
		Body:            issue.Body,
		Repository:      repo,
		Labels:          labels,
		Difficulty:      tier.difficulty,
		Bounty:          tier.bounty,
		XPReward:        tier.xpReward,
		StakingRequired: tier.staking,
		HTMLURL:         issue.HTMLURL,
		CreatedAt:       issue.CreatedAt,
	}
}

// isCredentialRejected reports whether an upstream failure means the stored
// access token is no longer valid
func isCredentialRejected(err error) bool {
	var apiErr *github.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// isRateLimited reports whether an upstream failure is a rate-limit rejection
func isRateLimited(err error) bool {
	var apiErr *github.APIError
	return errors.As(err, &apiErr) && apiErr.IsRateLimited()
}

// classifyDifficulty matches label names case-insensitively against the tier
// substrings, hardest tier first
func classifyDifficulty(labels []github.Label) difficultyTier {
	for _, candidate := range difficultyTiers {
		for _, label := range labels {
			name := strings.ToLower(label.Name)
			for _, sub := range candidate.substrings {
				if strings.Contains(name, sub) {
					return candidate.tier
				}
			}
		}
	}
	return beginnerTier
}
