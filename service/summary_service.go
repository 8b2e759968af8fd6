package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const summaryModel = "gemini-2.0-flash"

// repoURLPattern extracts owner/repo from a github.com repository URL
var repoURLPattern = regexp.MustCompile(`github\.com/([^/\s]+)/([^/\s?#]+)`)

// summaryService implements the SummaryService interface
type summaryService struct {
	githubClient GitHubClient
	githubToken  string
	genaiClient  *genai.Client
}

// NewSummaryService creates a new LLM summarization service. githubToken is
// the server-level token for descriptor fetches; empty means anonymous calls
// against public repositories.
func NewSummaryService(githubClient GitHubClient, githubToken, apiKey string) (SummaryService, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &summaryService{
		githubClient: githubClient,
		githubToken:  githubToken,
		genaiClient:  client,
	}, nil
}

// GenerateContext fetches descriptors for the given repository URLs and asks
// the model for a contributor-facing summary in a single call. The upstream
// descriptor fetches degrade individually; the model call does not.
func (s *summaryService) GenerateContext(ctx context.Context, repoURLs []string) (string, error) {
	if len(repoURLs) == 0 {
		return "", fmt.Errorf("at least one repository URL is required: %w", ErrInvalidArgument)
	}

	var descriptors []string
	for _, url := range repoURLs {
		owner, name, ok := parseRepoURL(url)
		if !ok {
			log.WithField("url", url).Warn("Skipping unparseable repository URL")
			continue
		}

		repo, err := s.githubClient.GetRepo(ctx, s.githubToken, owner, name)
		if err != nil {
			log.WithFields(log.Fields{
				"repository": owner + "/" + name,
				"error":      err,
			}).Warn("Failed to fetch repository descriptor, skipping")
			continue
		}

		descriptors = append(descriptors, fmt.Sprintf(
			"- %s: %s (language: %s, stars: %d, open issues: %d, url: %s)",
			repo.FullName, repo.Description, repo.Language,
			repo.StargazersCount, repo.OpenIssuesCount, repo.HTMLURL,
		))
	}

	if len(descriptors) == 0 {
		return "", fmt.Errorf("no repository descriptors could be fetched: %w", ErrUpstreamUnavailable)
	}

	prompt := fmt.Sprintf(
		`Summarize the following open source repositories for a contributor deciding where to contribute. For each repository describe what it does, the technology involved, and what kind of contributions would be valuable. Be concise.

Repositories:
%s`,
		strings.Join(descriptors, "\n"),
	)

	resp, err := s.genaiClient.Models.GenerateContent(ctx, summaryModel, genai.Text(prompt), nil)
	if err != nil {
		log.WithField("error", err).Error("Gemini summary call failed")
		return "", fmt.Errorf("failed to generate summary: %w", ErrUpstreamUnavailable)
	}

	return strings.TrimSpace(resp.Text()), nil
}

func parseRepoURL(url string) (owner, name string, ok bool) {
	m := repoURLPattern.FindStringSubmatch(url)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSuffix(m[2], ".git"), true
}
