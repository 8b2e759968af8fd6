package models

import (
	"time"
)

// Role determines which credentials identify a user at registration/login
type Role string

const (
	RoleContributor Role = "contributor"
	RoleMaintainer  Role = "maintainer"
	RoleCompany     Role = "company"
)

// GitHubInfoVersion is the current snapshot schema version
const GitHubInfoVersion = 1

// GitHubInfo is a versioned snapshot of a user's upstream GitHub profile.
// Defaults are resolved once when the snapshot is written, never at read time.
type GitHubInfo struct {
	Version         int    `json:"version"`
	Name            string `json:"name"`
	Bio             string `json:"bio"`
	Location        string `json:"location"`
	Company         string `json:"company"`
	AvatarURL       string `json:"avatar_url"`
	HTMLURL         string `json:"html_url"`
	Blog            string `json:"blog"`
	TwitterUsername string `json:"twitter_username"`
	PublicRepos     int    `json:"public_repos"`
	Followers       int    `json:"followers"`
	Following       int    `json:"following"`
}

// DefaultGitHubInfo returns a snapshot populated from nothing but the username
func DefaultGitHubInfo(username string) *GitHubInfo {
	return &GitHubInfo{
		Version:   GitHubInfoVersion,
		Name:      username,
		AvatarURL: "https://github.com/" + username + ".png",
		HTMLURL:   "https://github.com/" + username,
	}
}

// User represents a platform user with a coin and XP balance
type User struct {
	ID             int64       `db:"id" json:"id"`
	Email          string      `db:"email" json:"email"`
	PasswordHash   string      `db:"password_hash" json:"-"`
	Role           Role        `db:"role" json:"role"`
	GitHubUsername string      `db:"github_username" json:"githubUsername,omitempty"`
	AccessToken    string      `db:"access_token" json:"-"`
	GitHubInfo     *GitHubInfo `db:"github_info" json:"githubInfo,omitempty"`
	Coins          int64       `db:"coins" json:"coins"`
	XP             int64       `db:"xp" json:"xp"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updatedAt"`
}

// HasGitHubAccess reports whether the user can call the source-hosting API
func (u *User) HasGitHubAccess() bool {
	return u.AccessToken != "" && u.GitHubUsername != ""
}
