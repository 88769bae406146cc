// Package github imports markdown study notes from a GitHub repository.
package github

import (
	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// Client wraps the GitHub API client with automatic rate limit handling.
type Client struct {
	*github.Client
}

// NewClient creates a rate-limited GitHub client. A non-empty token
// authenticates the client for the higher request quota; anonymous access
// works for public notes repositories.
func NewClient(token string) (*Client, error) {
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, err
	}

	ghClient := github.NewClient(rateLimiter)
	if token != "" {
		ghClient = ghClient.WithAuthToken(token)
	}

	return &Client{Client: ghClient}, nil
}
