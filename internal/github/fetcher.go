package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"
)

// FetchedNote is one markdown file pulled from a notes repository.
type FetchedNote struct {
	Path    string // relative path within the notes directory
	Content string // raw markdown
	SHA     string // Git blob SHA
}

// Fetcher lists and downloads markdown notes from one repository directory.
type Fetcher struct {
	client   *Client
	owner    string
	repo     string
	basePath string
}

// NewFetcher creates a fetcher rooted at basePath in owner/repo. An empty
// basePath means the repository root.
func NewFetcher(client *Client, owner, repo, basePath string) *Fetcher {
	return &Fetcher{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: basePath,
	}
}

// ListNotes recursively lists all markdown files under the base path.
func (f *Fetcher) ListNotes(ctx context.Context) ([]string, error) {
	return f.listRecursive(ctx, f.basePath, "")
}

func (f *Fetcher) listRecursive(ctx context.Context, fullPath, relativePath string) ([]string, error) {
	var notes []string

	_, dirContents, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, nil)
	if err != nil {
		return nil, fmt.Errorf("list contents of %s: %w", fullPath, err)
	}

	for _, item := range dirContents {
		if item.Type == nil || item.Name == nil {
			continue
		}

		itemRelPath := path.Join(relativePath, *item.Name)

		switch *item.Type {
		case "file":
			if strings.HasSuffix(*item.Name, ".md") {
				notes = append(notes, itemRelPath)
			}
		case "dir":
			subNotes, err := f.listRecursive(ctx, path.Join(fullPath, *item.Name), itemRelPath)
			if err != nil {
				return nil, err
			}
			notes = append(notes, subNotes...)
		}
	}

	return notes, nil
}

// FetchNote downloads and decodes one markdown file.
func (f *Fetcher) FetchNote(ctx context.Context, relativePath string) (*FetchedNote, error) {
	fullPath := path.Join(f.basePath, relativePath)

	fileContent, _, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", fullPath, err)
	}
	if fileContent == nil {
		return nil, fmt.Errorf("no file content returned for %s", fullPath)
	}

	content, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return nil, fmt.Errorf("decode content of %s: %w", fullPath, err)
	}

	return &FetchedNote{
		Path:    relativePath,
		Content: string(content),
		SHA:     *fileContent.SHA,
	}, nil
}
