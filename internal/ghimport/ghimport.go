// Package ghimport pulls open GitHub issues into a project's backlog as
// user stories. Imports are idempotent: an issue already referenced by an
// existing story is skipped on subsequent runs.
package ghimport

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/sprintwell/sprintwell/internal/apperr"
	"github.com/sprintwell/sprintwell/internal/models"
)

// Storage is the persistence surface the importer needs.
type Storage interface {
	ProjectByID(id string) (*models.Project, error)
	StoriesByProject(projectID string) ([]models.UserStory, error)
	CreateStory(st *models.UserStory) error
}

// issueLister abstracts the GitHub issues API, enabling test mocks.
type issueLister interface {
	ListByRepo(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error)
}

// Importer reads open issues from one repository and files them as
// BACKLOG stories.
type Importer struct {
	store  Storage
	issues issueLister
}

// New creates an Importer. An empty token uses unauthenticated requests,
// which is enough for public repositories.
func New(store Storage, token string) *Importer {
	var client *github.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = github.NewClient(oauth2.NewClient(context.Background(), ts))
	} else {
		client = github.NewClient(nil)
	}
	return &Importer{store: store, issues: client.Issues}
}

// Result summarizes one import run.
type Result struct {
	Imported []models.UserStory
	Skipped  int
}

// Run imports all open issues from owner/repo into the given project.
// Pull requests and already-imported issues are skipped.
func (im *Importer) Run(ctx context.Context, projectID, owner, repo string) (*Result, error) {
	project, err := im.store.ProjectByID(projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperr.NotFound("project", projectID)
	}

	existing, err := im.store.StoriesByProject(projectID)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, st := range existing {
		if ref := issueRef(st.Description); ref != "" {
			seen[ref] = true
		}
	}

	result := &Result{}
	opts := &github.IssueListByRepoOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		issues, resp, err := im.issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("ghimport: list %s/%s issues: %w", owner, repo, err)
		}
		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			ref := issue.GetHTMLURL()
			if seen[ref] {
				result.Skipped++
				continue
			}
			story := storyFromIssue(projectID, issue)
			if err := im.store.CreateStory(story); err != nil {
				return nil, err
			}
			seen[ref] = true
			result.Imported = append(result.Imported, *story)
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return result, nil
}

const refPrefix = "Imported from "

// storyFromIssue maps a GitHub issue onto a backlog story. Story points are
// taken from a "points:N" label when present.
func storyFromIssue(projectID string, issue *github.Issue) *models.UserStory {
	desc := issue.GetBody()
	if desc != "" {
		desc += "\n\n"
	}
	desc += refPrefix + issue.GetHTMLURL()

	return &models.UserStory{
		Title:       issue.GetTitle(),
		Description: desc,
		Status:      models.StoryBacklog,
		Points:      pointsFromLabels(issue.Labels),
		ProjectID:   projectID,
	}
}

// pointsFromLabels reads the first "points:N" label, zero if none parses.
func pointsFromLabels(labels []*github.Label) float64 {
	for _, l := range labels {
		name := l.GetName()
		if !strings.HasPrefix(name, "points:") {
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimPrefix(name, "points:"), 64); err == nil && v >= 0 {
			return v
		}
	}
	return 0
}

// issueRef extracts the import marker URL from a story description.
func issueRef(description string) string {
	idx := strings.LastIndex(description, refPrefix)
	if idx < 0 {
		return ""
	}
	ref := description[idx+len(refPrefix):]
	if nl := strings.IndexByte(ref, '\n'); nl >= 0 {
		ref = ref[:nl]
	}
	return strings.TrimSpace(ref)
}
