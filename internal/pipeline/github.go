package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

var prURLPattern = regexp.MustCompile(`https://[^\s]+/pull/\d+`)

// createPR opens a pull request for branch via the gh CLI and returns its
// URL, parsed from gh's stdout.
func (p *Pipeline) createPR(ctx context.Context, dir, branch, title, body string) (string, error) {
	res, err := p.gh(ctx, dir, "pr", "create",
		"--head", branch,
		"--title", title,
		"--body", body,
	)
	if err != nil {
		return "", err
	}
	if !res.Ok() {
		// gh reports an existing PR for the branch as an error; reuse it.
		if strings.Contains(res.Stderr, "already exists") {
			if url := prURLPattern.FindString(res.Stderr); url != "" {
				return url, nil
			}
		}
		return "", fmt.Errorf("pipeline: gh pr create: %s", res.FailureText())
	}
	if url := prURLPattern.FindString(res.Stdout); url != "" {
		return url, nil
	}
	return "", fmt.Errorf("pipeline: gh pr create: no PR URL in output %q", strings.TrimSpace(res.Stdout))
}

// prURLForBranch finds the URL of the open PR whose head is branch. It asks
// the gh CLI first and falls back to the GitHub API when a token is
// configured, so a feedback resolve can refresh a stale PR URL.
func (p *Pipeline) prURLForBranch(ctx context.Context, dir, repoURL, branch string) (string, error) {
	res, err := p.gh(ctx, dir, "pr", "view", branch, "--json", "url")
	if err == nil && res.Ok() {
		var payload struct {
			URL string `json:"url"`
		}
		if jsonErr := json.Unmarshal([]byte(res.Stdout), &payload); jsonErr == nil && payload.URL != "" {
			return payload.URL, nil
		}
	}

	if p.opts.GitHubToken == "" {
		return "", fmt.Errorf("pipeline: no PR found for branch %q", branch)
	}
	return p.prURLFromAPI(ctx, repoURL, branch)
}

// prURLFromAPI looks up the PR by head branch through the GitHub API.
func (p *Pipeline) prURLFromAPI(ctx context.Context, repoURL, branch string) (string, error) {
	owner, repo, err := parseGitHubRepo(repoURL)
	if err != nil {
		return "", err
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: p.opts.GitHubToken})
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	prs, _, err := client.PullRequests.List(ctx, owner, repo, &github.PullRequestListOptions{
		Head:  owner + ":" + branch,
		State: "all",
	})
	if err != nil {
		return "", fmt.Errorf("pipeline: list PRs for %s/%s: %w", owner, repo, err)
	}
	if len(prs) == 0 || prs[0].HTMLURL == nil {
		return "", fmt.Errorf("pipeline: no PR found for branch %q on %s/%s", branch, owner, repo)
	}
	return *prs[0].HTMLURL, nil
}

// parseGitHubRepo extracts owner and repo from https or ssh GitHub URLs.
func parseGitHubRepo(repoURL string) (owner, repo string, err error) {
	trimmed := strings.TrimSuffix(repoURL, ".git")
	for _, prefix := range []string{"git@github.com:", "https://github.com/", "http://github.com/", "ssh://git@github.com/"} {
		if rest, ok := strings.CutPrefix(trimmed, prefix); ok {
			parts := strings.SplitN(rest, "/", 2)
			if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
				return parts[0], parts[1], nil
			}
		}
	}
	return "", "", fmt.Errorf("pipeline: cannot parse GitHub repo from %q", repoURL)
}

// gh runs one gh CLI command through the injected runner.
func (p *Pipeline) gh(ctx context.Context, dir string, args ...string) (Result, error) {
	return p.runner.Run(ctx, Spec{
		Name:    p.opts.GhBinary,
		Args:    args,
		Dir:     dir,
		Timeout: p.opts.ToolTimeout,
	})
}
