package github

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"repopolicy/internal/tool"
)

type AuthTokenSource string

const (
	AuthTokenSourceExplicit AuthTokenSource = "explicit"
	AuthTokenSourceEnv      AuthTokenSource = "env:GITHUB_TOKEN"
	AuthTokenSourceGitHubCL AuthTokenSource = "gh"
)

// ghTimeout bounds `gh auth token` so a broken credential helper cannot hang a check.
const ghTimeout = 5 * time.Second

// ResolveAuthToken resolves a GitHub access token.
//
// Precedence:
//  1. provided (if non-empty)
//  2. GITHUB_TOKEN env var
//  3. GitHub CLI: `gh auth token -h github.com`, run through inv
//
// An empty token with a nil error means none was found. It never logs the token.
func ResolveAuthToken(ctx context.Context, inv *tool.Invoker, provided string) (token string, source AuthTokenSource, err error) {
	if tok := strings.TrimSpace(provided); tok != "" {
		return tok, AuthTokenSourceExplicit, nil
	}

	if env := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); env != "" {
		return env, AuthTokenSourceEnv, nil
	}

	tok, ok, err := tokenFromGitHubCLI(ctx, inv)
	if err != nil {
		return "", "", err
	}
	if ok {
		return tok, AuthTokenSourceGitHubCL, nil
	}
	return "", "", nil
}

func tokenFromGitHubCLI(ctx context.Context, inv *tool.Invoker) (token string, ok bool, err error) {
	if inv == nil {
		inv = tool.NewInvoker(nil, nil)
	}
	res, err := inv.Invoke(ctx, tool.Request{
		Binary:  "gh",
		Args:    []string{"auth", "token", "-h", "github.com"},
		Timeout: ghTimeout,
		Env:     []string{"GH_PAGER=cat"},
	})
	switch {
	case ctx.Err() != nil:
		return "", false, ctx.Err()
	case err != nil:
		// gh missing or hung: treat as "no token".
		return "", false, nil
	case res.ExitCode != 0:
		// gh present but not logged in. Its output is not surfaced.
		return "", false, nil
	}

	tok := strings.TrimSpace(res.Stdout)
	if tok == "" {
		return "", false, nil
	}

	// Basic sanity: tokens must not contain whitespace.
	if strings.ContainsAny(tok, " \t\n\r") {
		return "", false, errors.New("invalid token returned by gh: contains whitespace")
	}

	return tok, true, nil
}
