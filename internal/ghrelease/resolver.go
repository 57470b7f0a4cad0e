package ghrelease

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/tsukumogami/setup-gh/internal/log"
	"github.com/tsukumogami/setup-gh/internal/spec"
)

// The GitHub CLI's release registry coordinates.
const (
	defaultOwner = "cli"
	defaultRepo  = "cli"
)

// listPageSize is the single page of recent releases consulted in latest
// mode. One page is enough: the registry returns newest first and a
// 100-entry window always contains the current maximum.
const listPageSize = 100

// Resolver resolves version requests against the GitHub releases API.
type Resolver struct {
	client        *github.Client
	owner         string
	repo          string
	authenticated bool
	logger        log.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBaseURL points the resolver at a different API endpoint.
// Used by tests to target an httptest server.
func WithBaseURL(url string) Option {
	return func(r *Resolver) {
		r.client, _ = github.NewClient(nil).WithEnterpriseURLs(url, url)
	}
}

// WithRepository overrides the owner/repo the resolver queries.
func WithRepository(owner, repo string) Option {
	return func(r *Resolver) {
		r.owner = owner
		r.repo = repo
	}
}

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(l log.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// New creates a resolver. A non-empty token enables authenticated
// requests, which raises the API rate limit considerably.
func New(token string, opts ...Option) *Resolver {
	var httpClient *http.Client
	authenticated := false
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
		authenticated = true
	}

	r := &Resolver{
		client:        github.NewClient(httpClient),
		owner:         defaultOwner,
		repo:          defaultRepo,
		authenticated: authenticated,
		logger:        log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve produces exactly one candidate release for the request.
// Stable asks the registry for its latest stable release; latest picks the
// maximum semantic version from one page of recent releases; exact fetches
// the release by tag.
func (r *Resolver) Resolve(ctx context.Context, s spec.Spec) (*Release, error) {
	switch {
	case s.IsStable():
		return r.resolveStable(ctx)
	case s.IsLatest():
		return r.resolveLatest(ctx)
	default:
		return r.resolveExact(ctx, s)
	}
}

func (r *Resolver) resolveStable(ctx context.Context) (*Release, error) {
	release, _, err := r.client.Repositories.GetLatestRelease(ctx, r.owner, r.repo)
	if err != nil {
		return nil, r.wrapAPIError(err, "failed to fetch latest stable release")
	}

	v, err := spec.Normalize(release.GetTagName())
	if err != nil {
		// The registry's own stable pointer must carry a valid version.
		return nil, &ResolverError{
			Type:    ErrTypeValidation,
			Message: fmt.Sprintf("stable release has malformed tag %q", release.GetTagName()),
			Err:     err,
		}
	}

	r.logger.Debug("resolved stable release", "tag", release.GetTagName(), "version", v.String())
	return &Release{Version: v, Assets: convertAssets(release.Assets)}, nil
}

func (r *Resolver) resolveLatest(ctx context.Context) (*Release, error) {
	releases, _, err := r.client.Repositories.ListReleases(ctx, r.owner, r.repo,
		&github.ListOptions{PerPage: listPageSize})
	if err != nil {
		return nil, r.wrapAPIError(err, "failed to list releases")
	}

	// Pick the maximum by semver precedence. Tags that do not normalize
	// are skipped silently: one junk tag must not fail the run, it only
	// shrinks the candidate set. Strict > keeps the first entry in
	// registry order when two tags normalize to the same version.
	var best *Release
	for _, rel := range releases {
		v, err := spec.Normalize(rel.GetTagName())
		if err != nil {
			r.logger.Warn("skipping release with malformed tag", "tag", rel.GetTagName())
			continue
		}
		if best == nil || v.GreaterThan(best.Version) {
			best = &Release{Version: v, Assets: convertAssets(rel.Assets)}
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w: no release among the %d most recent has a valid version tag",
			ErrNoMatchingRelease, len(releases))
	}

	r.logger.Debug("resolved latest release", "version", best.Version.String(),
		"candidates", len(releases))
	return best, nil
}

func (r *Resolver) resolveExact(ctx context.Context, s spec.Spec) (*Release, error) {
	tag, err := s.TagName()
	if err != nil {
		return nil, err
	}

	release, _, err := r.client.Repositories.GetReleaseByTag(ctx, r.owner, r.repo, tag)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: no release tagged %s", ErrNoMatchingRelease, tag)
		}
		return nil, r.wrapAPIError(err, fmt.Sprintf("failed to fetch release %s", tag))
	}

	v, err := s.Version()
	if err != nil {
		return nil, err
	}

	r.logger.Debug("resolved exact release", "tag", tag)
	return &Release{Version: v, Assets: convertAssets(release.Assets)}, nil
}

// wrapAPIError converts go-github errors into the resolver's error types,
// surfacing rate limit exhaustion with actionable detail.
func (r *Resolver) wrapAPIError(err error, message string) error {
	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			Limit:         rateLimitErr.Rate.Limit,
			Remaining:     rateLimitErr.Rate.Remaining,
			ResetTime:     rateLimitErr.Rate.Reset.Time,
			Authenticated: r.authenticated,
			Err:           err,
		}
	}

	errType := ErrTypeNetwork
	if isNotFound(err) {
		errType = ErrTypeNotFound
	}
	return &ResolverError{Type: errType, Message: message, Err: err}
}

// isNotFound reports whether err is an HTTP 404 from the registry.
func isNotFound(err error) bool {
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil &&
		ghErr.Response.StatusCode == http.StatusNotFound
}

func convertAssets(assets []*github.ReleaseAsset) []Asset {
	out := make([]Asset, 0, len(assets))
	for _, a := range assets {
		out = append(out, Asset{
			Name:        a.GetName(),
			DownloadURL: a.GetBrowserDownloadURL(),
		})
	}
	return out
}
