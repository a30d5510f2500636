package links

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

const placeholder = "%s"

// Resolution is the outcome of resolving a requested path.
// When Found is false, SuggestedName carries the name to offer for creation.
type Resolution struct {
	Found         bool
	Name          string
	Target        string
	SuggestedName string
}

// Resolver turns requested paths into redirect targets.
type Resolver struct {
	repo   Repository
	audit  AuditLog
	logger *zap.Logger
}

// NewResolver creates a resolver backed by repo.
func NewResolver(repo Repository, audit AuditLog, logger *zap.Logger) *Resolver {
	return &Resolver{
		repo:   repo,
		audit:  audit,
		logger: logger,
	}
}

// Resolve looks up rawName, falling back to shorter prefixes and carrying the
// removed segments as a suffix. A match counts as a visit. Only storage
// failures are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, rawName, rawQuery string) (*Resolution, error) {
	res, err := r.Preview(ctx, rawName, rawQuery)
	if err != nil || !res.Found {
		return res, err
	}

	r.recordVisit(ctx, res.Name, res.Target)

	return res, nil
}

// Preview resolves like Resolve without counting a visit.
func (r *Resolver) Preview(ctx context.Context, rawName, rawQuery string) (*Resolution, error) {
	name, suffix := rawName, ""

	link, err := r.lookup(ctx, name)
	if err != nil {
		return nil, err
	}

	for link == nil {
		idx := strings.LastIndex(name, "/")
		if idx < 0 {
			return &Resolution{SuggestedName: rawName}, nil
		}

		suffix = "/" + name[idx+1:] + suffix
		name = name[:idx]

		if link, err = r.lookup(ctx, name); err != nil {
			return nil, err
		}
	}

	return &Resolution{Found: true, Name: name, Target: Rewrite(link.URL, suffix, rawQuery)}, nil
}

// Rewrite builds the redirect target from a stored URL, the unmatched suffix
// and the incoming query string. An appended suffix never doubles the slash
// at the join.
func Rewrite(url, suffix, rawQuery string) string {
	target := url

	if strings.Contains(target, placeholder) {
		target = strings.Replace(target, placeholder, QuotePath(strings.TrimLeft(suffix, "/")), 1)
	} else {
		if strings.HasSuffix(target, "/") {
			suffix = strings.TrimPrefix(suffix, "/")
		}

		target += suffix
	}

	if rawQuery != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}

		target += sep + rawQuery
	}

	return target
}

// lookup tries the exact name, then its normalized form. A nil link with a
// nil error means neither exists.
func (r *Resolver) lookup(ctx context.Context, name string) (*Link, error) {
	link, err := r.repo.Get(ctx, name)
	if err == nil {
		return link, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	normalized := Normalize(name)
	if normalized == name || normalized == "" {
		return nil, nil
	}

	link, err = r.repo.Get(ctx, normalized)
	if err == nil {
		return link, nil
	}

	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}

	return nil, err
}

func (r *Resolver) recordVisit(ctx context.Context, name, target string) {
	if err := r.repo.IncrementCount(ctx, name); err != nil {
		r.logger.Error("failed to increment visit count",
			zap.String("name", name),
			zap.Error(err),
		)
	}

	if err := r.audit.Log(ctx, NewAuditEvent(EventRedirect, name, target)); err != nil {
		r.logger.Error("failed to log redirect",
			zap.String("name", name),
			zap.Error(err),
		)
	}
}
