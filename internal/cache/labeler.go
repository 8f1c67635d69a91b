package cache

import (
	"context"
	"log/slog"

	"github.com/rohankatakam/relfinder/internal/graph"
)

// StringStore is the subset of Client used by CachingLabeler
type StringStore interface {
	GetStrings(ctx context.Context, keys []string) (map[string]string, error)
	SetStrings(ctx context.Context, values map[string]string) error
}

// noValue is cached for resources that have no label or type, so they are
// not queried again until the entry expires
const noValue = ""

// CachingLabeler serves labels and types from a StringStore and asks next
// only for misses. Store failures fall through to next.
type CachingLabeler struct {
	next   graph.Labeler
	store  StringStore
	logger *slog.Logger
}

// NewCachingLabeler wraps next with store
func NewCachingLabeler(next graph.Labeler, store StringStore) *CachingLabeler {
	return &CachingLabeler{
		next:   next,
		store:  store,
		logger: slog.Default().With("component", "label_cache"),
	}
}

// LabelsFor implements graph.Labeler
func (l *CachingLabeler) LabelsFor(ctx context.Context, iris []string) (map[string]string, error) {
	return l.lookup(ctx, "label", iris, l.next.LabelsFor)
}

// TypesFor implements graph.Labeler
func (l *CachingLabeler) TypesFor(ctx context.Context, iris []string) (map[string]string, error) {
	return l.lookup(ctx, "type", iris, l.next.TypesFor)
}

func (l *CachingLabeler) lookup(
	ctx context.Context,
	kind string,
	iris []string,
	fetch func(context.Context, []string) (map[string]string, error),
) (map[string]string, error) {
	keys := make([]string, len(iris))
	for i, iri := range iris {
		keys[i] = CacheKey(kind, iri)
	}

	out := make(map[string]string, len(iris))
	cached, err := l.store.GetStrings(ctx, keys)
	if err != nil {
		l.logger.Warn("label cache unavailable, querying store", "kind", kind, "error", err)
		cached = nil
	}

	var misses []string
	for i, iri := range iris {
		if v, ok := cached[keys[i]]; ok {
			if v != noValue {
				out[iri] = v
			}
			continue
		}
		misses = append(misses, iri)
	}

	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := fetch(ctx, misses)
	if err != nil {
		return nil, err
	}

	toStore := make(map[string]string, len(misses))
	for _, iri := range misses {
		v, ok := fetched[iri]
		if !ok || v == noValue {
			toStore[CacheKey(kind, iri)] = noValue
			continue
		}
		out[iri] = v
		toStore[CacheKey(kind, iri)] = v
	}

	if err := l.store.SetStrings(ctx, toStore); err != nil {
		l.logger.Warn("failed to populate label cache", "kind", kind, "error", err)
	}

	l.logger.Debug("label lookup",
		"kind", kind,
		"requested", len(iris),
		"hits", len(iris)-len(misses),
		"fetched", len(fetched))

	return out, nil
}
