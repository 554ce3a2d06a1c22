package cache

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// NeedsRefresh reports whether a cached ontology at version cached should be
// replaced to satisfy wanted. An empty wanted version accepts anything.
// Versions that are not semantic versions are compared as plain strings.
func NeedsRefresh(cached, wanted string) bool {
	cached, wanted = strings.TrimSpace(cached), strings.TrimSpace(wanted)
	if wanted == "" {
		return false
	}
	if cached == "" {
		return true
	}

	cv, cerr := semver.NewVersion(cached)
	wv, werr := semver.NewVersion(wanted)
	if cerr != nil || werr != nil {
		return cached != wanted
	}
	return wv.GreaterThan(cv)
}
