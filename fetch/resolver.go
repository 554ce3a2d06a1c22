// Package fetch resolves ontology acronyms to download locations and loads
// ontology sources from local paths or remote URLs.
package fetch

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/internal/httpclient"
	"github.com/teranos/ontomap/logger"
)

// OBOPurlBase is the fallback download location for OBO Foundry ontologies
const OBOPurlBase = "http://purl.obolibrary.org/obo/"

// Resource is the subset of a bioregistry record used for downloads
type Resource struct {
	Prefix      string `json:"prefix"`
	Name        string `json:"name"`
	DownloadOWL string `json:"download_owl"`
	DownloadOBO string `json:"download_obo"`
	DownloadRDF string `json:"download_rdf"`
}

// DownloadURL returns the preferred download link: OWL, then OBO, then RDF
func (r *Resource) DownloadURL() string {
	for _, u := range []string{r.DownloadOWL, r.DownloadOBO, r.DownloadRDF} {
		if u != "" {
			return u
		}
	}
	return ""
}

// Resolver looks up ontology prefixes in the bioregistry
type Resolver struct {
	baseURL   string
	requester *httpclient.Requester
	logger    *zap.SugaredLogger
}

// NewResolver creates a resolver against a bioregistry API base such as https://bioregistry.io/api
func NewResolver(baseURL string, requester *httpclient.Requester) *Resolver {
	return &Resolver{
		baseURL:   strings.TrimRight(baseURL, "/"),
		requester: requester,
		logger:    logger.ComponentLogger("resolver"),
	}
}

// Lookup fetches the bioregistry record for prefix.
// Unknown prefixes return errors.ErrNotFound.
func (r *Resolver) Lookup(ctx context.Context, prefix string) (*Resource, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil, errors.NewInvalidRequestError("empty ontology acronym")
	}

	var res Resource
	err := r.requester.GetJSON(ctx, r.baseURL+"/registry/"+url.PathEscape(prefix), nil, &res)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, errors.WithHint(
				errors.NewNotFoundError("ontology %q is not in the bioregistry", prefix),
				"pass a file path or URL instead of an acronym",
			)
		}
		return nil, errors.Wrapf(err, "look up %s", prefix)
	}
	if res.Prefix == "" {
		return nil, errors.NewNotFoundError("ontology %q is not in the bioregistry", prefix)
	}
	return &res, nil
}

// Resolve returns the download URL for an ontology acronym, falling back to
// the OBO PURL when the registry lists no download link.
func (r *Resolver) Resolve(ctx context.Context, acronym string) (string, error) {
	res, err := r.Lookup(ctx, acronym)
	if err != nil {
		return "", err
	}
	location := res.DownloadURL()
	if location == "" {
		location = OBOPurlBase + strings.ToLower(res.Prefix) + ".owl"
		r.logger.Infow("No download link registered, using OBO PURL",
			logger.FieldAcronym, acronym,
			logger.FieldURL, location,
		)
	}
	r.logger.Debugw("Resolved ontology",
		logger.FieldAcronym, acronym,
		"name", res.Name,
		logger.FieldURL, location,
	)
	return location, nil
}
