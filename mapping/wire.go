package mapping

import (
	"time"

	"github.com/teranos/ontomap/cache"
	"github.com/teranos/ontomap/config"
	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/fetch"
	"github.com/teranos/ontomap/internal/httpclient"
	"github.com/teranos/ontomap/metrics"
	"github.com/teranos/ontomap/version"
)

// NewServiceFromConfig wires the HTTP stack, cache and metrics described by cfg
func NewServiceFromConfig(cfg *config.Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := httpclient.NewSaferClientWithOptions(
		time.Duration(cfg.HTTP.TimeoutSeconds)*time.Second,
		httpclient.SaferClientOptions{AllowPrivate: cfg.HTTP.AllowPrivate},
	)
	requester := httpclient.NewRequester(client, httpclient.RequesterOptions{
		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
		MaxRetries:        cfg.HTTP.MaxRetries,
		UserAgent:         "ontomap/" + version.Version,
	})

	manager, err := cache.Open(cfg.Cache.Dir)
	if err != nil {
		return nil, errors.Wrap(err, "open cache")
	}

	resolver := fetch.NewResolver(cfg.Bioregistry.BaseURL, requester)
	return NewService(Deps{
		Cache:        manager,
		Loader:       fetch.NewLoader(resolver, client),
		Requester:    requester,
		Metrics:      metrics.New(),
		ZoomaURL:     cfg.Zooma.BaseURL,
		BioPortalURL: cfg.BioPortal.BaseURL,
	}), nil
}

// Close releases the cache and flushes metrics to textfile when one is set
func (s *Service) Close(textfile string) error {
	var errs error
	if textfile != "" {
		errs = errors.CombineErrors(errs, s.metrics.WriteTextfile(textfile))
	}
	if s.cache != nil {
		errs = errors.CombineErrors(errs, s.cache.Close())
	}
	return errs
}
