package fetch

// Ontology source loading. Targets may be:
//   - Local paths: ./efo.owl, /data/mondo.obo
//   - URLs: http(s) links, fetched with hashicorp/go-getter
//   - Acronyms: EFO, MONDO (resolved through the bioregistry first)

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-getter"
	"go.uber.org/zap"

	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/internal/httpclient"
	"github.com/teranos/ontomap/logger"
	"github.com/teranos/ontomap/ontology"
)

// acronymPattern matches bare ontology prefixes such as EFO or NCBITaxon
var acronymPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]*$`)

// Source is a loaded ontology and where it came from
type Source struct {
	Target   string             // Input as given
	Location string             // Local path or URL actually read
	Acronym  string             // Set when Target was resolved as an acronym
	Remote   bool               // Fetched over the network
	Ontology *ontology.Ontology // Parsed content
}

// Loader turns a target into a parsed ontology
type Loader struct {
	resolver *Resolver
	client   *httpclient.SaferClient
	logger   *zap.SugaredLogger
}

// NewLoader creates a loader. resolver may be nil when acronyms are not needed.
func NewLoader(resolver *Resolver, client *httpclient.SaferClient) *Loader {
	return &Loader{
		resolver: resolver,
		client:   client,
		logger:   logger.ComponentLogger("loader"),
	}
}

// Load parses target, fetching it first when it is remote.
func (l *Loader) Load(ctx context.Context, target string) (*Source, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, errors.NewInvalidRequestError("empty ontology source")
	}

	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		return l.loadLocal(target, target)
	}

	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}
	detected, err := getter.Detect(target, pwd, getter.Detectors)
	if err == nil && !strings.HasPrefix(detected, "file://") {
		return l.loadRemote(ctx, target, detected, "")
	}

	if _, isFile := ontology.FormatFromPath(target); isFile || !acronymPattern.MatchString(target) {
		return nil, errors.WithHint(
			errors.NewNotFoundError("ontology source %s does not exist", target),
			"pass an existing file, a URL or an ontology acronym",
		)
	}
	if l.resolver == nil {
		return nil, errors.NewInvalidRequestError("cannot resolve acronym %s without a resolver", target)
	}
	location, err := l.resolver.Resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	return l.loadRemote(ctx, target, location, strings.ToUpper(target))
}

func (l *Loader) loadLocal(target, filePath string) (*Source, error) {
	started := time.Now()
	ont, err := ontology.ParseFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "load ontology %s", target)
	}
	l.logger.Infow("Loaded ontology",
		logger.FieldFile, filePath,
		logger.FieldCount, len(ont.Terms),
		logger.FieldDurationMS, time.Since(started).Milliseconds(),
	)
	return &Source{Target: target, Location: filePath, Ontology: ont}, nil
}

// loadRemote downloads src into a temp dir and parses it from there
func (l *Loader) loadRemote(ctx context.Context, target, src, acronym string) (*Source, error) {
	if l.client != nil && (strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")) {
		if _, err := l.client.ValidateURL(src); err != nil {
			return nil, errors.Wrapf(err, "fetch ontology %s", src)
		}
	}

	tempDir, err := os.MkdirTemp("", "ontomap-fetch-*")
	if err != nil {
		return nil, errors.Wrap(err, "create temp directory")
	}
	defer os.RemoveAll(tempDir)

	dst := filepath.Join(tempDir, fileNameFor(src))
	httpGetter := &getter.HttpGetter{DoNotCheckHeadFirst: true}
	if l.client != nil {
		httpGetter.Client = l.client.Client
	}

	client := &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Mode: getter.ClientModeFile,
		Getters: map[string]getter.Getter{
			"http":  httpGetter,
			"https": httpGetter,
			"file":  &getter.FileGetter{Copy: true},
		},
	}

	l.logger.Infow("Fetching ontology",
		logger.FieldURL, src,
		logger.FieldPath, dst,
	)
	if err := client.Get(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Mark(errors.Wrapf(err, "fetch ontology %s", src), errors.ErrServiceUnavailable)
	}

	source, err := l.loadLocal(target, dst)
	if err != nil {
		return nil, err
	}
	source.Location = src
	source.Acronym = acronym
	source.Remote = true
	return source, nil
}

// fileNameFor keeps the remote file name so its extension drives format detection
func fileNameFor(src string) string {
	name := "ontology"
	if u, err := url.Parse(src); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
			name = base
		}
	}
	return name
}
