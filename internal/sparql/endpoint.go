package sparql

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/rohankatakam/relfinder/internal/errors"
)

const (
	resultsMediaType = "application/sparql-results+json"
	labelPredicates  = "rdfs:label | cbcm:name"
)

// EndpointConfig holds connection settings for a SPARQL 1.1 protocol endpoint
type EndpointConfig struct {
	URL      string
	Username string
	Password string
	// Reasoning is sent as the reasoning=true|false parameter understood by GraphDB and Stardog
	Reasoning bool
	Timeout   time.Duration
	// RateLimit is requests per second; 0 disables throttling
	RateLimit float64
	Burst     int
	// OntologyNamespace restricts TypesFor to classes of the domain ontology
	OntologyNamespace string
}

// Entity is a resource of one of the allowed classes
type Entity struct {
	IRI   string `json:"iri"`
	Label string `json:"label"`
	Class string `json:"class"`
}

// DataProperty is a literal-valued property of an entity
type DataProperty struct {
	IRI   string `json:"iri"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Results is the SPARQL 1.1 JSON results document
type Results struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []RawBinding `json:"bindings"`
	} `json:"results"`
}

// Endpoint executes queries over HTTP
type Endpoint struct {
	cfg      EndpointConfig
	client   *http.Client
	limiter  *rate.Limiter
	prefixes Prefixes
	logger   *slog.Logger
}

// EndpointOption customizes an Endpoint
type EndpointOption func(*Endpoint)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(c *http.Client) EndpointOption {
	return func(e *Endpoint) { e.client = c }
}

// WithPrefixes replaces DefaultPrefixes for the sibling lookups
func WithPrefixes(p Prefixes) EndpointOption {
	return func(e *Endpoint) { e.prefixes = p }
}

// NewEndpoint creates a client for the endpoint at cfg.URL
func NewEndpoint(cfg EndpointConfig, opts ...EndpointOption) (*Endpoint, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, apperrors.ConfigErrorf("invalid SPARQL endpoint URL %q", cfg.URL)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.OntologyNamespace == "" {
		cfg.OntologyNamespace = DefaultPrefixes[0].Namespace
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	e := &Endpoint{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(limit, burst),
		prefixes: DefaultPrefixes,
		logger:   slog.Default().With("component", "sparql", "endpoint", u.Host),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Execute runs a SELECT query and returns its rows in store order
func (e *Endpoint) Execute(ctx context.Context, query string) ([]RawBinding, error) {
	res, err := e.Select(ctx, query)
	if err != nil {
		return nil, err
	}
	return res.Results.Bindings, nil
}

// Select runs a SELECT query and returns the decoded results document
func (e *Endpoint) Select(ctx context.Context, query string) (*Results, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, apperrors.ExecutionError(err, "rate limiter wait")
	}

	form := url.Values{}
	form.Set("query", query)
	form.Set("reasoning", strconv.FormatBool(e.cfg.Reasoning))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperrors.ExecutionError(err, "build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", resultsMediaType)
	if e.cfg.Username != "" {
		req.SetBasicAuth(e.cfg.Username, e.cfg.Password)
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, apperrors.ExecutionError(err, "query request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.ExecutionErrorf(
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			"endpoint rejected query")
	}

	var res Results
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, apperrors.ExecutionError(err, "decode query results")
	}

	e.logger.Debug("query executed",
		"rows", len(res.Results.Bindings),
		"duration_ms", time.Since(start).Milliseconds())

	return &res, nil
}

// Entities lists resources of the given classes together with their labels
func (e *Endpoint) Entities(ctx context.Context, classes []string) ([]Entity, error) {
	if len(classes) == 0 {
		return nil, nil
	}

	rendered, err := e.abbreviateAll(classes)
	if err != nil {
		return nil, err
	}

	query := e.prefixes.Declarations() + fmt.Sprintf(`SELECT ?s ?ctype ?label WHERE {
  ?s a ?ctype ;
     %s ?label .
  FILTER (?ctype IN (%s))
}`, labelPredicates, strings.Join(rendered, ", "))

	rows, err := e.Execute(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]Entity, 0, len(rows))
	for _, row := range rows {
		out = append(out, Entity{
			IRI:   row["s"].Value,
			Label: row["label"].Value,
			Class: row["ctype"].Value,
		})
	}
	return out, nil
}

// EntityCountForClass counts distinct instances of class
func (e *Endpoint) EntityCountForClass(ctx context.Context, class string) (int, error) {
	if err := ValidateIRI(class); err != nil {
		return 0, apperrors.ValidationErrorf("class: %v", err)
	}

	query := fmt.Sprintf("SELECT (COUNT(DISTINCT ?ent) AS ?entities) WHERE { ?ent a <%s> . }", class)

	rows, err := e.Execute(ctx, query)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := strconv.Atoi(rows[0]["entities"].Value)
	if err != nil {
		return 0, apperrors.ExecutionErrorf(err, "count for %s", class)
	}
	return n, nil
}

// EntityDataProperties returns up to limit literal-valued, labelled properties of iri
func (e *Endpoint) EntityDataProperties(ctx context.Context, iri string, limit int) ([]DataProperty, error) {
	if err := ValidateIRI(iri); err != nil {
		return nil, apperrors.ValidationErrorf("entity: %v", err)
	}
	if limit <= 0 {
		limit = 50
	}

	query := e.prefixes.Declarations() + fmt.Sprintf(`SELECT DISTINCT ?p ?propLabel ?propValue WHERE {
  <%s> ?p ?propValue .
  ?p %s ?propLabel .
  FILTER isLiteral(?propValue)
} LIMIT %d`, iri, labelPredicates, limit)

	rows, err := e.Execute(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]DataProperty, 0, len(rows))
	for _, row := range rows {
		out = append(out, DataProperty{
			IRI:   row["p"].Value,
			Label: row["propLabel"].Value,
			Value: row["propValue"].Value,
		})
	}
	return out, nil
}

// LabelsFor returns the English or untagged label of every IRI that has one
func (e *Endpoint) LabelsFor(ctx context.Context, iris []string) (map[string]string, error) {
	labels := make(map[string]string, len(iris))
	if len(iris) == 0 {
		return labels, nil
	}

	subqueries, err := e.perIRI(iris, "{ ?p "+labelPredicates+" ?label FILTER(?p = <%s>) }")
	if err != nil {
		return nil, err
	}

	query := e.prefixes.Declarations() + "SELECT * WHERE {\n" + subqueries +
		"\nFILTER (lang(?label) = 'en' || lang(?label) = '')\n}"

	rows, err := e.Execute(ctx, query)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		labels[row["p"].Value] = row["label"].Value
	}
	return labels, nil
}

// TypesFor returns the class of every IRI typed within the ontology namespace.
// The store lists types general to specific, so the last one wins.
func (e *Endpoint) TypesFor(ctx context.Context, iris []string) (map[string]string, error) {
	types := make(map[string]string, len(iris))
	if len(iris) == 0 {
		return types, nil
	}

	subqueries, err := e.perIRI(iris, "{ ?o rdf:type ?type FILTER(?o = <%s> && !isBlank(?type)) }")
	if err != nil {
		return nil, err
	}

	query := e.prefixes.Declarations() + "SELECT * WHERE {\n" + subqueries + "\n}"

	rows, err := e.Execute(ctx, query)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if class := row["type"].Value; strings.HasPrefix(class, e.cfg.OntologyNamespace) {
			types[row["o"].Value] = class
		}
	}
	return types, nil
}

func (e *Endpoint) perIRI(iris []string, format string) (string, error) {
	parts := make([]string, 0, len(iris))
	for _, iri := range iris {
		if err := ValidateIRI(iri); err != nil {
			return "", apperrors.ValidationErrorf("lookup: %v", err)
		}
		parts = append(parts, fmt.Sprintf(format, iri))
	}
	return strings.Join(parts, "\nUNION\n"), nil
}

func (e *Endpoint) abbreviateAll(iris []string) ([]string, error) {
	out := make([]string, 0, len(iris))
	for _, iri := range iris {
		if err := ValidateIRI(iri); err != nil {
			return nil, apperrors.ValidationErrorf("class: %v", err)
		}
		out = append(out, e.prefixes.Abbreviate(iri))
	}
	return out, nil
}
