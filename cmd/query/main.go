package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/letmevibethatforyou/meilisearchx"
	"github.com/letmevibethatforyou/meilisearchx/meili"
	"github.com/urfave/cli/v2"
)

const defaultTimeout = 5 * time.Second

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	if err := newApp().Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "query",
		Usage: "Execute search queries against a Meilisearch index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "index",
				Aliases:  []string{"i"},
				Usage:    "Index uid",
				EnvVars:  []string{"MEILI_INDEX"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "meili-secret-arn",
				Usage:   "ARN of AWS Secrets Manager secret containing Meilisearch credentials",
				EnvVars: []string{"MEILI_SECRET_ARN"},
			},
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Query string to search for; positional arg is a fallback",
			},
			&cli.UintFlag{
				Name:    "offset",
				Aliases: []string{"o"},
				Usage:   "Number of results to skip before returning hits",
			},
			&cli.UintFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of results to return",
			},
			&cli.StringFlag{
				Name:  "filters",
				Usage: "Raw filter expression, e.g. 'genre = horror AND year > 1980'",
			},
			&cli.StringSliceFlag{
				Name:  "filter",
				Usage: "Equality filter in field=value format; repeatable, combined with AND",
			},
			&cli.StringSliceFlag{
				Name:  "facet-filter",
				Usage: "OR group of facet conditions separated by '|', e.g. 'genre:horror|genre:drama'; repeatable, combined with AND",
			},
			&cli.StringFlag{
				Name:  "facets",
				Usage: "Facets to compute distribution for: comma separated names or '*'",
			},
			&cli.StringFlag{
				Name:  "retrieve",
				Usage: "Attributes to retrieve, comma separated or '*'",
			},
			&cli.StringFlag{
				Name:  "crop",
				Usage: "Attributes to crop, comma separated or '*'",
			},
			&cli.UintFlag{
				Name:  "crop-length",
				Usage: "Length of cropped values",
			},
			&cli.StringFlag{
				Name:  "highlight",
				Usage: "Attributes to highlight, comma separated or '*'",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for the search request",
				Value: defaultTimeout,
			},
			&cli.BoolFlag{
				Name:  "print-url",
				Usage: "Print the encoded query string instead of executing it",
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	ctx := c.Context

	q, err := buildQuery(c)
	if err != nil {
		return err
	}

	if c.Bool("print-url") {
		fmt.Println(q.URL())
		return nil
	}

	indexUID := strings.TrimSpace(c.String("index"))

	timeout := c.Duration("timeout")
	if timeout <= 0 {
		slog.WarnContext(ctx, "timeout must be positive; using default", "timeout", timeout, "default", defaultTimeout)
		timeout = defaultTimeout
	}

	var fetchSecrets meili.FetchSecrets
	if secretArn := strings.TrimSpace(c.String("meili-secret-arn")); secretArn != "" {
		slog.InfoContext(ctx, "using AWS Secrets Manager for Meilisearch credentials", "secret_arn", secretArn)
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("failed to load AWS config: %w", err)
		}
		fetchSecrets = meili.AWSSecretsFromARN(ctx, secretsmanager.NewFromConfig(cfg), secretArn)
	} else {
		fetchSecrets = meili.EnvSecrets()
	}

	client, err := meili.NewClient(fetchSecrets, meili.WithTimeout(timeout), meili.WithLogger(slog.Default()))
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "executing query", "index", indexUID, "query", q.Text(), "params", q.URL())

	results, err := meilisearchx.Execute[map[string]any](ctx, client.Index(indexUID), q)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	return printResults(os.Stdout, results)
}

func buildQuery(c *cli.Context) (meilisearchx.Query, error) {
	text := strings.TrimSpace(c.String("query"))
	if text == "" && c.NArg() > 0 {
		text = strings.TrimSpace(c.Args().First())
	}
	q := meilisearchx.NewQuery(text)

	if c.IsSet("offset") {
		q = q.WithOffset(c.Uint("offset"))
	}
	if c.IsSet("limit") {
		q = q.WithLimit(c.Uint("limit"))
	}

	raw := c.String("filters")
	eqs := c.StringSlice("filter")
	switch {
	case raw != "" && len(eqs) > 0:
		return q, fmt.Errorf("--filters and --filter cannot be combined")
	case raw != "":
		q = q.WithFilters(raw)
	case len(eqs) > 0:
		expr, err := parseEqualities(eqs)
		if err != nil {
			return q, fmt.Errorf("invalid filter: %w", err)
		}
		if q, err = q.WithFilter(expr); err != nil {
			return q, err
		}
	}

	if groups := c.StringSlice("facet-filter"); len(groups) > 0 {
		facetFilters, err := parseFacetFilters(groups)
		if err != nil {
			return q, fmt.Errorf("invalid facet filter: %w", err)
		}
		q = q.WithFacetFilters(facetFilters)
	}
	if c.IsSet("facets") {
		q = q.WithFacetsDistribution(parseFacets(c.String("facets")))
	}
	if c.IsSet("retrieve") {
		q = q.WithAttributesToRetrieve(c.String("retrieve"))
	}
	if c.IsSet("crop") {
		q = q.WithAttributesToCrop(c.String("crop"))
	}
	if c.IsSet("crop-length") {
		q = q.WithCropLength(c.Uint("crop-length"))
	}
	if c.IsSet("highlight") {
		q = q.WithAttributesToHighlight(c.String("highlight"))
	}
	return q, nil
}

func parseEqualities(raw []string) (meilisearchx.Expression, error) {
	exprs := make([]meilisearchx.Expression, 0, len(raw))
	for _, item := range raw {
		field, value, ok := strings.Cut(strings.TrimSpace(item), "=")
		field, value = strings.TrimSpace(field), strings.TrimSpace(value)
		if !ok {
			return nil, fmt.Errorf("filter must be in field=value format: %q", item)
		}
		if field == "" || value == "" {
			return nil, fmt.Errorf("filter field and value must be non-empty: %q", item)
		}
		exprs = append(exprs, meilisearchx.Eq(field, value))
	}
	return meilisearchx.And(exprs...), nil
}

// parseFacetFilters turns each "a:b|c:d" group into one OR group.
func parseFacetFilters(groups []string) ([][]string, error) {
	out := make([][]string, 0, len(groups))
	for _, group := range groups {
		var terms []string
		for _, term := range strings.Split(group, "|") {
			term = strings.TrimSpace(term)
			field, value, ok := strings.Cut(term, ":")
			if !ok || field == "" || value == "" {
				return nil, fmt.Errorf("facet condition must be in field:value format: %q", term)
			}
			terms = append(terms, meilisearchx.FacetEq(field, value))
		}
		out = append(out, meilisearchx.AnyOf(terms...))
	}
	return meilisearchx.AllOf(out...), nil
}

func parseFacets(raw string) meilisearchx.FacetsDistribution {
	raw = strings.TrimSpace(raw)
	if raw == "*" {
		return meilisearchx.AllFacets()
	}
	var names []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return meilisearchx.Facets(names...)
}

func printResults(w io.Writer, res *meilisearchx.SearchResults[map[string]any]) error {
	if res == nil {
		_, err := fmt.Fprintln(w, "{}")
		return err
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}
