package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/letmevibethatforyou/meilisearchx/meili"
	"github.com/segmentio/ksuid"
	"github.com/urfave/cli/v2"
)

type Movie struct {
	Title       string   `json:"title" dynamodbav:"title"`
	Director    string   `json:"director" dynamodbav:"director"`
	Genres      []string `json:"genres" dynamodbav:"genres"`
	ReleaseYear int      `json:"release_year" dynamodbav:"release_year"`
	Rating      float64  `json:"rating" dynamodbav:"rating"`
}

type DynamoDBRecord struct {
	PK     string `dynamodbav:"pk"`
	SK     string `dynamodbav:"sk"`
	Object Movie  `dynamodbav:"object"`
}

// movieDocument is a Movie as sent straight to an index.
type movieDocument struct {
	ID string `json:"id"`
	Movie
}

// PutItemAPI is the part of the DynamoDB client the generator uses.
type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

var (
	adjectives = []string{"Silent", "Crimson", "Last", "Broken", "Electric", "Hidden", "Endless", "Midnight", "Golden", "Frozen"}
	nouns      = []string{"Horizon", "Empire", "River", "Signal", "Garden", "Frontier", "Mirror", "Harbor", "Orbit", "Kingdom"}
	genres     = []string{"action", "comedy", "drama", "horror", "romance", "sci-fi", "thriller", "documentary", "animation", "western"}
	directors  = []string{"Ava Moreau", "Kenji Sato", "Lena Fischer", "Omar Haddad", "Priya Nair", "Tomas Lindqvist", "Nora Quinn", "Diego Alvarez"}
)

func generateRandomMovie(r *rand.Rand) Movie {
	title := fmt.Sprintf("The %s %s", adjectives[r.IntN(len(adjectives))], nouns[r.IntN(len(nouns))])

	first := r.IntN(len(genres))
	movieGenres := []string{genres[first]}
	if r.IntN(2) == 0 {
		movieGenres = append(movieGenres, genres[(first+1+r.IntN(len(genres)-1))%len(genres)])
	}

	return Movie{
		Title:       title,
		Director:    directors[r.IntN(len(directors))],
		Genres:      movieGenres,
		ReleaseYear: r.IntN(45) + 1980, // 1980-2024
		Rating:      float64(r.IntN(91)+10) / 10,
	}
}

func insertMovie(ctx context.Context, client PutItemAPI, tableName, indexUID string, movie Movie) (string, error) {
	id := ksuid.New().String()

	item, err := attributevalue.MarshalMap(DynamoDBRecord{
		PK:     id,
		SK:     indexUID,
		Object: movie,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal movie record: %w", err)
	}

	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      item,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put item in DynamoDB: %w", err)
	}

	slog.InfoContext(ctx, "Inserted movie", "id", id, "index", indexUID, "title", movie.Title, "year", movie.ReleaseYear)
	return id, nil
}

func indexMovies(ctx context.Context, index *meili.Index, movies []Movie) (meili.Update, error) {
	docs := make([]movieDocument, len(movies))
	for i, m := range movies {
		docs[i] = movieDocument{ID: ksuid.New().String(), Movie: m}
	}

	update, err := index.AddDocuments(ctx, docs, "id")
	if err != nil {
		return meili.Update{}, fmt.Errorf("failed to add documents to %s: %w", index.UID(), err)
	}

	slog.InfoContext(ctx, "Queued movies for indexing", "index", index.UID(), "count", len(docs), "update_id", update.UpdateID)
	return update, nil
}

func runAction(c *cli.Context) error {
	ctx := c.Context
	env := c.String("env")
	tableName := c.String("table-name")
	indexUID := c.String("index")
	count := c.Int("count")
	direct := c.Bool("direct")

	slog.InfoContext(ctx, "Starting movie generator",
		"environment", env,
		"table", tableName,
		"index", indexUID,
		"count", count,
		"direct", direct,
	)

	r := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	movies := make([]Movie, count)
	for i := range movies {
		movies[i] = generateRandomMovie(r)
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	if direct {
		client, err := meili.NewClient(
			meili.AWSSecrets(ctx, secretsmanager.NewFromConfig(cfg), env),
			meili.WithLogger(slog.Default()),
		)
		if err != nil {
			return err
		}
		_, err = indexMovies(ctx, client.Index(indexUID), movies)
		return err
	}

	if tableName == "" {
		return fmt.Errorf("--table-name is required unless --direct is set")
	}
	client := dynamodb.NewFromConfig(cfg)
	for i, m := range movies {
		if _, err := insertMovie(ctx, client, tableName, indexUID, m); err != nil {
			return fmt.Errorf("failed to insert movie %d: %w", i+1, err)
		}
	}

	slog.InfoContext(ctx, "Successfully generated and inserted all movies", "count", count)
	return nil
}

func main() {
	// Configure JSON logging for AWS environments
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "generator",
		Usage: "Generate random movie data for a Meilisearch index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "env",
				Aliases:  []string{"e"},
				Usage:    "Environment name",
				EnvVars:  []string{"ENVIRONMENT"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "table-name",
				Aliases: []string{"t"},
				Usage:   "DynamoDB table name",
				EnvVars: []string{"TABLE_NAME"},
			},
			&cli.StringFlag{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Index uid the movies belong to",
				EnvVars: []string{"MEILI_INDEX"},
				Value:   "movies",
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"c"},
				Usage:   "Number of movies to generate",
				Value:   1,
			},
			&cli.BoolFlag{
				Name:  "direct",
				Usage: "Add movies straight to the index instead of writing them to DynamoDB",
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}
