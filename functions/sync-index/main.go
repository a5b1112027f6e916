package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/letmevibethatforyou/meilisearchx/internal/ddb"
	"github.com/letmevibethatforyou/meilisearchx/meili"
	"github.com/urfave/cli/v2"
)

type Handler struct {
	tableName  string
	primaryKey string
	client     *meili.Client
}

func NewHandler(tableName, primaryKey string, client *meili.Client) *Handler {
	return &Handler{
		tableName:  tableName,
		primaryKey: primaryKey,
		client:     client,
	}
}

func (h *Handler) HandleDynamoDBEvent(ctx context.Context, e ddb.DynamoDBEvent) error {
	slog.InfoContext(ctx, "Processing DynamoDB stream records", "table", h.tableName, "record_count", len(e.Records))

	for _, record := range e.Records {
		if err := h.processRecord(ctx, record); err != nil {
			slog.ErrorContext(ctx, "Error processing record", "event_id", record.EventID, "error", err)
			return err
		}
	}

	return nil
}

func (h *Handler) processRecord(ctx context.Context, record ddb.DynamoDBEventRecord) error {
	change := ddb.ParseChange(record)
	switch change.Kind {
	case ddb.ChangeUpsert:
		return h.handleUpsert(ctx, change.Record)
	case ddb.ChangeDelete:
		return h.handleDelete(ctx, change.Record)
	default:
		slog.WarnContext(ctx, "Skipping record", "event_name", record.EventName, "reason", change.Reason)
		return nil
	}
}

func (h *Handler) handleUpsert(ctx context.Context, record ddb.Record) error {
	doc := record.Document(h.primaryKey)

	update, err := h.client.Index(record.IndexUID).AddDocuments(ctx, []map[string]any{doc}, h.primaryKey)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Saved document", "id", record.ID, "index", record.IndexUID, "update_id", update.UpdateID)
	return nil
}

func (h *Handler) handleDelete(ctx context.Context, record ddb.Record) error {
	update, err := h.client.Index(record.IndexUID).DeleteDocument(ctx, record.ID)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Deleted document", "id", record.ID, "index", record.IndexUID, "update_id", update.UpdateID)
	return nil
}

func main() {
	app := &cli.App{
		Name:  "dynamodb-meili-sync",
		Usage: "Sync DynamoDB stream events to Meilisearch indexes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "table-name",
				Usage:    "DynamoDB table name to sync from",
				EnvVars:  []string{"TABLE_NAME"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Environment name for AWS Secrets Manager (takes precedence over host/key flags)",
				EnvVars: []string{"ENV", "ENVIRONMENT"},
			},
			&cli.StringFlag{
				Name:    "meili-host",
				Usage:   "Meilisearch host URL",
				EnvVars: []string{"MEILI_HOST"},
			},
			&cli.StringFlag{
				Name:    "meili-api-key",
				Usage:   "Meilisearch API key",
				EnvVars: []string{"MEILI_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "primary-key",
				Usage:   "Document attribute that holds the record id",
				EnvVars: []string{"PRIMARY_KEY"},
				Value:   "id",
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	ctx := c.Context
	tableName := c.String("table-name")
	env := c.String("env")
	host := c.String("meili-host")

	slog.InfoContext(ctx, "Starting DynamoDB to Meilisearch sync", "table", tableName, "environment", env)

	var fetchSecrets meili.FetchSecrets
	switch {
	case env != "":
		slog.InfoContext(ctx, "Using AWS Secrets Manager for credentials", "environment", env)
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load AWS config", "error", err)
			return err
		}
		fetchSecrets = meili.AWSSecrets(ctx, secretsmanager.NewFromConfig(cfg), env)
	case host != "":
		slog.InfoContext(ctx, "Using static credentials from flags")
		fetchSecrets = meili.StaticSecrets(host, c.String("meili-api-key"))
	default:
		slog.InfoContext(ctx, "Using environment variables for credentials")
		fetchSecrets = meili.EnvSecrets()
	}

	client, err := meili.NewClient(fetchSecrets, meili.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	handler := NewHandler(tableName, c.String("primary-key"), client)

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		slog.InfoContext(ctx, "Running in Lambda environment")
		lambda.Start(handler.HandleDynamoDBEvent)
	} else {
		slog.InfoContext(ctx, "Function cannot run outside of AWS Lambda environment")
	}

	return nil
}
