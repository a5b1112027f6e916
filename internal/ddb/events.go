// Package ddb turns DynamoDB stream records into index changes.
package ddb

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBEvent represents a DynamoDB stream event
type DynamoDBEvent struct {
	Records []DynamoDBEventRecord `json:"Records"`
}

// DynamoDBEventRecord represents a single DynamoDB stream record
type DynamoDBEventRecord struct {
	AWSRegion      string               `json:"awsRegion"`
	Change         DynamoDBStreamRecord `json:"dynamodb"`
	EventID        string               `json:"eventID"`
	EventName      string               `json:"eventName"`
	EventSource    string               `json:"eventSource"`
	EventVersion   string               `json:"eventVersion"`
	EventSourceArn string               `json:"eventSourceARN"`
}

// DynamoDBStreamRecord represents the DynamoDB stream data
type DynamoDBStreamRecord struct {
	ApproximateCreationDateTime int64                           `json:"ApproximateCreationDateTime,omitempty"`
	Keys                        map[string]types.AttributeValue `json:"Keys,omitempty"`
	NewImage                    map[string]types.AttributeValue `json:"NewImage,omitempty"`
	OldImage                    map[string]types.AttributeValue `json:"OldImage,omitempty"`
	SequenceNumber              string                          `json:"SequenceNumber"`
	SizeBytes                   int64                           `json:"SizeBytes"`
	StreamViewType              string                          `json:"StreamViewType"`
}

// DynamoDBOperationType represents the type of DynamoDB operation
type DynamoDBOperationType string

const (
	DynamoDBOperationTypeInsert DynamoDBOperationType = "INSERT"
	DynamoDBOperationTypeModify DynamoDBOperationType = "MODIFY"
	DynamoDBOperationTypeRemove DynamoDBOperationType = "REMOVE"
)

// Record is one table item: the document id, the uid of the index it
// belongs to, and the document body.
type Record struct {
	ID       string         `dynamodbav:"pk"`
	IndexUID string         `dynamodbav:"sk"`
	Object   map[string]any `dynamodbav:"object"`
}

// UnmarshalRecord converts a DynamoDB image into a Record.
func UnmarshalRecord(image map[string]types.AttributeValue) (Record, error) {
	var record Record
	if err := attributevalue.UnmarshalMap(image, &record); err != nil {
		return Record{}, err
	}
	return record, nil
}

// Document returns the record body with the id stored under primaryKey.
// The record's Object is not modified.
func (r Record) Document(primaryKey string) map[string]any {
	doc := make(map[string]any, len(r.Object)+1)
	for k, v := range r.Object {
		doc[k] = v
	}
	doc[primaryKey] = r.ID
	return doc
}

// ChangeKind is what a stream record asks the index to do.
type ChangeKind int

const (
	// ChangeSkip means the record carries nothing to apply.
	ChangeSkip ChangeKind = iota
	// ChangeUpsert adds or replaces the document.
	ChangeUpsert
	// ChangeDelete removes the document.
	ChangeDelete
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeUpsert:
		return "upsert"
	case ChangeDelete:
		return "delete"
	default:
		return "skip"
	}
}

// Change is a stream record resolved against the index. Reason explains a skip.
type Change struct {
	Kind   ChangeKind
	Record Record
	Reason string
}

// ParseChange classifies a stream record. Malformed records are skipped
// with a reason rather than failing, so one bad item does not block the
// stream shard.
func ParseChange(rec DynamoDBEventRecord) Change {
	switch DynamoDBOperationType(rec.EventName) {
	case DynamoDBOperationTypeInsert, DynamoDBOperationTypeModify:
		if rec.Change.NewImage == nil {
			return skip("no new image for insert/modify operation")
		}
		record, err := UnmarshalRecord(rec.Change.NewImage)
		if err != nil {
			return skip(fmt.Sprintf("failed to unmarshal new image: %v", err))
		}
		if record.ID == "" {
			return skip("missing ID (pk)")
		}
		if record.IndexUID == "" {
			return skip("missing index uid (sk)")
		}
		if record.Object == nil {
			return skip("missing object")
		}
		return Change{Kind: ChangeUpsert, Record: record}

	case DynamoDBOperationTypeRemove:
		record, err := UnmarshalRecord(rec.Change.Keys)
		if err != nil {
			return skip(fmt.Sprintf("failed to unmarshal keys: %v", err))
		}
		if record.ID == "" || record.IndexUID == "" {
			return skip("missing ID or index uid in keys")
		}
		return Change{Kind: ChangeDelete, Record: record}

	default:
		return skip(fmt.Sprintf("ignored event type %q", rec.EventName))
	}
}

func skip(reason string) Change {
	return Change{Kind: ChangeSkip, Reason: reason}
}
