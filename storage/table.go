package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"matrix-api/domain"
)

// TableStore persists one entity per document key in an Azure Table.
// It is selected over the file store when a connection string is set.
type TableStore struct {
	table *aztables.Client
}

// NewTableStore creates a TableStore from the given connection string.
func NewTableStore(connStr, tableName string) (*TableStore, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &TableStore{table: svc.NewClient(tableName)}, nil
}

type documentEntity struct {
	aztables.Entity
	Document string `json:"Document"`
}

func decodeDocumentEntity(data []byte) (domain.Document, error) {
	var ent documentEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Document{}, err
	}
	var doc domain.Document
	if err := json.Unmarshal([]byte(ent.Document), &doc); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

// FetchDocument retrieves the document for key; unknown keys yield the
// empty default rather than an error.
func (s *TableStore) FetchDocument(ctx context.Context, key string) (domain.Document, error) {
	ent, err := s.table.GetEntity(ctx, key, key, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == 404 {
			return domain.EmptyDocument(), nil
		}
		return domain.Document{}, err
	}
	return decodeDocumentEntity(ent.Value)
}

// ReplaceDocument upserts the full document for key.
func (s *TableStore) ReplaceDocument(ctx context.Context, key string, doc domain.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	ent := documentEntity{
		Entity:   aztables.Entity{PartitionKey: key, RowKey: key},
		Document: string(payload),
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.table.UpsertEntity(ctx, data, &aztables.UpsertEntityOptions{
		UpdateMode: aztables.UpdateModeReplace,
	})
	return err
}
