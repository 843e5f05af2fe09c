package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go"
)

var _ Sink = (*OpenSearchSink)(nil)

// OpenSearchSink indexes records into one index, using the record ID as the
// document ID.
type OpenSearchSink struct {
	client *opensearch.Client
	index  string
}

// NewOpenSearchClient builds a client for urls.
func NewOpenSearchClient(urls []string) (*opensearch.Client, error) {
	if len(urls) == 0 {
		return nil, errors.New("no OpenSearch addresses configured")
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: urls,
		Transport: &http.Transport{MaxIdleConnsPerHost: 10},
	})
	if err != nil {
		return nil, fmt.Errorf("opensearch client: %w", err)
	}
	return client, nil
}

// NewOpenSearchSink creates index when it does not exist yet.
func NewOpenSearchSink(ctx context.Context, client *opensearch.Client, index string) (*OpenSearchSink, error) {
	s := &OpenSearchSink{client: client, index: index}
	if err := s.ensureIndex(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *OpenSearchSink) ensureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("indices.exists: %w", err)
	}
	_ = res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"record_id":   map[string]any{"type": "keyword"},
				"event_type":  map[string]any{"type": "keyword"},
				"resource_id": map[string]any{"type": "keyword"},
				"timestamp":   map[string]any{"type": "keyword"},
				"received_at": map[string]any{"type": "date"},
				"data":        map[string]any{"type": "object", "enabled": true},
			},
		},
	})
	if err != nil {
		return err
	}

	cr, err := s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithBody(bytes.NewReader(body)),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("indices.create: %w", err)
	}
	defer func() { _ = cr.Body.Close() }()

	// Another replica may have created it concurrently.
	if cr.IsError() && cr.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("indices.create: %s", cr.String())
	}
	return nil
}

type eventDoc struct {
	RecordID   string          `json:"record_id"`
	EventType  string          `json:"event_type"`
	ResourceID string          `json:"resource_id,omitempty"`
	Timestamp  string          `json:"timestamp"`
	Data       json.RawMessage `json:"data"`
	ReceivedAt time.Time       `json:"received_at"`
}

// Store uses op_type=create so a second write of the same ID reports
// ErrDuplicate.
func (s *OpenSearchSink) Store(ctx context.Context, record Record) error {
	payload, err := json.Marshal(eventDoc{
		RecordID:   record.ID,
		EventType:  record.EventType,
		ResourceID: record.ResourceID,
		Timestamp:  record.Timestamp,
		Data:       record.Data,
		ReceivedAt: record.ReceivedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(payload),
		s.client.Index.WithDocumentID(record.ID),
		s.client.Index.WithOpType("create"),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == http.StatusConflict {
		return ErrDuplicate
	}
	if res.IsError() {
		return fmt.Errorf("index: %s", res.String())
	}
	return nil
}
