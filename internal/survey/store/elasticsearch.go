package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"rumble-survey/internal/common/errors"
	"rumble-survey/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Elasticsearch indexes one document per submission through an ingest
// pipeline that sets completedAt to the ingest timestamp.
type Elasticsearch struct {
	client   *elasticsearch.Client
	pipeline string

	mu        sync.Mutex
	installed bool
}

func NewElasticsearch(client *elasticsearch.Client, pipeline string) *Elasticsearch {
	return &Elasticsearch{client: client, pipeline: pipeline}
}

func (s *Elasticsearch) Backend() string { return "elasticsearch" }

const pipelineBody = `{
  "description": "Stamp survey submissions with the server receive time",
  "processors": [
    {"set": {"field": "completedAt", "value": "{{{_ingest.timestamp}}}"}}
  ]
}`

// EnsurePipeline installs the timestamp pipeline once per process. A failed
// install is retried on the next write.
func (s *Elasticsearch) EnsurePipeline(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.installed {
		return nil
	}

	res, err := s.client.Ingest.PutPipeline(
		s.pipeline,
		strings.NewReader(pipelineBody),
		s.client.Ingest.PutPipeline.WithContext(ctx),
	)
	if err != nil {
		return errors.NewStoreUnavailableError(s.Backend(), err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return s.rejected(res)
	}
	s.installed = true
	return nil
}

func (s *Elasticsearch) AppendRecord(ctx context.Context, collection string, doc models.SessionSubmission) error {
	if err := s.EnsurePipeline(ctx); err != nil {
		return err
	}

	payload, err := encode(doc)
	if err != nil {
		return errors.NewPayloadInvalidError(err.Error())
	}

	res, err := s.client.Index(
		collection,
		bytes.NewReader(payload),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithPipeline(s.pipeline),
	)
	if err != nil {
		return errors.NewStoreUnavailableError(s.Backend(), err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return s.rejected(res)
	}
	return nil
}

// rejected extracts the error reason from an Elasticsearch error body.
func (s *Elasticsearch) rejected(res *esapi.Response) error {
	var body struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(res.Body)
	details := res.Status()
	if json.Unmarshal(raw, &body) == nil && body.Error.Reason != "" {
		details = fmt.Sprintf("%s: %s", body.Error.Type, body.Error.Reason)
	}
	return errors.NewStoreWriteRejectedError(s.Backend(), details).WithMetadata("status", res.StatusCode)
}

func (s *Elasticsearch) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return errors.NewStoreUnavailableError(s.Backend(), err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.NewStoreUnavailableError(s.Backend(), fmt.Errorf("ping: %s", res.Status()))
	}
	return nil
}

func (s *Elasticsearch) Close() error { return nil }
