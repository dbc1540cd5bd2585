package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"

	"github.com/project-tktt/community-hub/internal/domain"
)

// ElasticsearchIndexer indexes questions and jobs into two indices sharing a prefix
type ElasticsearchIndexer struct {
	client *elasticsearch.Client
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

// NewElasticsearchIndexer creates a new Elasticsearch indexer and checks the connection
func NewElasticsearchIndexer(addresses []string, prefix string, logger *zap.Logger) (*ElasticsearchIndexer, error) {
	cfg := elasticsearch.Config{
		Addresses: addresses,
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create es client: %w", err)
	}

	// Check connection
	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("es info: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("es error: %s", res.Status())
	}

	return NewElasticsearchIndexerFromClient(client, prefix, logger), nil
}

// NewElasticsearchIndexerFromClient wraps an existing client
func NewElasticsearchIndexerFromClient(client *elasticsearch.Client, prefix string, logger *zap.Logger) *ElasticsearchIndexer {
	if prefix == "" {
		prefix = "community-hub"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ElasticsearchIndexer{client: client, prefix: prefix, logger: logger, now: time.Now}
}

func (i *ElasticsearchIndexer) QuestionsIndex() string { return i.prefix + "-questions" }
func (i *ElasticsearchIndexer) JobsIndex() string      { return i.prefix + "-jobs" }

// IndexQuestions bulk-indexes questions
func (i *ElasticsearchIndexer) IndexQuestions(ctx context.Context, snapshotID string, questions []domain.InterviewQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	at := i.now().UTC()
	docs := make([]bulkDoc, 0, len(questions))
	for k := range questions {
		doc := NewQuestionDocument(&questions[k], snapshotID, at)
		docs = append(docs, bulkDoc{id: doc.ID, body: doc})
	}
	return i.bulk(ctx, i.QuestionsIndex(), docs)
}

// IndexJobs bulk-indexes job listings
func (i *ElasticsearchIndexer) IndexJobs(ctx context.Context, snapshotID string, jobs []domain.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	at := i.now().UTC()
	docs := make([]bulkDoc, 0, len(jobs))
	for _, job := range jobs {
		docs = append(docs, bulkDoc{id: job.ID, body: JobDocument{Job: job, SnapshotID: snapshotID, IndexedAt: at}})
	}
	return i.bulk(ctx, i.JobsIndex(), docs)
}

type bulkDoc struct {
	id   string
	body any
}

func (i *ElasticsearchIndexer) bulk(ctx context.Context, index string, docs []bulkDoc) error {
	var buf bytes.Buffer

	for _, d := range docs {
		// Meta line
		meta := map[string]any{
			"index": map[string]any{
				"_index": index,
				"_id":    d.id,
			},
		}
		metaBytes, _ := json.Marshal(meta)

		// Document line
		docBytes, err := json.Marshal(d.body)
		if err != nil {
			i.logger.Warn("skipping unencodable document", zap.String("id", d.id), zap.Error(err))
			continue
		}
		buf.Write(metaBytes)
		buf.WriteByte('\n')
		buf.Write(docBytes)
		buf.WriteByte('\n')
	}

	res, err := i.client.Bulk(bytes.NewReader(buf.Bytes()), i.client.Bulk.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk error: %s", res.Status())
	}

	// Parse response to check for individual errors
	var bulkRes struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Index struct {
				ID     string `json:"_id"`
				Status int    `json:"status"`
				Error  struct {
					Type   string `json:"type"`
					Reason string `json:"reason"`
				} `json:"error"`
			} `json:"index"`
		} `json:"items"`
	}

	if err := json.NewDecoder(res.Body).Decode(&bulkRes); err != nil {
		return fmt.Errorf("parse bulk response: %w", err)
	}

	failed := 0
	if bulkRes.Errors {
		for _, item := range bulkRes.Items {
			if item.Index.Status >= 400 {
				failed++
				i.logger.Warn("bulk index item failed",
					zap.String("index", index),
					zap.String("id", item.Index.ID),
					zap.String("type", item.Index.Error.Type),
					zap.String("reason", item.Index.Error.Reason),
				)
			}
		}
	}

	i.logger.Info("bulk indexed", zap.String("index", index), zap.Int("documents", len(docs)), zap.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("bulk index %s: %d of %d documents rejected", index, failed, len(docs))
	}
	return nil
}

const questionsMapping = `{
	"settings": {
		"analysis": {
			"analyzer": {
				"folding_analyzer": {
					"type": "custom",
					"tokenizer": "standard",
					"filter": ["lowercase", "asciifolding"]
				}
			}
		}
	},
	"mappings": {
		"properties": {
			"id": {"type": "keyword"},
			"company": {"type": "keyword"},
			"year": {"type": "keyword"},
			"role": {"type": "keyword"},
			"experience": {"type": "keyword"},
			"topic": {"type": "keyword"},
			"question": {"type": "text", "analyzer": "folding_analyzer"},
			"difficulty": {"type": "keyword"},
			"contributor_key": {"type": "keyword"},
			"contributor_name": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
			"tags": {"type": "keyword"},
			"snapshot_id": {"type": "keyword"},
			"indexed_at": {"type": "date"}
		}
	}
}`

const jobsMapping = `{
	"mappings": {
		"properties": {
			"id": {"type": "keyword"},
			"title": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
			"company": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
			"location": {"type": "text"},
			"experience": {"type": "keyword"},
			"type": {"type": "keyword"},
			"postedDate": {"type": "keyword"},
			"applyLink": {"type": "keyword"},
			"snapshot_id": {"type": "keyword"},
			"indexed_at": {"type": "date"}
		}
	}
}`

// EnsureIndex creates the questions and jobs indices if they don't exist
func (i *ElasticsearchIndexer) EnsureIndex(ctx context.Context) error {
	for index, mapping := range map[string]string{
		i.QuestionsIndex(): questionsMapping,
		i.JobsIndex():      jobsMapping,
	} {
		if err := i.ensure(ctx, index, mapping); err != nil {
			return err
		}
	}
	return nil
}

func (i *ElasticsearchIndexer) ensure(ctx context.Context, index, mapping string) error {
	res, err := i.client.Indices.Exists([]string{index}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	res, err = i.client.Indices.Create(
		index,
		i.client.Indices.Create.WithBody(bytes.NewReader([]byte(mapping))),
		i.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index %s error: %s", index, res.Status())
	}

	i.logger.Info("created index", zap.String("index", index))
	return nil
}
