package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/markuskkkl/dav-pimcore/config"
	"github.com/markuskkkl/dav-pimcore/internal/models"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ElasticClient indexes collection runs in Elasticsearch
type ElasticClient struct {
	client *elasticsearch.Client
	config config.ElasticConfig
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client: client,
		config: cfg,
	}, nil
}

// IndexRun indexes every record of one collection run. Document ids combine
// the run id with the record's position, so re-runs never overwrite older
// runs' documents.
func (c *ElasticClient) IndexRun(ctx context.Context, result *models.CollectionResult) error {
	indexName := config.FormatIndex(c.config, c.config.Index)

	for i, record := range result.Records {
		doc := map[string]interface{}{
			"run_id":       result.RunID.String(),
			"generated_at": result.GeneratedAt,
			"position":     i,
			"object_id":    record.ID,
			"titel":        record.Titel,
		}
		addOptional(doc, "gruppe", record.Gruppe)
		addOptional(doc, "termin_start", record.TerminStart)
		addOptional(doc, "termin_ende", record.TerminEnde)
		addOptional(doc, "tourenleitung", record.Tourenleitung)
		addOptional(doc, "veranstaltungsort", record.Veranstaltungsort)
		addOptional(doc, "treffpunkt", record.Treffpunkt)
		addOptional(doc, "beschreibung", record.Beschreibung)

		docJson, err := json.Marshal(doc)
		if err != nil {
			return errors.Wrap(err, "failed to marshal record document")
		}

		req := esapi.IndexRequest{
			Index:      indexName,
			DocumentID: fmt.Sprintf("%s:%d", result.RunID.String(), i),
			Body:       bytes.NewReader(docJson),
			Refresh:    "true",
		}

		res, err := req.Do(ctx, c.client)
		if err != nil {
			return errors.Wrap(err, "failed to execute Elasticsearch index request")
		}

		if res.IsError() {
			var e map[string]interface{}
			if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
				res.Body.Close()
				return errors.Wrap(err, "failed to parse Elasticsearch error response")
			}
			res.Body.Close()
			return errors.Errorf("Elasticsearch index error: %v", e)
		}
		res.Body.Close()
	}

	log.Info().
		Str("run_id", result.RunID.String()).
		Int("records", len(result.Records)).
		Msg("Run indexed successfully")

	return nil
}

func addOptional(doc map[string]interface{}, key string, value *string) {
	if value != nil {
		doc[key] = *value
	}
}
