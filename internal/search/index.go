package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"metrika/internal/models"
)

const (
	KindProject  = "project"
	KindTask     = "task"
	KindDocument = "document"
	KindUser     = "user"
)

// Doc is the flattened shape every entity is indexed as.
type Doc struct {
	Kind      string    `json:"kind"`
	EntityID  int64     `json:"entity_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Index interface {
	Put(ctx context.Context, doc Doc) error
	Remove(ctx context.Context, kind string, id int64) error
	Search(ctx context.Context, q string, limit int) (models.SearchResults, error)
}

type ElasticIndex struct {
	client *es.Client
	index  string
}

// NewElasticIndex connects and makes sure the index with its mapping exists.
func NewElasticIndex(ctx context.Context, url, prefix string) (*ElasticIndex, error) {
	client, err := es.NewClient(es.Config{Addresses: []string{url}})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	idx := &ElasticIndex{client: client, index: prefix + "_search_v1"}
	if err := idx.ensure(ctx); err != nil {
		return nil, err
	}
	slog.Info("search index ready", "index", idx.index)
	return idx, nil
}

func (e *ElasticIndex) ensure(ctx context.Context) error {
	mapping := `{"settings":{"number_of_shards":1},"mappings":{"dynamic":"strict","properties":{
		"kind":{"type":"keyword"},"entity_id":{"type":"long"},
		"title":{"type":"text"},"body":{"type":"text"},"updated_at":{"type":"date"}
	}}}`
	exists, err := e.client.Indices.Exists([]string{e.index}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", e.index, err)
	}
	defer exists.Body.Close()
	if exists.StatusCode == 200 {
		return nil
	}
	res, err := e.client.Indices.Create(e.index,
		e.client.Indices.Create.WithBody(strings.NewReader(mapping)),
		e.client.Indices.Create.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("create index %s: %w", e.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", e.index, res.Status())
	}
	return nil
}

func docID(kind string, id int64) string {
	return kind + ":" + strconv.FormatInt(id, 10)
}

func (e *ElasticIndex) Put(ctx context.Context, doc Doc) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	res, err := e.client.Index(e.index, bytes.NewReader(body),
		e.client.Index.WithDocumentID(docID(doc.Kind, doc.EntityID)),
		e.client.Index.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index %s: %w", docID(doc.Kind, doc.EntityID), err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index %s: %s", docID(doc.Kind, doc.EntityID), res.Status())
	}
	return nil
}

func (e *ElasticIndex) Remove(ctx context.Context, kind string, id int64) error {
	res, err := e.client.Delete(e.index, docID(kind, id), e.client.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete %s: %s", docID(kind, id), res.Status())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source Doc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (e *ElasticIndex) Search(ctx context.Context, q string, limit int) (models.SearchResults, error) {
	res := models.SearchResults{
		Projects: []models.SearchHit{}, Tasks: []models.SearchHit{},
		Documents: []models.SearchHit{}, Users: []models.SearchHit{},
	}
	query := map[string]any{
		"size": limit * 4,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"title^2", "body"},
				"fuzziness": "AUTO",
			},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return res, err
	}
	resp, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return res, fmt.Errorf("search: %w", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return res, fmt.Errorf("search: %s", resp.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return res, fmt.Errorf("decode search response: %w", err)
	}
	for _, h := range parsed.Hits.Hits {
		addHit(&res, h.Source, limit)
	}
	return res, nil
}
