package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strconv"

	es8 "github.com/elastic/go-elasticsearch/v8"

	"tagblog/models"
)

// SearchIndex mirrors posts into elasticsearch so the list endpoint's
// free-text search can use a real full-text query instead of ILIKE.
// A nil *SearchIndex means search stays on SQL.
type SearchIndex struct {
	client *es8.Client
	index  string
}

func NewSearchIndex(addr, index string) (*SearchIndex, error) {
	client, err := es8.NewClient(es8.Config{Addresses: []string{addr}})
	if err != nil {
		return nil, err
	}
	return &SearchIndex{client: client, index: index}, nil
}

// EnsureIndex creates the index with its mapping. If it already exists the
// call returns a 400 response body, which callers may ignore.
func (s *SearchIndex) EnsureIndex(ctx context.Context) error {
	mapping := `{
	  "mappings": {
	    "properties": {
	      "title":   {"type":"text"},
	      "content": {"type":"text"},
	      "tags":    {"type":"keyword"}
	    }
	  }
	}`
	res, err := s.client.Indices.Create(s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(bytes.NewBufferString(mapping)))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)
	return nil
}

func (s *SearchIndex) IndexPost(ctx context.Context, p models.Post) error {
	tagNames := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		tagNames = append(tagNames, t.Name)
	}
	doc := map[string]any{
		"id":      p.ID,
		"title":   p.Title,
		"content": p.Content,
		"tags":    tagNames,
	}
	b, _ := json.Marshal(doc)
	res, err := s.client.Index(s.index, bytes.NewReader(b),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(strconv.Itoa(p.ID)))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)
	return nil
}

func (s *SearchIndex) DeletePost(ctx context.Context, id int) error {
	res, err := s.client.Delete(s.index, strconv.Itoa(id),
		s.client.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)
	return nil
}

// MatchingIDs runs a multi_match over title and content and returns the
// ids of every matching post; pagination happens later in SQL.
func (s *SearchIndex) MatchingIDs(ctx context.Context, query string) ([]int, error) {
	body := map[string]any{
		"size":    10000,
		"_source": false,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"title", "content"},
			},
		},
	}
	b, _ := json.Marshal(body)
	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var out struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(out.Hits.Hits))
	for _, hit := range out.Hits.Hits {
		id, err := strconv.Atoi(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
