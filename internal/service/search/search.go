package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/blog_api/internal/dispatch"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/util"
)

type SearchPostsQuery struct {
	Query string
	Page  int
	Size  int
}

type SearchResult struct {
	Total int64         `json:"total"`
	Posts []models.Post `json:"posts"`
}

type Service struct {
	ES    *elasticsearch.Client
	Index string
}

func NewService(es *elasticsearch.Client, index string) *Service {
	return &Service{ES: es, Index: index}
}

func (s *Service) RegisterHandlers(d *dispatch.Dispatcher) {
	dispatch.Register(d, s.Search)
}

func (s *Service) Search(ctx context.Context, q SearchPostsQuery) (dispatch.Result[SearchResult], error) {
	if strings.TrimSpace(q.Query) == "" {
		return dispatch.Failure[SearchResult](dispatch.StatusBadRequest, "Search query is required."), nil
	}

	from, size := util.Calculate(q.Page, q.Size)

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     q.Query,
				"fields":    []string{"title^2", "content"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return dispatch.Result[SearchResult]{}, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(s.Index),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return dispatch.Result[SearchResult]{}, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return dispatch.Result[SearchResult]{}, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Post `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return dispatch.Result[SearchResult]{}, fmt.Errorf("search: decode response: %w", err)
	}

	posts := make([]models.Post, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		posts[i] = hit.Source
	}
	return dispatch.Success(SearchResult{Total: r.Hits.Total.Value, Posts: posts}), nil
}
