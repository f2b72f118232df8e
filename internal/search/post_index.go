// Package search 维护帖子的 Elasticsearch 索引，用于按关联分类 ID 过滤帖子。
// 查询只使用 terms 过滤，不做相关性排序，结果按创建时间倒序。
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"careerpath_go/internal/model"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const DefaultPostIndex = "careerpath_posts"

// postMapping 中 filterIds 必须是 keyword，terms 过滤才是精确匹配。
const postMapping = `{
  "mappings": {
    "properties": {
      "id":        {"type": "keyword"},
      "title":     {"type": "text"},
      "content":   {"type": "text"},
      "image":     {"type": "keyword", "index": false},
      "authorId":  {"type": "long"},
      "filterIds": {"type": "keyword"},
      "likes":     {"type": "integer"},
      "comments":  {"type": "integer"},
      "createdAt": {"type": "date"}
    }
  }
}`

type postDocument struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Image     *string   `json:"image,omitempty"`
	AuthorID  uint      `json:"authorId"`
	FilterIDs []string  `json:"filterIds"`
	Likes     int       `json:"likes"`
	Comments  int       `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
}

func toDocument(p *model.Post) postDocument {
	ids := p.FilterIDs
	if ids == nil {
		ids = []string{}
	}
	return postDocument{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Image:     p.Image,
		AuthorID:  p.AuthorID,
		FilterIDs: ids,
		Likes:     p.Likes,
		Comments:  p.Comments,
		CreatedAt: p.CreatedAt,
	}
}

func (d postDocument) toPost() model.Post {
	return model.Post{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		Image:     d.Image,
		AuthorID:  d.AuthorID,
		FilterIDs: d.FilterIDs,
		Likes:     d.Likes,
		Comments:  d.Comments,
		CreatedAt: d.CreatedAt,
	}
}

// PostIndex 实现 service.PostIndex。
type PostIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewPostIndex(es *elasticsearch.Client, index string) *PostIndex {
	if index == "" {
		index = DefaultPostIndex
	}
	return &PostIndex{es: es, index: index}
}

// EnsureIndex 索引不存在时按 postMapping 创建。
func (p *PostIndex) EnsureIndex(ctx context.Context) error {
	res, err := p.es.Indices.Exists([]string{p.index}, p.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", p.index, err)
	}
	drain(res)
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("check index %s: unexpected status %d", p.index, res.StatusCode)
	}

	res, err = p.es.Indices.Create(p.index,
		p.es.Indices.Create.WithBody(bytes.NewReader([]byte(postMapping))),
		p.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", p.index, err)
	}
	defer drain(res)
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", p.index, res.String())
	}
	return nil
}

func (p *PostIndex) IndexPost(ctx context.Context, post *model.Post) error {
	body, err := json.Marshal(toDocument(post))
	if err != nil {
		return err
	}
	res, err := p.es.Index(p.index, bytes.NewReader(body),
		p.es.Index.WithDocumentID(post.ID),
		p.es.Index.WithRefresh("wait_for"),
		p.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index post %s: %w", post.ID, err)
	}
	defer drain(res)
	if res.IsError() {
		return fmt.Errorf("index post %s: %s", post.ID, res.String())
	}
	return nil
}

// DeletePost 删除文档；文档本来就不存在不算错误。
func (p *PostIndex) DeletePost(ctx context.Context, id string) error {
	res, err := p.es.Delete(p.index, id, p.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	defer drain(res)
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete post %s: %s", id, res.String())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source postDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (p *PostIndex) SearchByFilterIDs(ctx context.Context, filterIDs []string, limit int) ([]model.Post, error) {
	if len(filterIDs) == 0 {
		return []model.Post{}, nil
	}
	query := map[string]any{
		"size": limit,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					map[string]any{"terms": map[string]any{"filterIds": filterIDs}},
				},
			},
		},
		"sort": []any{
			map[string]any{"createdAt": map[string]any{"order": "desc"}},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	res, err := p.es.Search(
		p.es.Search.WithContext(ctx),
		p.es.Search.WithIndex(p.index),
		p.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	defer drain(res)
	if res.IsError() {
		return nil, fmt.Errorf("search posts: %s", res.String())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	posts := make([]model.Post, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		posts = append(posts, h.Source.toPost())
	}
	return posts, nil
}

func drain(res *esapi.Response) {
	if res == nil || res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}
