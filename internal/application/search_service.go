package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhive/internal/domain/apperror"
	"github.com/oksasatya/taskhive/internal/domain/entity"
	"github.com/oksasatya/taskhive/pkg/helpers"
)

const (
	defaultSearchSize = 10
	maxSearchSize     = 50
)

// ErrMalformedEvent marks an activity event the indexer can never apply.
var ErrMalformedEvent = errors.New("malformed activity event")

// TaskDocument is the search index projection of a task.
type TaskDocument struct {
	UserID      string    `json:"userId"`
	TabID       string    `json:"tabId"`
	TaskID      string    `json:"taskId"`
	Text        string    `json:"text"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type SearchHit struct {
	TaskDocument
	Score float64 `json:"score"`
}

// SearchService maintains and queries the task index. A nil ES client turns
// every call into a no-op.
type SearchService struct {
	ES     esapi.Transport
	Index  string
	Logger *logrus.Logger
}

func NewSearchService(es esapi.Transport, index string, logger *logrus.Logger) *SearchService {
	return &SearchService{ES: es, Index: index, Logger: orNopLogger(logger)}
}

func (s *SearchService) enabled() bool { return s != nil && s.ES != nil }

func docID(userID, taskID string) string { return userID + ":" + taskID }

const tasksMapping = `{
  "mappings": {
    "properties": {
      "userId":      {"type": "keyword"},
      "tabId":       {"type": "keyword"},
      "taskId":      {"type": "keyword"},
      "text":        {"type": "text"},
      "description": {"type": "text"},
      "completed":   {"type": "boolean"},
      "updatedAt":   {"type": "date"}
    }
  }
}`

// EnsureIndex creates the index with its mapping if it does not exist.
func (s *SearchService) EnsureIndex(ctx context.Context) error {
	if !s.enabled() {
		return nil
	}
	res, err := esapi.IndicesExistsRequest{Index: []string{s.Index}}.Do(ctx, s.ES)
	if err != nil {
		return err
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = esapi.IndicesCreateRequest{Index: s.Index, Body: strings.NewReader(tasksMapping)}.Do(ctx, s.ES)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if err := helpers.ESError("create index", res); err != nil {
		// lost a race with another indexer
		if res.StatusCode == http.StatusBadRequest {
			return nil
		}
		return err
	}
	s.Logger.WithField("index", s.Index).Info("search index created")
	return nil
}

// externalVersion orders writes of one document by the time they describe,
// so a redelivered older event is rejected by the index.
func externalVersion(at time.Time) (*int, string) {
	if at.IsZero() {
		return nil, ""
	}
	return esapi.IntPtr(int(at.UnixNano())), "external"
}

// IndexTask writes the task's document. A version conflict means a newer
// write already landed and is not an error.
func (s *SearchService) IndexTask(ctx context.Context, t *entity.Task) error {
	if !s.enabled() {
		return nil
	}
	body, err := json.Marshal(TaskDocument{
		UserID:      t.UserID,
		TabID:       t.TabID,
		TaskID:      t.TaskID,
		Text:        t.Text,
		Description: t.Description,
		Completed:   t.Completed,
		UpdatedAt:   t.UpdatedAt,
	})
	if err != nil {
		return err
	}
	version, versionType := externalVersion(t.UpdatedAt)
	res, err := esapi.IndexRequest{
		Index:       s.Index,
		DocumentID:  docID(t.UserID, t.TaskID),
		Body:        bytes.NewReader(body),
		Version:     version,
		VersionType: versionType,
	}.Do(ctx, s.ES)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusConflict {
		s.Logger.WithField("doc_id", docID(t.UserID, t.TaskID)).Debug("stale index write skipped")
		return nil
	}
	return helpers.ESError("index task", res)
}

// DeleteTask removes one document as of deletedAt. The index keeps the
// delete's version, so an older index write replayed afterwards conflicts.
func (s *SearchService) DeleteTask(ctx context.Context, userID, taskID string, deletedAt time.Time) error {
	if !s.enabled() {
		return nil
	}
	version, versionType := externalVersion(deletedAt)
	res, err := esapi.DeleteRequest{
		Index:       s.Index,
		DocumentID:  docID(userID, taskID),
		Version:     version,
		VersionType: versionType,
	}.Do(ctx, s.ES)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound || res.StatusCode == http.StatusConflict {
		return nil
	}
	return helpers.ESError("delete task", res)
}

// DeleteTab removes every indexed task of one tab.
func (s *SearchService) DeleteTab(ctx context.Context, userID, tabID string) error {
	if !s.enabled() {
		return nil
	}
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					map[string]any{"term": map[string]any{"userId": userID}},
					map[string]any{"term": map[string]any{"tabId": tabID}},
				},
			},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return err
	}
	res, err := esapi.DeleteByQueryRequest{
		Index:     []string{s.Index},
		Body:      bytes.NewReader(body),
		Conflicts: "proceed",
	}.Do(ctx, s.ES)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return helpers.ESError("delete tab", res)
}

// Search runs a relevance query over the user's own tasks.
func (s *SearchService) Search(ctx context.Context, userID, q string, size int) ([]SearchHit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperror.New(apperror.KindInvalidInput, "query is required")
	}
	if !s.enabled() {
		return []SearchHit{}, nil
	}
	switch {
	case size <= 0:
		size = defaultSearchSize
	case size > maxSearchSize:
		size = maxSearchSize
	}

	query := map[string]any{
		"size": size,
		"query": map[string]any{
			"bool": map[string]any{
				"must": []any{
					map[string]any{"multi_match": map[string]any{
						"query":  q,
						"fields": []string{"text^2", "description"},
					}},
				},
				"filter": []any{
					map[string]any{"term": map[string]any{"userId": userID}},
				},
			},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	res, err := esapi.SearchRequest{Index: []string{s.Index}, Body: bytes.NewReader(body)}.Do(ctx, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Error("search request failed")
		return nil, apperror.StoreUnavailable("search tasks", err)
	}
	defer res.Body.Close()
	if err := helpers.ESError("search", res); err != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Error("search failed")
		return nil, apperror.StoreUnavailable("search tasks", err)
	}

	var out struct {
		Hits struct {
			Hits []struct {
				Score  float64      `json:"_score"`
				Source TaskDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, apperror.StoreUnavailable("decode search response", err)
	}
	hits := make([]SearchHit, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		hits = append(hits, SearchHit{TaskDocument: h.Source, Score: h.Score})
	}
	return hits, nil
}

// Apply projects one activity event onto the index.
func (s *SearchService) Apply(ctx context.Context, ev ActivityEvent) error {
	if ev.UserID == "" {
		return fmt.Errorf("%w: missing userId", ErrMalformedEvent)
	}
	switch ev.Type {
	case TaskCreated, TaskUpdated:
		if ev.Task == nil {
			return fmt.Errorf("%w: %s without task", ErrMalformedEvent, ev.Type)
		}
		return s.IndexTask(ctx, ev.Task)
	case TaskDeleted:
		if ev.TaskID == "" {
			return fmt.Errorf("%w: %s without taskId", ErrMalformedEvent, ev.Type)
		}
		return s.DeleteTask(ctx, ev.UserID, ev.TaskID, ev.OccurredAt)
	case TabDeleted:
		return s.DeleteTab(ctx, ev.UserID, ev.TabID)
	case TabCreated:
		return nil
	default:
		return fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, ev.Type)
	}
}
