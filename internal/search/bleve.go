// Package search adapts a bleve index to the session search contract. The
// index is eventually consistent with the store; writes are best-effort
// and callers retry once on transient failures.
package search

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"

	"confcentral/internal/domain"
)

type Index struct {
	idx bleve.Index
}

// Open opens the index at path, creating it if missing.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) || errors.Is(err, os.ErrNotExist) {
		idx, err = bleve.New(path, bleve.NewIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}
	return &Index{idx: idx}, nil
}

// NewMemOnly returns an index held entirely in memory, for tests and
// local development.
func NewMemOnly() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create search index: %w", err)
	}
	return &Index{idx: idx}, nil
}

func (i *Index) Close() error {
	return i.idx.Close()
}

func (i *Index) Put(ctx context.Context, doc domain.SessionDocument) error {
	fields := map[string]any{
		"name":                  doc.Name,
		"type":                  doc.Type,
		"duration":              doc.Duration,
		"startDate":             doc.StartDate,
		"startTime":             doc.StartTime,
		"highlights":            doc.Highlights,
		"speakerName":           doc.SpeakerName,
		"conferenceName":        doc.ConferenceName,
		"conferenceTopics":      doc.ConferenceTopics,
		"conferenceCity":        doc.ConferenceCity,
		"conferenceDescription": doc.ConferenceDescription,
	}
	if err := i.idx.Index(doc.ID, fields); err != nil {
		return classify(err)
	}
	return nil
}

func (i *Index) Query(ctx context.Context, query string, limit int) ([]domain.SessionDocument, error) {
	var req *bleve.SearchRequest
	if query == "" {
		req = bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), limit, 0, false)
	} else {
		req = bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(query), limit, 0, false)
	}
	req.SortBy([]string{"startDate"})
	req.Fields = []string{"*"}

	res, err := i.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, classify(err)
	}

	out := make([]domain.SessionDocument, 0, len(res.Hits))
	for _, hit := range res.Hits {
		doc := domain.SessionDocument{ID: hit.ID}
		doc.Name = fieldString(hit.Fields, "name")
		doc.Type = fieldString(hit.Fields, "type")
		doc.Duration = fieldInt(hit.Fields, "duration")
		doc.StartDate = fieldString(hit.Fields, "startDate")
		doc.StartTime = fieldInt(hit.Fields, "startTime")
		doc.Highlights = fieldString(hit.Fields, "highlights")
		doc.SpeakerName = fieldString(hit.Fields, "speakerName")
		doc.ConferenceName = fieldString(hit.Fields, "conferenceName")
		doc.ConferenceTopics = fieldString(hit.Fields, "conferenceTopics")
		doc.ConferenceCity = fieldString(hit.Fields, "conferenceCity")
		doc.ConferenceDescription = fieldString(hit.Fields, "conferenceDescription")
		out = append(out, doc)
	}
	return out, nil
}

func fieldString(fields map[string]any, name string) string {
	if s, ok := fields[name].(string); ok {
		return s
	}
	return ""
}

func fieldInt(fields map[string]any, name string) int {
	if f, ok := fields[name].(float64); ok {
		return int(f)
	}
	return 0
}

// classify marks failures worth a single retry.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", domain.ErrTransient, err)
	}
	var temp interface{ Temporary() bool }
	if errors.As(err, &temp) && temp.Temporary() {
		return fmt.Errorf("%w: %v", domain.ErrTransient, err)
	}
	return err
}
