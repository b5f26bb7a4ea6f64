package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/rs/zerolog/log"

	"carbon-admin-console/config"
	"carbon-admin-console/internal/model"
)

// IndexJanitor deletes daily indices that fell out of the retention window.
type IndexJanitor struct {
	client      *elasticsearch.Client
	indexPrefix string
	days        int
	now         func() time.Time
}

func NewIndexJanitor(client *elasticsearch.Client, cfg *config.Config) *IndexJanitor {
	return &IndexJanitor{
		client:      client,
		indexPrefix: cfg.Elasticsearch.IndexPrefix,
		days:        cfg.Retention.Days,
		now:         time.Now,
	}
}

// Cutoff is the first day that is kept.
func (j *IndexJanitor) Cutoff() time.Time {
	y, m, d := j.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -j.days)
}

// ExpiredIndices picks the daily indices of prefix dated before cutoff.
// Names that do not end in a date are never selected.
func ExpiredIndices(names []string, prefix string, cutoff time.Time) []string {
	var expired []string
	for _, name := range names {
		rest, ok := strings.CutPrefix(name, prefix+"-")
		if !ok {
			continue
		}
		kind, date, ok := strings.Cut(rest, "-")
		if !ok {
			continue
		}
		if _, err := model.ParseKind(kind); err != nil {
			continue
		}
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			continue
		}
		if day.Before(cutoff) {
			expired = append(expired, name)
		}
	}
	sort.Strings(expired)
	return expired
}

func (j *IndexJanitor) listIndices(ctx context.Context) ([]string, error) {
	res, err := j.client.Cat.Indices(
		j.client.Cat.Indices.WithContext(ctx),
		j.client.Cat.Indices.WithIndex(j.indexPrefix+"-*"),
		j.client.Cat.Indices.WithFormat("json"),
		j.client.Cat.Indices.WithH("index"),
	)
	if err != nil {
		return nil, fmt.Errorf("cat indices: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("cat indices returned error status: %s", res.Status())
	}

	var rows []struct {
		Index string `json:"index"`
	}
	if err := json.NewDecoder(res.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode cat indices: %w", err)
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Index)
	}
	return names, nil
}

// Run deletes every expired index and returns their names.
func (j *IndexJanitor) Run(ctx context.Context) ([]string, error) {
	if j.days <= 0 {
		log.Debug().Msg("Retention disabled, skipping index cleanup")
		return nil, nil
	}
	cutoff := j.Cutoff()
	names, err := j.listIndices(ctx)
	if err != nil {
		return nil, err
	}
	expired := ExpiredIndices(names, j.indexPrefix, cutoff)
	if len(expired) == 0 {
		log.Debug().Time("cutoff", cutoff).Msg("Retention cleanup completed, no indices to delete")
		return nil, nil
	}

	res, err := j.client.Indices.Delete(expired, j.client.Indices.Delete.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("delete indices: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("delete indices returned error status: %s", res.Status())
	}
	log.Info().Strs("indices", expired).Time("cutoff", cutoff).Msg("Retention cleanup deleted expired indices")
	return expired, nil
}
