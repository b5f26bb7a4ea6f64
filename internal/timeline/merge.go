// Package timeline merges log records from several streams into one view.
package timeline

import (
	"sort"

	"carbon-admin-console/internal/model"
	"carbon-admin-console/internal/util"
)

// RawViewLimit caps the merged raw view and exports.
const RawViewLimit = 1000

// Merge concatenates the groups and orders them newest first. Records with
// unparsable timestamps sort as if stamped at the Unix epoch; ties keep their
// input order. A positive limit truncates the result.
func Merge(limit int, groups ...[]model.LogRecord) []model.LogRecord {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	type keyed struct {
		rec  model.LogRecord
		unix int64
	}
	all := make([]keyed, 0, total)
	for _, g := range groups {
		for _, r := range g {
			all = append(all, keyed{rec: r, unix: util.ParseTimeOrEpoch(r.Timestamp).UnixNano()})
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].unix > all[j].unix })

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	out := make([]model.LogRecord, len(all))
	for i, k := range all {
		out[i] = k.rec
	}
	return out
}

// Page slices one page out of records (pages start at 1).
func Page(records []model.LogRecord, page, perPage int) ([]model.LogRecord, model.Pagination) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = len(records)
	}
	p := model.NewPagination(page, perPage, int64(len(records)))
	start := (page - 1) * perPage
	if start >= len(records) {
		return []model.LogRecord{}, p
	}
	end := min(start+perPage, len(records))
	return records[start:end], p
}
