package elasticsearch

import (
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/operator"

	"carbon-admin-console/internal/logquery"
)

const (
	fieldTimestamp = "timestamp"
	fieldDuration  = "duration_ms"
)

// numericFields are mapped as numbers; every other term goes to .keyword.
var numericFields = map[string]bool{
	logquery.KeyStatusCode: true,
}

// textFields are searched by the free text part of a query.
var textFields = []string{"message", "path", "action", "error_type", "error_message", "entity", "model", "request_id", "user_id"}

// termField is the exact-match field of a record key.
func termField(key string) string {
	if numericFields[key] {
		return key
	}
	return key + ".keyword"
}

// buildQuery turns a filter into a bool query whose clauses all filter.
func buildQuery(f logquery.Filter) *types.Query {
	filters := []types.Query{}

	for key, value := range f.Terms() {
		filters = append(filters, types.Query{
			Term: map[string]types.TermQuery{
				termField(key): {Value: value},
			},
		})
	}

	// Duration bounds are inclusive; the parameters carry no strictness.
	if f.MinDuration != nil || f.MaxDuration != nil {
		r := types.NumberRangeQuery{}
		if f.MinDuration != nil {
			gte := types.Float64(*f.MinDuration)
			r.Gte = &gte
		}
		if f.MaxDuration != nil {
			lte := types.Float64(*f.MaxDuration)
			r.Lte = &lte
		}
		filters = append(filters, types.Query{
			Range: map[string]types.RangeQuery{fieldDuration: r},
		})
	}

	if f.Text != "" {
		filters = append(filters, types.Query{
			SimpleQueryString: &types.SimpleQueryStringQuery{
				Query:           f.Text,
				Fields:          textFields,
				DefaultOperator: &operator.And,
			},
		})
	}

	return &types.Query{Bool: &types.BoolQuery{Filter: filters}}
}
