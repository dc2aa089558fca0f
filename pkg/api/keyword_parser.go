package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"keyword-volume-go/pkg/record"
)

// keywordToolResponse is the raw keywordstool payload. KeywordList is a pointer so a
// missing field can be told apart from an empty one in logs.
type keywordToolResponse struct {
	KeywordList *[]record.MetricRecord `json:"keywordList"`
}

// MetricsResult is the normalized keywordstool answer. NoResults is set when the upstream
// found nothing; it is not an error.
type MetricsResult struct {
	Keyword   string                `json:"keyword"`
	Records   []record.MetricRecord `json:"keywordList"`
	NoResults bool                  `json:"noResults"`
}

// parsedKeywords carries the parse outcome plus what was dropped, for logging.
type parsedKeywords struct {
	records      []record.MetricRecord
	listMissing  bool
	droppedEmpty int
}

// parseKeywordList maps keywordList entries 1:1 and in order into records. Entries with
// a blank relKeyword cannot satisfy the non-empty keyword invariant and are dropped.
func parseKeywordList(body []byte) (*parsedKeywords, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	var raw keywordToolResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode keywordstool response: %w", err)
	}

	if raw.KeywordList == nil {
		return &parsedKeywords{records: []record.MetricRecord{}, listMissing: true}, nil
	}

	out := &parsedKeywords{records: make([]record.MetricRecord, 0, len(*raw.KeywordList))}
	for _, r := range *raw.KeywordList {
		if strings.TrimSpace(r.Keyword) == "" {
			out.droppedEmpty++
			continue
		}
		out.records = append(out.records, r)
	}
	return out, nil
}
