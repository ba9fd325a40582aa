// internal/report/indexer.go
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const defaultIndexName = "chunk-audits"

var ErrIndexFailed = errors.New("CHUNK_INDEX_FAILED")

// Indexer writes one document per chunk verdict so runs can be searched
// across the whole fleet of audited sources.
type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger Logger
}

func NewIndexer(client *elasticsearch.Client, index string, log Logger) *Indexer {
	if index == "" {
		index = defaultIndexName
	}
	return &Indexer{client: client, index: index, logger: log}
}

// IndexRun indexes every evaluated chunk of the run. Chunks that failed
// evaluation have no verdict to index and are skipped.
func (i *Indexer) IndexRun(ctx context.Context, report *RunReport) error {
	indexed := 0
	for _, cr := range report.Chunks {
		if cr.Record == nil {
			continue
		}

		scores := make(map[string]int, len(cr.Record.PerAssessor))
		for name, outcome := range cr.Record.PerAssessor {
			if outcome.Succeeded() {
				scores[name] = outcome.Result.Score
			}
		}

		doc := map[string]interface{}{
			"run_id":            report.RunID,
			"chunk_index":       cr.Index,
			"chunk_id":          cr.ChunkID,
			"heading":           cr.Heading,
			"overall_score":     cr.Record.OverallScore,
			"passing":           cr.Record.OverallPassing,
			"degraded":          cr.Record.Degraded,
			"assessor_scores":   scores,
			"effective_weights": cr.Record.EffectiveWeights,
			"source_origin":     report.Source.Origin,
			"source_type":       report.Source.Type,
			"analyzed_at":       report.CompletedAt,
		}

		body, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("%w: marshal chunk %d: %v", ErrIndexFailed, cr.Index, err)
		}

		req := esapi.IndexRequest{
			Index:      i.index,
			DocumentID: fmt.Sprintf("%s-%d", report.RunID, cr.Index),
			Body:       bytes.NewReader(body),
		}

		res, err := req.Do(ctx, i.client)
		if err != nil {
			return fmt.Errorf("%w: chunk %d: %v", ErrIndexFailed, cr.Index, err)
		}
		if res.IsError() {
			msg := res.String()
			res.Body.Close()
			return fmt.Errorf("%w: chunk %d: %s", ErrIndexFailed, cr.Index, msg)
		}
		res.Body.Close()
		indexed++
	}

	i.logger.Info("run indexed", map[string]interface{}{
		"runId":     report.RunID,
		"index":     i.index,
		"documents": indexed,
	})

	return nil
}
