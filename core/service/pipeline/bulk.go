package pipeline

import (
	"context"
	"sync"

	"leadflow/core/domain"

	"github.com/google/uuid"
)

// BulkRun processes lead ids in fixed-size batches, fanning each batch out
// concurrently. Per-lead failures (including duplicate-run rejections) are
// reported in the result list; they never abort the remaining leads. Results
// come back in input order.
func (o *Orchestrator) BulkRun(ctx context.Context, leadIDs []uuid.UUID) []domain.PipelineResult {
	results := make([]domain.PipelineResult, len(leadIDs))

	for start := 0; start < len(leadIDs); start += o.opts.BulkBatchSize {
		end := start + o.opts.BulkBatchSize
		if end > len(leadIDs) {
			end = len(leadIDs)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int, id uuid.UUID) {
				defer wg.Done()
				run, err := o.Run(ctx, id)
				if err != nil {
					results[idx] = domain.PipelineResult{LeadID: id, Error: err.Error()}
					return
				}
				results[idx] = domain.PipelineResult{LeadID: id, Run: run}
			}(i, leadIDs[i])
		}
		wg.Wait()
	}

	o.log.WithFields(map[string]any{
		"total":   len(leadIDs),
		"batches": (len(leadIDs) + o.opts.BulkBatchSize - 1) / o.opts.BulkBatchSize,
	}).Info("Bulk run finished")

	return results
}
