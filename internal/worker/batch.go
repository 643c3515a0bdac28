package worker

import (
	"context"

	"github.com/lhl/realitycheck/internal/model"
)

// Embedder turns text into a vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbedItem is one record to (re)embed
type EmbedItem struct {
	Kind model.Kind
	ID   string
	Text string
}

// EmbedJob embeds one item
type EmbedJob struct {
	Index    int
	Item     EmbedItem
	Embedder Embedder
}

// Execute executes the embed job
func (j *EmbedJob) Execute(ctx context.Context) Result {
	vec, err := j.Embedder.Embed(ctx, j.Item.Text)
	return &EmbedResult{Index: j.Index, Item: j.Item, Vector: vec, Error: err}
}

// EmbedResult represents the result of an embed job
type EmbedResult struct {
	Index  int
	Item   EmbedItem
	Vector []float32
	Error  error
}

// GetError returns the error from the embed result
func (r *EmbedResult) GetError() error {
	return r.Error
}

// BatchProcessor embeds many items concurrently
type BatchProcessor struct {
	embedder    Embedder
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(embedder Embedder, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		embedder:    embedder,
		concurrency: concurrency,
	}
}

// Process embeds every item and returns one result per item in input
// order. A failed item never stops the batch; items not started before ctx
// is cancelled come back with ctx's error.
func (b *BatchProcessor) Process(ctx context.Context, items []EmbedItem) []*EmbedResult {
	if len(items) == 0 {
		return []*EmbedResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	stopped := false
	for i, item := range items {
		if !pool.Submit(&EmbedJob{Index: i, Item: item, Embedder: b.embedder}) {
			stopped = true
			break
		}
	}

	var results []Result
	if stopped {
		results = pool.Shutdown()
	} else {
		results = pool.Wait()
	}

	out := make([]*EmbedResult, len(items))
	for _, r := range results {
		er := r.(*EmbedResult)
		out[er.Index] = er
	}
	for i := range out {
		if out[i] == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out[i] = &EmbedResult{Index: i, Item: items[i], Error: err}
		}
	}
	return out
}
