// internal/pipeline/pipeline.go

// Package pipeline turns raw source material into evaluation-ready chunks:
// load (URL, file or inline string), split along heading structure, then
// filter out fragments and boilerplate not worth an assessor call.
package pipeline

import (
	"context"

	"chunk-auditor/internal/assessment"
	"chunk-auditor/internal/common/config"
	commonhttp "chunk-auditor/internal/common/http"
	"chunk-auditor/internal/common/metrics"
)

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Batch is one document's worth of pipeline output.
type Batch struct {
	Source  *Document
	Chunks  []assessment.Chunk
	Skipped []SkippedChunk
}

// Pipeline wires the loader, chunker and filter into one pass.
type Pipeline struct {
	loader  *Loader
	chunker *Chunker
	filter  *Filter
	logger  Logger
}

func New(cfg *config.Config, client *commonhttp.Client, log Logger) (*Pipeline, error) {
	filter, err := NewFilter(cfg.Filtering, log)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		loader:  NewLoader(client, 0, log),
		chunker: NewChunker(cfg.Chunking, log),
		filter:  filter,
		logger:  log,
	}, nil
}

// ProcessURL fetches a page and runs it through the pipeline.
func (p *Pipeline) ProcessURL(ctx context.Context, url string) (*Batch, error) {
	doc, err := p.loader.FromURL(ctx, url)
	if err != nil {
		return nil, err
	}
	return p.process(doc), nil
}

// ProcessFile loads a local file and runs it through the pipeline.
func (p *Pipeline) ProcessFile(path string) (*Batch, error) {
	doc, err := p.loader.FromFile(path)
	if err != nil {
		return nil, err
	}
	return p.process(doc), nil
}

// ProcessString runs inline content through the pipeline.
func (p *Pipeline) ProcessString(content string) (*Batch, error) {
	doc, err := p.loader.FromString(content)
	if err != nil {
		return nil, err
	}
	return p.process(doc), nil
}

func (p *Pipeline) process(doc *Document) *Batch {
	chunks := p.chunker.Split(doc)
	metrics.ChunksProduced.Add(float64(len(chunks)))

	kept, skipped := p.filter.Apply(chunks)

	p.logger.Info("pipeline complete", map[string]interface{}{
		"origin":  doc.Origin,
		"chunks":  len(chunks),
		"kept":    len(kept),
		"skipped": len(skipped),
	})

	return &Batch{
		Source:  doc,
		Chunks:  kept,
		Skipped: skipped,
	}
}
