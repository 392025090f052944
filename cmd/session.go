package cmd

import (
	"context"
	"fmt"

	"github.com/paperchat/paperchat/internal/agent"
	"github.com/paperchat/paperchat/internal/arxiv"
	"github.com/paperchat/paperchat/internal/config"
	"github.com/paperchat/paperchat/internal/corpus"
	"github.com/paperchat/paperchat/internal/db"
	"github.com/paperchat/paperchat/internal/progress"
	"github.com/paperchat/paperchat/internal/retriever"
)

// session wires the corpus builder, tool retriever, and chat agent for one
// conversation. Corpus mutation and retrieval are separate phases: the
// retriever index is rebuilt after every corpus build, before any chat turn.
type session struct {
	cfg       *config.Config
	builder   *corpus.Builder
	retriever *retriever.ToolRetriever
	agent     *agent.Agent
}

func newSession(ctx context.Context, cfg *config.Config) (*session, error) {
	provider, err := createProviderFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	builder, err := corpus.NewBuilder(provider, embedder, cfg.StorageDir)
	if err != nil {
		return nil, err
	}

	// A previously persisted vector store lets Register skip re-embedding.
	if _, err := builder.Load(ctx); err != nil {
		return nil, err
	}

	reranker := retriever.NewLLMReranker(provider, cfg.TopResults)
	toolRetriever := retriever.New(builder, provider, embedder, reranker, cfg.RetrievalBreadth, cfg.TopResults)

	return &session{
		cfg:       cfg,
		builder:   builder,
		retriever: toolRetriever,
		agent:     agent.New(toolRetriever, provider, cfg.MaxAgentSteps),
	}, nil
}

// buildCorpus fetches and indexes papers for the topic, rebuilds the tool
// index, persists the vector store, and records the catalog.
func (s *session) buildCorpus(ctx context.Context, topic string, catalog *db.DB) (*corpus.BuildResult, error) {
	reporter := progress.NewReporter("Building paper agents")
	started := false

	result, err := s.builder.BuildFromTopic(ctx, arxiv.NewClient(""), corpus.IngestOptions{
		Topic:     topic,
		MaxPapers: s.cfg.MaxPapers,
		PapersDir: s.cfg.PapersDir,
		KeepPDFs:  s.cfg.Persist,
		OnProgress: func(current, total int, message string) {
			if !started {
				reporter.Start(total)
				started = true
			}
			reporter.Update(current, message)
		},
	})
	if started {
		reporter.Finish()
	}
	if err != nil {
		return nil, err
	}

	if err := s.retriever.Rebuild(ctx); err != nil {
		return nil, fmt.Errorf("rebuild tool index: %w", err)
	}
	if err := s.builder.Persist(ctx); err != nil {
		return nil, err
	}

	if catalog != nil {
		for _, doc := range result.Registered {
			entry, _ := s.builder.Entry(doc.ID)
			summary := ""
			if entry != nil {
				summary = entry.Summary
			}
			if err := catalog.SavePaper(ctx, db.PaperRecord{
				ID:        doc.ID,
				Title:     doc.Title,
				Authors:   doc.Authors,
				Published: doc.Published,
				URL:       doc.URL,
				Abstract:  doc.Abstract,
				Summary:   summary,
				Topic:     topic,
			}); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}
