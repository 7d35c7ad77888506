// Package app provides application initialization and dependency injection.
//
// App is the container that wires configuration, AWS clients, the vector
// store backend, and the ingestion and query pipelines. Setup builds every
// component exactly once; commands and Lambda entrypoints consume the
// assembled container.
package app

import (
	"github.com/quarklabs/ragline/internal/config"
	"github.com/quarklabs/ragline/internal/ingest"
	"github.com/quarklabs/ragline/internal/log"
	"github.com/quarklabs/ragline/internal/query"
	"github.com/quarklabs/ragline/internal/vectorstore"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	// Store is the selected vector store backend. Pipelines only ever see
	// this interface; backend selection happens once, in Setup.
	Store vectorstore.Store

	Ingestion *ingest.Pipeline
	Query     *query.Pipeline

	otelCleanup func()
}

// Close releases application resources and flushes pending trace spans.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}
	return nil
}
