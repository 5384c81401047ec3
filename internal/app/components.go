package app

import (
	"github.com/stacklok/nodesync/internal/app/storage"
	"github.com/stacklok/nodesync/internal/queue"
	"github.com/stacklok/nodesync/internal/service"
	nodesync "github.com/stacklok/nodesync/internal/sync"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Dispatcher routes job messages to the sync passes
	Dispatcher *nodesync.Dispatcher

	// Consumer reads job messages from Redis. Nil when no queue is configured.
	Consumer *queue.Consumer

	// JobService backs the HTTP API
	JobService service.JobService

	// Storage owns the stores and their connections
	Storage storage.Factory
}
