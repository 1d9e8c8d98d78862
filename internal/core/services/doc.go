// Package services holds the core of Promethean Light: ingestion,
// organization, search, chat and the background scheduler and daemon.
// Services depend only on ports; adapters are injected by internal/app.
package services
