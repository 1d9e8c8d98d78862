// Package connectors holds the sources that feed the ingestion pipeline.
// Each connector runs as a daemon component and hands new content to a
// driving ingestion port: the filesystem watcher, the IMAP poller and the
// Apple Mail poller.
package connectors
