// Package sink provides crawler.Sink implementations for the crawl's output
// records: a JSON Lines dataset, per-record blobs, relational stores, and
// message publishers, plus a fanout that writes to several at once.
package sink
