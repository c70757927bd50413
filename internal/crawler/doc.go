// Package crawler holds the job crawl domain: request and record types, the
// collaborator interfaces, the run-wide crawl budget and the page state machine
// that turns LISTING pages into DETAIL requests and DETAIL pages into records.
package crawler
