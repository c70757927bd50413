// Package extract turns a parsed job detail page into an unvalidated
// crawler.Extraction.
//
// Each field is read from the page's JobPosting JSON-LD block when one is
// present. Fields the block leaves empty fall through an ordered table of
// selector and text strategies; the first candidate that passes
// sanitize.IsValidText and the field's own shape check wins. No strategy
// performs I/O.
package extract
