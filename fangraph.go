// Package fangraph extracts a graph of music-catalog entities (artists,
// releases, fans) and their relationships from a web storefront by parsing
// HTML pages and the store's undocumented pagination APIs. Scrape requests
// are deduplicated, processed by a fixed worker pool, and served through a
// single rate-limited, persistently-cached HTTP gateway so the origin is
// never asked the same question twice and never asked two questions at once.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, goquery/); orchestration
// lives in scrape/.
package fangraph
