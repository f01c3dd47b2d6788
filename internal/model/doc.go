// Package model defines the data structures shared across vitals.
//
// This package contains the following main types:
//   - Website: A site monitored by PageVitals
//   - Page: A monitored URL of a website, with its latest Lighthouse scores
//   - LighthouseScore: The four Lighthouse category scores
//   - TimelineEntry: One day of historical measurements for a page
//   - ScoreRow: A flattened (website, page, scores) record used for CSV
//     output and snapshot storage
//
// Models are kept separate from the API client, the report writers and the
// database so that none of those packages depend on each other.
package model
