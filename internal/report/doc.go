// Package report renders collected PageVitals data.
//
// Every output starts as a Table (a header plus string rows). Tables are
// written as CSV files for export, as terminal tables by SimpleWriter, or as
// Markdown by MarkdownWriter. JSONWriter encodes arbitrary values for tool
// integration.
//
// CSV files are written atomically: rows go to a temporary file that is
// renamed into place only after everything was written, so a failed run
// never leaves a partial CSV behind.
package report
