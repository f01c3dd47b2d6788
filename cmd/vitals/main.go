// Package main provides the entry point for the vitals CLI.
//
// vitals exports data from the PageVitals API: it records website IDs in a
// .env file, lists the pages of those websites and writes their Lighthouse
// scores and timeline history to timestamped CSV files.
//
// Usage:
//
//	vitals websites
//	vitals pages
//	vitals scores
//
// See --help for all available options.
package main

func main() {
	Execute()
}
