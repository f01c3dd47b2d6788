// Package pagevitals is a client for the PageVitals REST API.
//
// The client covers the three read endpoints vitals needs:
//
//	GET /websites
//	GET /{websiteId}/pages
//	GET /{websiteId}/pages/{pageId}/timeline?startDate=&endDate=&device=
//
// Every request carries the API key as a bearer token and waits on a
// client-side rate limiter. HTTP 429 responses are retried after the
// Retry-After delay; every other non-2xx status is returned as *APIError.
package pagevitals
