// Package config provides configuration structures and utilities for vitals.
//
// It defines the options used to talk to the PageVitals API (base URL,
// credentials, call budget, retries), where results are written, and how
// the .env file that maps website names to PageVitals IDs is read and
// maintained.
package config
