// Package fsutil holds file helpers shared by the env file and report
// writers.
package fsutil
