// Package database stores Lighthouse score snapshots for vitals.
//
// Each successful 'vitals scores' run is saved as a snapshot in a single
// SQLite file (via modernc.org/sqlite, no CGO) under the XDG data
// directory. A snapshot whose rows match the latest one is not stored
// again, so 'vitals compare' always compares two distinct runs.
package database
