// Package storage opens the sqlite database backing homehub.
//
// The schema is embedded and applied at open; statements are idempotent
// (CREATE TABLE IF NOT EXISTS) so repeated opens are safe.
package storage
