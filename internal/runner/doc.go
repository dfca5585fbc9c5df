// Package runner is the in-process periodic job runner.
//
// It exposes the three operations the rest of the system depends on:
// registering a periodic job under a name, revoking a job by name, and
// looking up a task function by its stable string key. Registrations are
// keyed by name; re-registering a name replaces the previous entry, which
// is how edits to a scheduled task take effect.
package runner
