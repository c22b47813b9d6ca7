// Package notifications publishes run lifecycle events to an ntfy topic.
//
// Batch runs are long: a large directory on cpu can take hours. Pointing
// notifications.ntfy_topic at a topic URL gets a push message when a run
// starts, finishes, or is interrupted, without scribe growing a server of its
// own. An empty topic swaps in a no-op service so call sites never branch.
package notifications
