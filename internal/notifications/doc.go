// Package notifications delivers rewrite events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when no topic is set. Entry-level events
// (unsupported images, malformed names, decode failures) and run completion
// are gated by the [notifications] toggles; failures are always sent.
//
// Callers depend only on the Service interface and log events themselves;
// the service only delivers them.
package notifications
