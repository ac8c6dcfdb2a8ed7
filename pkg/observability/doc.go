/*
Package observability provides tools for monitoring the unicorn engine.

Metrics are derived from domain.LifecycleHooks, so any host (facade, session manager,
HTTP server) can export them by installing the hooks. ChainHooks composes the metric
hooks with user-supplied ones.
*/
package observability
