// Package redis provides Redis-backed session persistence and distributed locking
// for hosts that run several unicorn instances behind one endpoint.
package redis
