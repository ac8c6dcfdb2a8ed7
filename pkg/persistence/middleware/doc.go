// Package middleware decorates session stores. Compositions hold what a user is
// typing, so stores shared between hosts can seal them with NewEncryptionMiddleware.
package middleware
