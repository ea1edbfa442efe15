// Package tmdb is a thin client for the TMDB v3 API. Every lookup returns a
// normalized domain record or an empty sentinel; transport and decode
// failures are logged here and never reach the caller.
package tmdb
