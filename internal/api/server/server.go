// Package server builds the HTTP server for the job API.
package server

import (
	"net/http"
	"time"

	"github.com/wb-go/wbf/ginext"
)

// Request bodies on this API are small JSON documents; media bytes move
// through presigned URLs and never pass through the server. Tight
// read/write timeouts are safe, while idle connections from polling
// clients are kept around longer.
const (
	readTimeout       = 5 * time.Second
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 120 * time.Second
)

// New wraps the router in an http.Server listening on addr.
func New(addr string, router *ginext.Engine) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
