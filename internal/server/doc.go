// Package server provides the dedicated Prometheus metrics endpoint used
// during long-running browse sessions.
package server
