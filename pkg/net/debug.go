package net

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
)

// DumpResponse logs the full response, body included, at debug level.
// The body is restored so callers can still read it.
func DumpResponse(resp *http.Response) {
	if resp == nil {
		return
	}
	if respDump, err := httputil.DumpResponse(resp, true); err == nil {
		slog.Debug("http response", "dump", string(respDump))
	}
}
