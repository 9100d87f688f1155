// Package utils provides common utility functions.
package utils

import "net/http"

// UserAgent identifies the optimizer to both remote APIs.
const UserAgent = "wpseo-optimizer/1.0"

// BuildHeaders creates HTTP headers with defaults, then applies customHeaders on top.
func BuildHeaders(customHeaders map[string]string) http.Header {
	headers := http.Header{}

	headers.Set("User-Agent", UserAgent)
	headers.Set("Accept", "application/json")

	for key, value := range customHeaders {
		headers.Set(key, value)
	}

	return headers
}

// ApplyHeaders copies headers onto req, replacing existing values.
func ApplyHeaders(req *http.Request, headers http.Header) {
	for key, values := range headers {
		req.Header.Del(key)

		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
}
