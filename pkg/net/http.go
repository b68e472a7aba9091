package net

import (
	"net/http"
	"time"
)

const (
	maxIdleConns     = 10
	timeoutInSeconds = 60
)

var (
	// UserAgent is sent with every outbound request.
	UserAgent = "biascheck/v0.0.1-default"

	reqTransport = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          maxIdleConns,
		IdleConnTimeout:       timeoutInSeconds * time.Second,
		DisableKeepAlives:     false,
		ResponseHeaderTimeout: time.Duration(timeoutInSeconds) * time.Second,
	}
)

// GetHTTPClient returns a client sharing one pooled transport.
// Per-call deadlines are set by the caller through the request context.
func GetHTTPClient() *http.Client {
	return &http.Client{
		Transport: reqTransport,
	}
}
