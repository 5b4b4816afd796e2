package instance

import (
	"os"

	"github.com/aaracollective/storefront-backend/pkg/env"
)

// ID identifies this process in logs and lock ownership. It prefers
// STOREFRONT_INSTANCE_ID, then the platform's DYNO name, then the hostname.
func ID() string {
	if id := env.Get("STOREFRONT_INSTANCE_ID", ""); id != "" {
		return id
	}
	if id := env.Get("DYNO", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
