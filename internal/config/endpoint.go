// ABOUTME: Ledger endpoint selection between the local test network and production
// ABOUTME: Local hosts require a one-time trust bootstrap before any call

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ProductionURL is the fixed production ledger endpoint. Production trust
// is pre-established, so no bootstrap is performed against it.
const ProductionURL = "https://ledger.hero-network.io"

// Network names an endpoint environment.
type Network string

const (
	NetworkLocal      Network = "local"
	NetworkProduction Network = "production"
)

// Endpoint is the resolved ledger endpoint: where to connect and whether
// the channel must perform the one-time trust bootstrap before use.
type Endpoint struct {
	URL               string
	Network           Network
	RequiresBootstrap bool
}

// ResolveEndpoint maps a host string to a ledger endpoint. Hosts matching
// the local development patterns (localhost, 127.0.0.1, *.localhost) select
// the local test network, which requires trust bootstrap; anything else,
// including an empty host, selects production. The host may carry a scheme
// and port, which are preserved for local endpoints.
func ResolveEndpoint(host string) (Endpoint, error) {
	if strings.TrimSpace(host) == "" {
		return Endpoint{URL: ProductionURL, Network: NetworkProduction}, nil
	}

	raw := host
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return Endpoint{}, fmt.Errorf("invalid ledger host %q", host)
	}

	if isLocalHostname(u.Hostname()) {
		return Endpoint{
			URL:               strings.TrimSuffix(u.String(), "/"),
			Network:           NetworkLocal,
			RequiresBootstrap: true,
		}, nil
	}

	return Endpoint{URL: ProductionURL, Network: NetworkProduction}, nil
}

func isLocalHostname(hostname string) bool {
	return hostname == "localhost" ||
		hostname == "127.0.0.1" ||
		strings.HasSuffix(hostname, ".localhost")
}
