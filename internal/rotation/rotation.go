// Package rotation implements round-robin selection over the proxy and
// identity pools consumed by the request layer. Pools are fixed at startup;
// only the cursor advances, atomically, so many in-flight fetches can share
// one ring.
package rotation

import (
	"net/http"
	"sync/atomic"
)

// Proxy is one upstream proxy endpoint. The zero value means "no proxy".
type Proxy struct {
	URL string
}

// IsZero reports whether the proxy is the direct-connection sentinel.
func (p Proxy) IsZero() bool {
	return p.URL == ""
}

// Identity is the header set presented to the remote server, including the
// browser-identifying string.
type Identity struct {
	UserAgent string
	Headers   http.Header
}

// defaultUserAgents is the fallback identity pool used when configuration
// provides none.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:89.0) Gecko/20100101 Firefox/89.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.101 Safari/537.36",
}

// ProxyRing cycles over a proxy pool.
type ProxyRing struct {
	proxies []Proxy
	cursor  atomic.Uint64
}

// NewProxyRing builds a ring from the configured pool. An empty pool yields
// a single no-proxy sentinel so callers never need a special case.
func NewProxyRing(urls []string) *ProxyRing {
	proxies := make([]Proxy, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			proxies = append(proxies, Proxy{URL: u})
		}
	}
	if len(proxies) == 0 {
		proxies = []Proxy{{}}
	}
	return &ProxyRing{proxies: proxies}
}

// Next returns the next proxy in round-robin order.
func (r *ProxyRing) Next() Proxy {
	n := r.cursor.Add(1) - 1
	return r.proxies[n%uint64(len(r.proxies))]
}

// IdentityRing cycles over a pool of request identities.
type IdentityRing struct {
	identities []Identity
	cursor     atomic.Uint64
}

// NewIdentityRing builds a ring from the configured user-agent pool, falling
// back to the built-in browser strings when none are configured.
func NewIdentityRing(userAgents []string) *IdentityRing {
	agents := make([]string, 0, len(userAgents))
	for _, ua := range userAgents {
		if ua != "" {
			agents = append(agents, ua)
		}
	}
	if len(agents) == 0 {
		agents = defaultUserAgents
	}
	identities := make([]Identity, len(agents))
	for i, ua := range agents {
		identities[i] = Identity{UserAgent: ua}
	}
	return &IdentityRing{identities: identities}
}

// Next returns the next identity in round-robin order.
func (r *IdentityRing) Next() Identity {
	n := r.cursor.Add(1) - 1
	return r.identities[n%uint64(len(r.identities))]
}
