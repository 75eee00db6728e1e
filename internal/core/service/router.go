package service

import (
	"sort"

	"github.com/yndnr/geminid/internal/core/domain"
)

// Router maps a request host to its configured site.
//
// Lookup is an exact, case-sensitive match; there is no default site
// and no wildcard or suffix matching.
type Router struct {
	sites map[string]*domain.VirtualSite
}

// NewRouter builds a router from sites.
// Each site must validate and hosts must be unique.
func NewRouter(sites []*domain.VirtualSite) (*Router, error) {
	m := make(map[string]*domain.VirtualSite, len(sites))
	for _, site := range sites {
		if site == nil {
			return nil, domain.ErrSiteInvalid.WithDetails("nil site")
		}
		if err := site.Validate(); err != nil {
			return nil, err
		}
		if _, exists := m[site.Host]; exists {
			return nil, domain.ErrSiteConflict.WithDetails(site.Host)
		}
		m[site.Host] = site
	}
	return &Router{sites: m}, nil
}

// Route returns the site for host, or false when none is configured.
func (r *Router) Route(host string) (*domain.VirtualSite, bool) {
	site, ok := r.sites[host]
	return site, ok
}

// Hosts returns the configured hosts in sorted order.
func (r *Router) Hosts() []string {
	hosts := make([]string, 0, len(r.sites))
	for h := range r.sites {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}

// Len returns the number of configured sites.
func (r *Router) Len() int {
	return len(r.sites)
}
