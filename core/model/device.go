package model

import "strings"

// Domain is the Home Assistant integration domain of a device ("light",
// "climate", ...).
type Domain string

const (
	DomainSwitch  Domain = "switch"
	DomainLight   Domain = "light"
	DomainClimate Domain = "climate"
	DomainNumber  Domain = "number"
	DomainFan     Domain = "fan"
	DomainCover   Domain = "cover"
)

// DefaultDomains lists the domains the scheduler may actuate.
var DefaultDomains = []Domain{DomainSwitch, DomainLight, DomainClimate, DomainNumber, DomainFan, DomainCover}

// DeviceID is a canonical domain-qualified entity identifier such as
// "light.kitchen".
type DeviceID string

// Domain returns the text before the first dot, or "" when the id has none.
func (id DeviceID) Domain() Domain {
	s := string(id)
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return ""
	}
	return Domain(s[:i])
}

// ObjectID returns the part after the first dot.
func (id DeviceID) ObjectID() string {
	s := string(id)
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return ""
	}
	return s[i+1:]
}

func (id DeviceID) String() string { return string(id) }

// DomainSet is an allow-set of domains.
type DomainSet map[Domain]struct{}

// NewDomainSet builds a DomainSet. An empty list yields DefaultDomains.
func NewDomainSet(domains ...Domain) DomainSet {
	if len(domains) == 0 {
		domains = DefaultDomains
	}
	s := make(DomainSet, len(domains))
	for _, d := range domains {
		s[Domain(strings.ToLower(strings.TrimSpace(string(d))))] = struct{}{}
	}
	return s
}

// Contains reports whether d is allowed.
func (s DomainSet) Contains(d Domain) bool {
	_, ok := s[d]
	return ok
}
