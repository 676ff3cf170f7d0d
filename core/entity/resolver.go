package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kilianp07/hems/core/model"
)

// GridMarker is the infix the optimizer appends before the electricity grid
// node name.
const GridMarker = "_electricitygrid"

var (
	// ErrNoDomain is returned for names without a domain separator.
	ErrNoDomain = errors.New("entity: name has no domain separator")
	// ErrUnsupportedDomain is returned when the candidate domain is not allowed.
	ErrUnsupportedDomain = errors.New("entity: unsupported domain")
	// ErrAmbiguousName is returned in strict mode for names that carry neither
	// the grid marker nor a repeated domain token.
	ErrAmbiguousName = errors.New("entity: ambiguous name")
)

// Path records which heuristic produced a resolution.
type Path string

const (
	PathMarker Path = "marker"
	PathRepeat Path = "repeat"
	// PathWhole means the general path never saw the domain repeated and kept
	// the full name.
	PathWhole Path = "whole"
)

// Resolution is the outcome of a successful Resolve.
type Resolution struct {
	ID   model.DeviceID
	Path Path
}

// Ambiguous reports whether the id is a best guess.
func (r Resolution) Ambiguous() bool { return r.Path == PathWhole }

// Resolver turns raw control-signal names into device ids. The zero value is
// not usable; build one with NewResolver.
type Resolver struct {
	domains model.DomainSet
	strict  bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDomains overrides the allowed domain set.
func WithDomains(domains ...model.Domain) Option {
	return func(r *Resolver) { r.domains = model.NewDomainSet(domains...) }
}

// WithStrict rejects ambiguous names instead of accepting the whole string.
func WithStrict(strict bool) Option {
	return func(r *Resolver) { r.strict = strict }
}

// NewResolver returns a resolver allowing model.DefaultDomains.
func NewResolver(opts ...Option) Resolver {
	r := Resolver{domains: model.NewDomainSet()}
	for _, o := range opts {
		o(&r)
	}
	return r
}

// Resolve extracts the device id from name. It is pure: the same input always
// yields the same output.
func (r Resolver) Resolve(name string) (Resolution, error) {
	if !strings.Contains(name, ".") {
		return Resolution{}, ErrNoDomain
	}
	if idx := strings.Index(name, GridMarker); idx > 0 {
		id := model.DeviceID(name[:idx])
		if err := r.check(id); err != nil {
			return Resolution{}, err
		}
		return Resolution{ID: id, Path: PathMarker}, nil
	}

	domain := name[:strings.IndexByte(name, '.')]
	parts := strings.Split(name, "_")
	kept := make([]string, 0, len(parts))
	seen := 0
	path := PathWhole
	for _, p := range parts {
		kept = append(kept, p)
		if p == domain || strings.HasPrefix(p, domain+".") {
			seen++
			if seen > 1 {
				kept = kept[:len(kept)-1]
				path = PathRepeat
				break
			}
		}
	}
	id := model.DeviceID(strings.Join(kept, "_"))
	if !strings.Contains(string(id), ".") {
		return Resolution{}, ErrNoDomain
	}
	if err := r.check(id); err != nil {
		return Resolution{}, err
	}
	if path == PathWhole && r.strict {
		return Resolution{}, fmt.Errorf("%w: %q", ErrAmbiguousName, name)
	}
	return Resolution{ID: id, Path: path}, nil
}

func (r Resolver) check(id model.DeviceID) error {
	d := id.Domain()
	if !r.domains.Contains(d) {
		return fmt.Errorf("%w: %q", ErrUnsupportedDomain, d)
	}
	return nil
}
