// Package connstr parses Couchbase connection strings into resolved host
// lists, grammar-level only: this package does not perform network I/O.
// SRV resolution is a separate concern left to higher-level bootstrap code;
// the grammar still lives here since routing needs to parse connstrs, but
// DNS SRV lookups are out of scope for this package.
package connstr

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Scheme identifies which transport and default port a connection string
// requests.
type Scheme string

const (
	SchemeDefault Scheme = ""
	SchemeCouchbase Scheme = "couchbase"
	SchemeCouchbases Scheme = "couchbases"
	SchemeCouchbase2 Scheme = "couchbase2"
)

// Default ports per scheme.
const (
	DefaultPortPlain = 11210
	DefaultPortTLS = 11207
	DefaultPortCouchbase2 = 18098
	DefaultPortHTTP = 8091
)

// Host is one parsed host entry, with Port zero when none was specified.
type Host struct {
	Name string
	Port int
	// IsIPLiteral is true when Name is an IPv4 or bracketed IPv6 literal,
	// which disqualifies it from SRV resolution.
	IsIPLiteral bool
}

// ConnSpec is a fully parsed connection string.
type ConnSpec struct {
	Scheme Scheme
	Hosts []Host
	Opts url.Values

	// SRVEligible is true only when scheme is couchbase/couchbases, there
	// is exactly one unported, non-IP-literal host.
	SRVEligible bool
}

// Parse parses a connection string per the grammar:
//
//	conn-string := scheme "://" hosts [ "/" ignored ] [ "?" opts ]
//	scheme := "couchbase" | "couchbases" | "couchbase2" | ""
//	hosts := host [ ( ";" | "," ) host ]*
//	host := ipv4 | "[" ipv6 "]" | dns-name [ ":" port ]
//	opts := key "=" value [ "&" key "=" value ]*
func Parse(raw string) (ConnSpec, error) {
	scheme, rest, err := splitScheme(raw)
	if err != nil {
		return ConnSpec{}, err
	}

	hostPart := rest
	var optsPart string
	if idx := strings.IndexAny(rest, "?"); idx >= 0 {
		hostPart = rest[:idx]
		optsPart = rest[idx+1:]
	}
	if idx := strings.Index(hostPart, "/"); idx >= 0 {
		hostPart = hostPart[:idx]
	}

	hosts, err := parseHosts(hostPart, scheme)
	if err != nil {
		return ConnSpec{}, err
	}

	opts, err := url.ParseQuery(optsPart)
	if err != nil {
		return ConnSpec{}, fmt.Errorf("connstr: invalid options: %w", err)
	}

	spec := ConnSpec{Scheme: scheme, Hosts: hosts, Opts: opts}
	spec.SRVEligible = isSRVEligible(scheme, hosts)

	if err := validate(spec); err != nil {
		return ConnSpec{}, err
	}

	return spec, nil
}

func splitScheme(raw string) (Scheme, string, error) {
	idx := strings.Index(raw, "://")
	if idx < 0 {
		return SchemeDefault, raw, nil
	}
	scheme := Scheme(raw[:idx])
	switch scheme {
	case SchemeCouchbase, SchemeCouchbases, SchemeCouchbase2, SchemeDefault:
		return scheme, raw[idx+3:], nil
	default:
		return "", "", fmt.Errorf("connstr: unknown scheme %q", scheme)
	}
}

func parseHosts(hostPart string, scheme Scheme) ([]Host, error) {
	if hostPart == "" {
		return nil, fmt.Errorf("connstr: no hosts given")
	}

	var rawHosts []string
	start := 0
	for i, c := range hostPart {
		if c == ';' || c == ',' {
			rawHosts = append(rawHosts, hostPart[start:i])
			start = i + 1
		}
	}
	rawHosts = append(rawHosts, hostPart[start:])

	hosts := make([]Host, 0, len(rawHosts))
	for _, raw := range rawHosts {
		h, err := parseHost(raw)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, h)
	}
	return hosts, nil
}

func parseHost(raw string) (Host, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Host{}, fmt.Errorf("connstr: empty host entry")
	}

	if strings.HasPrefix(raw, "[") {
		// Bracketed IPv6 literal, optionally followed by :port.
		closeIdx := strings.Index(raw, "]")
		if closeIdx < 0 {
			return Host{}, fmt.Errorf("connstr: unterminated ipv6 literal %q", raw)
		}
		name := raw[1:closeIdx]
		port := 0
		if rest := raw[closeIdx+1:]; strings.HasPrefix(rest, ":") {
			p, err := strconv.Atoi(rest[1:])
			if err != nil {
				return Host{}, fmt.Errorf("connstr: invalid port in %q: %w", raw, err)
			}
			port = p
		}
		return Host{Name: name, Port: port, IsIPLiteral: true}, nil
	}

	name, portStr, hasPort := strings.Cut(raw, ":")
	host := Host{Name: name}
	if hasPort {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return Host{}, fmt.Errorf("connstr: invalid port in %q: %w", raw, err)
		}
		host.Port = p
	}
	host.IsIPLiteral = net.ParseIP(name) != nil
	return host, nil
}

func isSRVEligible(scheme Scheme, hosts []Host) bool {
	if scheme != SchemeCouchbase && scheme != SchemeCouchbases {
		return false
	}
	if len(hosts) != 1 {
		return false
	}
	h := hosts[0]
	return h.Port == 0 && !h.IsIPLiteral
}

func validate(spec ConnSpec) error {
	if spec.Scheme == SchemeCouchbase2 && len(spec.Hosts) > 1 {
		return fmt.Errorf("connstr: couchbase2 scheme accepts at most one host")
	}
	if spec.Scheme == SchemeCouchbase {
		for _, h := range spec.Hosts {
			if h.Port == DefaultPortHTTP {
				return fmt.Errorf("connstr: couchbase://%s:%d is rejected (legacy HTTP port on KV scheme)", h.Name, h.Port)
			}
		}
	}
	return nil
}

// DefaultPort returns the implicit port for scheme when a host omits one.
func DefaultPort(scheme Scheme) int {
	switch scheme {
	case SchemeCouchbases:
		return DefaultPortTLS
	case SchemeCouchbase2:
		return DefaultPortCouchbase2
	default:
		return DefaultPortPlain
	}
}

// ResolvedAddr returns host's network address, filling in the scheme's
// default port when h.Port is unset.
func ResolvedAddr(h Host, scheme Scheme) string {
	port := h.Port
	if port == 0 {
		port = DefaultPort(scheme)
	}
	return net.JoinHostPort(h.Name, strconv.Itoa(port))
}

// SRVName builds the DNS SRV service name for host under scheme, valid
// only when spec.SRVEligible is true.
func SRVName(scheme Scheme, host string) string {
	if scheme == SchemeCouchbases {
		return "_couchbases._tcp." + host
	}
	return "_couchbase._tcp." + host
}
