// Package hostport splits a "host[:port]" string the way the session engine's
// listen-address and control-socket flags expect: IPv6 literals must be
// bracketed, and a missing port is not an error.
package hostport

import (
	"fmt"
	"strconv"
	"strings"
)

// MalformedHostPort is returned when the input cannot be parsed as a
// host[:port] pair.
type MalformedHostPort struct {
	Input string
}

func (e *MalformedHostPort) Error() string {
	return fmt.Sprintf("malformed host:port %q", e.Input)
}

// Split parses hostport into a host and an optional port. A host wrapped in
// brackets (required for IPv6 literals) has the brackets stripped. Examples:
//
//	"foo"          -> ("foo", nil)
//	"foo:9599"     -> ("foo", &9599)
//	"[::1]"        -> ("::1", nil)
//	"[::1]:9599"   -> ("::1", &9599)
func Split(hostport string) (host string, port *uint16, err error) {
	if hostport == "" {
		return "", nil, &MalformedHostPort{Input: hostport}
	}

	if strings.HasPrefix(hostport, "[") {
		end := strings.Index(hostport, "]")
		if end < 0 {
			return "", nil, &MalformedHostPort{Input: hostport}
		}
		host = hostport[1:end]
		if strings.ContainsAny(host, "[]") {
			return "", nil, &MalformedHostPort{Input: hostport}
		}
		rest := hostport[end+1:]
		switch {
		case rest == "":
			return host, nil, nil
		case strings.HasPrefix(rest, ":"):
			p, err := parsePort(rest[1:])
			if err != nil {
				return "", nil, &MalformedHostPort{Input: hostport}
			}
			return host, &p, nil
		default:
			return "", nil, &MalformedHostPort{Input: hostport}
		}
	}

	if strings.ContainsAny(hostport, "[]") {
		return "", nil, &MalformedHostPort{Input: hostport}
	}

	idx := strings.LastIndex(hostport, ":")
	if idx < 0 {
		return hostport, nil, nil
	}

	host = hostport[:idx]
	p, err := parsePort(hostport[idx+1:])
	if err != nil {
		return "", nil, &MalformedHostPort{Input: hostport}
	}
	return host, &p, nil
}

func parsePort(s string) (uint16, error) {
	if s == "" {
		return 0, fmt.Errorf("empty port")
	}
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}
