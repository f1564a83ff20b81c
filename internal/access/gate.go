// Package access decides whether a caller may reach the administrative
// surface.
package access

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
)

// DenyReason identifies why a caller was refused.
type DenyReason string

const (
	ReasonNone           DenyReason = ""
	ReasonLocalOnly      DenyReason = "local_only"
	ReasonRemoteDisabled DenyReason = "remote_disabled"
	ReasonIPNotAllowed   DenyReason = "ip_not_allowed"
	ReasonMisconfigured  DenyReason = "misconfigured"
	ReasonUnauthorized   DenyReason = "unauthorized"
)

// Denial messages.
const (
	MsgLocalOnly      = "Admin is local-only."
	MsgRemoteDisabled = "Remote admin is disabled."
	MsgIPNotAllowed   = "Forbidden."
	MsgMisconfigured  = "ADMIN_API_KEY is not set."
	MsgUnauthorized   = "Unauthorized."
)

// Config controls the gate.
type Config struct {
	LocalOnly     bool
	RemoteEnabled bool
	APIKey        string
	IPAllowlist   []string // exact addresses or CIDR ranges
}

// CallerContext is what the gate knows about a caller.
type CallerContext struct {
	Host     string // Host header, possibly with a port
	AdminKey string // x-admin-key header
	IP       string
}

// Decision is the outcome of evaluating a caller.
type Decision struct {
	Allowed bool
	Reason  DenyReason
	Status  int
	Message string
}

// Gate evaluates callers against a fixed configuration. It keeps no state
// between calls.
type Gate struct {
	localOnly     bool
	remoteEnabled bool
	apiKey        string
	ips           map[string]struct{}
	nets          []*net.IPNet
}

// NewGate creates a Gate. Allowlist entries that are neither an IP nor a CIDR
// are ignored.
func NewGate(cfg Config) *Gate {
	g := &Gate{
		localOnly:     cfg.LocalOnly,
		remoteEnabled: cfg.RemoteEnabled,
		apiKey:        strings.TrimSpace(cfg.APIKey),
		ips:           make(map[string]struct{}),
	}
	for _, entry := range cfg.IPAllowlist {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, ipNet, err := net.ParseCIDR(entry); err == nil {
			g.nets = append(g.nets, ipNet)
			continue
		}
		if ip := net.ParseIP(entry); ip != nil {
			g.ips[ip.String()] = struct{}{}
		}
	}
	return g
}

// Decide evaluates a single caller.
func (g *Gate) Decide(caller CallerContext) Decision {
	if g.localOnly {
		if !isLocalHost(caller.Host) {
			return deny(ReasonLocalOnly, http.StatusForbidden, MsgLocalOnly)
		}
		return Decision{Allowed: true}
	}

	if !g.remoteEnabled {
		return deny(ReasonRemoteDisabled, http.StatusForbidden, MsgRemoteDisabled)
	}
	if g.hasAllowlist() && !g.ipAllowed(caller.IP) {
		return deny(ReasonIPNotAllowed, http.StatusForbidden, MsgIPNotAllowed)
	}
	if g.apiKey == "" {
		return deny(ReasonMisconfigured, http.StatusInternalServerError, MsgMisconfigured)
	}

	provided := strings.TrimSpace(caller.AdminKey)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(g.apiKey)) != 1 {
		return deny(ReasonUnauthorized, http.StatusUnauthorized, MsgUnauthorized)
	}
	return Decision{Allowed: true}
}

func (g *Gate) hasAllowlist() bool {
	return len(g.ips) > 0 || len(g.nets) > 0
}

func (g *Gate) ipAllowed(raw string) bool {
	ip := net.ParseIP(strings.TrimSpace(raw))
	if ip == nil {
		return false
	}
	if _, ok := g.ips[ip.String()]; ok {
		return true
	}
	for _, n := range g.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func deny(reason DenyReason, status int, msg string) Decision {
	return Decision{Reason: reason, Status: status, Message: msg}
}

// isLocalHost reports whether host, with any port removed, names the loopback
// interface.
func isLocalHost(host string) bool {
	host = strings.TrimSpace(strings.ToLower(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	} else if i := strings.LastIndex(host, ":"); i >= 0 && !strings.Contains(host[:i], ":") {
		host = host[:i]
	}
	return host == "localhost" || host == "127.0.0.1"
}
