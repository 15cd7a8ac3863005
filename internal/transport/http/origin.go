package http

import (
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// originPolicy is the set of browser origins allowed to reach the server.
type originPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
	hosts    []string
}

func newOriginPolicy(origins []string, logger *zerolog.Logger) *originPolicy {
	p := &originPolicy{allowed: make(map[string]struct{})}
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			p.allowAll = true
			continue
		}

		normalized, host, ok := normalizeOrigin(trimmed)
		if !ok {
			if logger != nil {
				logger.Warn().Str("origin", origin).Msg("ignoring invalid origin in configuration")
			}
			continue
		}
		if _, dup := p.allowed[normalized]; dup {
			continue
		}
		p.allowed[normalized] = struct{}{}
		p.hosts = append(p.hosts, host)
	}
	return p
}

// normalizeOrigin lowercases scheme and host and drops anything after them.
func normalizeOrigin(origin string) (string, string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil {
		return "", "", false
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", "", false
	}

	host := strings.ToLower(parsed.Host)
	return strings.ToLower(parsed.Scheme) + "://" + host, host, true
}

func (p *originPolicy) allows(origin string) bool {
	if p.allowAll {
		return true
	}
	normalized, _, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	_, exists := p.allowed[normalized]
	return exists
}

// acceptPatterns returns the host patterns handed to the websocket upgrader.
func (p *originPolicy) acceptPatterns() []string {
	if p.allowAll {
		return []string{"*"}
	}
	return p.hosts
}
