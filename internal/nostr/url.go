package nostr

import (
	"net"
	"net/url"
	"strings"

	"nostr-render/internal/util"
)

// NormalizeRelayURL validates and normalizes a relay URL taken from an
// nprofile/nevent hint or from config. Returns "" if the URL is unusable.
// Loopback hosts are only accepted when allowLoopback is set, and literal IP
// hosts must pass IsRelayIPSafe.
func NormalizeRelayURL(relayURL string, allowLoopback bool) string {
	relayURL = strings.TrimSpace(relayURL)
	if relayURL == "" || !strings.Contains(relayURL, "://") {
		return ""
	}

	// garbage text pasted as a URL, or double protocols (wss://https://...)
	if strings.Contains(relayURL, "%20") || strings.Contains(relayURL, "+") ||
		strings.Count(relayURL, "://") > 1 {
		return ""
	}

	parsed, err := url.Parse(relayURL)
	if err != nil {
		return ""
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "ws" && scheme != "wss" {
		return ""
	}

	host := strings.ToLower(parsed.Hostname())
	switch {
	case len(host) < 3, strings.Contains(host, " "):
		return ""
	case util.IsLoopbackHost(host):
		if !allowLoopback {
			return ""
		}
	case util.IsInternalHost(host):
		return ""
	case net.ParseIP(host) != nil && !IsRelayIPSafe(net.ParseIP(host), allowLoopback):
		return ""
	case !strings.Contains(host, "."):
		return ""
	}

	result := scheme + "://" + host
	if parsed.Port() != "" {
		result += ":" + parsed.Port()
	}
	if parsed.Path != "" && parsed.Path != "/" {
		result += strings.TrimSuffix(parsed.Path, "/")
	}
	return result
}

// NormalizeRelayURLs normalizes each URL, dropping invalid ones and duplicates
// while keeping the first-seen order.
func NormalizeRelayURLs(relays []string, allowLoopback bool) []string {
	seen := make(map[string]bool, len(relays))
	out := make([]string, 0, len(relays))
	for _, r := range relays {
		n := NormalizeRelayURL(r, allowLoopback)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
