// Package hosts rewrites hosts-file dialect sources (0.0.0.0 example.com)
// into ABP network rules so the classifier only ever sees one grammar.
package hosts

import (
	"bufio"
	"net/netip"
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"
)

// Names that map the local machine rather than a blocked domain.
var localNames = map[string]bool{
	"localhost":             true,
	"localhost.localdomain": true,
	"local":                 true,
	"broadcasthost":         true,
	"ip6-localhost":         true,
	"ip6-loopback":          true,
	"ip6-localnet":          true,
	"ip6-mcastprefix":       true,
	"ip6-allnodes":          true,
	"ip6-allrouters":        true,
	"ip6-allhosts":          true,
	"0.0.0.0":               true,
}

const maxLineSize = 1024 * 1024

// Convert rewrites hosts-dialect content to ABP form. Block entries
// (loopback or unspecified IPs) become ||domain^ rules, one per hostname;
// rewrite entries pointing at other IPs are dropped. Comments and lines
// that are not hosts syntax pass through unchanged for the classifier to
// judge.
func Convert(content string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!") {
			b.WriteString(line)
			b.WriteByte('\n')
			continue
		}

		fields := strings.Fields(trimmed)
		ip, err := netip.ParseAddr(fields[0])
		if err != nil || len(fields) < 2 {
			b.WriteString(line)
			b.WriteByte('\n')
			continue
		}
		if !ip.IsLoopback() && !ip.IsUnspecified() {
			// Rewrite entry; meaningless to a blocking list.
			continue
		}

		for _, host := range fields[1:] {
			if strings.HasPrefix(host, "#") {
				break // inline comment ends the hostname list
			}
			host = strings.ToLower(host)
			if localNames[host] {
				continue
			}
			ascii, err := idna.Lookup.ToASCII(host)
			if err != nil {
				continue
			}
			if _, ok := dns.IsDomainName(ascii); !ok {
				continue
			}
			b.WriteString("||")
			b.WriteString(ascii)
			b.WriteString("^\n")
		}
	}
	return b.String()
}
