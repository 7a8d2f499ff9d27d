package abook

import (
	"net"
	"os"
	"strings"
)

// uidFor synthesizes the UID for a section index. abook regenerates
// indices when it sorts the file, so the UID is only stable between
// loads; the domain suffix is cosmetic.
func uidFor(index, fqdn string) string {
	return index + "@" + fqdn
}

// indexFromUID resolves a UID back to a section index. Only the portion
// before the first "@" is load-bearing; any domain suffix is ignored.
func indexFromUID(uid string) string {
	index, _, _ := strings.Cut(uid, "@")

	return index
}

// FQDN returns the fully qualified name of the local host, falling back
// to the bare hostname and finally "localhost". Used as the UID domain
// suffix when no override is configured.
func FQDN() string {
	host, err := os.Hostname()
	if err != nil {
		return "localhost"
	}

	addrs, err := net.LookupHost(host)
	if err != nil {
		return host
	}

	for _, addr := range addrs {
		names, err := net.LookupAddr(addr)
		if err != nil {
			continue
		}

		for _, name := range names {
			name = strings.TrimSuffix(name, ".")
			if strings.Contains(name, ".") {
				return name
			}
		}
	}

	return host
}
