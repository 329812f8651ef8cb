package protocol

import (
	"net"
	"strings"

	"FlowSpectra/internal/core/model"
)

// localPrefixes are matched against the textual source address. This is a
// plain prefix test, so 172.32.0.0/11 or 192.0.2.0/24 also count as local.
var localPrefixes = []string{"10.", "172.", "192."}

// IsLocalAddr reports whether the dotted form of ip starts with a local prefix.
func IsLocalAddr(ip string) bool {
	for _, p := range localPrefixes {
		if strings.HasPrefix(ip, p) {
			return true
		}
	}
	return false
}

// ClassifyDirection is the single place where an address becomes a Direction.
func ClassifyDirection(src net.IP) model.Direction {
	if IsLocalAddr(src.String()) {
		return model.Upstream
	}
	return model.Downstream
}
