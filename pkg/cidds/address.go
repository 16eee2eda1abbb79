package cidds

import (
	"NetFlowGen/internal/model"
	"fmt"
	"hash/fnv"
	"net/netip"
	"strconv"
	"strings"
)

// CIDDS anonymizes well-known hosts with symbolic names. They are
// replaced with fixed public addresses so every flow carries a real
// IPv4 value.
var ipv4Replacements = map[string]string{
	"OPENSTACK_NET": "174.138.74.74",
	"DNS":           "9.9.9.9",
	"EXT_SERVER":    "220.175.38.139",
	"ATTACKER1":     "230.170.204.100",
	"ATTACKER2":     "185.135.146.33",
	"ATTACKER3":     "201.95.169.48",
}

// parseAddress converts an IPv4 address column into its numeric value.
// Anonymized hosts ("NAME_123") are mapped to stable pseudo-random
// public addresses derived from the name hash.
func parseAddress(s string) (model.Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Value{Empty: true}, nil
	}

	if repl, ok := ipv4Replacements[s]; ok {
		s = repl
	} else if i := strings.LastIndexByte(s, '_'); i >= 0 {
		host, err := strconv.ParseUint(s[i+1:], 10, 8)
		if err != nil {
			return model.Value{}, fmt.Errorf("unrecognized anonymized address '%s'", s)
		}
		return model.Value{Num: float64(pseudoAddress(s[:i], uint32(host)))}, nil
	}

	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return model.Value{}, fmt.Errorf("not an IPv4 address: '%s'", s)
	}
	return model.Value{Num: float64(addrValue(addr))}, nil
}

// pseudoAddress derives a deterministic public address for an
// anonymized host: the hashed name provides the network part, the
// numeric suffix the host part. The name is extended until the result
// lands in globally routable space.
func pseudoAddress(name string, host uint32) uint32 {
	for {
		h := fnv.New32a()
		h.Write([]byte(name))
		v := (h.Sum32()%(1<<24))<<8 | host
		addr := netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
		if addr.IsGlobalUnicast() && !addr.IsPrivate() {
			return v
		}
		name += "0"
	}
}

func addrValue(addr netip.Addr) uint32 {
	b := addr.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// FormatAddress renders a numeric address value back into dotted form,
// the inverse of parseAddress for non-anonymized inputs.
func FormatAddress(v float64) string {
	u := uint32(v)
	return netip.AddrFrom4([4]byte{byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)}).String()
}
