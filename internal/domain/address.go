package domain

import "strings"

// UserAddressSuffix is the canonical domain suffix for user addresses.
const UserAddressSuffix = "@c.us"

// GroupAddressSuffix is the canonical domain suffix for group addresses.
const GroupAddressSuffix = "@g.us"

// NormalizeAddress converts a phone-number-like participant reference into
// canonical address form: all non-digit characters are stripped and the user
// domain suffix is appended. Inputs that already carry a domain ("@") are
// returned unchanged, which makes the function idempotent.
func NormalizeAddress(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.Contains(ref, "@") {
		return ref
	}
	var b strings.Builder
	for _, r := range ref {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String() + UserAddressSuffix
}

// NormalizeAddresses normalizes each participant reference, dropping entries
// that are empty after normalization.
func NormalizeAddresses(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		addr := NormalizeAddress(ref)
		if addr == "" || addr == UserAddressSuffix {
			continue
		}
		out = append(out, addr)
	}
	return out
}

// IsGroupAddress reports whether an address refers to a group chat.
func IsGroupAddress(addr string) bool {
	return strings.HasSuffix(addr, GroupAddressSuffix)
}
