package enrich

import (
	"sort"
	"strings"
)

const (
	// joinSeparator glues multi-valued contact fields into one column.
	joinSeparator = "; "

	// maxJoinedValues caps emails/phones per entry; alternative sources can
	// surface dozens of addresses and most past the first few are noise.
	maxJoinedValues = 5

	// maxHandleValues caps messaging handles, which are rarer and noisier.
	maxHandleValues = 3
)

// mergeJoined unions additions into an existing "; "-joined field. The whole
// union is de-duplicated and sorted before the cap applies, so the field stays
// globally sorted no matter how many passes merged into it.
func mergeJoined(existing string, additions []string, cap int) string {
	values := splitJoined(existing)
	seen := make(map[string]struct{}, len(values)+len(additions))
	for _, v := range values {
		seen[v] = struct{}{}
	}

	for _, v := range additions {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)

	if cap > 0 && len(values) > cap {
		values = values[:cap]
	}
	return strings.Join(values, joinSeparator)
}

func splitJoined(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// fillFirst sets dst only when it is still empty. Single-valued fields are
// first-found-wins; an emptier value never replaces data.
func fillFirst(dst *string, value string) {
	if *dst == "" && strings.TrimSpace(value) != "" {
		*dst = strings.TrimSpace(value)
	}
}
