package exchange

import "strings"

// ExtractResponse isolates what a session printed after the prompt was
// delivered. Lines already present in the baseline capture are discarded;
// the survivors keep their original order. Leading blank lines and echoes of
// the outbound prompt are dropped. An empty result means the round is not
// answered yet and the caller keeps polling.
func ExtractResponse(baseline, current, promptMarker string) string {
	seen := make(map[string]struct{})
	for _, line := range strings.Split(baseline, "\n") {
		seen[line] = struct{}{}
	}

	var fresh []string
	for _, line := range strings.Split(current, "\n") {
		if _, exists := seen[line]; exists {
			continue
		}
		fresh = append(fresh, line)
	}

	for len(fresh) > 0 && strings.TrimSpace(fresh[0]) == "" {
		fresh = fresh[1:]
	}

	kept := fresh[:0]
	for _, line := range fresh {
		if promptMarker != "" && strings.HasPrefix(strings.TrimSpace(line), promptMarker) {
			continue
		}
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}
