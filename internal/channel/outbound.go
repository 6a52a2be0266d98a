package channel

import "fmt"

// DefaultSegmentLimit leaves headroom inside Discord's 2000-character cap
// once the code fence wrapping is applied.
const DefaultSegmentLimit = 1993

// DefaultMaxSegments bounds how many messages one reply may expand into.
const DefaultMaxSegments = 6

// SegmentPolicy configures how long replies are sliced into transport messages.
type SegmentPolicy struct {
	Limit       int `json:"limit,omitempty"`
	MaxSegments int `json:"max_segments,omitempty"`
}

// NormalizeSegmentPolicy fills zero-value fields with defaults.
func NormalizeSegmentPolicy(policy SegmentPolicy) SegmentPolicy {
	if policy.Limit <= 0 {
		policy.Limit = DefaultSegmentLimit
	}
	if policy.MaxSegments <= 0 {
		policy.MaxSegments = DefaultMaxSegments
	}
	return policy
}

// SegmentText slices text into consecutive segments of at most policy.Limit
// runes, in order, capped at policy.MaxSegments segments. omitted reports how
// many runes fell past the cap; callers surface that instead of dropping it
// silently.
func SegmentText(text string, policy SegmentPolicy) (segments []string, omitted int) {
	policy = NormalizeSegmentPolicy(policy)
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, 0
	}
	for start := 0; start < len(runes); start += policy.Limit {
		if len(segments) == policy.MaxSegments {
			return segments, len(runes) - start
		}
		end := start + policy.Limit
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, string(runes[start:end]))
	}
	return segments, 0
}

// WrapSegment fences a segment for display so transport markdown does not
// mangle assistant output.
func WrapSegment(segment string) string {
	return "```" + segment + "```"
}

// TruncationNotice is the trailing message sent when a reply exceeded the
// segment cap.
func TruncationNotice(omitted int) string {
	return fmt.Sprintf("*response truncated, %d characters omitted*", omitted)
}
