package bridge

import "strings"

// Default tag prefixes. The legacy form still appears in room history
// from before the rename; both must be recognized on re-ingestion.
const (
	DefaultMessagePrefix = "[Robit] "
	DefaultLegacyPrefix  = "[Robit-LEGACY] "
)

// Tags is the marker pair stamped on bridge-authored messages.
type Tags struct {
	Prefix string
	Legacy string
}

// DefaultTags returns the current and legacy prefixes.
func DefaultTags() Tags {
	return Tags{Prefix: DefaultMessagePrefix, Legacy: DefaultLegacyPrefix}
}

// IsRobitMessage reports whether the text already carries the bridge's
// output tag, in current or legacy form. Such messages are never
// re-submitted — that is the feedback-loop guard.
func (t Tags) IsRobitMessage(text string) bool {
	trimmed := strings.TrimLeft(text, " \t\r\n")
	return strings.HasPrefix(trimmed, t.Prefix) || strings.HasPrefix(trimmed, t.Legacy)
}

// StripRobitPrefix removes the bridge tag and, if one immediately
// follows, the bracketed kind tag (e.g. "[result]"). Untagged text is
// returned with only leading whitespace trimmed. This is the inverse of
// the tagging the dispatcher applies.
func (t Tags) StripRobitPrefix(text string) string {
	trimmed := strings.TrimLeft(text, " \t\r\n")
	var rest string
	switch {
	case strings.HasPrefix(trimmed, t.Prefix):
		rest = trimmed[len(t.Prefix):]
	case strings.HasPrefix(trimmed, t.Legacy):
		rest = trimmed[len(t.Legacy):]
	default:
		return trimmed
	}
	rest = strings.TrimLeft(rest, " \t\r\n")
	if strings.HasPrefix(rest, "[") {
		if end := strings.Index(rest, "]"); end >= 0 {
			return strings.TrimLeft(rest[end+1:], " \t\r\n")
		}
	}
	return rest
}

// kindTag maps a response kind to its bracketed display tag.
// Unknown kinds get no tag.
func kindTag(kind string) string {
	switch kind {
	case "approval_request":
		return "[approval] "
	case "action_result":
		return "[result] "
	case "error":
		return "[error] "
	case "need_input":
		return "[need] "
	default:
		return ""
	}
}
