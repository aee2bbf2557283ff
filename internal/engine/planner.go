package engine

import "strings"

// Plan is what a planner wants done for one message.
type Plan struct {
	Action string // registry action name
	Args   string // remainder of the command text
}

// RulePlanner maps addressed commands to registry actions with
// deterministic string rules. It abstains (ok=false) on anything it does
// not recognize so the AI planner can take over.
type RulePlanner struct {
	mentions []string
}

// NewRulePlanner creates a planner answering to the default mentions.
func NewRulePlanner() *RulePlanner {
	return &RulePlanner{mentions: []string{"@robit", "robit:"}}
}

// Plan matches a message against the command rules.
func (p *RulePlanner) Plan(text string) (Plan, bool) {
	body, addressed := p.stripMention(text)
	if !addressed {
		return Plan{}, false
	}

	cmd, args, _ := strings.Cut(strings.TrimSpace(body), " ")
	switch strings.ToLower(cmd) {
	case "ping":
		return Plan{Action: "ping"}, true
	case "echo":
		return Plan{Action: "echo", Args: args}, true
	case "announce":
		return Plan{Action: "announce", Args: args}, true
	case "help", "":
		return Plan{Action: "help"}, true
	}
	// Addressed but unrecognized: hand the full body to the AI planner.
	return Plan{}, false
}

// Addressed reports whether the text is directed at the bridge at all.
func (p *RulePlanner) Addressed(text string) bool {
	_, ok := p.stripMention(text)
	return ok
}

func (p *RulePlanner) stripMention(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	for _, m := range p.mentions {
		if strings.HasPrefix(lower, m) {
			return trimmed[len(m):], true
		}
	}
	return "", false
}
