package model

// DefaultLeechTag is the tag the host applies to leeches.
const DefaultLeechTag = "leech"

// Configuration is the rule set plus the global toggles.
// It is treated as an immutable value: edits build a new Configuration.
type Configuration struct {
	LeechTag              string
	Rules                 []Rule
	Version               int
	AutoRunOnTag          bool
	AutoRunAfterSync      bool
	ShowAutoNotifications bool
}

// WithRules returns a copy of the configuration holding the given rules.
// An empty rule list is stored as nil.
func (c Configuration) WithRules(rules []Rule) Configuration {
	out := c
	out.Rules = nil
	if len(rules) > 0 {
		out.Rules = make([]Rule, len(rules))
		copy(out.Rules, rules)
	}
	return out
}

// Clone returns a deep copy of the configuration. An empty rule list is nil.
func (c Configuration) Clone() Configuration {
	out := c
	out.Rules = nil
	if len(c.Rules) == 0 {
		return out
	}
	out.Rules = make([]Rule, 0, len(c.Rules))
	for _, r := range c.Rules {
		out.Rules = append(out.Rules, r.Normalized())
	}
	return out
}
