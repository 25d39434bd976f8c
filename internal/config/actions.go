package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/leech-actions/internal/model"
)

// ParseActions reads the compact action list used on the command line and in
// the rule editor, e.g. "remove_tag,reset_lapses,delay:30".
func ParseActions(list string) ([]model.Action, error) {
	var actions []model.Action
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, arg, hasArg := strings.Cut(part, ":")
		kind := model.ActionKind(strings.ToLower(strings.TrimSpace(name)))

		raw := model.RawAction{Kind: kind}
		if kind == model.ActionDelay {
			if !hasArg {
				return nil, fmt.Errorf("delay needs a day count, e.g. delay:7")
			}
			days, err := strconv.Atoi(strings.TrimSpace(arg))
			if err != nil {
				return nil, fmt.Errorf("invalid delay days %q: %w", arg, err)
			}
			raw.Days = &days
		} else if hasArg {
			return nil, fmt.Errorf("%s takes no argument", kind)
		}

		a, err := model.FromRaw(raw)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}

	if len(actions) == 0 {
		return nil, fmt.Errorf("no actions given")
	}
	return actions, nil
}

// FormatActions is the inverse of ParseActions.
func FormatActions(actions []model.Action) string {
	return model.Rule{Actions: actions}.ActionSummary()
}
