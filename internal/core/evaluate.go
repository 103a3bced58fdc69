package core

import (
	"regexp"
	"strings"

	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

// EvaluateRule tests a rule's trigger conditions against an element
// sequence. Non-alternative conditions form a conjunction; conditions marked
// Alternative form one disjunctive group of which at least one must hold
// when any exist.
//
// The returned anchor is the lowest line matched by the first
// non-alternative presence condition. Absence conditions and alternatives
// never anchor, so a rule whose non-alternative conditions are all absence
// checks matches with a nil anchor.
//
// Command text matches case-insensitively; directive keys match exactly. An
// unknown condition type or an uncompilable pattern never holds.
func EvaluateRule(elements []models.Element, rule *models.RuleDefinition) (bool, *int) {
	var anchor *int
	anchored := false
	hasAlternative := false
	alternativeHolds := false

	for _, cond := range rule.TriggerConditions {
		if cond.Alternative {
			hasAlternative = true
			if !alternativeHolds {
				if ok, _ := evalCondition(elements, cond); ok {
					alternativeHolds = true
				}
			}
			continue
		}

		ok, line := evalCondition(elements, cond)
		if !ok {
			return false, nil
		}
		if !anchored && !cond.Type.Absence() {
			anchor = line
			anchored = true
		}
	}

	if hasAlternative && !alternativeHolds {
		return false, nil
	}
	return true, anchor
}

// evalCondition evaluates one condition, returning whether it holds and the
// lowest matching line for presence types. Elements arrive in strictly
// increasing line order, so the first hit is the lowest.
func evalCondition(elements []models.Element, cond models.TriggerCondition) (bool, *int) {
	switch cond.Type {
	case models.CondCommandContains:
		needle := strings.ToLower(cond.Value)
		return firstCommand(elements, func(c models.Command) bool {
			return strings.Contains(strings.ToLower(c.Text), needle)
		})

	case models.CondCommandMatches:
		re, err := regexp.Compile("(?i)" + cond.Value)
		if err != nil {
			return false, nil
		}
		return firstCommand(elements, func(c models.Command) bool {
			return re.MatchString(c.Text)
		})

	case models.CondCommandCategory:
		want := models.CommandCategory(strings.ToLower(cond.Value))
		return firstCommand(elements, func(c models.Command) bool {
			return c.Category == want
		})

	case models.CondCommandAbsent:
		needle := strings.ToLower(cond.Value)
		ok, _ := firstCommand(elements, func(c models.Command) bool {
			return strings.Contains(strings.ToLower(c.Text), needle)
		})
		return !ok, nil

	case models.CondDirectivePresent:
		return firstDirective(elements, cond.Value)

	case models.CondDirectiveAbsent:
		ok, _ := firstDirective(elements, cond.Value)
		return !ok, nil
	}
	return false, nil
}

func firstCommand(elements []models.Element, pred func(models.Command) bool) (bool, *int) {
	for _, el := range elements {
		c, ok := el.(models.Command)
		if !ok {
			continue
		}
		if pred(c) {
			line := c.Line()
			return true, &line
		}
	}
	return false, nil
}

func firstDirective(elements []models.Element, key string) (bool, *int) {
	for _, el := range elements {
		d, ok := el.(models.Directive)
		if !ok {
			continue
		}
		if d.Key == key {
			line := d.Line()
			return true, &line
		}
	}
	return false, nil
}
