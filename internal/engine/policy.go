package engine

// Action is what the policy decides to do with a match.
type Action int

// Policy actions.
const (
	ActionIgnore Action = iota
	ActionAsk
	ActionAutoMove
)

func (a Action) String() string {
	switch a {
	case ActionAutoMove:
		return "auto-move"
	case ActionAsk:
		return "ask"
	default:
		return "ignore"
	}
}

// Decide maps a confidence to an action. Both thresholds are inclusive lower bounds.
func Decide(confidence, autoThreshold, suggestThreshold float64) Action {
	switch {
	case confidence >= autoThreshold:
		return ActionAutoMove
	case confidence >= suggestThreshold:
		return ActionAsk
	default:
		return ActionIgnore
	}
}
