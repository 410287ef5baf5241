package blackjack

// ActionKind is the closed set of turn actions a seated player can take.
// Unknown kinds are rejected at the boundary via ParseActionKind.
type ActionKind int

const (
	ActionHit ActionKind = iota
	ActionStand
	ActionDouble
)

// String returns the wire name of the action.
func (a ActionKind) String() string {
	switch a {
	case ActionHit:
		return "HIT"
	case ActionStand:
		return "STAND"
	case ActionDouble:
		return "DOUBLE"
	default:
		return "UNKNOWN"
	}
}

// ParseActionKind maps a wire name to an ActionKind, rejecting anything
// outside the closed set.
func ParseActionKind(s string) (ActionKind, error) {
	switch s {
	case "HIT", "hit":
		return ActionHit, nil
	case "STAND", "stand":
		return ActionStand, nil
	case "DOUBLE", "double":
		return ActionDouble, nil
	default:
		return 0, ErrUnknownAction
	}
}
