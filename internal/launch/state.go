package launch

import "fmt"

// State is the lifecycle phase of a launched token.
type State uint8

const (
	// StateSeeding: token exists, no trading pool yet.
	StateSeeding State = iota
	// StateTradingBootstrap: pool is live at the fixed bootstrap price.
	StateTradingBootstrap
	// StateTradingOpen: pool prices by constant product.
	StateTradingOpen
	// StateMigrated: liquidity moved to the external venue.
	StateMigrated
)

func (s State) String() string {
	switch s {
	case StateSeeding:
		return "seeding"
	case StateTradingBootstrap:
		return "trading_bootstrap"
	case StateTradingOpen:
		return "trading_open"
	case StateMigrated:
		return "migrated"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// transitions holds the only legal forward edges. The lifecycle never
// moves backwards and never skips a phase.
var transitions = map[State]State{
	StateSeeding:          StateTradingBootstrap,
	StateTradingBootstrap: StateTradingOpen,
	StateTradingOpen:      StateMigrated,
}

func canTransition(from, to State) bool {
	next, ok := transitions[from]
	return ok && next == to
}
