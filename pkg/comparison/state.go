package comparison

// State is a step of a comparison session.
type State string

// Session states in pipeline order.
const (
	StateEmpty            State = "EMPTY"
	StateMasterLoaded     State = "MASTER_LOADED"
	StateComparisonLoaded State = "COMPARISON_LOADED"
	StateRowsValidated    State = "ROWS_VALIDATED"
	StateRowsReviewed     State = "ROWS_REVIEWED"
	StateApplied          State = "APPLIED"
	StateFinalized        State = "FINALIZED"
	StateFailed           State = "FAILED"
)

// String returns the string representation of a State.
func (s State) String() string {
	return string(s)
}

// allowed lists the states each operation may start from.
var allowed = map[string][]State{
	"load master":     {StateEmpty},
	"load comparison": {StateMasterLoaded},
	"validate rows":   {StateComparisonLoaded, StateRowsValidated},
	"apply overrides": {StateRowsValidated, StateRowsReviewed},
	"confirm review":  {StateRowsValidated},
	"process rows":    {StateRowsReviewed},
	"preview":         {StateApplied},
	"cleanup":         {StateApplied},
}

func stateNames(states []State) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = s.String()
	}
	return out
}
