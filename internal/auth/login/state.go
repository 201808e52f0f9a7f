package login

import "fmt"

// State is a step of the login flow. The identity provider part runs
// AwaitingCode -> ExchangingToken -> FetchingProfile -> Resolved; the
// gateway then resolves the vendor account and issues a credential.
// Failed is reachable from every state.
type State int

const (
	AwaitingCode State = iota
	ExchangingToken
	FetchingProfile
	Resolved
	ResolvingAccount
	IssuingCredential
	Completed
	Failed
)

var stateNames = [...]string{
	AwaitingCode:      "awaiting_code",
	ExchangingToken:   "exchanging_token",
	FetchingProfile:   "fetching_profile",
	Resolved:          "resolved",
	ResolvingAccount:  "resolving_account",
	IssuingCredential: "issuing_credential",
	Completed:         "completed",
	Failed:            "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// FlowError reports the stage at which a login failed. Err wraps one of
// the auth sentinel errors.
type FlowError struct {
	Stage State
	Err   error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("login failed while %s: %v", e.Stage, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}
