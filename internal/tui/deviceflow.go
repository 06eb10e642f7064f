package tui

// addAccountPhase is the state of the account-linking flow. The browser
// variant never leaves idle: the URL is opened and the server confirms the
// link out-of-band on the next status refresh.
type addAccountPhase int

const (
	phaseIdle addAccountPhase = iota
	phaseInitiating
	phaseDeviceFlow // waiting for the user to enter the code elsewhere
	phasePolling    // a poll request is in flight
)

// addAccountState is the device-flow machine for linking a new account.
// Polling is triggered manually by the user; the machine only defines what
// each poll outcome does.
type addAccountState struct {
	phase           addAccountPhase
	email           string
	userCode        string
	verificationURL string
	pollInterval    int
	errMsg          string
}

// start begins the flow for email. It reports false when the guard fails
// (empty email or a flow already in progress).
func (a *addAccountState) start(email string) bool {
	if email == "" || a.phase != phaseIdle {
		return false
	}
	*a = addAccountState{phase: phaseInitiating, email: email}
	return true
}

// deviceFlowStarted records the code the user must enter elsewhere.
func (a *addAccountState) deviceFlowStarted(userCode, verificationURL string, pollInterval int) {
	a.phase = phaseDeviceFlow
	a.userCode = userCode
	a.verificationURL = verificationURL
	a.pollInterval = pollInterval
}

// canPoll reports whether a manual poll is currently meaningful.
func (a *addAccountState) canPoll() bool {
	return a.phase == phaseDeviceFlow || a.phase == phasePolling
}

// beginPoll marks a poll request in flight.
func (a *addAccountState) beginPoll() { a.phase = phasePolling }

// pollPending keeps the machine waiting for the next manual poll.
func (a *addAccountState) pollPending() { a.phase = phasePolling }

// fail surfaces an error and resets every in-flight field.
func (a *addAccountState) fail(msg string) {
	*a = addAccountState{errMsg: msg}
}

// reset discards all in-flight data unconditionally. Valid from any phase.
func (a *addAccountState) reset() {
	*a = addAccountState{}
}

// active reports whether a flow is in progress.
func (a *addAccountState) active() bool { return a.phase != phaseIdle }
