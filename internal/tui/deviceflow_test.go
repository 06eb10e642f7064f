package tui

import (
	"errors"
	"testing"

	"vaultview/internal/api"
)

func TestAddAccount_StartGuards(t *testing.T) {
	var a addAccountState

	if a.start("") {
		t.Error("start accepted an empty email")
	}
	if !a.start("alice@acme.com") {
		t.Fatal("start rejected a valid email")
	}
	if a.start("bob@acme.com") {
		t.Error("start accepted a second flow while one is in progress")
	}
	if a.email != "alice@acme.com" {
		t.Fatalf("in-progress flow email = %q, overwritten by rejected start", a.email)
	}
}

func TestAddAccount_CancelThenRestartEqualsFresh(t *testing.T) {
	var a addAccountState
	a.start("alice@acme.com")
	a.deviceFlowStarted("ABCD-1234", "https://accounts.example.com/device", 5)
	a.beginPoll()

	a.reset()
	if a.active() {
		t.Fatal("reset left the machine active")
	}

	var fresh addAccountState
	if a != fresh {
		t.Fatalf("after cancel state = %+v, want zero value", a)
	}

	// A restart behaves exactly like a first run.
	if !a.start("bob@acme.com") {
		t.Fatal("restart after cancel rejected")
	}
	if a.phase != phaseInitiating || a.userCode != "" {
		t.Fatalf("restart carried stale fields: %+v", a)
	}
}

func TestDevicePoll_PendingKeepsWaiting(t *testing.T) {
	m := newTestModel()
	m.addAccount.start("alice@acme.com")
	m.addAccount.deviceFlowStarted("ABCD-1234", "https://accounts.example.com/device", 5)
	m.addAccount.beginPoll()

	m, cmd := update(t, m, devicePollResultMsg{status: &api.DeviceFlowStatus{Status: api.DeviceFlowPending}})
	if !m.addAccount.canPoll() {
		t.Fatal("pending poll result ended the flow")
	}
	if cmd != nil {
		t.Error("pending result scheduled work; polling is manual")
	}
}

func TestDevicePoll_CompleteResetsAndReloadsAccounts(t *testing.T) {
	m := newTestModel()
	m.addAccount.start("alice@acme.com")
	m.addAccount.deviceFlowStarted("ABCD-1234", "https://accounts.example.com/device", 5)
	m.addAccount.beginPoll()

	m, cmd := update(t, m, devicePollResultMsg{status: &api.DeviceFlowStatus{Status: api.DeviceFlowComplete}})
	if m.addAccount.active() {
		t.Fatal("completed flow still active")
	}

	var gotAccounts, gotSync bool
	for _, msg := range collect(cmd) {
		switch msg.(type) {
		case fetchAccountsMsg:
			gotAccounts = true
		case fetchSyncStatusMsg:
			gotSync = true
		}
	}
	if !gotAccounts || !gotSync {
		t.Fatal("completion did not refresh accounts and sync status")
	}
}

func TestDevicePoll_ExpiredSurfacesError(t *testing.T) {
	m := newTestModel()
	m.addAccount.start("alice@acme.com")
	m.addAccount.deviceFlowStarted("ABCD-1234", "https://accounts.example.com/device", 5)
	m.addAccount.beginPoll()

	m, _ = update(t, m, devicePollResultMsg{status: &api.DeviceFlowStatus{Status: api.DeviceFlowExpired}})
	if m.addAccount.errMsg == "" {
		t.Fatal("expired authorization raised no error")
	}
	if m.addAccount.canPoll() {
		t.Fatal("expired flow still pollable")
	}
}

func TestDevicePoll_TransportErrorFailsFlow(t *testing.T) {
	m := newTestModel()
	m.addAccount.start("alice@acme.com")
	m.addAccount.deviceFlowStarted("ABCD-1234", "https://accounts.example.com/device", 5)
	m.addAccount.beginPoll()

	m, _ = update(t, m, devicePollResultMsg{err: errors.New("connection reset")})
	if m.addAccount.errMsg == "" {
		t.Fatal("poll transport error raised no error")
	}
}

func TestOAuthInitiated_BrowserVariantReturnsToIdle(t *testing.T) {
	m := newTestModel()
	m.addAccount.start("alice@acme.com")

	m, _ = update(t, m, oauthInitiatedMsg{init: &api.OAuthInit{
		AuthURL:    "https://accounts.example.com/auth",
		DeviceFlow: false,
	}})
	if m.addAccount.active() {
		t.Fatal("browser flow left the machine non-idle")
	}
}

func TestOAuthInitiated_DeviceVariantShowsCode(t *testing.T) {
	m := newTestModel()
	m.addAccount.start("alice@acme.com")

	m, _ = update(t, m, oauthInitiatedMsg{init: &api.OAuthInit{
		DeviceFlow:      true,
		UserCode:        "WXYZ-9876",
		VerificationURL: "https://accounts.example.com/device",
		PollInterval:    5,
	}})
	if m.addAccount.phase != phaseDeviceFlow {
		t.Fatalf("phase = %v, want device flow", m.addAccount.phase)
	}
	if m.addAccount.userCode != "WXYZ-9876" {
		t.Fatalf("userCode = %q", m.addAccount.userCode)
	}
	if !m.addAccount.canPoll() {
		t.Fatal("device flow not pollable")
	}
}

func TestCancel_DropsLateInitResult(t *testing.T) {
	m := newTestModel()
	m.addAccount.start("alice@acme.com")
	m, _ = press(t, m, "esc")

	// The init request was already in flight when the user canceled; its
	// result lands on an idle machine and must be dropped.
	m, cmd := update(t, m, oauthInitiatedMsg{init: &api.OAuthInit{
		DeviceFlow:      true,
		UserCode:        "WXYZ-9876",
		VerificationURL: "https://accounts.example.com/device",
		PollInterval:    5,
	}})
	if m.addAccount.active() {
		t.Fatalf("late init result revived canceled flow: %+v", m.addAccount)
	}
	if cmd != nil {
		t.Error("late init result scheduled work")
	}
}

func TestCancel_DropsLatePollResult(t *testing.T) {
	m := newTestModel()
	m.addAccount.start("alice@acme.com")
	m.addAccount.deviceFlowStarted("ABCD-1234", "https://accounts.example.com/device", 5)
	m.addAccount.beginPoll()
	m, _ = press(t, m, "esc")

	m, cmd := update(t, m, devicePollResultMsg{status: &api.DeviceFlowStatus{Status: api.DeviceFlowPending}})
	if m.addAccount.active() {
		t.Fatalf("late pending poll revived canceled flow: %+v", m.addAccount)
	}
	if cmd != nil {
		t.Error("late poll result scheduled work")
	}
}

func TestAddAccountKey_EscCancelsFromAnyPhase(t *testing.T) {
	for _, phase := range []addAccountPhase{phaseInitiating, phaseDeviceFlow, phasePolling} {
		m := newTestModel()
		m.addAccount = addAccountState{phase: phase, email: "alice@acme.com"}

		m, _ = press(t, m, "esc")
		if m.addAccount.active() {
			t.Errorf("esc did not cancel from phase %v", phase)
		}
	}
}
