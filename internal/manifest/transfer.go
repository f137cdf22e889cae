package manifest

import (
	"time"

	"github.com/crewmanifest/crewmanifest/internal/host"
)

// DefaultTransferDelay is the settle interval between seating a moved crew
// member and resynchronising crew visuals.
const DefaultTransferDelay = 250 * time.Millisecond

// TransferState is the deferred-transfer lifecycle state.
type TransferState string

const (
	// TransferIdle means no transfer is outstanding.
	TransferIdle TransferState = "idle"
	// TransferArmed means a transfer is waiting for its settle delay.
	TransferArmed TransferState = "armed"
)

// Transfer is one armed crew move awaiting completion.
type Transfer struct {
	Source      host.Part
	Destination host.Part
	Member      *host.Kerbal
	ArmedAt     time.Duration
}

// Due reports whether the settle delay has elapsed at now.
func (t Transfer) Due(now, delay time.Duration) bool {
	return now-t.ArmedAt >= delay
}

// Valid reports whether both endpoints and the member still exist.
func (t Transfer) Valid() bool {
	if t.Source == nil || t.Destination == nil || t.Member == nil {
		return false
	}
	if !t.Source.Alive() || !t.Destination.Alive() {
		return false
	}
	if t.Source.Vessel() == nil || t.Destination.Vessel() == nil {
		return false
	}
	return !t.Member.Unavailable()
}

// CrossVessel reports whether source and destination sit on different vessels.
func (t Transfer) CrossVessel() bool {
	return t.Source.Vessel().ID() != t.Destination.Vessel().ID()
}

// transferMachine is the Idle/Armed state machine owned by one controller.
type transferMachine struct {
	state   TransferState
	pending Transfer
}

func newTransferMachine() transferMachine {
	return transferMachine{state: TransferIdle}
}

func (m *transferMachine) armed() (Transfer, bool) {
	if m.state != TransferArmed {
		return Transfer{}, false
	}
	return m.pending, true
}

func (m *transferMachine) arm(t Transfer) error {
	if m.state == TransferArmed {
		return ErrTransferPending
	}
	m.state = TransferArmed
	m.pending = t
	return nil
}

func (m *transferMachine) disarm() {
	m.state = TransferIdle
	m.pending = Transfer{}
}
