package subscription

import (
	"github.com/dmitrymomot/duebook/pkg/statemachine"
)

// transitions is the ledger's status table.
// A successful charge activates from any state, including canceled; nothing else
// leaves canceled. Expiry is derived on read and has no event.
var transitions = statemachine.New(
	statemachine.Rule[Status, Event]{AnyState: true, Event: EventChargeSucceeded, To: StatusActive},
	statemachine.Rule[Status, Event]{From: StatusActive, Event: EventPaymentFailed, To: StatusPastDue},
	statemachine.Rule[Status, Event]{AnyState: true, Event: EventCanceled, To: StatusCanceled},
)
