// Package statemachine implements stateless, generic transition tables.
//
// A Machine maps (state, event) pairs to target states. It does not hold a
// current state: records that carry their own status (subscriptions, invoices)
// pass it in and persist the returned state themselves.
//
//	type Status string
//	type Event string
//
//	m, _ := statemachine.NewBuilder[Status, Event]().
//		From("active").When("payment_failed").To("past_due").Add()
//	table := m.Build()
//
//	next, err := table.Next(ctx, "active", "payment_failed", nil)
//
// Rules registered with FromAny match every source state. Guards can veto a
// rule; the first rule whose guards all pass wins. Failures are reported as
// *ErrNoTransitionAvailable or *ErrTransitionRejected.
package statemachine
