// Package invoice ages customer invoices for an account.
//
// SweepOverdue moves Pending invoices whose due date has passed to Overdue in a
// single batch and rewrites the outstanding total of every customer touched.
// OverdueStats is the read side: overdue invoices with days overdue counted in
// UTC calendar days. RecordPayment closes an invoice. Worker repeats the sweep
// for every account on an interval.
//
// A sweep racing with a payment may leave a customer total briefly stale; the
// next write to that customer reconciles it. With a Locker configured, two
// sweeps of the same account never overlap.
package invoice
