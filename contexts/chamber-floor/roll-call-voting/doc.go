// Package rollcallvoting implements the plenary session coordinator inside
// the chamber-floor context.
//
// The module owns the sitting lifecycle, roll-call attendance, the gate that
// keeps at most one initiative open per session, and the vote ledger with its
// majority-rule tally. Every state change is committed together with an
// outbox row; workers relay those rows to the event bus that feeds the public
// display.
package rollcallvoting
