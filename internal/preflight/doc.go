// Package preflight provides readiness checks for the speech server and the
// filesystem paths a run writes to.
//
// The "walkthrough doctor" command runs RunAll and renders the results next
// to the binary checks from package deps. Each check is gated by the
// configuration: the Coqui server is only probed when it is the selected
// engine, the history directory only when history is enabled.
package preflight
