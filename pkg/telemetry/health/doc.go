// Package health implements liveness and readiness probes for the admin
// server. Components register named CheckFuncs (document store reachable,
// rule source loaded, queue open) and the readiness endpoint aggregates
// them.
package health
