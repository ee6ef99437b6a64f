// Package triage provides the business boundary for Pulse's sentiment triage
// pipeline. It defines the Service (dedup gate, per-item decision pipeline,
// cycle driver, interval loop), the Store and Ledger persistence interfaces,
// the urgency and recommendation engines, and the domain models.
package triage
