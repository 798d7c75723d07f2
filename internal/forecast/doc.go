// Package forecast turns raw provider weather into the seven-row disaster-risk
// window for a coordinate, and holds the latest window per consumer in a View.
//
// The Aggregator never fails: any upstream problem (transport, status, payload,
// timeout) yields the fixed demonstration series flagged synthetic, with an
// advisory explaining why.
package forecast
