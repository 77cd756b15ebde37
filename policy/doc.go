// Package policy implements the execution constraints manager: pure
// decision functions over a rolling tool-call history that approve,
// reject, or substitute proposed tool calls, decide batch independence
// for parallel dispatch, and map the human-in-the-loop threshold onto
// a constraint tier.
package policy
