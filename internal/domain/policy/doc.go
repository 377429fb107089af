// Package policy holds the per-session system policy table.
//
// Thirty keys are known, each either a flag or a non-negative integer.
// Gate.IsAllowed is consulted before every state-changing desktop action;
// unknown keys are always denied. Saved settings are overlaid with Apply,
// which coerces strings and JSON numbers and ignores keys outside the table.
package policy
