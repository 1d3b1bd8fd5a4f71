// Package validation runs a session's rule set against a point-in-time
// attempt and produces a structured pass/fail report.
//
// The engine supports five rule kinds:
//
//  1. command: run an external command, pass on an accepted exit code
//  2. content_pattern: regexp match against output, notes, or artifact text
//  3. coverage: parse a coverage report and check a minimum percentage
//  4. file_existence: check configured paths on disk
//  5. custom: dispatch to an in-process registered validator
//
// Rules run concurrently up to a bounded worker count, each under its own
// timeout. A rule that errors, times out, or panics produces an errored
// result entry; nothing a rule does can abort the batch or crash the
// engine. Errored rules count toward the report's errored total and force
// OverallPassed to false.
package validation
