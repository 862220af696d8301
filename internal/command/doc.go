// Package command defines the structured device command, the per-request
// Session and the Validator that gates commands before execution.
//
// Validation order is fixed: the session counter is incremented first (so
// rejected commands still count), then required fields are checked, then the
// action allow-list, then the session ceiling. The first failure wins and is
// reported to the audit Recorder as a HIGH severity event.
package command
