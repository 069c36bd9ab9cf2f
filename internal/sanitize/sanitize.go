// Package sanitize masks personally identifying digit sequences in free text.
//
// Descriptions pass through here before they are persisted or sent to the
// remote classifier, so account and card numbers never leave the process.
package sanitize

import "regexp"

// Marker replaces every masked digit run.
const Marker = "[REDACTED]"

// piiPattern matches runs of 7 to 16 digits, optionally separated by spaces
// or hyphens: the shape of card and account numbers that banks embed in
// statement descriptions.
var piiPattern = regexp.MustCompile(`\b(?:\d[ -]*?){7,16}\b`)

// Description masks account-number-like digit runs in a description.
// It is a pure transform and never fails; text without such runs is
// returned unchanged.
func Description(text string) string {
	return piiPattern.ReplaceAllString(text, Marker)
}
