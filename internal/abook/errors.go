package abook

import "errors"

// ErrUnknownUID is returned when a UID does not resolve to a section of
// the current file. Replace and Remove leave the file untouched.
var ErrUnknownUID = errors.New("no addressbook entry for uid")

var errNoFormattedName = errors.New("vcard has no FN property")
