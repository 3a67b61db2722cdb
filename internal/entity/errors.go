package entity

// ParseError describes malformed entity syntax in a file name. It carries
// the offending path and, where useful, an actionable hint. Callers
// convert it to a ParseFailure finding; scanning continues with the next
// file.
type ParseError struct {
	Path    string // Dataset-relative path of the offending file
	Message string // Primary error message
	Hint    string // Actionable suggestion for fixing, optional
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := "cannot parse " + e.Path + ": " + e.Message
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}
