package analyses

import "strings"

const unknownUser = "Unknown User"

// Session carries the caller identity into the use-cases. It is built by the
// HTTP auth middleware and never read from process state.
type Session struct {
	Username string
	Token    string
}

// Submitter returns the identity recorded on new analyses.
func (s Session) Submitter() string {
	if strings.TrimSpace(s.Username) == "" {
		return unknownUser
	}
	return s.Username
}
