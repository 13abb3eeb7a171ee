// Package notify asks a human to approve drafts over SMS and understands
// the replies.
package notify

import (
	"regexp"
	"strconv"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionUnknown Action = "unknown"
)

// Command is a parsed SMS reply.
type Command struct {
	Action  Action
	DraftID int64
}

var commandExpr = regexp.MustCompile(`^\s*([AaRr])(\d+)\s*$`)

// ParseCommand reads replies of the form "A123" or "R123", case-insensitive,
// with surrounding whitespace ignored. The digits must follow the letter
// directly; "R 12" and anything else is unknown, and the caller answers with
// usage help rather than guessing.
func ParseCommand(body string) Command {
	m := commandExpr.FindStringSubmatch(body)
	if m == nil {
		return Command{Action: ActionUnknown}
	}

	id, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Command{Action: ActionUnknown}
	}

	action := ActionApprove
	if m[1] == "R" || m[1] == "r" {
		action = ActionReject
	}
	return Command{Action: action, DraftID: id}
}
