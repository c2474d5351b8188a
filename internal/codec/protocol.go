package codec

import (
	"fmt"

	"github.com/couchcryptid/wxstore-client/internal/wxerr"
)

// Command is the leading byte of a request.
type Command uint8

const (
	CmdPut Command = iota
	CmdGet
	CmdPutEvent
	CmdGetEvents
	CmdGetAllEvents
	CmdPutFetchFailure
	CmdGetFetchFailures
)

var commandNames = []string{
	"put", "get", "put_event", "get_events", "get_all_events", "put_fetch_failure", "get_fetch_failures",
}

// Commands lists every known command in wire order.
func Commands() []Command {
	cmds := make([]Command, len(commandNames))
	for i := range cmds {
		cmds[i] = Command(i)
	}
	return cmds
}

func (c Command) String() string {
	if int(c) < len(commandNames) {
		return commandNames[c]
	}
	return fmt.Sprintf("command(%d)", uint8(c))
}

// Byte returns the wire code.
func (c Command) Byte() byte { return byte(c) }

// ParseCommand maps a wire byte to its command. ok is false for codes this
// version does not know, which lets a responder report a version mismatch
// instead of failing the decode.
func ParseCommand(b byte) (cmd Command, ok bool) {
	if int(b) >= len(commandNames) {
		return 0, false
	}
	return Command(b), true
}

// Status is the leading byte of a reply.
type Status uint8

const (
	StatusOK Status = iota
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Byte returns the wire code.
func (s Status) Byte() byte { return byte(s) }

// ParseStatus maps a wire byte to its status. Unknown codes are protocol
// errors.
func ParseStatus(b byte) (Status, error) {
	switch s := Status(b); s {
	case StatusOK, StatusError:
		return s, nil
	default:
		return 0, wxerr.Protocol("parse status", "unknown response payload")
	}
}
