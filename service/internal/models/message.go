// internal/models/message.go
package models

// Magic is the fixed header value every JSON frame must carry.
const Magic = "ONLINE"

// Supported protocol versions. A session locks to the version its host
// connected with; zero means no version is locked yet.
const (
	MinProtoVersion = 1
	MaxProtoVersion = 1
)

// Message is the single JSON envelope used in both directions. Requests fill
// the header plus the fields their command needs; replies and notifications
// reuse the same shape.
type Message struct {
	Magic       string `json:"MAGIC"`
	ProtVersion int    `json:"prot_version"`
	Command     string `json:"command"`

	Username string `json:"username,omitempty"`  // connect
	Color    string `json:"color,omitempty"`     // pickup, itsyourturn_notify
	UserType string `json:"user_type,omitempty"` // pickup
	Level    string `json:"level,omitempty"`     // setlevel, connect_reply, setlevel_notify

	Ret    *bool  `json:"ret,omitempty"`    // replies only
	Error  string `json:"error,omitempty"`  // replies with ret == false
	IsHost *bool  `json:"ishost,omitempty"` // connect_reply

	// PlayerStatus is a single PlayerStatus in pickup_notify and the full
	// roster ([]PlayerStatus) in connect_reply.
	PlayerStatus any      `json:"player_status,omitempty"`
	Colors       []string `json:"colors,omitempty"` // getready/disready/disconnect notifications
}

// PlayerStatus describes who occupies one seat.
type PlayerStatus struct {
	Color    string   `json:"color"`
	UserType UserType `json:"user_type"`
	IsReady  bool     `json:"isready"`
	Username string   `json:"username"`
}

// Bool returns a pointer to b, for the optional boolean fields of Message.
func Bool(b bool) *bool {
	return &b
}

// Reply builds the reply to command with the given outcome. A nil err means success.
func Reply(command string, err error) Message {
	msg := Message{Command: command + "_reply", Ret: Bool(err == nil)}
	if err != nil {
		msg.Error = err.Error()
	}
	return msg
}

// Notify builds an unsolicited notification for command.
func Notify(command string) Message {
	return Message{Command: command + "_notify"}
}
