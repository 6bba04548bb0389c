// internal/protocol/dispatcher.go
package protocol

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/jason-s-yu/ludo/service/internal/game"
	"github.com/jason-s-yu/ludo/service/internal/models"
	"github.com/sirupsen/logrus"
)

// Command identifies a client request.
type Command int

const (
	CmdConnect Command = iota
	CmdDisconnect
	CmdPickup
	CmdGetReady
	CmdDisReady
	CmdSetLevel
	CmdReset
	CmdClick
	CmdNext
	CmdPrev
)

var commandNames = map[Command]string{
	CmdConnect:    "connect",
	CmdDisconnect: "disconnect",
	CmdPickup:     "pickup",
	CmdGetReady:   "getready",
	CmdDisReady:   "disready",
	CmdSetLevel:   "setlevel",
	CmdReset:      "reset",
	CmdClick:      "click",
	CmdNext:       "next",
	CmdPrev:       "prev",
}

var commandsByName = func() map[string]Command {
	m := make(map[string]Command, len(commandNames))
	for c, name := range commandNames {
		m[name] = c
	}
	return m
}()

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCommand maps a wire command name to its Command.
func ParseCommand(name string) (Command, bool) {
	c, ok := commandsByName[name]
	return c, ok
}

// handlerFunc runs one command on behalf of a client. A nil error means the
// session already sent its success reply.
type handlerFunc func(s *game.Session, from string, msg models.Message) error

var handlers = map[Command]handlerFunc{
	CmdConnect: func(s *game.Session, from string, msg models.Message) error {
		return s.Connect(from, msg.Username, msg.ProtVersion)
	},
	CmdDisconnect: func(s *game.Session, from string, _ models.Message) error {
		return s.Disconnect(from)
	},
	CmdPickup: func(s *game.Session, from string, msg models.Message) error {
		return s.Pickup(from, msg.Color, msg.UserType)
	},
	CmdGetReady: func(s *game.Session, from string, _ models.Message) error {
		return s.GetReady(from)
	},
	CmdDisReady: func(s *game.Session, from string, _ models.Message) error {
		return s.DisReady(from)
	},
	CmdSetLevel: func(s *game.Session, from string, msg models.Message) error {
		return s.SetLevel(from, msg.Level)
	},
	CmdReset: func(s *game.Session, from string, _ models.Message) error {
		return s.Reset(from)
	},
	CmdClick: func(s *game.Session, from string, _ models.Message) error {
		return s.Click(from)
	},
	CmdNext: func(s *game.Session, from string, _ models.Message) error {
		return s.Next(from)
	},
	CmdPrev: func(s *game.Session, from string, _ models.Message) error {
		return s.Prev(from)
	},
}

// Dispatcher validates inbound frames and routes them to a session.
type Dispatcher struct {
	session *game.Session
	out     game.Outbox
	log     *logrus.Entry
}

// NewDispatcher returns a dispatcher for session. Header rejections are sent
// through out directly, since they echo the client's own header.
func NewDispatcher(session *game.Session, out game.Outbox, log *logrus.Entry) *Dispatcher {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Dispatcher{session: session, out: out, log: log.WithField("component", "dispatcher")}
}

// Handle processes one inbound frame from the client identified by from.
// Frames that are not JSON objects are tried as legacy plain-text commands.
func (d *Dispatcher) Handle(from string, raw []byte) {
	var msg models.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		d.handleLegacy(from, strings.TrimSpace(string(raw)))
		return
	}

	cmd, err := d.validate(msg)
	if err != nil {
		d.log.WithFields(logrus.Fields{"participant": from, "command": msg.Command}).WithError(err).Info("rejected frame")
		d.reject(from, msg, err)
		return
	}
	if err := handlers[cmd](d.session, from, msg); err != nil {
		d.log.WithFields(logrus.Fields{"participant": from, "command": msg.Command}).WithError(err).Debug("command failed")
		d.session.ReplyError(from, msg.Command, err)
	}
}

// Leave handles a dropped connection as an implicit disconnect.
func (d *Dispatcher) Leave(from string) {
	if err := d.session.Disconnect(from); err != nil && !errors.Is(err, models.ErrNotConnected) {
		d.log.WithField("participant", from).WithError(err).Warn("leave failed")
	}
}

// validate checks the envelope header in the order clients expect errors:
// magic, command, then protocol version.
func (d *Dispatcher) validate(msg models.Message) (Command, error) {
	if msg.Magic != models.Magic {
		return 0, models.ErrInvalidMagic
	}
	cmd, ok := ParseCommand(msg.Command)
	if !ok {
		return 0, models.ErrInvalidCommand
	}
	if msg.ProtVersion < models.MinProtoVersion || msg.ProtVersion > models.MaxProtoVersion {
		return 0, models.ErrInvalidVersion
	}
	if locked := d.session.Version(); locked != 0 && msg.ProtVersion != locked {
		return 0, models.ErrVersionMismatch
	}
	return cmd, nil
}

// reject echoes the client's frame back as a failed reply, header untouched.
func (d *Dispatcher) reject(from string, msg models.Message, err error) {
	msg.Command += "_reply"
	msg.Ret = models.Bool(false)
	msg.Error = err.Error()
	d.out.Send(from, msg)
}

func (d *Dispatcher) handleLegacy(from, text string) {
	var cmd Command
	switch text {
	case "click":
		cmd = CmdClick
	case "next":
		cmd = CmdNext
	case "prev":
		cmd = CmdPrev
	default:
		d.log.WithField("participant", from).Debugf("dropping unsupported frame %q", text)
		return
	}
	if err := handlers[cmd](d.session, from, models.Message{Command: text}); err != nil {
		d.log.WithFields(logrus.Fields{"participant": from, "command": text}).WithError(err).Debug("legacy command failed")
		d.session.ReplyError(from, text, err)
	}
}
