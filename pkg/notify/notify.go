// Package notify announces dataset imports to other service instances via NATS.
package notify

import (
	"github.com/nats-io/nats.go"
	"github.com/ohler55/ojg/oj"

	"github.com/mpapenbr/f1-driverstats-go/log"
)

const DefaultSubject = "f1ds.dataset.updated"

type (
	DatasetUpdated struct {
		ImportID   string `json:"importId"`
		Source     string `json:"source"`
		RaceRows   int    `json:"raceRows"`
		DriverRows int    `json:"driverRows"`
	}
	Option   func(*Notifier)
	Notifier struct {
		conn    *nats.Conn
		subject string
		l       *log.Logger
	}
)

func WithSubject(subject string) Option {
	return func(n *Notifier) {
		n.subject = subject
	}
}

func WithLogger(l *log.Logger) Option {
	return func(n *Notifier) {
		n.l = l
	}
}

func New(conn *nats.Conn, opts ...Option) *Notifier {
	ret := &Notifier{
		conn:    conn,
		subject: DefaultSubject,
		l:       log.Default().Named("nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Publish sends msg and waits until the server has received it.
func (n *Notifier) Publish(msg DatasetUpdated) error {
	if err := n.conn.Publish(n.subject, Encode(msg)); err != nil {
		return err
	}
	n.l.Debug("published dataset update",
		log.String("subject", n.subject), log.String("importId", msg.ImportID))
	return n.conn.Flush()
}

// Subscribe calls handler for each received update. Invalid messages are logged and dropped.
func (n *Notifier) Subscribe(handler func(msg DatasetUpdated)) (*nats.Subscription, error) {
	return n.conn.Subscribe(n.subject, func(m *nats.Msg) {
		msg, err := Decode(m.Data)
		if err != nil {
			n.l.Error("error decoding dataset update", log.ErrorField(err))
			return
		}
		n.l.Debug("received dataset update", log.String("importId", msg.ImportID))
		handler(*msg)
	})
}

func Encode(msg DatasetUpdated) []byte {
	return []byte(oj.JSON(map[string]any{
		"importId":   msg.ImportID,
		"source":     msg.Source,
		"raceRows":   msg.RaceRows,
		"driverRows": msg.DriverRows,
	}))
}

func Decode(data []byte) (*DatasetUpdated, error) {
	var ret DatasetUpdated
	if err := oj.Unmarshal(data, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}
