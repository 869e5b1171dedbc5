package mqtt

import "log"

// pending is a serialized message waiting for the broker.
type pending struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// lifecycle reports whether m is a QoS 1 system message.
func (m pending) lifecycle() bool {
	return m.qos > 0
}

// backlog holds messages published while the broker is unreachable. When it
// is full, suppression payloads give way before lifecycle messages. Not safe
// for concurrent use.
type backlog struct {
	msgs    []pending
	limit   int
	dropped int
	warned  bool
}

func newBacklog(limit int) *backlog {
	return &backlog{limit: limit}
}

func (b *backlog) push(m pending) {
	if len(b.msgs) < b.limit {
		b.msgs = append(b.msgs, m)
		return
	}

	victim := -1
	for i, q := range b.msgs {
		if !q.lifecycle() {
			victim = i
			break
		}
	}
	switch {
	case victim >= 0:
		b.msgs = append(b.msgs[:victim], b.msgs[victim+1:]...)
		b.msgs = append(b.msgs, m)
	case m.lifecycle():
		// Full of lifecycle messages: the newest state wins.
		b.msgs = append(b.msgs[1:], m)
	default:
		// A suppression never displaces a lifecycle message.
	}
	b.dropped++
	if !b.warned {
		log.Printf("mqtt: backlog full (%d messages), dropping suppressions first", b.limit)
		b.warned = true
	}
}

// drain empties the backlog in publish order. The dropped count survives.
func (b *backlog) drain() []pending {
	msgs := b.msgs
	b.msgs = nil
	b.warned = false
	return msgs
}

func (b *backlog) len() int {
	return len(b.msgs)
}
