package cube

import (
	"sync"

	"github.com/ivesdebruycker/maxcube/internal/codec"
)

// reply carries the outcome of an awaited request.
type reply struct {
	msg codec.Message
	err error
}

// coordinator enforces the cube's one-command-at-a-time contract. Replies
// carry no correlation ID, so a reply is matched purely by its command type;
// allowing a second outstanding request would make the match ambiguous.
type coordinator struct {
	mu        sync.Mutex
	waiting   bool
	replyType byte
	ch        chan reply
}

// begin registers an awaited request expecting a frame of replyType. It
// fails with ErrRequestPending while another request is outstanding.
func (c *coordinator) begin(replyType byte) (<-chan reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.waiting {
		return nil, ErrRequestPending
	}
	c.waiting = true
	c.replyType = replyType
	c.ch = make(chan reply, 1)
	return c.ch, nil
}

// deliver hands an inbound record to the waiting request, if any. It reports
// whether the record was consumed as a reply; unsolicited frames of other
// types pass through untouched.
func (c *coordinator) deliver(msg codec.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.waiting || msg.Type() != c.replyType {
		return false
	}
	c.ch <- reply{msg: msg}
	c.waiting = false
	return true
}

// cancel withdraws the outstanding request, typically because its context
// expired. A reply that races in afterwards is treated as unsolicited.
func (c *coordinator) cancel() {
	c.mu.Lock()
	c.waiting = false
	c.mu.Unlock()
}

// fail aborts the outstanding request with err. Called when the connection
// goes away under a waiting request.
func (c *coordinator) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.waiting {
		return
	}
	c.ch <- reply{err: err}
	c.waiting = false
}
