package hooks

import "github.com/axmq/mqttcore/types/message"

// Base is a no-op Hook. Embed it, override only the events you need, and
// override Provides to report those events; Base.Provides reports false.
type Base struct {
	id string
}

// NewBase creates a Base hook with the given ID.
func NewBase(id string) *Base {
	return &Base{id: id}
}

func (h *Base) ID() string { return h.id }

func (h *Base) Provides(event Event) bool { return false }

func (h *Base) OnConnect(sessionPresent bool) {}

func (h *Base) OnDisconnect(err error) {}

func (h *Base) OnPublishOut(msg *message.Message) {}

func (h *Base) OnPublishIn(msg *message.Message, dup bool) {}

func (h *Base) OnPing() {}
