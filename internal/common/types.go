package common

// Action enumerates the mutations the writer applies to the storage engine.
type Action uint8

const (
	ActionPut Action = iota
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionPut:
		return "put"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Message is one queued mutation. It is either a *Put or a *Delete and owns
// the blobs it carries until Release is called.
type Message interface {
	Action() Action
	Key() *Blob
	// Release ends the lifetime of every blob owned by the message.
	Release()
}

// Put inserts or updates Key with Value.
type Put struct {
	key   *Blob
	value *Blob
}

// MakePut takes ownership of key and value.
func MakePut(key, value *Blob) Message {
	return &Put{key: key, value: value}
}

func (p *Put) Action() Action { return ActionPut }
func (p *Put) Key() *Blob     { return p.key }
func (p *Put) Value() *Blob   { return p.value }

func (p *Put) Release() {
	p.key.Release()
	p.value.Release()
}

// Delete removes Key. It carries no value payload.
type Delete struct {
	key *Blob
}

// MakeDelete takes ownership of key.
func MakeDelete(key *Blob) Message {
	return &Delete{key: key}
}

func (d *Delete) Action() Action { return ActionDelete }
func (d *Delete) Key() *Blob     { return d.key }

func (d *Delete) Release() {
	d.key.Release()
}
