package common

import "sync"

// Call is one mutation observed by a Recorder.
type Call struct {
	Action Action
	Key    string
	Value  string
}

// Recorder is an in-memory storage engine that remembers every call in
// order. Tests use it to observe exactly what the writer applied.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	data  map[string]string
	fail  map[string]error
	gate  chan struct{}
}

func NewRecorder() *Recorder {
	return &Recorder{
		data: make(map[string]string),
		fail: make(map[string]error),
	}
}

// FailOn makes every mutation of key return err instead of being applied.
// The call is still recorded.
func (r *Recorder) FailOn(key string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[key] = err
}

// Hold blocks all subsequent mutations until Resume is called.
func (r *Recorder) Hold() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gate == nil {
		r.gate = make(chan struct{})
	}
}

// Resume releases mutations blocked by Hold.
func (r *Recorder) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gate != nil {
		close(r.gate)
		r.gate = nil
	}
}

func (r *Recorder) wait() {
	r.mu.Lock()
	gate := r.gate
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

func (r *Recorder) Put(key, value []byte) error {
	r.wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Action: ActionPut, Key: string(key), Value: string(value)})
	if err := r.fail[string(key)]; err != nil {
		return err
	}
	r.data[string(key)] = string(value)
	return nil
}

func (r *Recorder) Delete(key []byte) error {
	r.wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Action: ActionDelete, Key: string(key)})
	if err := r.fail[string(key)]; err != nil {
		return err
	}
	delete(r.data, string(key))
	return nil
}

func (r *Recorder) Get(key []byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.data[string(key)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return []byte(v), nil
}

func (r *Recorder) Close() error {
	return nil
}

// Calls returns a copy of the calls observed so far.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Data returns a copy of the current key/value state.
func (r *Recorder) Data() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.data))
	for k, v := range r.data {
		out[k] = v
	}
	return out
}
