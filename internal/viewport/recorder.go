// Package viewport records the page-level effects of storefront actions
// (scrolling, focus, scroll lock) so they can be replayed by the browser.
package viewport

import "sync"

const (
	OpScroll = "scroll"
	OpFocus  = "focus"
	OpLock   = "lock"
	OpUnlock = "unlock"
)

type Directive struct {
	Op     string `json:"op"`
	Target string `json:"target,omitempty"`
}

// Recorder implements the viewport interfaces of the storefront components.
type Recorder struct {
	mu         sync.Mutex
	directives []Directive
	locked     bool
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) push(d Directive) {
	r.mu.Lock()
	r.directives = append(r.directives, d)
	r.mu.Unlock()
}

func (r *Recorder) ScrollTo(selector string) {
	r.push(Directive{Op: OpScroll, Target: selector})
}

func (r *Recorder) Focus(selector string) {
	r.push(Directive{Op: OpFocus, Target: selector})
}

// SetScrollLocked records a lock or unlock only when the state changes.
func (r *Recorder) SetScrollLocked(locked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locked == locked {
		return
	}
	r.locked = locked
	op := OpUnlock
	if locked {
		op = OpLock
	}
	r.directives = append(r.directives, Directive{Op: op})
}

func (r *Recorder) ScrollLocked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locked
}

// Drain returns the pending directives and clears them.
func (r *Recorder) Drain() []Directive {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.directives
	r.directives = nil
	if out == nil {
		out = []Directive{}
	}
	return out
}
