// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package relay

// ConnList tracks every live connection the scheduler iterates over.
// Removal during a traversal is deferred: callbacks mark a connection dead
// and a separate find-and-remove pass (GC) performs the actual removal
// between iterations, so the traversal that produced the callbacks never
// observes a mutated slice.
type ConnList struct {
	conns []*Conn
	dead  map[*Conn]bool
}

// NewConnList allocates an empty connection list.
func NewConnList() *ConnList {
	return &ConnList{dead: make(map[*Conn]bool)}
}

// Add admits a new connection.
func (l *ConnList) Add(c *Conn) { l.conns = append(l.conns, c) }

// All returns the current live connections. The returned slice aliases
// internal storage and must not be mutated by the caller; it may still
// include connections marked dead via MarkDead until the next GC.
func (l *ConnList) All() []*Conn { return l.conns }

// MarkDead flags c for removal on the next GC pass without mutating the
// slice being traversed.
func (l *ConnList) MarkDead(c *Conn) { l.dead[c] = true }

// GC performs a single linear-search-and-remove pass, deleting every
// connection marked dead since the last GC and invoking its termination
// hook. Order among surviving connections is preserved.
func (l *ConnList) GC() {
	if len(l.dead) == 0 {
		return
	}
	kept := l.conns[:0]
	for _, c := range l.conns {
		if l.dead[c] {
			if c.OnTerminate != nil {
				c.OnTerminate(c)
			}
			continue
		}
		kept = append(kept, c)
	}
	l.conns = kept
	l.dead = make(map[*Conn]bool)
}

// Len returns the number of connections currently tracked, including any
// marked dead but not yet GC'd.
func (l *ConnList) Len() int { return len(l.conns) }
