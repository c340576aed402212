package paths

// Reachability holds the nodes reached by one in-flight invocation.
// It belongs to a single invocation and must not be shared between goroutines.
type Reachability struct {
	reached []bool
	count   int
}

// NewReachability creates a reachability record for a graph of size nodes
func NewReachability(size int) *Reachability {
	return &Reachability{reached: make([]bool, size)}
}

// Reset clears reached nodes
func (r *Reachability) Reset() {
	for i := range r.reached {
		r.reached[i] = false
	}
	r.count = 0
}

// Mark marks node as reached, returns true if it was not reached before
func (r *Reachability) Mark(node int) bool {
	if r.reached[node] {
		return false
	}
	r.reached[node] = true
	r.count++
	return true
}

// Reached returns true if node was reached
func (r *Reachability) Reached(node int) bool {
	return node >= 0 && node < len(r.reached) && r.reached[node]
}

// Count returns number of distinct nodes reached
func (r *Reachability) Count() int {
	return r.count
}

// Size returns number of tracked nodes
func (r *Reachability) Size() int {
	return len(r.reached)
}

func (r *Reachability) resize(size int) {
	if len(r.reached) == size {
		return
	}
	r.reached = make([]bool, size)
	r.count = 0
}
