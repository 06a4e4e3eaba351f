package ui

// location is a position in a document
type location struct {
	path string
	line int
}

// history is a browser-style back/forward stack. Moving to a new file pushes
// the current one onto back and clears forward; moving within the same file
// only updates the current line.
type history struct {
	back    []location
	forward []location
	current *location
}

// visit records navigation to loc
func (h *history) visit(loc location) {
	if h.current != nil && h.current.path != loc.path {
		h.back = append(h.back, *h.current)
		h.forward = nil
	}
	h.current = &loc
}

// update changes the line of the current location without touching the stacks
func (h *history) update(line int) {
	if h.current != nil {
		h.current.line = line
	}
}

// goBack returns the previous location and makes it current
func (h *history) goBack() (location, bool) {
	if len(h.back) == 0 {
		return location{}, false
	}
	prev := h.back[len(h.back)-1]
	h.back = h.back[:len(h.back)-1]
	if h.current != nil {
		h.forward = append(h.forward, *h.current)
	}
	h.current = &prev
	return prev, true
}

// goForward returns the next location and makes it current
func (h *history) goForward() (location, bool) {
	if len(h.forward) == 0 {
		return location{}, false
	}
	next := h.forward[len(h.forward)-1]
	h.forward = h.forward[:len(h.forward)-1]
	if h.current != nil {
		h.back = append(h.back, *h.current)
	}
	h.current = &next
	return next, true
}

func (h *history) canBack() bool    { return len(h.back) > 0 }
func (h *history) canForward() bool { return len(h.forward) > 0 }
