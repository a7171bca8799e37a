// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package document

const minRingSize = 16

// ring is a growable ring buffer of lines, oldest first. start == -1 means
// the ring is empty; start == end means it is full. It is not synchronized.
type ring struct {
	buffer []*Line
	start  int
	end    int
}

func newRing() ring {
	return ring{start: -1, end: -1}
}

func (r *ring) length() int {
	if r.start == -1 {
		return 0
	} else if r.start < r.end {
		return r.end - r.start
	} else {
		return len(r.buffer) - (r.start - r.end)
	}
}

// at returns the i'th oldest line.
func (r *ring) at(i int) *Line {
	return r.buffer[(r.start+i)%len(r.buffer)]
}

// push appends a line. With a positive limit, a full ring of that size
// overwrites its oldest line instead of growing; push reports whether it did.
func (r *ring) push(line *Line, limit int) (evicted bool) {
	if r.start == -1 {
		if len(r.buffer) == 0 {
			r.buffer = make([]*Line, growSize(0, limit))
		}
		r.buffer[0] = line
		r.start = 0
		r.end = 1 % len(r.buffer)
		return false
	}

	if r.start == r.end { // full
		if 0 < limit && limit <= len(r.buffer) {
			r.buffer[r.end] = line
			r.end = (r.end + 1) % len(r.buffer)
			r.start = r.end
			return true
		}
		r.resize(growSize(len(r.buffer), limit))
	}

	r.buffer[r.end] = line
	r.end = (r.end + 1) % len(r.buffer)
	return false
}

func growSize(current, limit int) (size int) {
	size = current * 2
	if size < minRingSize {
		size = minRingSize
	}
	if 0 < limit && limit < size {
		size = limit
	}
	return
}

// dropOldest removes the n oldest lines.
func (r *ring) dropOldest(n int) {
	if n <= 0 {
		return
	}
	if r.length() <= n {
		r.clear()
		return
	}
	for i := 0; i < n; i++ {
		r.buffer[r.start] = nil
		r.start = (r.start + 1) % len(r.buffer)
	}
}

func (r *ring) clear() {
	clear(r.buffer)
	r.start = -1
	r.end = -1
}

// resize changes the capacity of the ring, keeping the newest lines if it
// has to drop any.
func (r *ring) resize(size int) {
	if size <= 0 {
		r.buffer = nil
		r.start, r.end = -1, -1
		return
	}
	newbuffer := make([]*Line, size)
	if r.start != -1 {
		length := r.length()
		start := r.start
		end := r.end
		if size < length {
			start = r.end - size
			if start < 0 {
				start += len(r.buffer)
			}
		}
		var copied int
		if start < end {
			copied = copy(newbuffer, r.buffer[start:end])
		} else {
			copied = copy(newbuffer, r.buffer[start:])
			copied += copy(newbuffer[copied:], r.buffer[:end])
		}
		r.start = 0
		r.end = copied % size
	}
	r.buffer = newbuffer
}

// slice copies out count lines starting with the i'th oldest.
func (r *ring) slice(i, count int) (results []*Line) {
	results = make([]*Line, count)
	for j := range results {
		results[j] = r.at(i + j)
	}
	return
}
