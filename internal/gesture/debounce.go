package gesture

// Debouncer suppresses repeated emission of the same word across consecutive
// frames. It is not safe for concurrent use; the recognition loop owns it.
type Debouncer struct {
	last string
}

// ShouldEmit reports whether word differs from the last emitted word, and
// records it as the last emitted word if so.
func (d *Debouncer) ShouldEmit(word string) bool {
	if word == d.last {
		return false
	}
	d.last = word
	return true
}
