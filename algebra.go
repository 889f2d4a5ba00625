package growablebitmap

// Set algebra is built only on the public bit primitives, so operands may use
// different block widths.

// Union sets every bit that is set in other, growing as needed.
//
// On an *ErrAllocation the bits visited before the failure stay set.
func (m *GrowableBitMap[B]) Union(other Bits) error {
	for i := range other.Ones() {
		if _, err := m.Set(i); err != nil {
			return err
		}
	}
	return nil
}

// Intersect clears every bit that is not set in other. It never changes Len.
func (m *GrowableBitMap[B]) Intersect(other Bits) {
	for i := range m.Ones() {
		if !other.Contains(i) {
			_, _ = m.Clear(i)
		}
	}
}

// Difference clears every bit that is set in other. It never changes Len.
func (m *GrowableBitMap[B]) Difference(other Bits) {
	n := m.Len()
	for i := range other.Ones() {
		if i >= n {
			return
		}
		_, _ = m.Clear(i)
	}
}

// SymmetricDifference flips every bit that is set in other, growing as
// needed.
func (m *GrowableBitMap[B]) SymmetricDifference(other Bits) error {
	for i := range other.Ones() {
		if _, err := m.Toggle(i); err != nil {
			return err
		}
	}
	return nil
}

// Subset reports whether every bit set in m is also set in other.
func (m *GrowableBitMap[B]) Subset(other Bits) bool {
	for i := range m.Ones() {
		if !other.Contains(i) {
			return false
		}
	}
	return true
}
