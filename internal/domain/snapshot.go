package domain

// Snapshot is the flat key/value view of one form instance's persisted fields.
type Snapshot map[string]any

// Clone returns a shallow copy so later mutation by the caller cannot leak into queued work.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
