package data

// PrimaryRecord is a row of the primary collection (example1 by default).
type PrimaryRecord struct {
	ID            uint64
	VarcharField1 string
	VarcharField2 string
	IntField      int
	DoubleField   float64
	TextField     string
	BitField      string // "0" or "1", stored as char(1)
	BoolField     bool
}

// SecondaryRecord is a row of the secondary collection (example2 by default).
// It shares its ID with the PrimaryRecord inserted in the same iteration.
type SecondaryRecord struct {
	ID       uint64
	IntArray []int64
}

// Batch holds every write issued during a single iteration of the workload.
// A Batch is committed as one unit.
type Batch struct {
	Primary   *PrimaryRecord
	Secondary *SecondaryRecord

	// UpdateFirstText, when non-empty, overwrites varchar_field1 of one
	// randomly sampled primary row.
	UpdateFirstText string
	// DeleteRandom removes one randomly sampled row from each collection.
	// The two samples are independent.
	DeleteRandom bool
}

// Key returns the key assigned to the records inserted by b.
func (b *Batch) Key() uint64 {
	return b.Primary.ID
}

// HasUpdate reports whether b carries the random-row update.
func (b *Batch) HasUpdate() bool {
	return b.UpdateFirstText != ""
}

// Len returns the number of statements b issues, excluding the commit.
func (b *Batch) Len() int {
	n := 2
	if b.HasUpdate() {
		n++
	}
	if b.DeleteRandom {
		n += 2
	}
	return n
}
