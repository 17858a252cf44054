package data

import (
	"fmt"
	"math/rand"
)

const (
	letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	varchar1Len = 10
	varchar2Len = 20
	textLen     = 30

	minIntField = 1
	maxIntField = 100

	minDoubleField = 1.0
	maxDoubleField = 100.0

	minArrayLen   = 1
	maxArrayLen   = 10
	minArrayValue = 1
	maxArrayValue = 100

	// DefaultUpdateEvery is the key period of the random-row update.
	DefaultUpdateEvery = 90
	// DefaultDeleteEvery is the key period of the random-row delete pair.
	DefaultDeleteEvery = 40

	errNilRand = "generator needs a source of randomness"
)

// GeneratorConfig controls which iterations carry the update and delete
// operations. A period of 0 disables the operation.
type GeneratorConfig struct {
	UpdateEvery uint64 `yaml:"update-every" mapstructure:"update-every"`
	DeleteEvery uint64 `yaml:"delete-every" mapstructure:"delete-every"`
}

// DefaultGeneratorConfig returns the schedule of the reference workload.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		UpdateEvery: DefaultUpdateEvery,
		DeleteEvery: DefaultDeleteEvery,
	}
}

// Generator produces the Batch for every iteration of the workload. It is not
// safe for concurrent use.
type Generator struct {
	conf GeneratorConfig
	rand *rand.Rand
}

// NewGenerator returns a Generator drawing all random values from r.
func NewGenerator(conf GeneratorConfig, r *rand.Rand) (*Generator, error) {
	if r == nil {
		return nil, fmt.Errorf(errNilRand)
	}
	return &Generator{conf: conf, rand: r}, nil
}

// Batch returns the writes for iteration i. The records get key i+1; the
// update and delete operations are scheduled by that key.
func (g *Generator) Batch(i uint64) *Batch {
	key := i + 1
	b := &Batch{
		Primary:   g.PrimaryRecord(key),
		Secondary: g.SecondaryRecord(key),
	}
	if isDue(key, g.conf.UpdateEvery) {
		b.UpdateFirstText = g.RandomString(varchar1Len)
	}
	b.DeleteRandom = isDue(key, g.conf.DeleteEvery)
	return b
}

// PrimaryRecord returns a PrimaryRecord with the given id and random fields.
func (g *Generator) PrimaryRecord(id uint64) *PrimaryRecord {
	bit := "0"
	if g.rand.Intn(2) == 1 {
		bit = "1"
	}
	return &PrimaryRecord{
		ID:            id,
		VarcharField1: g.RandomString(varchar1Len),
		VarcharField2: g.RandomString(varchar2Len),
		IntField:      g.randomInt(minIntField, maxIntField),
		DoubleField:   minDoubleField + g.rand.Float64()*(maxDoubleField-minDoubleField),
		TextField:     g.RandomString(textLen),
		BitField:      bit,
		BoolField:     g.rand.Intn(2) == 1,
	}
}

// SecondaryRecord returns a SecondaryRecord with the given id and a random
// array of small positive integers.
func (g *Generator) SecondaryRecord(id uint64) *SecondaryRecord {
	arr := make([]int64, g.randomInt(minArrayLen, maxArrayLen))
	for i := range arr {
		arr[i] = int64(g.randomInt(minArrayValue, maxArrayValue))
	}
	return &SecondaryRecord{ID: id, IntArray: arr}
}

// RandomString returns a string of n ASCII letters.
func (g *Generator) RandomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[g.rand.Intn(len(letters))]
	}
	return string(b)
}

// randomInt returns a value in [lo, hi].
func (g *Generator) randomInt(lo, hi int) int {
	return lo + g.rand.Intn(hi-lo+1)
}

func isDue(key, every uint64) bool {
	return every > 0 && key%every == 0
}
