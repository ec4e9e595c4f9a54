package domain

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// IDGenerator abstracts identifier creation so tests can get deterministic
// ids. Production wiring uses UUIDGenerator.
type IDGenerator interface {
	NewID() string
	NewExecutionID(unixMs int64) string
}

// UUIDGenerator generates RFC 4122 ids via google/uuid, the same library
// the teacher uses for every entity id in internal/warehouse.
type UUIDGenerator struct {
	rng Random
}

// Random abstracts the byte source behind execution ids, so tests can
// supply a fixed suffix instead of crypto/rand.
type Random interface {
	Read(p []byte) (int, error)
}

// NewUUIDGenerator builds a generator using crypto/rand through uuid.NewString.
func NewUUIDGenerator(rng Random) *UUIDGenerator {
	return &UUIDGenerator{rng: rng}
}

func (g *UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// NewExecutionID builds "exec_<unixMs>_<8-byte-hex>" per spec.md §4.5.
func (g *UUIDGenerator) NewExecutionID(unixMs int64) string {
	buf := make([]byte, 8)
	if g.rng != nil {
		_, _ = g.rng.Read(buf)
	}
	return fmt.Sprintf("exec_%d_%s", unixMs, hex.EncodeToString(buf))
}
