package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New returns a fresh ULID string. Profiles, complaints and activity log
// entries all key on ULIDs, which sort lexicographically by creation time
// and spread evenly across DynamoDB partitions.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
