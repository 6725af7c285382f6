package game

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"os"
	"sync/atomic"
	"time"
)

// ID tags a single game (or a single bot request) so that log lines,
// CSV rows and database rows for it can be correlated. The layout is the
// classic 12-byte object id: seconds, host hash, pid, counter.
type ID string

var (
	idCounter atomic.Uint32
	hostHash  [3]byte
)

func init() {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	sum := md5.Sum([]byte(hostname))
	copy(hostHash[:], sum[:3])
}

// NewID returns a new, process-unique ID.
func NewID() ID {
	var b [12]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(time.Now().Unix()))
	copy(b[4:7], hostHash[:])
	pid := os.Getpid()
	b[7] = byte(pid >> 8)
	b[8] = byte(pid)
	i := idCounter.Add(1)
	b[9] = byte(i >> 16)
	b[10] = byte(i >> 8)
	b[11] = byte(i)
	return ID(hex.EncodeToString(b[:]))
}

// Time returns the creation time encoded in the ID. It returns the zero
// time for malformed IDs.
func (id ID) Time() time.Time {
	b, err := hex.DecodeString(string(id))
	if err != nil || len(b) != 12 {
		return time.Time{}
	}
	return time.Unix(int64(binary.BigEndian.Uint32(b[0:4])), 0)
}
