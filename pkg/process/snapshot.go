package process

import (
	"errors"
	"time"
)

// Snapshot is the set of merged records captured by one build. It is
// superseded as a whole by the next one and never updated in place.
type Snapshot struct {
	Seq        uint64    `json:"seq"`
	CapturedAt time.Time `json:"captured_at"`
	Records    []Record  `json:"records"`

	// Skipped is how many enumerated ids were left unprobed by the cap.
	Skipped int `json:"skipped"`

	// Err is non-nil when the build did not complete: ErrEnumeration when
	// the process list could not be read, or the context error when the
	// build was cancelled part way.
	Err error `json:"-"`
}

// Failed reports whether enumeration itself failed.
func (s Snapshot) Failed() bool { return errors.Is(s.Err, ErrEnumeration) }

// Len returns the number of records.
func (s Snapshot) Len() int { return len(s.Records) }

// Lookup returns the record for pid.
func (s Snapshot) Lookup(pid int32) (Record, bool) {
	for _, r := range s.Records {
		if r.PID == pid {
			return r, true
		}
	}
	return Record{}, false
}

// Without returns a copy of the snapshot minus pid. The receiver is left
// untouched so readers holding it are unaffected.
func (s Snapshot) Without(pid int32) Snapshot {
	out := s
	out.Records = make([]Record, 0, len(s.Records))
	for _, r := range s.Records {
		if r.PID != pid {
			out.Records = append(out.Records, r)
		}
	}
	return out
}
