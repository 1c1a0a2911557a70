package snapshot

import (
	"time"

	"github.com/ja7ad/procwatch/pkg/process"
)

// Observer receives build events. Implementations must be safe for
// concurrent use: ProbeMissed is called from probe goroutines.
type Observer interface {
	// BatchStarted is called before each batch with its size.
	BatchStarted(size int)
	// ProbeMissed is called once per probe that had nothing for a pid.
	ProbeMissed(probe string)
	// EnumerationFailed is called when the process list could not be read.
	EnumerationFailed(err error)
	// SnapshotBuilt is called once per build, failed or not.
	SnapshotBuilt(s process.Snapshot, took time.Duration)
}

type nopObserver struct{}

func (nopObserver) BatchStarted(int) {}
func (nopObserver) ProbeMissed(string) {}
func (nopObserver) EnumerationFailed(error) {}
func (nopObserver) SnapshotBuilt(process.Snapshot, time.Duration) {}

// Annotator derives extra fields from a completed build and returns the
// annotated records.
type Annotator interface {
	Annotate(records []process.Record, at time.Time) []process.Record
}
