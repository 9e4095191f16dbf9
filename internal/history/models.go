package history

import "time"

// Run is one completed batch rewrite.
type Run struct {
	ID               int64
	RunID            string
	SourcePath       string
	DestinationPath  string
	OriginalBytes    int64
	FinalBytes       int64
	ReductionPercent int
	JPEGQuality      int
	PNGCompression   int
	ScalePercent     int
	TargetHeight     int
	TargetWidth      int
	Entries          int
	Reduced          int
	Copied           int
	Unsupported      int
	Malformed        int
	Failed           int
	StartedAt        time.Time
	FinishedAt       time.Time
}

// Duration returns the wall time of the run.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Calibration is the last accepted calibration for a source archive.
type Calibration struct {
	SourcePath     string
	ScalePercent   int
	QualityPercent int
	UpdatedAt      time.Time
}
