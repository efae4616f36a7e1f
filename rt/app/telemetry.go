package app

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
)

// FrameRecord is one row of the frame CSV.
type FrameRecord struct {
	RunID    string  `csv:"run_id"`
	Frame    int     `csv:"frame"`
	Elapsed  float64 `csv:"elapsed_s"`
	UpdateMs float64 `csv:"update_ms"`
	EncodeMs float64 `csv:"encode_ms"`
	SubmitMs float64 `csv:"submit_ms"`
	Bundles  int     `csv:"bundles"`
	Rebuilt  bool    `csv:"rebuilt"`
	Skipped  bool    `csv:"skipped"`
	Locked   bool    `csv:"locked"`
}

// FrameTelemetry buffers frame records and writes them as CSV every
// flushEvery frames. A nil *FrameTelemetry discards everything.
type FrameTelemetry struct {
	RunID uuid.UUID

	out           io.Writer
	flushEvery    int
	pending       []FrameRecord
	headerWritten bool
}

func NewFrameTelemetry(out io.Writer, runID uuid.UUID, flushEvery int) *FrameTelemetry {
	if flushEvery < 1 {
		flushEvery = 1
	}
	return &FrameTelemetry{
		RunID:      runID,
		out:        out,
		flushEvery: flushEvery,
	}
}

func (t *FrameTelemetry) Record(r FrameRecord) error {
	if t == nil {
		return nil
	}
	r.RunID = t.RunID.String()
	t.pending = append(t.pending, r)
	if len(t.pending) >= t.flushEvery {
		return t.Flush()
	}
	return nil
}

func (t *FrameTelemetry) Flush() error {
	if t == nil || len(t.pending) == 0 {
		return nil
	}
	var err error
	if !t.headerWritten {
		err = gocsv.Marshal(t.pending, t.out)
		t.headerWritten = true
	} else {
		err = gocsv.MarshalWithoutHeaders(t.pending, t.out)
	}
	t.pending = t.pending[:0]
	if err != nil {
		return fmt.Errorf("writing frame telemetry: %w", err)
	}
	return nil
}
