package sim

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"readonly-sim/internal/state"
)

// jsonlFile is a JSONL output file, zstd-compressed when its name ends in .zst.
type jsonlFile struct {
	f   *os.File
	zw  *zstd.Encoder
	enc *json.Encoder
}

func createJSONL(path string) (*jsonlFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	out := &jsonlFile{f: f}
	var w io.Writer = f
	if isZstd(path) {
		zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			f.Close()
			return nil, err
		}
		out.zw = zw
		w = zw
	}
	out.enc = json.NewEncoder(w)
	return out, nil
}

func (j *jsonlFile) Close() error {
	var err error
	if j.zw != nil {
		err = j.zw.Close()
	}
	if e := j.f.Close(); e != nil && err == nil {
		err = e
	}
	return err
}

func isZstd(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

// FileWriter writes state reports and pose samples to JSONL files.
type FileWriter struct {
	reports *jsonlFile
	samples *jsonlFile
}

// NewFileWriter creates a FileWriter. Either path may be empty to skip that log.
func NewFileWriter(reportPath, samplePath string) (*FileWriter, error) {
	fw := &FileWriter{}
	if reportPath != "" {
		rf, err := createJSONL(reportPath)
		if err != nil {
			return nil, err
		}
		fw.reports = rf
	}
	if samplePath != "" {
		sf, err := createJSONL(samplePath)
		if err != nil {
			if fw.reports != nil {
				fw.reports.Close()
			}
			return nil, err
		}
		fw.samples = sf
	}
	return fw, nil
}

// Publish logs a single state report, if enabled.
func (f *FileWriter) Publish(rec state.Record) error {
	if f.reports == nil {
		return nil
	}
	return f.reports.enc.Encode(rec)
}

// RecordSample logs a pose sample, if enabled.
func (f *FileWriter) RecordSample(s state.Sample) error {
	if f.samples == nil {
		return nil
	}
	return f.samples.enc.Encode(s)
}

// Close flushes and closes the underlying files.
func (f *FileWriter) Close() error {
	var err error
	for _, j := range []*jsonlFile{f.reports, f.samples} {
		if j == nil {
			continue
		}
		if e := j.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
