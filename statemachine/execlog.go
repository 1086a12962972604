package statemachine

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"
)

// LogEntry records one handled state. Return is the condition the handler
// produced; Error is set when the handler or the resolution that followed it
// failed and the run was redirected to the exception handler.
type LogEntry struct {
	Name   string `json:"name"             yaml:"name"`
	Return any    `json:"return,omitempty" yaml:"return,omitempty"`
	Error  string `json:"error,omitempty"  yaml:"error,omitempty"`
}

// Log is the ordered list of entries captured by a run.
type Log []LogEntry

// Names returns the visited state names in order.
func (l Log) Names() []string {
	names := make([]string, len(l))
	for i, entry := range l {
		names[i] = entry.Name
	}

	return names
}

// Clone returns a copy of the log.
func (l Log) Clone() Log {
	return slices.Clone(l)
}

// LogDocument is the on-disk form of a captured run.
type LogDocument struct {
	Workflow    string    `json:"workflow,omitempty"    yaml:"workflow,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"           yaml:"recorded_at"`
	Entries     Log       `json:"entries"               yaml:"entries"`
}

// NewLogDocument wraps a log captured from graph.
func NewLogDocument(workflow string, graph *Graph, log Log) *LogDocument {
	doc := &LogDocument{
		Workflow:   workflow,
		RecordedAt: time.Now().UTC(),
		Entries:    log.Clone(),
	}

	if graph != nil {
		doc.Fingerprint = graph.Fingerprint()
	}

	return doc
}

// LogFormat is the serialization of a log file.
type LogFormat string

const (
	LogFormatYAML LogFormat = "yaml"
	LogFormatJSON LogFormat = "json"
)

// Compression is the optional compression applied to a log file.
type Compression string

const (
	CompressionNone   Compression = ""
	CompressionGzip   Compression = "gzip"
	CompressionZstd   Compression = "zstd"
	CompressionLZ4    Compression = "lz4"
	CompressionBrotli Compression = "brotli"
)

var compressionSuffixes = map[string]Compression{ //nolint:gochecknoglobals
	".gz":  CompressionGzip,
	".zst": CompressionZstd,
	".lz4": CompressionLZ4,
	".br":  CompressionBrotli,
}

// DetectLogFormat derives the serialization and compression of a log file
// from its extension, e.g. run.json.zst.
func DetectLogFormat(path string) (LogFormat, Compression, error) {
	name := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(name)

	compression, compressed := compressionSuffixes[ext]
	if compressed {
		name = strings.TrimSuffix(name, ext)
		ext = filepath.Ext(name)
	}

	switch ext {
	case ".yaml", ".yml":
		return LogFormatYAML, compression, nil
	case ".json":
		return LogFormatJSON, compression, nil
	default:
		return "", CompressionNone, fmt.Errorf("%w: %s", ErrUnsupportedLogFormat, path)
	}
}

// SaveLog writes a log document to path. Format and compression follow the
// file extension.
func SaveLog(path string, doc *LogDocument) (err error) {
	format, compression, err := DetectLogFormat(path)
	if err != nil {
		return err
	}

	file, err := os.Create(path) //nolint:gosec // Intentional path-based writing
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close log file: %w", closeErr)
		}
	}()

	buffered := bufio.NewWriter(file)

	err = WriteLog(buffered, doc, format, compression)
	if err != nil {
		return err
	}

	return buffered.Flush()
}

// LoadLog reads a log document from path. Format and compression follow the
// file extension.
func LoadLog(path string) (*LogDocument, error) {
	format, compression, err := DetectLogFormat(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path) //nolint:gosec // Intentional path-based loading
	if err != nil {
		return nil, fmt.Errorf("file %q doesn't exist or is unreadable: %w", path, err)
	}
	defer file.Close() //nolint:errcheck

	return ReadLog(file, format, compression)
}

// WriteLog encodes doc to w.
func WriteLog(w io.Writer, doc *LogDocument, format LogFormat, compression Compression) error {
	cw, err := compressWriter(w, compression)
	if err != nil {
		return err
	}

	switch format {
	case LogFormatJSON:
		enc := json.NewEncoder(cw)
		enc.SetIndent("", "  ")
		err = enc.Encode(doc)
	case LogFormatYAML:
		enc := yaml.NewEncoder(cw)
		enc.SetIndent(2) //nolint:mnd
		err = enc.Encode(doc)

		if err == nil {
			err = enc.Close()
		}
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedLogFormat, format)
	}

	if err != nil {
		_ = cw.Close()

		return fmt.Errorf("failed to encode log: %w", err)
	}

	return cw.Close()
}

// ReadLog decodes a log document from r. A bare list of entries is accepted
// as well as the full document.
func ReadLog(r io.Reader, format LogFormat, compression Compression) (*LogDocument, error) {
	cr, err := decompressReader(r, compression)
	if err != nil {
		return nil, err
	}
	defer cr.Close() //nolint:errcheck

	data, err := io.ReadAll(cr)
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}

	var doc LogDocument

	switch format {
	case LogFormatJSON:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			err = json.Unmarshal(trimmed, &doc.Entries)
		} else {
			err = json.Unmarshal(trimmed, &doc)
		}
	case LogFormatYAML:
		var root yaml.Node

		err = yaml.Unmarshal(data, &root)
		if err == nil && len(root.Content) > 0 {
			if root.Content[0].Kind == yaml.SequenceNode {
				err = root.Content[0].Decode(&doc.Entries)
			} else {
				err = root.Content[0].Decode(&doc)
			}
		}
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedLogFormat, format)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode log: %w", err)
	}

	return &doc, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func compressWriter(w io.Writer, compression Compression) (io.WriteCloser, error) {
	switch compression {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}

		return enc, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	case CompressionBrotli:
		return brotli.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: compression %s", ErrUnsupportedLogFormat, compression)
	}
}

func decompressReader(r io.Reader, compression Compression) (io.ReadCloser, error) {
	switch compression {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}

		return gz, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}

		return dec.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case CompressionBrotli:
		return io.NopCloser(brotli.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("%w: compression %s", ErrUnsupportedLogFormat, compression)
	}
}
