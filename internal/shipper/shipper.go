package shipper

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"carbon-admin-console/internal/kafka"
	"carbon-admin-console/internal/model"
	"carbon-admin-console/internal/parser"
)

const offsetKeyPrefix = "shipOffset:"

var logExtensions = []string{".log", ".ndjson", ".jsonl"}

// OffsetStore persists how far each file has been shipped.
type OffsetStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

type Stats struct {
	Files   int
	Lines   int64
	Records int
}

// Shipper publishes new lines of the log files under a directory. Offsets
// only advance once a file's records were produced, so a failed run is
// retried from the same place.
type Shipper struct {
	dir       string
	kind      model.LogKind
	batchSize int
	producer  kafka.LogProducer
	offsets   OffsetStore
	lock      sync.Mutex
}

func New(dir string, kind model.LogKind, batchSize int, producer kafka.LogProducer, offsets OffsetStore) *Shipper {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Shipper{dir: dir, kind: kind, batchSize: batchSize, producer: producer, offsets: offsets}
}

func OffsetKey(path string) string {
	return offsetKeyPrefix + path
}

func (s *Shipper) offset(path string) int64 {
	v, ok := s.offsets.Get(OffsetKey(path))
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Run ships one cycle. A cycle that would overlap a running one is skipped.
func (s *Shipper) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	if !s.lock.TryLock() {
		log.Warn().Msg("Log shipping already in progress, skipping run.")
		return stats, nil
	}
	defer s.lock.Unlock()

	start := time.Now()
	files, err := FindLogFiles(s.dir)
	if err != nil {
		return stats, fmt.Errorf("failed to find log files: %w", err)
	}
	log.Debug().Int("file_count", len(files)).Msg("Found log files to ship")

	var errs []error
	for _, path := range files {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		lines, records, err := s.shipFile(ctx, path)
		stats.Lines += lines
		stats.Records += records
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Failed to ship file")
			errs = append(errs, err)
			continue
		}
		stats.Files++
	}

	log.Info().
		Int64("lines_read", stats.Lines).
		Int("records_sent", stats.Records).
		Int("files_processed", stats.Files).
		Dur("duration", time.Since(start)).
		Msg("Finished log shipping cycle.")
	return stats, errors.Join(errs...)
}

// FindLogFiles lists the log files under dir in lexical order.
func FindLogFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsLogFile(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// IsLogFile reports whether name has one of the shipped extensions.
func IsLogFile(name string) bool {
	for _, ext := range logExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func (s *Shipper) shipFile(ctx context.Context, path string) (int64, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, 0, err
	}
	last := s.offset(path)
	if info.Size() < last {
		log.Warn().Str("file", path).Int64("last_offset", last).Int64("current_size", info.Size()).Msg("File truncated or rotated? Resetting offset.")
		last = 0
	}
	if info.Size() == last {
		return 0, 0, nil
	}
	if _, err := file.Seek(last, io.SeekStart); err != nil {
		return 0, 0, fmt.Errorf("seek %s to %d: %w", path, last, err)
	}

	records, lines, consumed, err := ReadRecords(file, path, s.kind)
	if err != nil {
		return lines, 0, err
	}

	sent := 0
	for from := 0; from < len(records); from += s.batchSize {
		batch := records[from:min(from+s.batchSize, len(records))]
		n, err := s.producer.Produce(ctx, batch)
		sent += n
		if err != nil {
			return lines, sent, fmt.Errorf("kafka produce error: %w", err)
		}
	}

	if err := s.offsets.Set(OffsetKey(path), strconv.FormatInt(last+consumed, 10)); err != nil {
		return lines, sent, fmt.Errorf("save offset: %w", err)
	}
	log.Debug().Str("file", path).Int64("lines_read", lines).Int("records", sent).Msg("Shipped file")
	return lines, sent, nil
}

// ReadRecords assembles the complete lines of r. A trailing line without a
// newline is left for the next run; consumed counts the bytes read up to
// the last complete line.
func ReadRecords(r io.Reader, source string, kind model.LogKind) (records []model.LogRecord, lines, consumed int64, err error) {
	a := parser.NewAssembler(source, kind)
	br := bufio.NewReader(r)
	for {
		line, readErr := br.ReadString('\n')
		if readErr == nil {
			lines++
			consumed += int64(len(line))
			a.Add(strings.TrimSuffix(line, "\n"))
			continue
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		return nil, lines, consumed, fmt.Errorf("read %s: %w", source, readErr)
	}
	return a.Flush(), lines, consumed, nil
}
