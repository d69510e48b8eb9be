package ingest

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// CollectionSource reads a whole GeoJSON FeatureCollection document
// eagerly and replays its features.
type CollectionSource struct {
	features []*geojson.Feature
	idx      int
	closer   io.Closer
}

// NewCollectionSource parses a FeatureCollection from r.
func NewCollectionSource(r io.Reader) (*CollectionSource, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read feature collection")
	}
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, eris.Wrap(err, "ingest: parse feature collection")
	}
	src := &CollectionSource{features: fc.Features, idx: -1}
	if c, ok := r.(io.Closer); ok {
		src.closer = c
	}
	return src, nil
}

// OpenCollection opens a FeatureCollection file by path.
func OpenCollection(path string) (*CollectionSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	src, err := NewCollectionSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	src.closer = f
	return src, nil
}

func (s *CollectionSource) Next() bool {
	s.idx++
	return s.idx < len(s.features)
}

func (s *CollectionSource) Feature() RawFeature {
	f := s.features[s.idx]
	return RawFeature{Attributes: f.Properties, Geometry: f.Geometry}
}

func (s *CollectionSource) Err() error { return nil }

func (s *CollectionSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// StreamSource reads newline-delimited Feature documents one line at a
// time, so arbitrarily large boundary files never load fully into
// memory. Malformed lines are logged and skipped rather than aborting
// the read.
type StreamSource struct {
	scanner *bufio.Scanner
	closer  io.Closer
	cur     RawFeature
	line    int
	skipped int
}

// Zipcode boundary features run to a few MB of coordinates per line.
const maxLineBytes = 64 * 1024 * 1024

// NewStreamSource wraps r as a line-delimited feature stream.
func NewStreamSource(r io.Reader) *StreamSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	src := &StreamSource{scanner: scanner}
	if c, ok := r.(io.Closer); ok {
		src.closer = c
	}
	return src
}

// OpenStream opens a newline-delimited feature file by path.
func OpenStream(path string) (*StreamSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	src := NewStreamSource(f)
	src.closer = f
	return src, nil
}

func (s *StreamSource) Next() bool {
	for s.scanner.Scan() {
		s.line++
		text := strings.TrimSpace(s.scanner.Text())
		if text == "" {
			continue
		}

		var f geojson.Feature
		if err := json.Unmarshal([]byte(text), &f); err != nil {
			s.skipped++
			zap.L().Warn("ingest: skipping malformed feature line",
				zap.Int("line", s.line),
				zap.Error(err),
			)
			continue
		}
		s.cur = RawFeature{Attributes: f.Properties, Geometry: f.Geometry}
		return true
	}
	return false
}

func (s *StreamSource) Feature() RawFeature { return s.cur }

// Skipped reports how many malformed lines were dropped so far.
func (s *StreamSource) Skipped() int { return s.skipped }

func (s *StreamSource) Err() error {
	return eris.Wrap(s.scanner.Err(), "ingest: scan feature stream")
}

func (s *StreamSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
