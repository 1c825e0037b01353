/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package sink implements C8: the buffered InfluxDB sink that persists
// matched log lines and per-template summaries for downstream analysis,
// grounded on the influxdb-client-go/v2 usage in the AleutianFOSS data
// fetcher from the example pack.
package sink

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/traas-stack/logmatcher/pkg/logger"
	"github.com/traas-stack/logmatcher/pkg/metrics"
	"github.com/traas-stack/logmatcher/pkg/util/batch"
)

// LogPoint is one ingested line, matched or not (the wide "logs" measurement
// of §4.8).
type LogPoint struct {
	Org        string
	Service    string
	Host       string
	Level      string
	TemplateID uint64
	Matched    bool
	Message    string
	Timestamp  time.Time
}

// TemplatePoint is one per-template rollup sample (the narrow "templates"
// measurement of §4.8), written alongside matched LogPoints.
type TemplatePoint struct {
	Org        string
	TemplateID uint64
	Pattern    string
	Timestamp  time.Time
}

// pointWriter is the slice of api.WriteAPIBlocking this package depends on,
// narrowed so tests can substitute a fake without a live InfluxDB instance.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Sink buffers points and flushes them to InfluxDB at BUFFER_SIZE or
// FLUSH_INTERVAL, whichever comes first, reusing the teacher's size/timeout
// batch.Processor the same way pkg/generation.Collector does.
type Sink struct {
	client   influxdb2.Client
	writeAPI pointWriter
	proc     batch.Processor
	maxRetry int
}

// Config configures the client endpoint, the target bucket, and the
// buffering tunables of §6 (BUFFER_SIZE, FLUSH_INTERVAL).
type Config struct {
	URL           string
	Token         string
	Org           string
	Bucket        string
	BufferSize    int
	FlushInterval time.Duration
	MaxRetries    int
}

type pointConsumer struct {
	s *Sink
}

func (c pointConsumer) Consume(items []interface{}) {
	c.s.flush(items)
}

// New connects to an InfluxDB instance and starts the background flush
// processor. Call Close to flush any remaining buffered points and release
// the underlying HTTP client.
func New(cfg Config) *Sink {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	s := &Sink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		maxRetry: cfg.MaxRetries,
	}
	s.proc = batch.NewBatchProcessor(
		cfg.BufferSize*2,
		pointConsumer{s: s},
		batch.WithBatchThresholdStrategy(cfg.BufferSize),
		batch.WithMaxWaitStrategy(cfg.FlushInterval),
	)
	s.proc.Run()
	return s
}

// newWithWriter builds a Sink around an already-constructed writer, bypassing
// the live InfluxDB client. Used by tests to observe flush behavior without a
// running InfluxDB instance.
func newWithWriter(w pointWriter, bufferSize int, flushInterval time.Duration, maxRetries int) *Sink {
	s := &Sink{writeAPI: w, maxRetry: maxRetries}
	s.proc = batch.NewBatchProcessor(
		bufferSize*2,
		pointConsumer{s: s},
		batch.WithBatchThresholdStrategy(bufferSize),
		batch.WithMaxWaitStrategy(flushInterval),
	)
	s.proc.Run()
	return s
}

// WriteLog buffers a matched or unmatched log line for eventual flush.
func (s *Sink) WriteLog(p LogPoint) {
	if !s.proc.TryPut(p) {
		metrics.StoreBatchesDropped.Inc()
	}
}

// WriteTemplate buffers a per-template rollup sample.
func (s *Sink) WriteTemplate(p TemplatePoint) {
	if !s.proc.TryPut(p) {
		metrics.StoreBatchesDropped.Inc()
	}
}

// Close drains the buffer and releases the InfluxDB client.
func (s *Sink) Close() {
	s.proc.Shutdown()
	if s.client != nil {
		s.client.Close()
	}
}

// flush converts buffered items to InfluxDB points and writes them,
// retrying transient failures up to maxRetry times before dropping the
// batch and counting a StoreWriteFailure (§4.8, §7).
func (s *Sink) flush(items []interface{}) {
	points := make([]*write.Point, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case LogPoint:
			points = append(points, logPointToInflux(v))
		case TemplatePoint:
			points = append(points, templatePointToInflux(v))
		}
	}
	if len(points) == 0 {
		return
	}

	var err error
	for attempt := 0; attempt <= s.maxRetry; attempt++ {
		err = s.writeAPI.WritePoint(context.Background(), points...)
		if err == nil {
			return
		}
		logger.Warnf("sink: write attempt %d/%d failed: %v", attempt+1, s.maxRetry+1, err)
	}
	metrics.StoreWriteFailures.Inc()
}

func logPointToInflux(p LogPoint) *write.Point {
	return influxdb2.NewPoint(
		"logs",
		map[string]string{
			"org":     p.Org,
			"service": p.Service,
			"host":    p.Host,
			"level":   p.Level,
			"matched": boolTag(p.Matched),
		},
		map[string]interface{}{
			"template_id": int64(p.TemplateID),
			"message":     p.Message,
		},
		p.Timestamp,
	)
}

func templatePointToInflux(p TemplatePoint) *write.Point {
	return influxdb2.NewPoint(
		"templates",
		map[string]string{
			"org": p.Org,
		},
		map[string]interface{}{
			"template_id": int64(p.TemplateID),
			"pattern":     p.Pattern,
		},
		p.Timestamp,
	)
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
