/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package ingest wires the matcher, sink, histogram, and unmatched-line
// pipeline behind the §6 ingest contract: accept a record, classify it, and
// route it to storage and/or template generation without ever surfacing an
// error to the caller beyond the accepted/matched/failed counts (§7
// propagation rule).
package ingest

import (
	"time"

	"github.com/traas-stack/logmatcher/pkg/generation"
	"github.com/traas-stack/logmatcher/pkg/histogram"
	"github.com/traas-stack/logmatcher/pkg/matcher"
	"github.com/traas-stack/logmatcher/pkg/metrics"
	"github.com/traas-stack/logmatcher/pkg/sink"
	"github.com/traas-stack/logmatcher/pkg/snapshot"
)

// Record is one ingest input (§6 "Ingest input record"). Org and Message are
// required; the rest default per spec when zero-valued.
type Record struct {
	Org       string
	Message   string
	Timestamp time.Time
	Dashboard string
	Service   string
	Host      string
	Level     string
	Metadata  map[string]string
}

// Response is the §6 "Ingest response" for a batch call: matched <= accepted,
// and every unmatched line with a non-empty message was enqueued for
// generation (empty messages are counted accepted but never enqueued).
type Response struct {
	Accepted int
	Matched  int
	Failed   int
}

// Gateway is the composed ingest entry point.
type Gateway struct {
	holder    *snapshot.Holder
	threshold float64
	sink      *sink.Sink
	pipeline  *generation.Pipeline
	histogram *histogram.Rotator
}

// New composes a Gateway from its already-running dependencies. hist should
// already have its Run loop started so matched observations actually roll
// into a baseline/current JSD comparison (C9).
func New(holder *snapshot.Holder, threshold float64, sk *sink.Sink, pipeline *generation.Pipeline, hist *histogram.Rotator) *Gateway {
	return &Gateway{
		holder:    holder,
		threshold: threshold,
		sink:      sk,
		pipeline:  pipeline,
		histogram: hist,
	}
}

// Ingest classifies one record: §7's MalformedInput rule applies (an empty
// line is accepted but never matches); everything else is always counted
// accepted regardless of match outcome.
func (g *Gateway) Ingest(r Record) Response {
	return g.IngestBatch([]Record{r})
}

// IngestBatch classifies records in order, preserving order in the response
// counts (§6).
func (g *Gateway) IngestBatch(records []Record) Response {
	snap := g.holder.Load()
	var resp Response

	for _, r := range records {
		resp.Accepted++
		metrics.IngestAccepted.Inc()

		ts := r.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		level := r.Level
		if level == "" {
			level = "INFO"
		}

		result := matcher.MatchLine(snap, []byte(r.Message), g.threshold)

		if result.Matched {
			resp.Matched++
			metrics.IngestMatched.Inc()
			g.histogram.Add(result.TemplateID)
		} else if r.Message != "" {
			g.pipeline.Submit(r.Message)
		}

		if g.sink != nil {
			g.sink.WriteLog(toLogPoint(r, ts, level, result))
		}
	}
	return resp
}

func toLogPoint(r Record, ts time.Time, level string, result matcher.Result) sink.LogPoint {
	p := sink.LogPoint{
		Org:       r.Org,
		Service:   r.Service,
		Host:      r.Host,
		Level:     level,
		Message:   r.Message,
		Timestamp: ts,
		Matched:   result.Matched,
	}
	if result.Matched {
		p.TemplateID = result.TemplateID
	}
	return p
}
