package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/scrambledgregs/fleet-sub001/core/metrics"
	"github.com/scrambledgregs/fleet-sub001/infra/logger"
)

// InfluxSink writes dispatch decisions to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordDecision writes each decision as a line protocol point.
func (s *InfluxSink) RecordDecision(recs []coremetrics.DecisionRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range recs {
		p := write.NewPointWithMeasurement("dispatch_decision").
			AddTag("job_id", r.JobID).
			AddTag("tech_id", r.TechID).
			AddTag("mode", r.Mode).
			AddTag("booked", strconv.FormatBool(r.Booked)).
			AddTag("decision_id", r.DecisionID).
			AddField("cost", round3(r.Cost)).
			AddField("position", r.Position).
			SetTime(r.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordRankSummary writes the cost spread of one ranking.
func (s *InfluxSink) RecordRankSummary(sum coremetrics.RankSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("rank_summary").
		AddTag("job_id", sum.JobID).
		AddField("technicians", sum.Technicians).
		AddField("excluded", sum.Excluded).
		AddField("best_cost", round3(sum.BestCost)).
		AddField("mean_cost", round3(sum.MeanCost)).
		AddField("stddev_cost", round3(sum.StdDevCost)).
		SetTime(sum.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSlots writes suggested slots.
func (s *InfluxSink) RecordSlots(recs []coremetrics.SlotRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range recs {
		p := write.NewPointWithMeasurement("slot_suggestion").
			AddTag("job_id", r.JobID).
			AddTag("tech_id", r.TechID).
			AddField("cost", round3(r.Cost)).
			AddField("start", r.Start.Unix()).
			AddField("end", r.End.Unix()).
			SetTime(r.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close shuts down the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

// round3 limits float noise in stored points.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
