package dispatch

import (
	"math"
	"testing"
	"time"

	"github.com/scrambledgregs/fleet-sub001/core/model"
)

func windowedJob(value float64, jobType, territory string) model.Job {
	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	return model.Job{
		ID:        "job-1",
		Location:  model.GeoPoint{Lat: 33.45, Lng: -112.07},
		Window:    &model.TimeWindow{Start: start, End: start.Add(time.Hour)},
		JobType:   jobType,
		Value:     value,
		Territory: territory,
	}
}

func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()
	if w.Travel != 0.50 || w.Disruption != 0.20 || w.SkillCredit != 0.25 ||
		w.ValueCredit != 0.15 || w.WindowRisk != 0.20 || w.TerritoryMismatch != 0.05 ||
		w.LoadBalance != 0.05 {
		t.Fatalf("unexpected default weights: %+v", w)
	}
}

func TestScoreSkillCredit(t *testing.T) {
	s := NewFitScorer()
	job := windowedJob(2000, "Repair", "EAST")
	skilled := model.Technician{ID: "a", Skills: []string{"Repair"}, Territory: "EAST"}
	unskilled := model.Technician{ID: "b", Skills: []string{"Inspection"}, Territory: "EAST"}
	ca, _ := s.Score(job, skilled, 0, 0, 10)
	cb, _ := s.Score(job, unskilled, 0, 0, 10)
	if ca >= cb {
		t.Fatalf("skilled technician should cost strictly less: %v vs %v", ca, cb)
	}
}

func TestScoreValueCredit(t *testing.T) {
	s := NewFitScorer()
	low, _ := s.Score(windowedJob(1000, "Repair", ""), model.Technician{ID: "a", Skills: []string{"Repair"}}, 0, 0, 10)
	high, _ := s.Score(windowedJob(40000, "Repair", ""), model.Technician{ID: "a", Skills: []string{"Repair"}}, 0, 0, 10)
	if high >= low {
		t.Fatalf("higher value job should cost less: %v vs %v", high, low)
	}
}

func TestScoreInteriorDisruption(t *testing.T) {
	s := NewFitScorer()
	job := windowedJob(0, "Repair", "")
	tech := model.Technician{ID: "a", Skills: []string{"Repair"}}
	end, _ := s.Score(job, tech, 0, 3, 10)
	interior, _ := s.Score(job, tech, 1, 3, 10)
	want := s.Weights.Disruption
	if diff := interior - end; math.Abs(diff-want) > 1e-9 {
		t.Fatalf("interior insertion should add %v, added %v", want, diff)
	}
}

func TestScoreWindowRisk(t *testing.T) {
	s := NewFitScorer()
	tech := model.Technician{ID: "a", Skills: []string{"Repair"}}
	with := windowedJob(0, "Repair", "")
	without := with
	without.Window = nil
	cw, _ := s.Score(with, tech, 0, 0, 10)
	cwo, _ := s.Score(without, tech, 0, 0, 10)
	if diff := cwo - cw; math.Abs(diff-s.Weights.WindowRisk) > 1e-9 {
		t.Fatalf("windowless job should add %v, added %v", s.Weights.WindowRisk, diff)
	}
}

func TestScoreTerritoryMismatch(t *testing.T) {
	s := NewFitScorer()
	job := windowedJob(0, "Repair", "EAST")
	same, _ := s.Score(job, model.Technician{ID: "a", Skills: []string{"Repair"}, Territory: "EAST"}, 0, 0, 10)
	diff, _ := s.Score(job, model.Technician{ID: "b", Skills: []string{"Repair"}, Territory: "WEST"}, 0, 0, 10)
	if diff <= same {
		t.Fatalf("territory mismatch should add cost: %v vs %v", diff, same)
	}
	unset, _ := s.Score(job, model.Technician{ID: "c", Skills: []string{"Repair"}}, 0, 0, 10)
	if unset != same {
		t.Fatalf("unset territory must not be penalized: %v vs %v", unset, same)
	}
}

func TestScoreLoadPenalty(t *testing.T) {
	s := NewFitScorer()
	job := windowedJob(0, "Repair", "")
	tech := model.Technician{ID: "a", Skills: []string{"Repair"}}
	atThreshold, _ := s.Score(job, tech, 0, 4, 10)
	loaded, _ := s.Score(job, tech, 0, 6, 10)
	want := s.Weights.LoadBalance * 2 * loadStep
	if diff := loaded - atThreshold; math.Abs(diff-want) > 1e-9 {
		t.Fatalf("two stops over threshold should add %v, added %v", want, diff)
	}
	short, _ := s.Score(job, tech, 0, 2, 10)
	if short != atThreshold {
		t.Fatalf("routes at or under threshold share the same penalty: %v vs %v", short, atThreshold)
	}
}

func TestScoreRationale(t *testing.T) {
	s := NewFitScorer()
	job := windowedJob(4000, "Repair", "")
	tech := model.Technician{ID: "a", Skills: []string{"Repair"}}
	_, rationale := s.Score(job, tech, 0, 0, 12.3)
	want := "Δtravel ~12m, skill=1, value=8%"
	if rationale != want {
		t.Fatalf("rationale %q, want %q", rationale, want)
	}
}
