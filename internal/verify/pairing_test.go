package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hmwatts/tracebench/api/schemas"
)

func goodTrajectory() *schemas.PairedTrajectory {
	steps := []schemas.TrajectoryStep{
		{
			Step:           1,
			Action:         schemas.Action{Step: 1, Kind: schemas.ActionFill, BID: "a1", Value: "Jo"},
			BIDFoundInHTML: true,
			ElementInfo:    schemas.ElementInfo{TagName: "INPUT", Role: "textbox"},
			EventTimestamp: 100,
			Observation:    schemas.ObservationRef{Timestamp: 50, URL: "http://localhost/form", HTMLLength: 4000},
		},
		{
			Step:           2,
			Action:         schemas.Action{Step: 2, Kind: schemas.ActionClick, BID: "b1"},
			BIDFoundInHTML: true,
			ElementInfo:    schemas.ElementInfo{TagName: "BUTTON", Name: "Submit"},
			EventTimestamp: 200,
			Observation:    schemas.ObservationRef{Timestamp: 150, URL: "http://localhost/form", HTMLLength: 4100},
		},
	}
	return &schemas.PairedTrajectory{
		TaskID: "task-1",
		Stats: schemas.PairingStats{
			TotalRawEvents:    40,
			TotalObservations: 2,
			TotalKeyEvents:    2,
			TotalPairs:        2,
			ValidPairs:        2,
		},
		Trajectory: steps,
	}
}

func TestPairingAllChecksPass(t *testing.T) {
	r := Pairing(goodTrajectory())
	assert.True(t, r.Summary.AllPassed, "failed checks: %+v", r.Checks)
}

func TestPairingEmptyTrajectoryShortCircuits(t *testing.T) {
	r := Pairing(&schemas.PairedTrajectory{})
	assert.False(t, r.Summary.AllPassed)
	assert.Equal(t, 1, r.Summary.TotalChecks)
}

func TestPairingLowBIDMatch(t *testing.T) {
	pt := goodTrajectory()
	for i := range pt.Trajectory {
		pt.Trajectory[i].BIDFoundInHTML = false
	}

	r := Pairing(pt)
	assert.False(t, checkByName(t, r, "BID-HTML Presence").Passed)
}

func TestPairingTemporalMisalignment(t *testing.T) {
	pt := goodTrajectory()
	for i := range pt.Trajectory {
		pt.Trajectory[i].Observation.Timestamp = pt.Trajectory[i].EventTimestamp + 500
	}

	r := Pairing(pt)
	assert.False(t, checkByName(t, r, "Temporal Alignment").Passed)
}

func TestPairingStatsInconsistency(t *testing.T) {
	pt := goodTrajectory()
	pt.Stats.TotalPairs = 99

	r := Pairing(pt)
	assert.False(t, checkByName(t, r, "Stats Consistency").Passed)
}

func TestPairingValidPairsExceedTotal(t *testing.T) {
	pt := goodTrajectory()
	pt.Stats.ValidPairs = pt.Stats.TotalPairs + 1

	r := Pairing(pt)
	assert.False(t, checkByName(t, r, "Stats Consistency").Passed)
}

func TestPairingEmptyObservation(t *testing.T) {
	pt := goodTrajectory()
	pt.Trajectory[0].Observation = schemas.ObservationRef{Timestamp: 50}

	r := Pairing(pt)
	assert.False(t, checkByName(t, r, "Observation Format").Passed)
}
