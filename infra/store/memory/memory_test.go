package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfosobral/UniParking/core/alloc"
	"github.com/alfosobral/UniParking/core/model"
)

func TestSaveIfUnseenIsAtomicUnderConcurrency(t *testing.T) {
	s := New()
	ev := model.SensorEvent{EventID: "e1", DeviceID: "gate-1", Type: model.EventHealth}

	const runs = 32
	var wg sync.WaitGroup
	saved := make(chan bool, runs)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.SaveIfUnseen(context.Background(), ev)
			require.NoError(t, err)
			saved <- ok
		}()
	}
	wg.Wait()
	close(saved)

	var wins int
	for ok := range saved {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent save must win")
	assert.Equal(t, 1, s.Events())
}

func TestAllocationRaceHasOneWinner(t *testing.T) {
	s := New()
	s.AddSpot(model.FreeSpot{Code: "G1", X: 1, Y: 1, Class: model.ClassGeneral})

	a := model.Allocation{SpotCode: "G1", Plate: "AAA111"}
	b := model.Allocation{SpotCode: "G1", Plate: "BBB222"}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, row := range []model.Allocation{a, b} {
		wg.Add(1)
		go func(i int, row model.Allocation) {
			defer wg.Done()
			errs[i] = s.InsertAllocation(context.Background(), row)
		}(i, row)
	}
	wg.Wait()

	conflicts := 0
	for _, err := range errs {
		if err != nil {
			assert.True(t, errors.Is(err, alloc.ErrConflict))
			conflicts++
		}
	}
	assert.Equal(t, 1, conflicts, "exactly one attempt must lose the race")

	free, err := s.FreeSpots(context.Background(), model.ClassGeneral)
	require.NoError(t, err)
	assert.Empty(t, free, "winning insert must flip occupancy")
}

func TestPlateCannotHoldTwoSpots(t *testing.T) {
	s := New()
	s.AddSpot(model.FreeSpot{Code: "G1", Class: model.ClassGeneral})
	s.AddSpot(model.FreeSpot{Code: "G2", Class: model.ClassGeneral})

	require.NoError(t, s.InsertAllocation(context.Background(), model.Allocation{SpotCode: "G1", Plate: "AAA111"}))
	err := s.InsertAllocation(context.Background(), model.Allocation{SpotCode: "G2", Plate: "AAA111"})
	assert.True(t, errors.Is(err, alloc.ErrConflict))
}

func TestFreeSpotsFiltersByClass(t *testing.T) {
	s := New()
	s.AddSpot(model.FreeSpot{Code: "G1", Class: model.ClassGeneral})
	s.AddSpot(model.FreeSpot{Code: "A1", Class: model.ClassAccessible})

	free, err := s.FreeSpots(context.Background(), model.ClassAccessible)
	require.NoError(t, err)
	require.Len(t, free, 1)
	assert.Equal(t, "A1", free[0].Code)
}

func TestResolveUsesNormalizedPlate(t *testing.T) {
	s := New()
	s.AuthorizePlate("sba 1234", model.ClassGeneral)

	class, ok, err := s.Resolve(context.Background(), model.NormalizePlate("SBA 1234"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.ClassGeneral, class)

	_, ok, err = s.Resolve(context.Background(), "XXX999")
	require.NoError(t, err)
	assert.False(t, ok)
}
