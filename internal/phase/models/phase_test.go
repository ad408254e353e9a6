package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "paperview/pkg/domain"
	dErrors "paperview/pkg/domain-errors"
)

func newPhase(t *testing.T, settings Settings) *ExtractionPhase {
	t.Helper()
	p, err := NewExtractionPhase(id.NewPhaseID(), id.NewProjectID(), settings, time.Now())
	require.NoError(t, err)
	return p
}

func defaultSettings() Settings {
	return Settings{
		Mode:                   ModeSingle,
		MinQuotesRequired:      1,
		MaxQuotesPerExtraction: 100,
	}
}

func TestNewExtractionPhase_Validation(t *testing.T) {
	now := time.Now()

	t.Run("rejects end date before start date", func(t *testing.T) {
		start := now
		end := now.Add(-time.Hour)
		s := defaultSettings()
		s.StartDate, s.EndDate = &start, &end
		_, err := NewExtractionPhase(id.NewPhaseID(), id.NewProjectID(), s, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects min quotes above max", func(t *testing.T) {
		s := defaultSettings()
		s.MinQuotesRequired = 50
		s.MaxQuotesPerExtraction = 10
		_, err := NewExtractionPhase(id.NewPhaseID(), id.NewProjectID(), s, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects unknown mode", func(t *testing.T) {
		s := defaultSettings()
		s.Mode = ExtractionMode("quadruple")
		_, err := NewExtractionPhase(id.NewPhaseID(), id.NewProjectID(), s, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("starts inactive", func(t *testing.T) {
		p := newPhase(t, defaultSettings())
		assert.Equal(t, PhaseInactive, p.Status)
		assert.True(t, p.CanBeModified())
	})
}

func TestActivate(t *testing.T) {
	now := time.Now()

	t.Run("stamps start date when unset", func(t *testing.T) {
		p := newPhase(t, defaultSettings())
		require.NoError(t, p.Activate(now))
		assert.Equal(t, PhaseActive, p.Status)
		require.NotNil(t, p.StartDate)
		assert.Equal(t, now, *p.StartDate)
		assert.False(t, p.CanBeModified())
	})

	t.Run("fails when already active", func(t *testing.T) {
		p := newPhase(t, defaultSettings())
		require.NoError(t, p.Activate(now))
		err := p.Activate(now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("fails once closed", func(t *testing.T) {
		p := newPhase(t, defaultSettings())
		require.NoError(t, p.Activate(now))
		require.NoError(t, p.Complete(now))
		err := p.Activate(now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func TestPauseResume(t *testing.T) {
	now := time.Now()

	p := newPhase(t, defaultSettings())
	require.Error(t, p.Pause(now)) // inactive cannot pause

	require.NoError(t, p.Activate(now))
	require.NoError(t, p.Pause(now))
	assert.Equal(t, PhasePaused, p.Status)

	require.Error(t, p.Pause(now)) // already paused

	require.NoError(t, p.Resume(now))
	assert.Equal(t, PhaseActive, p.Status)

	err := p.Resume(now) // active cannot resume
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestComplete(t *testing.T) {
	now := time.Now()

	t.Run("stamps end date when unset", func(t *testing.T) {
		p := newPhase(t, defaultSettings())
		require.NoError(t, p.Activate(now))
		require.NoError(t, p.Complete(now))
		assert.Equal(t, PhaseCompleted, p.Status)
		require.NotNil(t, p.EndDate)
	})

	t.Run("terminal states reject completion", func(t *testing.T) {
		p := newPhase(t, defaultSettings())
		require.NoError(t, p.Activate(now))
		require.NoError(t, p.Complete(now))
		err := p.Complete(now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func TestAutoCloseIfNeeded(t *testing.T) {
	now := time.Now()
	end := now.Add(-time.Minute)

	t.Run("closes an active auto-close phase past its end date", func(t *testing.T) {
		s := defaultSettings()
		s.AutoClose = true
		s.EndDate = &end
		p := newPhase(t, s)
		p.Status = PhaseActive
		assert.True(t, p.AutoCloseIfNeeded(now))
		assert.Equal(t, PhaseAutoClosed, p.Status)
	})

	t.Run("no-op when auto close is off", func(t *testing.T) {
		s := defaultSettings()
		s.EndDate = &end
		p := newPhase(t, s)
		p.Status = PhaseActive
		assert.False(t, p.AutoCloseIfNeeded(now))
		assert.Equal(t, PhaseActive, p.Status)
	})

	t.Run("no-op before the end date", func(t *testing.T) {
		future := now.Add(time.Hour)
		s := defaultSettings()
		s.AutoClose = true
		s.EndDate = &future
		p := newPhase(t, s)
		p.Status = PhaseActive
		assert.False(t, p.AutoCloseIfNeeded(now))
	})

	t.Run("never mutates a non-active phase", func(t *testing.T) {
		s := defaultSettings()
		s.AutoClose = true
		s.EndDate = &end
		p := newPhase(t, s)
		assert.False(t, p.AutoCloseIfNeeded(now))
		assert.Equal(t, PhaseInactive, p.Status)
	})
}

func TestIsOpenForExtraction(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name    string
		mutate  func(*Settings)
		status  PhaseStatus
		wantRes bool
	}{
		{"active with no end date", func(s *Settings) {}, PhaseActive, true},
		{"inactive", func(s *Settings) {}, PhaseInactive, false},
		{"paused", func(s *Settings) {}, PhasePaused, false},
		{"active before end date", func(s *Settings) { s.EndDate = &future }, PhaseActive, true},
		{"active past end date", func(s *Settings) { s.EndDate = &past }, PhaseActive, false},
		{"active past end date with late submissions", func(s *Settings) {
			s.EndDate = &past
			s.AllowLateSubmissions = true
		}, PhaseActive, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := defaultSettings()
			tc.mutate(&s)
			p := newPhase(t, s)
			p.Status = tc.status
			assert.Equal(t, tc.wantRes, p.IsOpenForExtraction(now))
		})
	}
}

func TestValidateExtractionCount(t *testing.T) {
	cases := []struct {
		mode     ExtractionMode
		expected int
	}{
		{ModeSingle, 1},
		{ModeDouble, 2},
		{ModeTriple, 3},
	}
	for _, tc := range cases {
		t.Run(string(tc.mode), func(t *testing.T) {
			s := defaultSettings()
			s.Mode = tc.mode
			p := newPhase(t, s)

			// N-1 existing extractions: accepted.
			require.NoError(t, p.ValidateExtractionCount(tc.expected-1))

			// N existing extractions: rejected.
			err := p.ValidateExtractionCount(tc.expected)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		})
	}
}

func TestReconfigure_LockedOnceActivated(t *testing.T) {
	now := time.Now()
	p := newPhase(t, defaultSettings())
	require.NoError(t, p.Activate(now))

	s := defaultSettings()
	s.Mode = ModeDouble
	err := p.Reconfigure(s, now)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	assert.Equal(t, ModeSingle, p.Mode)
}

func TestParseExtractionMode(t *testing.T) {
	m, err := ParseExtractionMode("double")
	require.NoError(t, err)
	assert.Equal(t, ModeDouble, m)
	assert.Equal(t, 2, m.ExpectedExtractionsPerStudy())
	assert.True(t, m.RequiresMultipleExtractors())

	_, err = ParseExtractionMode("DOUBLE")
	require.Error(t, err)
}
