package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperview/internal/collab"
	"paperview/internal/phase/models"
	"paperview/internal/phase/store"
	"paperview/internal/platform/audit"
	"paperview/internal/platform/metrics"
	id "paperview/pkg/domain"
	dErrors "paperview/pkg/domain-errors"
	"paperview/pkg/platform/tx"
)

var testMetrics = metrics.New()

type fixture struct {
	svc      *Service
	phases   *store.InMemoryStore
	recorder *audit.MemoryRecorder
	project  id.ProjectID
	owner    id.UserID
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := collab.NewMemoryDirectory()
	project := id.NewProjectID()
	owner := id.NewUserID()
	dir.AddProject(project, owner)

	phases := store.NewInMemoryStore()
	recorder := audit.NewMemoryRecorder()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	svc := New(phases, dir.Projects(), &tx.MemoryRunner{}, recorder, testMetrics,
		testLogger(), WithClock(func() time.Time { return now }))

	return &fixture{svc: svc, phases: phases, recorder: recorder, project: project, owner: owner, now: now}
}

func defaultSettings() models.Settings {
	return models.Settings{
		Mode:                   models.ModeDouble,
		MinQuotesRequired:      1,
		MaxQuotesPerExtraction: 100,
	}
}

func TestConfigure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("creates an inactive phase", func(t *testing.T) {
		phase, err := f.svc.Configure(ctx, f.project, f.owner, defaultSettings())
		require.NoError(t, err)
		assert.Equal(t, models.PhaseInactive, phase.Status)
		assert.Equal(t, models.ModeDouble, phase.Mode)
	})

	t.Run("updates settings while inactive", func(t *testing.T) {
		s := defaultSettings()
		s.Mode = models.ModeTriple
		phase, err := f.svc.Configure(ctx, f.project, f.owner, s)
		require.NoError(t, err)
		assert.Equal(t, models.ModeTriple, phase.Mode)
	})

	t.Run("rejects non-owners", func(t *testing.T) {
		_, err := f.svc.Configure(ctx, f.project, id.NewUserID(), defaultSettings())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("rejects unknown projects", func(t *testing.T) {
		_, err := f.svc.Configure(ctx, id.NewProjectID(), f.owner, defaultSettings())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("locks configuration after activation", func(t *testing.T) {
		_, err := f.svc.Activate(ctx, f.project, f.owner)
		require.NoError(t, err)
		_, err = f.svc.Configure(ctx, f.project, f.owner, defaultSettings())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func TestActivate_RequiresConfiguredPhase(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Activate(context.Background(), f.project, f.owner)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestPauseResumeComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Configure(ctx, f.project, f.owner, defaultSettings())
	require.NoError(t, err)
	_, err = f.svc.Activate(ctx, f.project, f.owner)
	require.NoError(t, err)

	phase, err := f.svc.Pause(ctx, f.project, f.owner)
	require.NoError(t, err)
	assert.Equal(t, models.PhasePaused, phase.Status)

	phase, err = f.svc.Resume(ctx, f.project, f.owner)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseActive, phase.Status)

	phase, err = f.svc.Complete(ctx, f.project, f.owner)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseCompleted, phase.Status)
	require.NotNil(t, phase.EndDate)

	// Terminal: no further transitions.
	_, err = f.svc.Activate(ctx, f.project, f.owner)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestCloseExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	end := f.now.Add(-time.Hour)
	s := defaultSettings()
	s.AutoClose = true
	s.EndDate = &end
	start := f.now.Add(-2 * time.Hour)
	s.StartDate = &start

	_, err := f.svc.Configure(ctx, f.project, f.owner, s)
	require.NoError(t, err)
	_, err = f.svc.Activate(ctx, f.project, f.owner)
	require.NoError(t, err)

	closed, err := f.svc.CloseExpired(ctx, f.now)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	phase, err := f.svc.Get(ctx, f.project)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseAutoClosed, phase.Status)

	// Idempotent: a second sweep finds nothing.
	closed, err = f.svc.CloseExpired(ctx, f.now)
	require.NoError(t, err)
	assert.Equal(t, 0, closed)
}

func TestAuditTrail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Configure(ctx, f.project, f.owner, defaultSettings())
	require.NoError(t, err)
	_, err = f.svc.Activate(ctx, f.project, f.owner)
	require.NoError(t, err)

	events := f.recorder.Events()
	require.Len(t, events, 2)
	assert.Equal(t, audit.ActionPhaseConfigured, events[0].Action)
	assert.Equal(t, audit.ActionPhaseActivated, events[1].Action)
	assert.Equal(t, f.owner, events[1].ActorID)
}
