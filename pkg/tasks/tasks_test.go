package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockEvicter struct {
	cutoffs []time.Time
}

func (m *MockEvicter) EvictIdle(cutoff time.Time) int {
	m.cutoffs = append(m.cutoffs, cutoff)
	return 1
}

type MockPruner struct {
	PruneFunc func(ctx context.Context, before time.Time) (int64, error)
}

func (m *MockPruner) PruneUsage(ctx context.Context, before time.Time) (int64, error) {
	return m.PruneFunc(ctx, before)
}

func fixedNow() time.Time {
	return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
}

func TestEvictIdleBoardsUsesTTL(t *testing.T) {
	ev := &MockEvicter{}
	s := New(ev, &MockPruner{}, 30*time.Minute, 90, zap.NewNop())
	s.now = fixedNow

	s.EvictIdleBoards()
	require.Len(t, ev.cutoffs, 1)
	assert.Equal(t, fixedNow().Add(-30*time.Minute), ev.cutoffs[0])
}

func TestPruneUsageUsesRetention(t *testing.T) {
	var before time.Time
	pr := &MockPruner{PruneFunc: func(ctx context.Context, b time.Time) (int64, error) {
		before = b
		return 3, nil
	}}
	s := New(&MockEvicter{}, pr, time.Minute, 7, zap.NewNop())
	s.now = fixedNow

	s.PruneUsage()
	assert.Equal(t, fixedNow().AddDate(0, 0, -7), before)

	pr.PruneFunc = func(ctx context.Context, b time.Time) (int64, error) { return 0, errors.New("down") }
	s.PruneUsage()
}

func TestPruneUsageDisabled(t *testing.T) {
	called := false
	pr := &MockPruner{PruneFunc: func(ctx context.Context, b time.Time) (int64, error) {
		called = true
		return 0, nil
	}}
	New(&MockEvicter{}, pr, time.Minute, 0, zap.NewNop()).PruneUsage()
	assert.False(t, called)
}

func TestStartRejectsBadCronExpression(t *testing.T) {
	s := New(&MockEvicter{}, &MockPruner{}, time.Minute, 1, zap.NewNop())
	assert.Error(t, s.Start("not a spec"))
}

func TestStartAndStop(t *testing.T) {
	s := New(&MockEvicter{}, &MockPruner{}, time.Minute, 1, zap.NewNop())
	require.NoError(t, s.Start("@every 1h"))
	s.Stop()
}
