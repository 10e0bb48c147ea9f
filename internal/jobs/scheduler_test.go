package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type purgerMock struct{ mock.Mock }

func (m *purgerMock) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func TestPurgeTokensUsesCurrentTime(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)
	p := &purgerMock{}
	p.On("PurgeExpired", mock.Anything, fixed).Return(int64(3), nil).Once()

	s := NewScheduler(p)
	s.now = func() time.Time { return fixed }
	s.purgeTokens(context.Background())

	p.AssertExpectations(t)
}

func TestPurgeTokensSurvivesErrors(t *testing.T) {
	p := &purgerMock{}
	p.On("PurgeExpired", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down")).Once()

	s := NewScheduler(p)
	assert.NotPanics(t, func() { s.purgeTokens(context.Background()) })
	p.AssertExpectations(t)
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := NewScheduler(&purgerMock{})
	require.Error(t, s.Start(context.Background(), "every tuesday"))
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler(&purgerMock{})
	require.NoError(t, s.Start(context.Background(), "@daily"))
	s.Stop()
}
