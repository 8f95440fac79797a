package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronRunsJob(t *testing.T) {
	cr := NewCron(time.UTC)
	ran := make(chan struct{}, 1)

	_, err := cr.Add("@every 1s", FuncJob(func(ctx context.Context) {
		select {
		case ran <- struct{}{}:
		default:
		}
	}))
	require.NoError(t, err)
	assert.Len(t, cr.Entries(), 1)

	cr.Start()
	defer cr.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestCronRejectsBadExpression(t *testing.T) {
	cr := NewCron(nil)
	_, err := cr.Add("not a schedule", FuncJob(func(context.Context) {}))
	assert.Error(t, err)
}

func TestCronRecoversPanics(t *testing.T) {
	cr := NewCron(time.UTC)
	after := make(chan struct{}, 2)
	_, err := cr.Add("@every 1s", FuncJob(func(context.Context) {
		after <- struct{}{}
		panic("boom")
	}))
	require.NoError(t, err)
	cr.Start()
	defer cr.Stop()

	select {
	case <-after:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}
