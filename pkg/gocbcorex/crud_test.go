package gocbcorex

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeadlineFromUsesContextDeadline(t *testing.T) {
	want := time.Now().Add(10 * time.Second)
	ctx, cancel := context.WithDeadline(context.Background(), want)
	defer cancel()

	got := deadlineFrom(ctx)
	assert.WithinDuration(t, want, got, time.Millisecond)
}

func TestDeadlineFromFallsBackToDefaultTimeout(t *testing.T) {
	before := time.Now()
	got := deadlineFrom(context.Background())
	after := time.Now()

	assert.True(t, !got.Before(before.Add(defaultOpTimeout)))
	assert.True(t, !got.After(after.Add(defaultOpTimeout)))
}

func TestKvErrorNilReturnsNilError(t *testing.T) {
	assert.NoError(t, kvError(nil))
}
