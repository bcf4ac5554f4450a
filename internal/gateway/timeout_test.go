package gateway_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-bridge/internal/gateway"
	"github.com/spec-kit/ticket-bridge/internal/gateway/gatewaytest"
	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

func TestWithTimeout_HungCallBecomesUnavailable(t *testing.T) {
	fake := gatewaytest.New()
	fake.Block = make(chan struct{})
	defer close(fake.Block)

	gw := gateway.WithTimeout(fake, 20*time.Millisecond)
	start := time.Now()
	_, err := gw.CreateThread(context.Background(), gateway.ThreadSpec{Title: "t"})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrGatewayUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWithTimeout_ClassifiesErrors(t *testing.T) {
	fake := gatewaytest.New()
	fake.PostErr = errors.New("connection reset")
	fake.ArchiveErr = apperrors.NewPermissionDenied("archive", errors.New("missing access"))

	gw := gateway.WithTimeout(fake, time.Second)

	err := gw.PostMessage(context.Background(), "thread-1", gateway.Post{Content: "x"})
	assert.ErrorIs(t, err, apperrors.ErrGatewayUnavailable)

	err = gw.LockAndArchive(context.Background(), "thread-1")
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.NotErrorIs(t, err, apperrors.ErrGatewayUnavailable)
}

func TestWithTimeout_PassesThroughSuccess(t *testing.T) {
	fake := gatewaytest.New()
	fake.Staff["u1"] = true
	gw := gateway.WithTimeout(fake, 0)

	ref, err := gw.CreateThread(context.Background(), gateway.ThreadSpec{Title: "Billing - bob"})
	require.NoError(t, err)
	assert.Equal(t, "thread-1", ref)

	isStaff, err := gw.ResolveStaffRole(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, isStaff)
}

func TestClassify_Nil(t *testing.T) {
	assert.NoError(t, gateway.Classify("op", nil))
}
