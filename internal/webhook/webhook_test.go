package webhook

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyCompleted(t *testing.T) {
	var received Event
	var gotEvent, gotSig string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEvent = r.Header.Get("X-Webhook-Event")
		gotSig = r.Header.Get("X-Webhook-Signature")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))

		assert.True(t, hmac.Equal([]byte(gotSig), []byte(Signature(body, "s3cret"))))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewService(server.URL, "s3cret")

	err := svc.NotifyCompleted(context.Background(), &CompletedPayload{
		VideoID:      "vid-1",
		MatchCount:   3,
		SegmentCount: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, EventDetectionCompleted, gotEvent)
	assert.Equal(t, EventDetectionCompleted, received.Event)
	assert.NotEmpty(t, received.ID)
}

func TestNotifyRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewService(server.URL, "")
	svc.backoff = time.Millisecond

	err := svc.NotifyFailed(context.Background(), "vid-1", "audio_extraction", "ffmpeg exploded")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestNotifyGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewService(server.URL, "")
	svc.backoff = time.Millisecond

	err := svc.NotifyFailed(context.Background(), "vid-1", "srt_parsing", "bad block")
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDisabledServiceIsNoOp(t *testing.T) {
	svc := NewService("", "ignored")
	assert.False(t, svc.Enabled())
	assert.NoError(t, svc.NotifyCompleted(context.Background(), &CompletedPayload{VideoID: "vid-1"}))
}
