package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPNotifier_DeliversPayload(t *testing.T) {
	received := make(chan NotificationPayload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/notifications", r.URL.Path)

		var p NotificationPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		received <- p
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewHTTPNotifier(srv.URL, srv.Client(), zerolog.Nop())
	userID := uuid.New()
	relatedID := uuid.New()

	err := n.Notify(context.Background(), userID, "Your withdrawal request was APPROVED", relatedID)
	require.NoError(t, err)

	select {
	case p := <-received:
		assert.Equal(t, userID.String(), p.UserID)
		assert.Equal(t, relatedID.String(), p.RelatedID)
		assert.Equal(t, "Your withdrawal request was APPROVED", p.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not delivered")
	}
}

func TestHTTPNotifier_NoURLConfigured_Skips(t *testing.T) {
	n := NewHTTPNotifier("", http.DefaultClient, zerolog.Nop())

	err := n.Notify(context.Background(), uuid.New(), "msg", uuid.New())
	assert.NoError(t, err)
}
