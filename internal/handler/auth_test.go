package handler

import (
	"bytes"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blues/crowdsale/internal/crowdsale"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func whoamiRouter(t *testing.T, now time.Time) *gin.Engine {
	t.Helper()
	seen, err := NewReplayCache(time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = seen.Close() })

	r := gin.New()
	r.POST("/whoami", SignedCaller(time.Minute, func() time.Time { return now }, seen), func(c *gin.Context) {
		c.String(http.StatusOK, callerFrom(c).Hex())
	})
	return r
}

func TestSignedCaller(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	body := []byte(`{"amount":"10"}`)

	request := func(caller string, ts int64, sig string, payload []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/whoami", bytes.NewReader(payload))
		req.Header.Set(HeaderCaller, caller)
		req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
		req.Header.Set(HeaderSignature, sig)
		w := httptest.NewRecorder()
		whoamiRouter(t, now).ServeHTTP(w, req)
		return w
	}

	sig, err := SignRequest(key, http.MethodPost, "/whoami", now.Unix(), body)
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		w := request(addr.Hex(), now.Unix(), sig, body)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, addr.Hex(), w.Body.String())
	})

	t.Run("legacy recovery id", func(t *testing.T) {
		raw, err := crypto.Sign(RequestDigest(http.MethodPost, "/whoami", strconv.FormatInt(now.Unix(), 10), body), key)
		require.NoError(t, err)
		raw[crypto.RecoveryIDOffset] += 27
		w := request(addr.Hex(), now.Unix(), fmt.Sprintf("0x%x", raw), body)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("tampered body", func(t *testing.T) {
		w := request(addr.Hex(), now.Unix(), sig, []byte(`{"amount":"99"}`))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("claimed caller mismatch", func(t *testing.T) {
		w := request(crypto.PubkeyToAddress(other.PublicKey).Hex(), now.Unix(), sig, body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		stale := now.Add(-2 * time.Minute).Unix()
		staleSig, err := SignRequest(key, http.MethodPost, "/whoami", stale, body)
		require.NoError(t, err)
		w := request(addr.Hex(), stale, staleSig, body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing headers", func(t *testing.T) {
		w := request("", now.Unix(), sig, body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		w = request(addr.Hex(), now.Unix(), "0x1234", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSignedCallerRejectsReplay(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	r := whoamiRouter(t, now)
	send := func(k *ecdsa.PrivateKey, ts int64, body []byte) int {
		sig, err := SignRequest(k, http.MethodPost, "/whoami", ts, body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/whoami", bytes.NewReader(body))
		req.Header.Set(HeaderCaller, crypto.PubkeyToAddress(k.PublicKey).Hex())
		req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
		req.Header.Set(HeaderSignature, sig)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	body := []byte(`{"amount":"10"}`)
	assert.Equal(t, http.StatusOK, send(key, now.Unix(), body))
	assert.Equal(t, http.StatusUnauthorized, send(key, now.Unix(), body))

	// 时间戳或内容不同即为新请求
	assert.Equal(t, http.StatusOK, send(key, now.Unix()+1, body))
	assert.Equal(t, http.StatusOK, send(key, now.Unix(), []byte(`{"amount":"11"}`)))

	// 不同签名者发出相同内容互不影响
	assert.Equal(t, http.StatusOK, send(other, now.Unix(), body))
}

func TestNewReplayCacheRejectsEmptyWindow(t *testing.T) {
	_, err := NewReplayCache(0)
	assert.Error(t, err)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{crowdsale.ErrUnknownCampaign, http.StatusNotFound},
		{crowdsale.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: pay: boom", crowdsale.ErrTransferFailed), http.StatusBadGateway},
		{crowdsale.ErrArithmeticOverflow, http.StatusUnprocessableEntity},
		{crowdsale.ErrNotActive, http.StatusConflict},
		{crowdsale.ErrNothingToClaim, http.StatusConflict},
		{crowdsale.ErrCapExceeded, http.StatusBadRequest},
		{fmt.Errorf("%w: goal", crowdsale.ErrInvalidParameter), http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}
