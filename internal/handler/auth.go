package handler

import (
	"bytes"
	"crypto/ecdsa"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"

	"github.com/blues/crowdsale/internal/logger"
)

const (
	HeaderCaller    = "X-Caller"
	HeaderTimestamp = "X-Timestamp"
	HeaderSignature = "X-Signature"

	callerKey = "caller"
)

// RequestDigest 签名摘要: keccak256(method \n path \n timestamp \n body)
func RequestDigest(method, path, timestamp string, body []byte) []byte {
	return crypto.Keccak256([]byte(method+"\n"+path+"\n"+timestamp+"\n"), body)
}

// SignRequest 用私钥为请求签名, 返回 X-Signature 头的值
func SignRequest(key *ecdsa.PrivateKey, method, path string, timestamp int64, body []byte) (string, error) {
	sig, err := crypto.Sign(RequestDigest(method, path, strconv.FormatInt(timestamp, 10), body), key)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(sig), nil
}

// SignedCaller 校验请求签名并把签名者地址写入上下文, 同一签名请求只接受一次
func SignedCaller(maxSkew time.Duration, nowFn func() time.Time, seen *ReplayCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, digest, err := verifyRequest(c, maxSkew, nowFn())
		if err != nil {
			ErrorResponse(c, http.StatusUnauthorized, err.Error())
			c.Abort()
			return
		}
		replayed, err := seen.Seen(caller, digest)
		if err != nil {
			logger.Error("Replay cache lookup failed for %s: %v", caller.Hex(), err)
			ErrorResponse(c, http.StatusInternalServerError, "replay check failed")
			c.Abort()
			return
		}
		if replayed {
			ErrorResponse(c, http.StatusUnauthorized, "request already processed")
			c.Abort()
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

func verifyRequest(c *gin.Context, maxSkew time.Duration, now time.Time) (common.Address, []byte, error) {
	claimed := c.GetHeader(HeaderCaller)
	if !common.IsHexAddress(claimed) {
		return common.Address{}, nil, fmt.Errorf("missing or invalid %s header", HeaderCaller)
	}

	ts := c.GetHeader(HeaderTimestamp)
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("invalid %s header", HeaderTimestamp)
	}
	skew := now.Sub(time.Unix(unix, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > maxSkew {
		return common.Address{}, nil, fmt.Errorf("request timestamp outside allowed window")
	}

	sig, err := hexutil.Decode(c.GetHeader(HeaderSignature))
	if err != nil || len(sig) != crypto.SignatureLength {
		return common.Address{}, nil, fmt.Errorf("invalid %s header", HeaderSignature)
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	var body []byte
	if c.Request.Body != nil {
		if body, err = io.ReadAll(c.Request.Body); err != nil {
			return common.Address{}, nil, fmt.Errorf("read body: %w", err)
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}

	digest := RequestDigest(c.Request.Method, c.Request.URL.Path, ts, body)
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("invalid signature")
	}
	recovered := crypto.PubkeyToAddress(*pub)
	if recovered != common.HexToAddress(claimed) {
		return common.Address{}, nil, fmt.Errorf("signature does not match %s", HeaderCaller)
	}
	return recovered, digest, nil
}

// callerFrom 取出已认证的调用者
func callerFrom(c *gin.Context) common.Address {
	if v, ok := c.Get(callerKey); ok {
		if addr, ok := v.(common.Address); ok {
			return addr
		}
	}
	return common.Address{}
}
