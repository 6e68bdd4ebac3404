package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	pkgredis "github.com/souqly/storefront-backend/pkg/redis"
	"github.com/souqly/storefront-backend/pkg/redis/redistest"
)

func newRedisStore() *pkgredis.Client {
	return pkgredis.NewFromCmdable(redistest.NewFake())
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return payload.Error.Code
}
