package catalog

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
)

// loggingTransport records every request and its outcome in the activity log.
type loggingTransport struct {
	next http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	reqID := req.Header.Get(requestIDHeader)
	if reqID == "" {
		reqID = uuid.NewString()
		req = req.Clone(req.Context())
		req.Header.Set(requestIDHeader, reqID)
	}

	if keys := bodyKeys(req); keys != nil {
		log.Printf("catalog: %s %s req=%s keys=%v id=%t userId=%t",
			req.Method, req.URL.String(), reqID, keys,
			slices.Contains(keys, "id"), slices.Contains(keys, "userId"))
	} else {
		log.Printf("catalog: %s %s req=%s", req.Method, req.URL.String(), reqID)
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		log.Printf("catalog: %s %s req=%s failed after %dms: %v", req.Method, req.URL.Path, reqID, elapsed, err)
		return nil, err
	}
	log.Printf("catalog: %s %s req=%s status=%d duration_ms=%d", req.Method, req.URL.Path, reqID, resp.StatusCode, elapsed)
	return resp, nil
}

// bodyKeys returns the sorted top-level keys of a JSON object body, or nil.
func bodyKeys(req *http.Request) []string {
	if req.Body == nil || req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil
	}
	defer func() { _ = body.Close() }()
	raw, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
