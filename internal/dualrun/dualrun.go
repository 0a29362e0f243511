// Package dualrun shadows successful queries against a legacy engine and
// logs divergences. It never touches the primary response.
package dualrun

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/carverauto/srql/internal/metrics"
	"github.com/carverauto/srql/internal/query"
)

// Comparator posts the original request to the legacy endpoint with its
// own client and timeout. Transport failures are logged at debug and
// swallowed.
type Comparator struct {
	client *http.Client
	url    string
}

// New builds a comparator for the given legacy base URL.
func New(url string, timeout time.Duration) *Comparator {
	return &Comparator{
		client: &http.Client{Timeout: timeout},
		url:    strings.TrimSuffix(url, "/"),
	}
}

// Compare runs the shadow query and diffs the rows: counts first, then
// pairwise values up to the first mismatch. Runs on a detached goroutine
// with its own context so it survives the parent request's cancellation.
func (c *Comparator) Compare(req query.Request, primary []map[string]any) {
	ctx, cancel := context.WithTimeout(context.Background(), c.client.Timeout)
	defer cancel()

	// Mismatch log lines carry a comparison id so the count and row
	// entries for one shadow run correlate.
	runID := uuid.NewString()

	legacy, err := c.dispatch(ctx, req)
	if err != nil {
		klog.V(4).InfoS("dual-run comparison failed", "runID", runID, "err", err)
		return
	}

	if len(legacy) != len(primary) {
		metrics.DualRunMismatches.WithLabelValues("count").Inc()
		klog.InfoS("dual-run result count mismatch",
			"runID", runID,
			"expected", len(legacy),
			"actual", len(primary),
			"query", req.Query,
		)
		return
	}

	for i := range primary {
		if !reflect.DeepEqual(primary[i], legacy[i]) {
			metrics.DualRunMismatches.WithLabelValues("row").Inc()
			klog.InfoS("dual-run row mismatch", "runID", runID, "index", i, "query", req.Query)
			return
		}
	}
}

func (c *Comparator) dispatch(ctx context.Context, req query.Request) ([]map[string]any, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/api/query", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("legacy SRQL returned status %d", resp.StatusCode)
	}

	var decoded struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	return decoded.Results, nil
}
