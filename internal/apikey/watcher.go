package apikey

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nats-io/nats.go"
	"k8s.io/klog/v2"

	"github.com/carverauto/srql/internal/metrics"
	"github.com/carverauto/srql/internal/srqlerrors"
)

// Watcher keeps a Store in sync with a JetStream KV key.
type Watcher struct {
	conn   *nats.Conn
	kv     nats.KeyValue
	key    string
	store  *Store
	cancel chan struct{}
}

// NewWatcher connects to NATS, seeds the store from the KV key (missing
// key is fatal: a configured KV source that cannot be read means the
// deployment is broken), and starts the background watch. kvKey is
// "<bucket>/<key>".
func NewWatcher(natsURL, kvKey string, store *Store) (*Watcher, error) {
	bucket, key, found := strings.Cut(kvKey, "/")
	if !found || bucket == "" || key == "" {
		return nil, srqlerrors.NewConfig("API key KV key must be '<bucket>/<key>', got '%s'", kvKey)
	}

	conn, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				klog.ErrorS(err, "NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			klog.InfoS("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kv, err := js.KeyValue(bucket)
	if err != nil {
		conn.Close()
		return nil, srqlerrors.NewConfig("KV bucket '%s' unavailable: %v", bucket, err)
	}

	entry, err := kv.Get(key)
	if err != nil {
		conn.Close()
		return nil, srqlerrors.NewConfig("KV key '%s/%s' not found for API key: %v", bucket, key, err)
	}
	seed := decodeAPIKey(entry.Value())
	if seed == nil {
		conn.Close()
		return nil, srqlerrors.NewConfig("invalid API key payload at KV key '%s/%s'", bucket, key)
	}
	store.Set(seed)

	w := &Watcher{conn: conn, kv: kv, key: key, store: store, cancel: make(chan struct{})}
	go w.watch()
	return w, nil
}

// Close stops the watch and drops the connection.
func (w *Watcher) Close() {
	close(w.cancel)
	w.conn.Close()
}

// watch applies every KV update to the store. If the watch channel dies
// the last-known key keeps serving; updates simply stop arriving.
func (w *Watcher) watch() {
	watcher, err := w.kv.Watch(w.key)
	if err != nil {
		klog.ErrorS(err, "api key watcher failed to start; updates will not be applied", "key", w.key)
		return
	}
	defer func() {
		if err := watcher.Stop(); err != nil {
			klog.V(4).InfoS("api key watcher stop failed", "err", err)
		}
	}()

	for {
		select {
		case <-w.cancel:
			return
		case entry, ok := <-watcher.Updates():
			if !ok {
				klog.ErrorS(nil, "api key watcher stopped; updates will not be applied", "key", w.key)
				return
			}
			if entry == nil {
				// End of the initial replay marker.
				continue
			}
			switch entry.Operation() {
			case nats.KeyValueDelete, nats.KeyValuePurge:
				w.store.Set(nil)
				metrics.APIKeyUpdates.Inc()
				klog.InfoS("API key removed from KV; authentication disabled", "key", w.key)
			default:
				next := decodeAPIKey(entry.Value())
				if next == nil && len(entry.Value()) > 0 && !utf8.Valid(entry.Value()) {
					// Ignore garbage payloads, keep the last-known key.
					continue
				}
				w.store.Set(next)
				metrics.APIKeyUpdates.Inc()
				klog.V(2).InfoS("API key updated from KV", "key", w.key, "enabled", next != nil)
			}
		}
	}
}

// decodeAPIKey trims the payload. Empty means auth disabled; non-UTF8 is
// rejected with a warning.
func decodeAPIKey(raw []byte) *string {
	if !utf8.Valid(raw) {
		klog.InfoS("received non-UTF8 API key payload from KV; ignoring")
		return nil
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
