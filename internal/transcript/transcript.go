// Package transcript exports resolved sessions as JSON documents to a blob
// store, one create-only object per session.
package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"bestiary/internal/blob"
	"bestiary/pkg/domain"
)

// Version is written into every document.
const Version = 1

const (
	prefix      = "sessions/"
	contentType = "application/json"
)

// Document is the exported form of one session.
type Document struct {
	Version   int                     `json:"version"`
	Session   domain.SessionRecord    `json:"session"`
	Facts     []domain.Assignment     `json:"facts"`
	Knowledge *domain.KnowledgeRecord `json:"knowledge,omitempty"`
}

// Key returns sessions/<yyyy>/<mm>/<dd>/<session-id>.json using the UTC
// resolution date.
func Key(rec domain.SessionRecord) string {
	return DayPrefix(rec.ResolvedAt) + rec.SessionID + ".json"
}

// DayPrefix returns the key prefix holding every transcript resolved on
// the UTC day of t.
func DayPrefix(t time.Time) string {
	return prefix + t.UTC().Format("2006/01/02") + "/"
}

// Writer stores documents in a blob store.
type Writer struct {
	store  blob.Store
	logger *zap.Logger
}

// NewWriter returns a Writer for store. A nil logger disables logging.
func NewWriter(store blob.Store, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{store: store, logger: logger}
}

// Write encodes doc and stores it under Key(doc.Session).
func (w *Writer) Write(ctx context.Context, doc Document) (blob.Info, error) {
	if doc.Session.SessionID == "" {
		return blob.Info{}, errors.New("transcript: session id is empty")
	}
	if doc.Version == 0 {
		doc.Version = Version
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return blob.Info{}, fmt.Errorf("encode transcript %s: %w", doc.Session.SessionID, err)
	}
	key := Key(doc.Session)
	info, err := w.store.Put(ctx, key, bytes.NewReader(body), blob.PutOptions{
		ContentType: contentType,
		Metadata: map[string]string{
			"session-id": doc.Session.SessionID,
			"strategy":   doc.Session.Strategy,
			"classified": fmt.Sprint(doc.Session.Classification.Classified()),
		},
	})
	if err != nil {
		return blob.Info{}, fmt.Errorf("store transcript: %w", err)
	}
	w.logger.Debug("transcript written",
		zap.String("key", key),
		zap.String("driver", string(w.store.Driver())),
		zap.Int64("bytes", info.Size))
	return info, nil
}

// Read loads the document stored at key.
func Read(ctx context.Context, store blob.Store, key string) (Document, error) {
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return Document{}, fmt.Errorf("read transcript: %w", err)
	}
	defer func() { _ = rc.Close() }()
	var doc Document
	if err := json.NewDecoder(rc).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode transcript %s: %w", key, err)
	}
	return doc, nil
}

// Keys lists transcript keys under sessions/, optionally narrowed to the
// UTC day of on when it is non-zero.
func Keys(ctx context.Context, store blob.Store, on time.Time) ([]string, error) {
	p := prefix
	if !on.IsZero() {
		p = DayPrefix(on)
	}
	infos, err := store.List(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		if strings.HasSuffix(info.Key, ".json") {
			keys = append(keys, info.Key)
		}
	}
	return keys, nil
}
