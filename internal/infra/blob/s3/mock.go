package s3

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// NewMockForTests returns a Store whose HTTP client talks to an in-memory
// fake bucket instead of the network. It understands HEAD, GET, PUT,
// DELETE and ListObjectsV2, including continuation tokens.
func NewMockForTests() *Store {
	st, err := New(context.Background(), Config{
		Region:          "us-east-1",
		Bucket:          "mock-bucket",
		Endpoint:        "https://mock.s3.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
		HTTPClient:      &http.Client{Transport: newFakeBucket(2)},
	})
	if err != nil {
		panic(fmt.Errorf("mock s3: %w", err))
	}
	return st
}

type fakeObject struct {
	body        []byte
	contentType string
	meta        http.Header
	modified    time.Time
}

// fakeBucket is an http.RoundTripper emulating a path-style S3 bucket.
type fakeBucket struct {
	mu       sync.Mutex
	objects  map[string]fakeObject
	pageSize int
}

func newFakeBucket(pageSize int) *fakeBucket {
	return &fakeBucket{objects: make(map[string]fakeObject), pageSize: pageSize}
}

func (f *fakeBucket) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	if req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2" {
		return f.list(req), nil
	}
	switch req.Method {
	case http.MethodHead, http.MethodGet:
		obj, ok := f.objects[key]
		if !ok {
			return respond(http.StatusNotFound, nil, nil), nil
		}
		h := http.Header{
			"Content-Length": {strconv.Itoa(len(obj.body))},
			"Content-Type":   {obj.contentType},
			"Etag":           {`"` + etag(obj.body) + `"`},
			"Last-Modified":  {obj.modified.Format(http.TimeFormat)},
		}
		for k, v := range obj.meta {
			h[k] = v
		}
		if req.Method == http.MethodHead {
			return respond(http.StatusOK, h, nil), nil
		}
		return respond(http.StatusOK, h, obj.body), nil
	case http.MethodPut:
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		if strings.Contains(req.Header.Get("Content-Encoding"), "aws-chunked") {
			if body, err = decodeChunked(body); err != nil {
				return respond(http.StatusBadRequest, nil, nil), nil
			}
		}
		meta := http.Header{}
		for k, v := range req.Header {
			if strings.HasPrefix(strings.ToLower(k), "x-amz-meta-") {
				meta[k] = v
			}
		}
		f.objects[key] = fakeObject{body: body, contentType: req.Header.Get("Content-Type"), meta: meta, modified: time.Now().UTC()}
		return respond(http.StatusOK, http.Header{"Etag": {`"` + etag(body) + `"`}}, nil), nil
	case http.MethodDelete:
		delete(f.objects, key)
		return respond(http.StatusNoContent, nil, nil), nil
	}
	return respond(http.StatusNotImplemented, nil, nil), nil
}

func (f *fakeBucket) list(req *http.Request) *http.Response {
	q := req.URL.Query()
	prefix := q.Get("prefix")
	start, _ := strconv.Atoi(q.Get("continuation-token"))

	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if start > len(keys) {
		start = len(keys)
	}
	end := start + f.pageSize
	truncated := end < len(keys)
	if !truncated {
		end = len(keys)
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult>`)
	fmt.Fprintf(&b, "<IsTruncated>%t</IsTruncated>", truncated)
	if truncated {
		fmt.Fprintf(&b, "<NextContinuationToken>%d</NextContinuationToken>", end)
	}
	for _, k := range keys[start:end] {
		obj := f.objects[k]
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><ETag>&quot;%s&quot;</ETag><LastModified>%s</LastModified></Contents>",
			k, len(obj.body), etag(obj.body), obj.modified.Format(time.RFC3339))
	}
	b.WriteString("</ListBucketResult>")
	return respond(http.StatusOK, http.Header{"Content-Type": {"application/xml"}}, []byte(b.String()))
}

func respond(status int, h http.Header, body []byte) *http.Response {
	if h == nil {
		h = http.Header{}
	}
	return &http.Response{StatusCode: status, Header: h, Body: io.NopCloser(bytes.NewReader(body))}
}

func etag(b []byte) string {
	return fmt.Sprintf("%x", len(b))
}

// decodeChunked strips aws-chunked framing: `<hex>[;ext]\r\n<data>\r\n`
// repeated until a zero-size chunk, followed by optional trailers.
func decodeChunked(b []byte) ([]byte, error) {
	r := bufio.NewReader(bytes.NewReader(b))
	var out bytes.Buffer
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = line[:i]
		}
		size, err := strconv.ParseInt(line, 16, 64)
		if err != nil {
			return nil, err
		}
		if size == 0 {
			return out.Bytes(), nil
		}
		if _, err := io.CopyN(&out, r, size); err != nil {
			return nil, err
		}
		if _, err := r.Discard(2); err != nil {
			return nil, err
		}
	}
}
