package services

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dhowden/tag"
)

// sniffBytes is how much of the stream is inspected to guess a missing content type
const sniffBytes = 4096

// StreamProxy interface defines the methods for relaying an upstream audio stream
type StreamProxy interface {
	Open(ctx context.Context, rawURL string) (*UpstreamStream, error)
}

// UpstreamStream is an opened upstream response ready to be relayed
type UpstreamStream struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// streamProxy opens upstream streams with no total timeout
type streamProxy struct {
	client *http.Client
}

// NewStreamProxy creates a new stream proxy
func NewStreamProxy() StreamProxy {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		DisableCompression:    true,
	}

	return &streamProxy{
		client: &http.Client{
			Transport: transport,
			Timeout:   0, // streams are long-lived
		},
	}
}

// Open connects to rawURL and returns the response for relaying.
// Non-2xx answers are reported as errors.
func (p *streamProxy) Open(ctx context.Context, rawURL string) (*UpstreamStream, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid upstream url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Icy-MetaData", "0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	stream := &UpstreamStream{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       resp.Body,
	}

	if needsSniffing(stream.Header.Get("Content-Type")) {
		stream.sniffContentType()
	}

	return stream, nil
}

// needsSniffing reports whether the upstream content type is missing or generic
func needsSniffing(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	return ct == "" || strings.HasPrefix(ct, "application/octet-stream")
}

// sniffContentType peeks at the start of the body and fills in Content-Type when recognizable
func (s *UpstreamStream) sniffContentType() {
	br := bufio.NewReaderSize(s.Body, sniffBytes)
	head, _ := br.Peek(sniffBytes)

	if ct := DetectContentType(head); ct != "" {
		s.Header.Set("Content-Type", ct)
	}

	s.Body = struct {
		io.Reader
		io.Closer
	}{br, s.Body}
}

// DetectContentType guesses an audio MIME type from the leading bytes of a stream
func DetectContentType(head []byte) string {
	if len(head) == 0 {
		return ""
	}

	_, fileType, err := tag.Identify(bytes.NewReader(head))
	if err == nil {
		switch fileType {
		case tag.MP3:
			return "audio/mpeg"
		case tag.FLAC:
			return "audio/flac"
		case tag.OGG:
			return "audio/ogg"
		case tag.M4A, tag.M4B, tag.M4P, tag.ALAC:
			return "audio/mp4"
		}
	}

	// Raw MPEG frames and ADTS carry no container tag, only a frame sync word
	if len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0 {
		if head[1]&0x06 == 0x00 {
			return "audio/aac"
		}
		return "audio/mpeg"
	}
	return ""
}
