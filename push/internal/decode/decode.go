// Package decode turns raw push bodies into payload values. Devices and
// gateways declare their encoding inconsistently, so decoding is a
// priority-ordered chain of decoders: the first decoder that supports the
// declared content type and parses the body wins, and a guaranteed-success
// raw wrapper terminates the chain. The chain never fails.
package decode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"strings"
)

// BlobPlaceholder substitutes for a multipart attachment with no filename.
// Attachment bytes themselves are never persisted.
const BlobPlaceholder = "blob"

// Decoder parses one body encoding.
type Decoder interface {
	// Name identifies the decoder in logs and metrics.
	Name() string

	// Supports reports whether this decoder should attempt the given
	// declared content type.
	Supports(contentType string) bool

	// Decode parses the body. An error hands the body to the next decoder
	// in the chain.
	Decode(contentType string, body []byte) (any, error)
}

// Chain is a priority-ordered list of decoders.
type Chain struct {
	decoders []Decoder
}

// NewChain constructs a chain from the given decoders, tried in order.
func NewChain(decoders ...Decoder) *Chain {
	return &Chain{decoders: decoders}
}

// Default returns the standard push decode chain:
// url-encoded form, multipart form, JSON, raw wrapper.
func Default() *Chain {
	return NewChain(
		FormDecoder{},
		MultipartDecoder{},
		JSONDecoder{},
		RawDecoder{},
	)
}

// Decode runs the chain and returns the payload plus the name of the decoder
// that produced it. Total: the terminal raw decoder cannot fail.
func (c *Chain) Decode(contentType string, body []byte) (any, string) {
	for _, d := range c.decoders {
		if !d.Supports(contentType) {
			continue
		}
		payload, err := d.Decode(contentType, body)
		if err != nil {
			continue
		}
		return payload, d.Name()
	}
	// Unreachable with the default chain, but keep the chain total even if
	// someone builds one without a terminal decoder.
	return map[string]any{"raw": string(body)}, RawDecoder{}.Name()
}

// FormDecoder parses application/x-www-form-urlencoded bodies. Every value
// is a string; repeated keys resolve to the last occurrence.
type FormDecoder struct{}

func (FormDecoder) Name() string { return "form" }

func (FormDecoder) Supports(contentType string) bool {
	return strings.Contains(contentType, "application/x-www-form-urlencoded")
}

func (FormDecoder) Decode(_ string, body []byte) (any, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse form body: %w", err)
	}
	fields := make(map[string]any, len(values))
	for key, vals := range values {
		fields[key] = vals[len(vals)-1]
	}
	return fields, nil
}

// MultipartDecoder parses multipart/form-data bodies. Textual parts
// contribute their body as the field value; attachments contribute their
// declared filename (or BlobPlaceholder when the filename is empty) — the
// attachment bytes are discarded.
type MultipartDecoder struct{}

func (MultipartDecoder) Name() string { return "multipart" }

func (MultipartDecoder) Supports(contentType string) bool {
	return strings.Contains(contentType, "multipart/form-data")
}

func (MultipartDecoder) Decode(contentType string, body []byte) (any, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("parse content type: %w", err)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, fmt.Errorf("multipart body without boundary")
	}

	fields := make(map[string]any)
	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read multipart part: %w", err)
		}

		name := part.FormName()
		if name == "" {
			continue
		}

		if isAttachment(part) {
			value := part.FileName()
			if value == "" {
				value = BlobPlaceholder
			}
			fields[name] = value
			continue
		}

		data, err := io.ReadAll(part)
		if err != nil {
			return nil, fmt.Errorf("read multipart part %q: %w", name, err)
		}
		fields[name] = string(data)
	}
	return fields, nil
}

// isAttachment reports whether a part declares a filename parameter, even an
// empty one. FileName() alone can't distinguish "no filename" from
// `filename=""`.
func isAttachment(part *multipart.Part) bool {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return false
	}
	_, ok := params["filename"]
	return ok
}

// JSONDecoder parses the body as an arbitrary JSON value. It supports every
// content type: devices routinely push JSON with a missing or wrong declared
// type.
type JSONDecoder struct{}

func (JSONDecoder) Name() string { return "json" }

func (JSONDecoder) Supports(string) bool { return true }

func (JSONDecoder) Decode(_ string, body []byte) (any, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse json body: %w", err)
	}
	return payload, nil
}

// RawDecoder wraps the entire body text under a single "raw" field. It is
// the terminal decoder and never fails.
type RawDecoder struct{}

func (RawDecoder) Name() string { return "raw" }

func (RawDecoder) Supports(string) bool { return true }

func (RawDecoder) Decode(_ string, body []byte) (any, error) {
	return map[string]any{"raw": string(body)}, nil
}
