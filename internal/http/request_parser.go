// Package http provides HTTP server and handler implementations.
//
// This file holds the request-side helpers: body parsing for form and JSON
// submissions and the mapping of a parsed body to transaction input.

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"moneybook/internal/services"
)

// maxBodyBytes bounds a submitted form; a transaction is a few short fields.
const maxBodyBytes = 64 << 10

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	query       url.Values
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
		query:       r.URL.Query(),
	}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a value from the body, falling back to the query string.
// Values are returned as sent; sanitising belongs to the service.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return stringValue(val)
		}
	}
	if p.formData != nil && p.formData.Has(key) {
		return p.formData.Get(key)
	}
	return p.query.Get(key)
}

// ContentType returns the Content-Type header value.
func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// RawInput maps the parsed body to the add form fields.
func (p *RequestBodyParser) RawInput() services.RawInput {
	return services.RawInput{
		Description: p.Get("description"),
		Amount:      strings.TrimSpace(p.Get("amount")),
		Date:        strings.TrimSpace(p.Get("date")),
		Type:        strings.TrimSpace(p.Get("type")),
	}
}

// Confirmed reports whether the request carries an affirmative answer to
// the delete prompt.
func (p *RequestBodyParser) Confirmed() bool {
	switch strings.ToLower(strings.TrimSpace(p.Get("confirm"))) {
	case "yes", "true", "1":
		return true
	}
	return false
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
