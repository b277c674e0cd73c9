package format

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"acoustid/core/apierr"
)

// Output formats accepted in the format parameter.
const (
	JSON  = "json"
	JSONP = "jsonp"
	XML   = "xml"
)

// DefaultCallback is used when jsoncallback is absent or not a valid identifier.
const DefaultCallback = "jsonAcoustidApi"

var callbackPattern = regexp.MustCompile(`^[$A-Za-z_][0-9A-Za-z_]*(\.[$A-Za-z_][0-9A-Za-z_]*)*$`)

// Format is the negotiated output format of a request.
type Format struct {
	Name     string
	Callback string
}

// Default is used for requests that did not select a format, and for the
// error reported when the requested format is unknown.
var Default = Format{Name: JSON}

// Parse reads format and jsoncallback. On an unknown format it returns
// Default together with the error, so the error can still be rendered.
func Parse(values url.Values) (Format, error) {
	name := values.Get("format")
	switch name {
	case "", JSON:
		return Default, nil
	case XML:
		return Format{Name: XML}, nil
	case JSONP:
		callback := values.Get("jsoncallback")
		if !callbackPattern.MatchString(callback) {
			callback = DefaultCallback
		}
		return Format{Name: JSONP, Callback: callback}, nil
	}
	return Default, apierr.UnknownFormat(name)
}

// Marshal encodes v like json.Marshal but leaves <, > and & unescaped.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// OK builds the envelope of a successful response: the payload's fields
// plus "status": "ok". Keys are sorted.
func OK(payload any) ([]byte, error) {
	fields := make(map[string]json.RawMessage)
	if payload != nil {
		data, err := Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("response payload is not an object: %w", err)
		}
	}
	fields["status"] = json.RawMessage(`"ok"`)
	return Marshal(fields)
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error  errorBody `json:"error"`
	Status string    `json:"status"`
}

// Error builds the envelope of an error response.
func Error(e *apierr.Error) []byte {
	data, _ := Marshal(errorEnvelope{
		Error:  errorBody{Code: e.Code, Message: e.Message},
		Status: "error",
	})
	return data
}

// Write renders an envelope built by OK or Error in format f.
func (f Format) Write(w http.ResponseWriter, status int, envelope []byte) error {
	var (
		body        []byte
		contentType string
	)
	switch f.Name {
	case XML:
		data, err := renderXML(envelope)
		if err != nil {
			return err
		}
		body, contentType = data, "text/xml; charset=UTF-8"
	case JSONP:
		body = append(append([]byte(f.Callback+"("), envelope...), ')')
		contentType = "application/javascript; charset=UTF-8"
	default:
		body, contentType = envelope, "application/json; charset=UTF-8"
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, err := w.Write(body)
	return err
}

// renderXML converts a JSON document to XML under a <response> root. List
// items are named after the singular of their parent and keys starting with
// "@" become attributes.
func renderXML(envelope []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(envelope))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := writeNode(enc, "response", doc); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return buf.Bytes(), nil
}

func writeNode(enc *xml.Encoder, name string, v any) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}

	switch node := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		var children []string
		for _, k := range keys {
			if attr, ok := strings.CutPrefix(k, "@"); ok {
				start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: attr}, Value: text(node[k])})
			} else {
				children = append(children, k)
			}
		}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for _, k := range children {
			if err := writeNode(enc, k, node[k]); err != nil {
				return err
			}
		}
	case []any:
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		item := singular(name)
		for _, child := range node {
			if err := writeNode(enc, item, child); err != nil {
				return err
			}
		}
	default:
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		if err := enc.EncodeToken(xml.CharData(text(v))); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	}
	return fmt.Sprint(v)
}

func singular(plural string) string {
	if stem, ok := strings.CutSuffix(plural, "ies"); ok {
		return stem + "y"
	}
	return strings.TrimSuffix(plural, "s")
}
