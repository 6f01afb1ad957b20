package webjs

import (
	"bytes"
	"unicode/utf16"

	"github.com/tidwall/gjson"
)

// Config is the browser-visible plugin configuration, in schema order.
type Config struct {
	keys   []string
	values map[string]gjson.Result
}

// Len returns the number of keys.
func (c Config) Len() int { return len(c.keys) }

// Keys returns the keys in output order.
func (c Config) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Get returns the value stored under key.
func (c Config) Get(key string) (gjson.Result, bool) {
	v, ok := c.values[key]
	return v, ok
}

func (c *Config) set(key string, value gjson.Result) {
	if c.values == nil {
		c.values = make(map[string]gjson.Result)
	}
	if _, seen := c.values[key]; !seen {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// ConfigFromSchema picks the web-exposed fields of a plugin config.
//
// Every schema element with a truthy "web" and "key" contributes one entry:
// the config value under that key when present (null included), otherwise the
// element's "default", otherwise null. An empty or missing schema or config
// yields an empty Config.
func ConfigFromSchema(schema, config []byte) Config {
	var out Config

	s := gjson.ParseBytes(schema)
	cfg := gjson.ParseBytes(config)
	if !truthy(s) || !truthy(cfg) || !s.IsArray() || !cfg.IsObject() {
		return out
	}

	values := objectEntries(cfg)

	s.ForEach(func(_, element gjson.Result) bool {
		if !element.IsObject() {
			return true
		}
		key := element.Get("key")
		if !truthy(element.Get("web")) || !truthy(key) {
			return true
		}

		name := key.String()
		if v, ok := values.Get(name); ok {
			out.set(name, v)
		} else {
			out.set(name, element.Get("default"))
		}
		return true
	})

	return out
}

// objectEntries collects an object's members in document order.
// A repeated key keeps its first position and its last value.
func objectEntries(obj gjson.Result) Config {
	var out Config
	obj.ForEach(func(key, value gjson.Result) bool {
		out.set(key.String(), value)
		return true
	})
	return out
}

// truthy follows the usual scripting-language rules: false, null, 0, "",
// [] and {} are false, everything else is true. A missing value is null.
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return r.Float() != 0
	case gjson.String:
		return r.Str != ""
	default:
		n := 0
		r.ForEach(func(_, _ gjson.Result) bool {
			n++
			return false
		})
		return n > 0
	}
}

// MarshalJSON writes the config as {"key": value, ...} with ", " and ": "
// separators and all non-ASCII escaped, the format script consumers already
// receive from the rest of the platform.
func (c Config) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	c.writeTo(&buf)
	return buf.Bytes(), nil
}

func (c Config) writeTo(buf *bytes.Buffer) {
	buf.WriteByte('{')
	for i, key := range c.keys {
		if i > 0 {
			buf.WriteString(", ")
		}
		writeString(buf, key)
		buf.WriteString(": ")
		writeValue(buf, c.values[key])
	}
	buf.WriteByte('}')
}

func writeValue(buf *bytes.Buffer, r gjson.Result) {
	switch r.Type {
	case gjson.Null:
		buf.WriteString("null")
	case gjson.False:
		buf.WriteString("false")
	case gjson.True:
		buf.WriteString("true")
	case gjson.Number:
		buf.WriteString(r.Raw)
	case gjson.String:
		writeString(buf, r.Str)
	default:
		if r.IsArray() {
			buf.WriteByte('[')
			i := 0
			r.ForEach(func(_, v gjson.Result) bool {
				if i > 0 {
					buf.WriteString(", ")
				}
				writeValue(buf, v)
				i++
				return true
			})
			buf.WriteByte(']')
			return
		}
		objectEntries(r).writeTo(buf)
	}
}

const hexDigits = "0123456789abcdef"

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r >= ' ' && r <= '~':
			buf.WriteRune(r)
		case r > 0xFFFF:
			hi, lo := utf16.EncodeRune(r)
			writeUnicodeEscape(buf, hi)
			writeUnicodeEscape(buf, lo)
		default:
			writeUnicodeEscape(buf, r)
		}
	}
	buf.WriteByte('"')
}

func writeUnicodeEscape(buf *bytes.Buffer, r rune) {
	buf.WriteString(`\u`)
	for shift := 12; shift >= 0; shift -= 4 {
		buf.WriteByte(hexDigits[(r>>uint(shift))&0xF])
	}
}
