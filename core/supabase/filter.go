package supabase

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Condition is a single column equality condition.
type Condition struct {
	Column string
	Value  string
}

// Filter is an ordered list of column equality conditions. It decodes from a
// JSON object, preserving the key order of the document. Values are kept as
// opaque strings; numbers and booleans are rendered verbatim, without quoting
// or type coercion.
type Filter []Condition

// UnmarshalJSON decodes a JSON object into ordered conditions.
func (f *Filter) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil { // JSON null
		*f = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("filter must be a JSON object")
	}

	var conditions Filter
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		column, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("filter must be a JSON object")
		}
		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		value, err := scalarString(valTok)
		if err != nil {
			return fmt.Errorf("filter value for '%s': %w", column, err)
		}
		conditions = append(conditions, Condition{Column: column, Value: value})
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return err
	}
	*f = conditions
	return nil
}

func scalarString(tok json.Token) (string, error) {
	switch v := tok.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	case nil:
		return "null", nil
	default:
		return "", fmt.Errorf("must be a scalar")
	}
}

// Query renders the filter in backend equality syntax, one col=eq.value pair
// per condition, joined with '&', in input order. Values are interpolated
// verbatim; the backend is the sole authority on their interpretation.
func (f Filter) Query() string {
	var b strings.Builder
	for i, c := range f {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(c.Column)
		b.WriteString("=eq.")
		b.WriteString(c.Value)
	}
	return b.String()
}

// ListQueryFromRaw builds the backend query for a read operation from the
// caller's raw query string. The select parameter defaults to "*", limit
// defaults to 100, and every other parameter becomes an equality condition.
// Conditions keep the input order of the query string.
func ListQueryFromRaw(rawQuery string) string {
	sel := "*"
	limit := "100"
	var conditions []string
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		key, _ = url.QueryUnescape(key)
		value, _ = url.QueryUnescape(value)
		switch key {
		case "select":
			if value != "" {
				sel = value
			}
		case "limit":
			if value != "" {
				limit = value
			}
		default:
			conditions = append(conditions, key+"=eq."+value)
		}
	}
	parts := append([]string{"select=" + sel, "limit=" + limit}, conditions...)
	return strings.Join(parts, "&")
}
