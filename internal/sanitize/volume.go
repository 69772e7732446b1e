// Package sanitize normalizes client-supplied volume metadata into the fixed
// shape stored with library records.
package sanitize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"booknest/internal/models"
)

// UnknownTitle replaces a missing or non-string title.
const UnknownTitle = "Unknown Title"

// Shape classifies how much of the input survived normalization.
type Shape int

const (
	// WellFormed input mapped field for field.
	WellFormed Shape = iota
	// PartiallyMalformed input was an object but some fields were defaulted
	// or coerced.
	PartiallyMalformed
	// Unusable input was absent, not an object, or not JSON at all. The
	// fallback volume is returned.
	Unusable
)

func (s Shape) String() string {
	switch s {
	case WellFormed:
		return "well_formed"
	case PartiallyMalformed:
		return "partially_malformed"
	default:
		return "unusable"
	}
}

// Result is the outcome of normalizing one volumeInfo payload.
type Result struct {
	Shape  Shape
	Volume models.VolumeInfo
	Issues []string
}

// Fallback is the minimal valid volume.
func Fallback(title string) models.VolumeInfo {
	if title == "" {
		title = UnknownTitle
	}
	return models.VolumeInfo{
		Title:               title,
		Authors:             []string{},
		Categories:          []string{},
		IndustryIdentifiers: []models.IndustryIdentifier{},
	}
}

// Volume normalizes raw JSON. It never fails: malformed input produces the
// fallback volume with Shape Unusable.
func Volume(raw []byte) (res Result) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return Result{Shape: Unusable, Volume: Fallback(""), Issues: []string{"volumeInfo is missing"}}
	}
	var v interface{}
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return Result{Shape: Unusable, Volume: Fallback(""), Issues: []string{"volumeInfo is not valid JSON"}}
	}
	return Map(v)
}

// Map normalizes an already decoded value.
func Map(v interface{}) (res Result) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return Result{Shape: Unusable, Volume: Fallback(""), Issues: []string{fmt.Sprintf("volumeInfo is %s, not an object", kindOf(v))}}
	}

	defer func() {
		if r := recover(); r != nil {
			title, _ := obj["title"].(string)
			res = Result{Shape: Unusable, Volume: Fallback(title), Issues: []string{fmt.Sprintf("volumeInfo mapping failed: %v", r)}}
		}
	}()

	m := &mapper{obj: obj}
	vol := models.VolumeInfo{
		Title:               m.str("title"),
		Subtitle:            m.str("subtitle"),
		Authors:             m.strList("authors"),
		Publisher:           m.str("publisher"),
		PublishedDate:       m.str("publishedDate"),
		Description:         m.str("description"),
		PageCount:           m.integer("pageCount"),
		Categories:          m.strList("categories"),
		AverageRating:       m.number("averageRating"),
		RatingsCount:        m.integer("ratingsCount"),
		Language:            m.str("language"),
		ImageLinks:          m.imageLinks("imageLinks"),
		IndustryIdentifiers: m.identifiers("industryIdentifiers"),
	}
	if vol.Title == "" {
		vol.Title = UnknownTitle
		m.issue("title defaulted to %q", UnknownTitle)
	}

	res = Result{Shape: WellFormed, Volume: vol, Issues: m.issues}
	if len(m.issues) > 0 {
		res.Shape = PartiallyMalformed
	}
	return res
}

type mapper struct {
	obj    map[string]interface{}
	issues []string
}

func (m *mapper) issue(format string, args ...interface{}) {
	m.issues = append(m.issues, fmt.Sprintf(format, args...))
}

func (m *mapper) str(key string) string {
	v, ok := m.obj[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		m.issue("%s is %s, not a string", key, kindOf(v))
		return ""
	}
	return s
}

func (m *mapper) strList(key string) []string {
	out := []string{}
	v, ok := m.obj[key]
	if !ok || v == nil {
		return out
	}
	list, ok := v.([]interface{})
	if !ok {
		m.issue("%s is %s, not a list", key, kindOf(v))
		return out
	}
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			m.issue("%s[%d] is %s, not a string", key, i, kindOf(item))
			continue
		}
		out = append(out, s)
	}
	return out
}

func (m *mapper) number(key string) *float64 {
	v, ok := m.obj[key]
	if !ok || v == nil {
		return nil
	}
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		m.issue("%s is %s, not a number", key, kindOf(v))
		return nil
	}
	return &f
}

func (m *mapper) integer(key string) *int {
	f := m.number(key)
	if f == nil {
		return nil
	}
	n := int(math.Trunc(*f))
	return &n
}

func (m *mapper) imageLinks(key string) models.ImageLinks {
	v, ok := m.obj[key]
	if !ok || v == nil {
		return models.ImageLinks{}
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		m.issue("%s is %s, not an object", key, kindOf(v))
		return models.ImageLinks{}
	}
	sub := &mapper{obj: obj}
	links := models.ImageLinks{
		Thumbnail:      sub.str("thumbnail"),
		SmallThumbnail: sub.str("smallThumbnail"),
	}
	for _, is := range sub.issues {
		m.issue("%s.%s", key, is)
	}
	return links
}

// identifiers accepts a list of {type, identifier} objects or a string holding
// such a list in serialized form.
func (m *mapper) identifiers(key string) []models.IndustryIdentifier {
	out := []models.IndustryIdentifier{}
	v, ok := m.obj[key]
	if !ok || v == nil {
		return out
	}

	var list []interface{}
	switch t := v.(type) {
	case []interface{}:
		list = t
	case string:
		var parsed interface{}
		if err := json.Unmarshal([]byte(t), &parsed); err != nil {
			m.issue("%s string is not valid JSON", key)
			return out
		}
		l, ok := parsed.([]interface{})
		if !ok {
			m.issue("%s string holds %s, not a list", key, kindOf(parsed))
			return out
		}
		list = l
	default:
		m.issue("%s is %s, not a list", key, kindOf(v))
		return out
	}

	for i, item := range list {
		obj, ok := item.(map[string]interface{})
		if !ok {
			m.issue("%s[%d] is %s, not an object", key, i, kindOf(item))
			continue
		}
		out = append(out, models.IndustryIdentifier{
			Type:       text(obj["type"]),
			Identifier: text(obj["identifier"]),
		})
	}
	return out
}

// text coerces scalars to their string form; null and composites become "".
func text(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func kindOf(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	case []interface{}:
		return "a list"
	case map[string]interface{}:
		return "an object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
