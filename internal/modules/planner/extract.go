// README: Extraction of the |||UPDATES: {...}||| sidecar from model output.
package planner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"voyage/internal/modules/itinerary"
)

const (
	updatesOpen  = "|||UPDATES:"
	updatesClose = "|||"
)

// Keys accepted in an update block.
const (
	FieldBudget      = "budget"
	FieldDestination = "destination"
	FieldDuration    = "duration"
	FieldStartDate   = "startDate"
	FieldTravelers   = "travelers"
)

var (
	ErrMalformedUpdates = errors.New("malformed update block")

	// The opener tolerates spacing and case drift in what the model writes.
	openerPattern = regexp.MustCompile(`\|{3,}\s*(?i:updates)\s*:`)
	decimalComma  = regexp.MustCompile(`^\d+,\d{1,2}$`)
)

// Updates is the sanitized, allow-listed set of field changes from one response.
// A nil field means "not changed".
type Updates struct {
	Budget      *float64
	Destination *string
	Duration    *int
	StartDate   *time.Time
	Travelers   *int

	// Unknown carries keys outside the allow-list; they are never applied.
	Unknown map[string]json.RawMessage
	// Rejected lists allow-listed keys whose values failed sanitization.
	Rejected []string
}

func (u Updates) Empty() bool {
	return len(u.Fields()) == 0
}

// Fields lists the keys carrying a usable value, in a fixed order.
func (u Updates) Fields() []string {
	var out []string
	if u.Budget != nil {
		out = append(out, FieldBudget)
	}
	if u.Destination != nil {
		out = append(out, FieldDestination)
	}
	if u.Duration != nil {
		out = append(out, FieldDuration)
	}
	if u.StartDate != nil {
		out = append(out, FieldStartDate)
	}
	if u.Travelers != nil {
		out = append(out, FieldTravelers)
	}
	return out
}

// Extraction is the result of scanning one response.
type Extraction struct {
	// Visible is the text with every update block removed and whitespace trimmed.
	// Without a block it is the input, untouched.
	Visible string
	Updates Updates
	// Found reports whether any opener was present.
	Found bool
	// Err is set when a block was present but unusable. Visible is still valid.
	Err error
}

// ExtractUpdates splits a response into user-visible text and structured updates.
// Only the first block is parsed; later ones are stripped. An opener without a
// closing delimiter is removed together with a JSON object directly following
// it, if any, and the remainder of the text is kept as is.
func ExtractUpdates(text string) Extraction {
	if !openerPattern.MatchString(text) {
		return Extraction{Visible: text}
	}

	var (
		visible  strings.Builder
		payloads []string
		rest     = text
	)
	for {
		loc := openerPattern.FindStringIndex(rest)
		if loc == nil {
			visible.WriteString(rest)
			break
		}
		visible.WriteString(rest[:loc[0]])
		after := rest[loc[1]:]

		// The object's own extent decides where the block ends, so a delimiter
		// inside a JSON string cannot close it early.
		if payload, remainder, ok := splitLeadingObject(after); ok {
			payloads = append(payloads, payload)
			rest = consumeClose(remainder)
			continue
		}
		if end := strings.Index(after, updatesClose); end >= 0 {
			payloads = append(payloads, after[:end])
			rest = strings.TrimLeft(after[end:], "|")
			continue
		}
		payloads = append(payloads, "")
		rest = after
	}

	out := Extraction{Visible: strings.TrimSpace(visible.String()), Found: true}
	upd, err := parseUpdates(payloads[0])
	if err != nil {
		out.Err = err
		return out
	}
	out.Updates = upd
	return out
}

// splitLeadingObject peels a JSON object off the front of s. ok is false when s
// does not start with a well-formed object.
func splitLeadingObject(s string) (payload, remainder string, ok bool) {
	trimmed := strings.TrimLeft(s, " \t\r\n")
	if !strings.HasPrefix(trimmed, "{") {
		return "", s, false
	}
	dec := json.NewDecoder(strings.NewReader(trimmed))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return "", s, false
	}
	n := int(dec.InputOffset())
	return trimmed[:n], trimmed[n:], true
}

// consumeClose drops the closing delimiter, and any extra pipes, when it
// directly follows the object. Otherwise s is returned as is.
func consumeClose(s string) string {
	t := strings.TrimLeft(s, " \t")
	if !strings.HasPrefix(t, "|") {
		return s
	}
	return strings.TrimLeft(t, "|")
}

func parseUpdates(payload string) (Updates, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Updates{}, fmt.Errorf("%w: empty payload", ErrMalformedUpdates)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return Updates{}, fmt.Errorf("%w: %v", ErrMalformedUpdates, err)
	}
	if fields == nil {
		return Updates{}, fmt.Errorf("%w: payload is not an object", ErrMalformedUpdates)
	}

	var u Updates
	reject := func(k string) { u.Rejected = append(u.Rejected, k) }
	for k, raw := range fields {
		switch k {
		case FieldBudget:
			if v, ok := sanitizeAmount(raw); ok {
				u.Budget = &v
			} else {
				reject(k)
			}
		case FieldDestination:
			if v, ok := sanitizeText(raw); ok {
				u.Destination = &v
			} else {
				reject(k)
			}
		case FieldDuration:
			if v, ok := sanitizeCount(raw); ok {
				u.Duration = &v
			} else {
				reject(k)
			}
		case FieldTravelers:
			if v, ok := sanitizeCount(raw); ok {
				u.Travelers = &v
			} else {
				reject(k)
			}
		case FieldStartDate:
			if v, ok := sanitizeDate(raw); ok {
				u.StartDate = &v
			} else {
				reject(k)
			}
		default:
			if u.Unknown == nil {
				u.Unknown = make(map[string]json.RawMessage)
			}
			u.Unknown[k] = raw
		}
	}
	return u, nil
}

// sanitizeAmount accepts a JSON number or a string such as "2 500€" or "1 200,50 EUR".
func sanitizeAmount(raw json.RawMessage) (float64, bool) {
	v, ok := numericValue(raw)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// sanitizeCount accepts a positive whole number, as a JSON number or a string like "10 jours".
func sanitizeCount(raw json.RawMessage) (int, bool) {
	v, ok := numericValue(raw)
	if !ok || v < 1 || v != math.Trunc(v) || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

func numericValue(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	var s string
	switch {
	case len(raw) > 0 && raw[0] == '"':
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		s = stripNonNumeric(s)
	default:
		s = string(raw)
	}
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// stripNonNumeric keeps digits and the decimal point. A lone comma followed by
// one or two digits is read as a decimal separator; any other comma groups thousands.
func stripNonNumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if !strings.Contains(out, ".") && decimalComma.MatchString(out) {
		return strings.Replace(out, ",", ".", 1)
	}
	return strings.ReplaceAll(out, ",", "")
}

func sanitizeText(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func sanitizeDate(raw json.RawMessage) (time.Time, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, false
	}
	d, err := itinerary.ParseDate(s)
	if err != nil || d == nil {
		return time.Time{}, false
	}
	return *d, true
}
