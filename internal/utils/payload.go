package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// PayloadKey is the top-level key of the structured preferences payload
const PayloadKey = "property_preferences"

const markerWhitespace = " \t\n\f\r"

// preferencesMarker matches the opening of a payload object: {"property_preferences":
var preferencesMarker = regexp.MustCompile(`\{\s*"property_preferences"\s*:`)

// ExtractionResult describes what was found in an assistant response buffer.
// When Found is false the other fields are zero.
type ExtractionResult struct {
	Found    bool
	Text     string         // conversational text before the payload, trimmed
	Raw      string         // the payload object exactly as streamed
	Parsed   map[string]any // the whole decoded payload document
	Trailing string         // anything the assistant wrote after the payload, trimmed
	Start    int
	End      int
}

// Preferences returns the decoded property_preferences object
func (r ExtractionResult) Preferences() map[string]any {
	prefs, _ := r.Parsed[PayloadKey].(map[string]any)
	return prefs
}

// ExtractPreferences splits an assistant response into its conversational
// prefix and the trailing {"property_preferences": {...}} payload.
// An unfinished or malformed payload yields a result with Found == false.
func ExtractPreferences(buffer string) ExtractionResult {
	e := NewStreamExtractor(nil)
	e.Write(buffer)
	return e.Result()
}

// StreamExtractor consumes a response as it streams in. Each Write resumes
// scanning where the previous one stopped, so feeding it token by token costs
// one pass over the buffer.
type StreamExtractor struct {
	buf      string
	scanFrom int // where the marker search resumes
	start    int // start of the candidate payload, -1 when none is open
	pos      int // next byte to brace-scan inside the candidate
	depth    int
	inString bool
	escape   bool
	result   ExtractionResult
	logger   logrus.FieldLogger
}

// NewStreamExtractor creates an extractor; a nil logger uses the logrus standard logger
func NewStreamExtractor(logger logrus.FieldLogger) *StreamExtractor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &StreamExtractor{start: -1, logger: logger}
}

// Write appends a streamed delta and re-evaluates the buffer
func (e *StreamExtractor) Write(delta string) ExtractionResult {
	e.buf += delta
	if !e.result.Found {
		e.advance()
	} else {
		e.result.Trailing = strings.TrimSpace(e.buf[e.result.End:])
	}
	return e.result
}

// Result returns the current extraction state
func (e *StreamExtractor) Result() ExtractionResult {
	return e.result
}

// Buffer returns everything written so far
func (e *StreamExtractor) Buffer() string {
	return e.buf
}

// Visible returns the text that is safe to show while streaming: the
// conversational prefix once a payload has started, the raw buffer otherwise,
// minus a trailing fragment that may turn out to be a payload opening.
func (e *StreamExtractor) Visible() string {
	if e.result.Found {
		return e.result.Text
	}
	if e.start >= 0 {
		return strings.TrimSpace(e.buf[:e.start])
	}
	return e.buf[:e.scanFrom]
}

func (e *StreamExtractor) advance() {
	for {
		if e.start < 0 {
			loc := preferencesMarker.FindStringIndex(e.buf[e.scanFrom:])
			if loc == nil {
				e.scanFrom = resumePoint(e.buf, e.scanFrom)
				return
			}
			e.start = e.scanFrom + loc[0]
			e.pos = e.start
			e.depth, e.inString, e.escape = 0, false, false
		}

		end := e.scanBraces()
		if end < 0 {
			// payload still streaming in
			return
		}

		raw := e.buf[e.start:end]
		parsed, err := decodePayload(raw)
		if err != nil {
			e.logger.WithError(err).WithField("payload", truncateString(raw, 200)).
				Debug("Ignoring malformed preferences payload")
			e.scanFrom = end
			e.start = -1
			continue
		}

		e.result = ExtractionResult{
			Found:    true,
			Text:     strings.TrimSpace(e.buf[:e.start]),
			Raw:      raw,
			Parsed:   parsed,
			Trailing: strings.TrimSpace(e.buf[end:]),
			Start:    e.start,
			End:      end,
		}
		return
	}
}

// scanBraces counts brace depth from e.pos and returns the index just past the
// brace that closes the candidate, or -1 if the buffer ends first.
// Braces inside JSON strings are not counted.
func (e *StreamExtractor) scanBraces() int {
	for ; e.pos < len(e.buf); e.pos++ {
		ch := e.buf[e.pos]

		if e.escape {
			e.escape = false
			continue
		}
		if e.inString {
			switch ch {
			case '\\':
				e.escape = true
			case '"':
				e.inString = false
			}
			continue
		}

		switch ch {
		case '"':
			e.inString = true
		case '{':
			e.depth++
		case '}':
			e.depth--
			if e.depth == 0 {
				e.pos++
				return e.pos
			}
		}
	}
	return -1
}

// resumePoint returns the earliest index at or after from where a payload
// marker could still begin once more text arrives.
func resumePoint(buf string, from int) int {
	i := strings.LastIndexByte(buf[from:], '{')
	if i < 0 {
		return len(buf)
	}
	i += from
	if couldBeMarkerPrefix(buf[i:]) {
		return i
	}
	return len(buf)
}

// couldBeMarkerPrefix reports whether s (starting with '{') is an incomplete
// payload marker.
func couldBeMarkerPrefix(s string) bool {
	const key = `"` + PayloadKey + `"`

	rest := strings.TrimLeft(s[1:], markerWhitespace)
	if len(rest) <= len(key) {
		return strings.HasPrefix(key, rest)
	}
	if !strings.HasPrefix(rest, key) {
		return false
	}
	return strings.TrimLeft(rest[len(key):], markerWhitespace) == ""
}

func decodePayload(raw string) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("invalid payload JSON: %w", err)
	}
	if _, ok := doc[PayloadKey].(map[string]any); !ok {
		return nil, fmt.Errorf("payload has no %s object", PayloadKey)
	}
	return doc, nil
}

// truncateString truncates a string to maxLen bytes
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
