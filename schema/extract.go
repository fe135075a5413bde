package schema

import (
	"errors"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNoObject signals that no JSON object could be located in model text.
var ErrNoObject = errors.New("no JSON object found in model output")

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractObject locates a JSON object inside raw model text. Fenced code
// blocks are preferred; otherwise the first balanced object literal is taken.
// Models wrap structured answers in prose and markdown often enough that
// strict unmarshalling of the whole reply is useless in practice.
func ExtractObject(text string) ([]byte, error) {
	for _, m := range fencedBlock.FindAllStringSubmatch(text, -1) {
		if gjson.Valid(m[1]) {
			return []byte(m[1]), nil
		}
	}

	if candidate := firstBalancedObject(text); candidate != "" && gjson.Valid(candidate) {
		return []byte(candidate), nil
	}

	return nil, ErrNoObject
}

// Sniff guesses which contract a JSON object carries by probing its
// distinguishing fields. Returns "" when nothing matches.
func Sniff(data []byte) Contract {
	switch {
	case gjson.GetBytes(data, "complexity_score").Exists():
		return ContractAssessment
	case gjson.GetBytes(data, "consensus_groups").Exists():
		return ContractEnsemble
	case gjson.GetBytes(data, "history").Exists():
		return ContractRefinement
	case gjson.GetBytes(data, "scores").Exists() || gjson.GetBytes(data, "overall_score").Exists():
		return ContractEvaluation
	default:
		return ""
	}
}

// firstBalancedObject scans for the first {...} literal that closes, honoring
// strings and escapes. Unclosed braces (truncated or malformed output earlier
// in the text) are skipped and the scan resumes at the next opening brace.
func firstBalancedObject(text string) string {
	for start := 0; start < len(text); {
		open := strings.IndexByte(text[start:], '{')
		if open < 0 {
			return ""
		}
		start += open

		if candidate := balancedFrom(text, start); candidate != "" {
			return candidate
		}
		start++
	}
	return ""
}

func balancedFrom(text string, start int) string {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
