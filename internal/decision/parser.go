package decision

import (
	"encoding/json"
	"strings"

	"llm-trader/internal/types"
)

// Parser converts untrusted model output into a validated Decision. It is
// total: any input, including binary garbage, yields a usable decision.
// The safe fallback is a HOLD for the default symbol.
type Parser struct {
	allowed    map[string]bool
	defaultSym string
}

func NewParser(symbols []string, defaultSymbol string) *Parser {
	allowed := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		allowed[s] = true
	}
	return &Parser{allowed: allowed, defaultSym: defaultSymbol}
}

// Default returns the fallback decision used when parsing fails.
func (p *Parser) Default() types.Decision {
	return types.Decision{
		Symbol:    p.defaultSym,
		Action:    types.ActionHold,
		Qty:       0,
		Reasoning: "parse failed",
	}
}

// Parse extracts the first balanced JSON object from raw and decodes it.
// Models routinely wrap the object in prose, emit partial objects or
// hallucinate symbols; none of that may escape as an error. Candidates that
// do not decode are skipped and the scan resumes at the next brace.
func (p *Parser) Parse(raw string) types.Decision {
	for off := 0; ; {
		rel := strings.Index(raw[off:], "{")
		if rel < 0 {
			return p.Default()
		}
		start := off + rel

		obj, ok := balancedFrom(raw, start)
		if !ok {
			off = start + 1
			continue
		}
		var d types.Decision
		if err := json.Unmarshal([]byte(obj), &d); err != nil {
			off = start + 1
			continue
		}
		return p.validate(d)
	}
}

func (p *Parser) validate(d types.Decision) types.Decision {
	d.Action = strings.ToLower(strings.TrimSpace(d.Action))
	switch d.Action {
	case types.ActionBuy, types.ActionSell, types.ActionHold:
	default:
		return p.Default()
	}

	d.Symbol = strings.ToUpper(strings.TrimSpace(d.Symbol))
	if !p.allowed[d.Symbol] {
		d.Symbol = p.defaultSym
	}
	if d.Qty < 0 {
		d.Qty = 0
	}
	if d.Action == types.ActionHold {
		d.Qty = 0
	}
	return d
}

// balancedFrom returns the balanced {...} substring opening at start. Depth
// is tracked so nested objects do not truncate the match, and braces inside
// string values are ignored.
func balancedFrom(s string, start int) (string, bool) {
	depth := 0
	inStr := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch c {
			case '\\':
				i++
			case '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
