package translator

import (
	"fmt"
	"strconv"
	"strings"
)

// Render substitutes regex captures into a translation template. Fields are
// written {name}, {0} or {} (auto-numbered); named captures take precedence
// over positional ones; {{ and }} escape literal braces. Any placeholder
// that resolves to nothing is an error.
func Render(template string, named map[string]string, groups []string) (string, error) {
	var b strings.Builder
	auto := 0
	for i := 0; i < len(template); {
		switch template[i] {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(template[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("unterminated placeholder at offset %d", i)
			}
			value, err := resolveField(template[i+1:i+end], named, groups, &auto)
			if err != nil {
				return "", err
			}
			b.WriteString(value)
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i += 2
				continue
			}
			return "", fmt.Errorf("stray '}' at offset %d", i)
		default:
			b.WriteByte(template[i])
			i++
		}
	}
	return b.String(), nil
}

func resolveField(field string, named map[string]string, groups []string, auto *int) (string, error) {
	if field == "" {
		idx := *auto
		*auto++
		if idx >= len(groups) {
			return "", fmt.Errorf("no capture for auto field %d", idx)
		}
		return groups[idx], nil
	}
	if value, ok := named[field]; ok {
		return value, nil
	}
	if idx, err := strconv.Atoi(field); err == nil {
		if idx < 0 || idx >= len(groups) {
			return "", fmt.Errorf("no capture for field {%d}", idx)
		}
		return groups[idx], nil
	}
	return "", fmt.Errorf("unknown template field %q", field)
}
