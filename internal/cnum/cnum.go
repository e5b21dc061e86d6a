// Package cnum converts Chinese numeral sequences to integers and back.
// It handles the numbering conventions found in digitized serialized
// fiction: simple digits, compound forms with 十/百/千, the special tens
// tokens 廿/卅/卌, Arabic fallbacks, and the positional two-digit
// convention some digitization sources use (二一 means 21, not "two one").
package cnum

import (
	"strconv"
	"strings"
)

var digits = map[rune]int{
	'零': 0, '一': 1, '二': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

var specials = map[rune]int{
	'十': 10, '廿': 20, '卅': 30, '卌': 40,
}

var multipliers = map[rune]int{
	'十': 10, '百': 100, '千': 1000,
}

// suffixes are unit markers conventionally appended to chapter numbers.
const suffixes = "章回節集部卷"

// Parse converts a Chinese (or Arabic) numeral string to an integer.
// Conventional prefixes (第) and unit suffixes (章回節集部卷) are stripped
// first. The second return value is false when the text contains no
// parseable number; callers treat that as a valid "no number" case, not an
// error, since not every heading carries one.
func Parse(text string) (int, bool) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "第")
	for {
		trimmed := strings.TrimRight(s, suffixes)
		if trimmed == s {
			break
		}
		s = trimmed
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Arabic fallback.
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}

	runes := []rune(s)

	// Single token: direct lookup.
	if len(runes) == 1 {
		if v, ok := digits[runes[0]]; ok {
			return v, true
		}
		if v, ok := specials[runes[0]]; ok {
			return v, true
		}
		return 0, false
	}

	// Special tens token followed by a single digit: 廿一 -> 21.
	if len(runes) == 2 {
		if base, ok := specials[runes[0]]; ok && base >= 20 {
			if d, ok := digits[runes[1]]; ok {
				return base + d, true
			}
		}
		// Positional two-digit convention: both characters simple digits
		// 1-9 means a two-digit number (二一 -> 21). Source-specific but
		// must be preserved.
		d1, ok1 := digits[runes[0]]
		d2, ok2 := digits[runes[1]]
		if ok1 && ok2 && d1 >= 1 && d2 >= 1 {
			return d1*10 + d2, true
		}
	}

	// Left-to-right accumulation: multipliers flush the pending digit
	// (defaulting to 1) into the total, digits set the pending value.
	total, pending := 0, 0
	found := false
	for _, r := range runes {
		if mult, ok := multipliers[r]; ok {
			if pending == 0 {
				pending = 1
			}
			total += pending * mult
			pending = 0
			found = true
			continue
		}
		if d, ok := digits[r]; ok {
			pending = d
			found = true
			continue
		}
		if v, ok := specials[r]; ok {
			// 廿/卅/卌 mid-sequence act as flushed tens.
			total += v
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return total + pending, true
}

var digitRunes = []rune("零一二三四五六七八九")

// Render converts an integer to its canonical Chinese numeral form, using
// the 十/廿/卅/卌 conventions for tens. Supports 0 through 9999.
func Render(n int) string {
	if n < 0 || n > 9999 {
		return strconv.Itoa(n)
	}
	if n < 10 {
		return string(digitRunes[n])
	}
	if n < 20 {
		if n == 10 {
			return "十"
		}
		return "十" + string(digitRunes[n%10])
	}
	if n < 50 {
		tens := map[int]string{2: "廿", 3: "卅", 4: "卌"}[n/10]
		if n%10 == 0 {
			return tens
		}
		return tens + string(digitRunes[n%10])
	}
	if n < 100 {
		s := string(digitRunes[n/10]) + "十"
		if n%10 != 0 {
			s += string(digitRunes[n%10])
		}
		return s
	}

	var b strings.Builder
	if n >= 1000 {
		b.WriteString(string(digitRunes[n/1000]))
		b.WriteString("千")
		n %= 1000
		if n > 0 && n < 100 {
			b.WriteString("零")
		}
	}
	if n >= 100 {
		b.WriteString(string(digitRunes[n/100]))
		b.WriteString("百")
		n %= 100
		if n > 0 && n < 10 {
			b.WriteString("零")
		}
	}
	if n >= 10 {
		if n/10 > 1 {
			b.WriteString(string(digitRunes[n/10]))
		}
		b.WriteString("十")
		n %= 10
	}
	if n > 0 {
		b.WriteString(string(digitRunes[n]))
	}
	return b.String()
}
