package input

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sweeney/click-debounce/internal/logic"
)

// LineMap assigns GPIO line offsets to button channels.
type LineMap map[logic.Channel]int

// ParseLineMap parses "left:17,x1:22" into a LineMap. An empty string yields nil.
func ParseLineMap(s string) (LineMap, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	m := make(LineMap)
	used := make(map[int]logic.Channel)
	for _, part := range strings.Split(s, ",") {
		name, off, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("gpio mapping %q: want button:line", part)
		}
		ch, err := logic.ParseChannel(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("gpio mapping %q: %w", part, err)
		}
		line, err := strconv.Atoi(strings.TrimSpace(off))
		if err != nil || line < 0 {
			return nil, fmt.Errorf("gpio mapping %q: invalid line %q", part, off)
		}
		if _, dup := m[ch]; dup {
			return nil, fmt.Errorf("gpio mapping: %s assigned twice", ch)
		}
		if other, dup := used[line]; dup {
			return nil, fmt.Errorf("gpio mapping: line %d used by %s and %s", line, other, ch)
		}
		m[ch] = line
		used[line] = ch
	}
	return m, nil
}

// String formats the map in channel order, in the same syntax ParseLineMap accepts.
func (m LineMap) String() string {
	chs := make([]logic.Channel, 0, len(m))
	for ch := range m {
		chs = append(chs, ch)
	}
	sort.Slice(chs, func(i, j int) bool { return chs[i] < chs[j] })

	parts := make([]string, len(chs))
	for i, ch := range chs {
		parts[i] = fmt.Sprintf("%s:%d", strings.ToLower(ch.String()), m[ch])
	}
	return strings.Join(parts, ",")
}
