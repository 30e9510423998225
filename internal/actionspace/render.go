package actionspace

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type renderedGroup struct {
	Category string   `json:"category"`
	Actions  []Action `json:"actions"`
}

// group buckets actions by role category and orders each bucket by ID,
// numerically within a prefix so B10 sorts after B2.
func group(actions []Action) []renderedGroup {
	buckets := map[string][]Action{}
	var order []string
	for _, a := range actions {
		cat := title(a.Role.Category().String())
		if _, ok := buckets[cat]; !ok {
			order = append(order, cat)
		}
		buckets[cat] = append(buckets[cat], a)
	}
	out := make([]renderedGroup, 0, len(order))
	for _, cat := range order {
		acts := buckets[cat]
		sort.SliceStable(acts, func(i, j int) bool {
			return IDLess(acts[i].ID, acts[j].ID)
		})
		out = append(out, renderedGroup{Category: cat, Actions: acts})
	}
	return out
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// IDLess orders action IDs by prefix, then numerically within a prefix.
func IDLess(a, b string) bool {
	if len(a) == 0 || len(b) == 0 {
		return a < b
	}
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	an, aerr := strconv.Atoi(a[1:])
	bn, berr := strconv.Atoi(b[1:])
	if aerr != nil || berr != nil {
		return a < b
	}
	return an < bn
}

// RenderMarkdown writes the action list as a per-category markdown
// digest, the form handed to the decision-maker.
func RenderMarkdown(actions []Action) string {
	var b strings.Builder
	for _, g := range group(actions) {
		fmt.Fprintf(&b, "## %s\n", g.Category)
		for _, a := range g.Actions {
			fmt.Fprintf(&b, "- [%s] %s", a.ID, a.Description)
			if len(a.Parameters) > 0 {
				parts := make([]string, len(a.Parameters))
				for i, p := range a.Parameters {
					parts[i] = fmt.Sprintf("%s: %s", p.Name, p.Type)
				}
				fmt.Fprintf(&b, " {%s}", strings.Join(parts, ", "))
			}
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// RenderJSON is the structured form of the same grouping.
func RenderJSON(actions []Action) ([]byte, error) {
	return json.MarshalIndent(group(actions), "", "  ")
}
