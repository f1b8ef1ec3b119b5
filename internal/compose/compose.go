// Package compose renders stored report content as JSON, HTML or PDF.
package compose

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/TobiSchelling/welfarelens/internal/database"
)

// Document is a rendered report ready to be written out.
type Document struct {
	ContentType string
	Filename    string
	Body        []byte
}

var titles = map[string]string{
	"summary":      "Summary Report",
	"policy_brief": "Policy Brief",
	"full_report":  "Full Report",
}

// Render produces the report in its own format.
func Render(r *database.Report) (*Document, error) {
	if len(r.Content) == 0 {
		return nil, fmt.Errorf("report %d has no content", r.ID)
	}
	base := fmt.Sprintf("report-%d", r.ID)

	switch r.Format {
	case "json":
		var buf bytes.Buffer
		if err := json.Indent(&buf, r.Content, "", "  "); err != nil {
			return nil, fmt.Errorf("formatting report content: %w", err)
		}
		return &Document{ContentType: "application/json", Filename: base + ".json", Body: buf.Bytes()}, nil
	case "html":
		src, err := Markdown(r)
		if err != nil {
			return nil, err
		}
		body, err := HTML(Title(r), src)
		if err != nil {
			return nil, err
		}
		return &Document{ContentType: "text/html; charset=utf-8", Filename: base + ".html", Body: body}, nil
	case "pdf":
		src, err := Markdown(r)
		if err != nil {
			return nil, err
		}
		body, err := PDF(Title(r), src)
		if err != nil {
			return nil, err
		}
		return &Document{ContentType: "application/pdf", Filename: base + ".pdf", Body: body}, nil
	}
	return nil, fmt.Errorf("unsupported report format %q", r.Format)
}

// Title returns the display title for a report.
func Title(r *database.Report) string {
	if t, ok := titles[r.Type]; ok {
		return fmt.Sprintf("%s #%d", t, r.ID)
	}
	return fmt.Sprintf("Report #%d", r.ID)
}

// Markdown converts report content into a markdown document.
func Markdown(r *database.Report) (string, error) {
	var content map[string]any
	if err := json.Unmarshal(r.Content, &content); err != nil {
		return "", fmt.Errorf("decoding report content: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", Title(r))
	if r.Type == "policy_brief" {
		writeBrief(&sb, content)
	} else {
		writeSummary(&sb, content)
	}
	return strings.TrimSpace(sb.String()) + "\n", nil
}

func writeBrief(sb *strings.Builder, content map[string]any) {
	if s, ok := content["executive_summary"].(string); ok && s != "" {
		fmt.Fprintf(sb, "## Executive Summary\n\n%s\n\n", s)
	}
	writeList(sb, "Key Findings", content["key_findings"])

	if recs, ok := content["recommendations"].([]any); ok && len(recs) > 0 {
		sb.WriteString("## Recommendations\n\n")
		for i, item := range recs {
			rec, ok := item.(map[string]any)
			if !ok {
				fmt.Fprintf(sb, "%d. %s\n", i+1, inline(item))
				continue
			}
			fmt.Fprintf(sb, "%d. **%s**", i+1, inline(rec["action"]))
			if rationale := inline(rec["rationale"]); rationale != "" {
				fmt.Fprintf(sb, " %s", rationale)
			}
			sb.WriteString("\n")
			if steps, ok := rec["implementation_steps"].([]any); ok {
				for _, step := range steps {
					fmt.Fprintf(sb, "    - %s\n", inline(step))
				}
			}
		}
		sb.WriteString("\n")
	}

	writeObject(sb, "Resource Requirements", content["resource_requirements"])
	writeObject(sb, "Impact Assessment", content["impact_assessment"])
}

func writeSummary(sb *strings.Builder, content map[string]any) {
	writeList(sb, "Summary", content["summary"])

	if details, ok := content["details"].(map[string]any); ok {
		for _, section := range []struct{ key, title string }{
			{"trends", "Trends"},
			{"correlations", "Correlations"},
			{"gaps", "Data Gaps"},
			{"recommendations", "Recommendations"},
		} {
			writeList(sb, section.title, details[section.key])
		}
	}

	if meta, ok := content["metadata"].(map[string]any); ok {
		sb.WriteString("---\n\n")
		if srcs := joinList(meta["data_sources"]); srcs != "" {
			fmt.Fprintf(sb, "*Sources:* %s\n\n", srcs)
		}
		if topics := joinList(meta["topics"]); topics != "" {
			fmt.Fprintf(sb, "*Topics:* %s\n\n", topics)
		}
		if at, ok := meta["generated_at"].(string); ok {
			fmt.Fprintf(sb, "*Generated:* %s\n\n", at)
		}
	}
}

func writeList(sb *strings.Builder, title string, v any) {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "## %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(sb, "- %s\n", inline(item))
	}
	sb.WriteString("\n")
}

func writeObject(sb *strings.Builder, title string, v any) {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(sb, "## %s\n\n", title)
	for _, k := range keys {
		label := strings.ReplaceAll(k, "_", " ")
		fmt.Fprintf(sb, "- **%s:** %s\n", strings.ToUpper(label[:1])+label[1:], inline(m[k]))
	}
	sb.WriteString("\n")
}

// inline renders a JSON value on a single line.
func inline(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.Join(strings.Fields(x), " ")
	case []any:
		return joinList(x)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func joinList(v any) string {
	items, ok := v.([]any)
	if !ok {
		return inline(v)
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if s := inline(item); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
