// ABOUTME: Conversation export to Markdown and HTML files
// ABOUTME: Markdown is the source format; HTML is rendered from it with goldmark

package export

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/2389/scribe/internal/chat"
)

// Format selects the export output format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "md", "markdown", "":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want markdown or html)", name)
	}
}

func (f Format) extension() string {
	if f == FormatHTML {
		return ".html"
	}
	return ".md"
}

// Metadata describes the conversation being exported.
type Metadata struct {
	SessionID  string
	Model      string
	ExportedAt time.Time
}

// Markdown renders the conversation as a Markdown document.
func Markdown(messages []chat.Message, meta Metadata) ([]byte, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("conversation has no messages")
	}
	if meta.ExportedAt.IsZero() {
		meta.ExportedAt = time.Now()
	}

	var sb strings.Builder
	sb.WriteString("# Chat Transcript\n\n")
	if meta.SessionID != "" {
		sb.WriteString(fmt.Sprintf("- **Session**: %s\n", meta.SessionID))
	}
	if meta.Model != "" {
		sb.WriteString(fmt.Sprintf("- **Model**: %s\n", meta.Model))
	}
	sb.WriteString(fmt.Sprintf("- **Messages**: %d\n", len(messages)))
	sb.WriteString(fmt.Sprintf("- **Exported**: %s\n\n", meta.ExportedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString("---\n\n")

	for i, msg := range messages {
		sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n",
			roleLabel(msg.Role), msg.Timestamp.Format("15:04:05")))
		sb.WriteString(strings.TrimSpace(msg.Content))
		sb.WriteString("\n\n")
		if i < len(messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// htmlPage wraps rendered conversation HTML in a standalone document.
var htmlPage = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Chat Transcript</title>
<style>
body { max-width: 48rem; margin: 2rem auto; padding: 0 1rem; font-family: system-ui, sans-serif; line-height: 1.5; }
h3 { border-top: 1px solid #ddd; padding-top: 0.75rem; }
pre { background: #f4f4f4; padding: 0.75rem; overflow-x: auto; }
code { background: #f4f4f4; padding: 0.1rem 0.3rem; }
sub { color: #888; font-weight: normal; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// HTML renders the conversation as a standalone HTML document.
func HTML(messages []chat.Message, meta Metadata) ([]byte, error) {
	md, err := Markdown(messages, meta)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	if err := goldmark.Convert(md, &body); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}

	var page bytes.Buffer
	data := struct{ Body template.HTML }{Body: template.HTML(body.String())}
	if err := htmlPage.Execute(&page, data); err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	return page.Bytes(), nil
}

// ToFile exports the conversation into dir and returns the written path. The
// filename carries a timestamp so repeated exports never overwrite.
func ToFile(dir string, format Format, messages []chat.Message, meta Metadata) (string, error) {
	var content []byte
	var err error
	switch format {
	case FormatHTML:
		content, err = HTML(messages, meta)
	case FormatMarkdown:
		content, err = Markdown(messages, meta)
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	name := fmt.Sprintf("chat_%s%s", time.Now().Format("20060102_150405"), format.extension())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}

func roleLabel(role chat.Role) string {
	switch role {
	case chat.RoleUser:
		return "You"
	case chat.RoleAssistant:
		return "Assistant"
	default:
		return string(role)
	}
}
