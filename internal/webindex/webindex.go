// Package webindex generates a browsable HTML index for a directory of
// assembled chapter PDFs.
package webindex

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/canytam/bindery/internal/home"
	"github.com/canytam/bindery/internal/pdfgen"
)

// IndexFileName is the generated index file name.
const IndexFileName = "index.html"

// Entry describes one PDF in the index.
type Entry struct {
	Title    string
	Filename string
	Pages    int
	Size     string
	Modified string
}

// pageData feeds the index template.
type pageData struct {
	Title   string
	Count   int
	Updated string
	Entries []Entry
}

// Generate scans pdfDir for PDFs, collects their metadata, and writes an
// index.html next to them. It returns the path of the generated index.
// PDFs that cannot be read are logged and skipped.
func Generate(pdfDir string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(pdfDir)
	if err != nil {
		return "", fmt.Errorf("read pdf directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	index := make([]Entry, 0, len(names))
	for _, name := range names {
		entry, err := describePDF(pdfDir, name)
		if err != nil {
			logger.Warn("skipping unreadable pdf", "file", name, "error", err)
			continue
		}
		index = append(index, entry)
	}

	data := pageData{
		Title:   filepath.Base(pdfDir),
		Count:   len(index),
		Updated: time.Now().Format(time.RFC1123),
		Entries: index,
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render index: %w", err)
	}

	outPath := filepath.Join(pdfDir, IndexFileName)
	if err := home.WriteArtifact(outPath, buf.Bytes()); err != nil {
		return "", err
	}
	return outPath, nil
}

// describePDF collects the index metadata for one PDF file.
func describePDF(dir, name string) (Entry, error) {
	path := filepath.Join(dir, name)

	doc, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, err
	}

	pages, err := pdfgen.PageCount(doc)
	if err != nil {
		return Entry{}, fmt.Errorf("page count: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		Title:    strings.TrimSuffix(name, filepath.Ext(name)),
		Filename: name,
		Pages:    pages,
		Size:     fmt.Sprintf("%.1f KB", float64(info.Size())/1024),
		Modified: info.ModTime().Format(time.RFC1123),
	}, nil
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>PDF Content Index - {{.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 2rem; background-color: #f5f5f5; }
        .header { text-align: center; margin-bottom: 2rem; color: #2c3e50; }
        .pdf-list { max-width: 800px; margin: 0 auto; background: white; padding: 2rem;
                    border-radius: 10px; box-shadow: 0 2px 5px rgba(0,0,0,0.1); }
        .pdf-item { padding: 1rem; border-bottom: 1px solid #eee; display: flex;
                    justify-content: space-between; align-items: center; }
        .pdf-item:hover { background-color: #f9f9f9; }
        .pdf-info { color: #666; font-size: 0.9rem; }
        a { color: #2980b9; text-decoration: none; font-weight: bold; }
        a:hover { color: #3498db; }
        .stats { text-align: center; margin-bottom: 1.5rem; color: #7f8c8d; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Title}}</h1>
        <div class="stats">Total PDFs: {{.Count}} | Last Updated: {{.Updated}}</div>
    </div>
    <div class="pdf-list">
    {{- range .Entries}}
        <div class="pdf-item">
            <a href="{{.Filename}}" target="_blank">{{.Title}}</a>
            <div class="pdf-info">Pages: {{.Pages}} | Size: {{.Size}} | Modified: {{.Modified}}</div>
        </div>
    {{- end}}
    </div>
</body>
</html>
`))
