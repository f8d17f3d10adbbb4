package locator

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/jmarc580625/medialocate/internal/naming"
)

//go:embed resources
var resourcesFS embed.FS

const (
	resourcesDir = "resources"
	prologName   = "prolog.html"
	epilogName   = "epilog.html"
	dataName     = "medialocate.js"

	stylesheetLink = `<link rel="stylesheet" href="%s">`
	scriptLink     = `<script src="%s"></script>`
	dataLink       = `<script type="text/javascript" src="%s" class="json"></script>`
)

// CreatePage regenerates the viewer page when the location store holds
// records and has pending changes, or unconditionally when force is set.
// It returns the page path, or "" when nothing needed regenerating.
func (m *MediaLocate) CreatePage(force bool) (string, error) {
	n, err := m.store.Len()
	if err != nil {
		return "", err
	}
	if n == 0 || (!m.store.IsDirty() && !force) {
		return "", nil
	}

	if err := m.store.Sync(); err != nil {
		return "", fmt.Errorf("syncing location store: %w", err)
	}

	stylesheets, scripts, err := m.writeAssets()
	if err != nil {
		return "", err
	}

	dataPath, err := m.writeDataAppendix()
	if err != nil {
		return "", err
	}
	scripts += fmt.Sprintf(dataLink, naming.ToPosix(dataPath))

	if err := m.writePage(stylesheets, scripts); err != nil {
		return "", err
	}
	return m.outFile, nil
}

// writeAssets copies the embedded stylesheet and script resources next to
// the viewer page and returns the HTML link snippets referencing them.
func (m *MediaLocate) writeAssets() (stylesheets, scripts string, err error) {
	entries, err := resourcesFS.ReadDir(resourcesDir)
	if err != nil {
		return "", "", err
	}
	outDir := filepath.Dir(m.outFile)
	for _, entry := range entries {
		name := entry.Name()
		var link string
		switch {
		case strings.HasSuffix(name, ".css"):
			link = stylesheetLink
		case strings.HasSuffix(name, ".js"):
			link = scriptLink
		default:
			continue
		}
		data, err := resourcesFS.ReadFile(resourcesDir + "/" + name)
		if err != nil {
			return "", "", err
		}
		target := filepath.Join(outDir, name)
		if err := writeIfChanged(target, data); err != nil {
			return "", "", fmt.Errorf("writing asset %s: %w", name, err)
		}
		snippet := fmt.Sprintf(link, naming.ToPosix(target))
		if link == stylesheetLink {
			stylesheets += snippet
		} else {
			scripts += snippet
		}
	}
	return stylesheets, scripts, nil
}

// writeDataAppendix wraps the synced store file into a script that
// assigns the location records to a global variable.
func (m *MediaLocate) writeDataAppendix() (string, error) {
	raw, err := os.ReadFile(m.store.Path())
	if err != nil {
		return "", fmt.Errorf("reading location store: %w", err)
	}
	dataPath := filepath.Join(m.workDir, dataName)
	var sb strings.Builder
	sb.WriteString("medialocate_data=")
	sb.Write(raw)
	sb.WriteString(";")
	if err := os.WriteFile(dataPath, []byte(sb.String()), 0644); err != nil {
		return "", fmt.Errorf("writing data appendix: %w", err)
	}
	return dataPath, nil
}

func (m *MediaLocate) writePage(stylesheets, scripts string) error {
	prolog, err := resourcesFS.ReadFile(resourcesDir + "/" + prologName)
	if err != nil {
		return err
	}
	epilog, err := resourcesFS.ReadFile(resourcesDir + "/" + epilogName)
	if err != nil {
		return err
	}

	tmpl, err := template.New(prologName).Parse(string(prolog))
	if err != nil {
		return fmt.Errorf("parsing page template: %w", err)
	}

	f, err := os.Create(m.outFile)
	if err != nil {
		return fmt.Errorf("creating viewer page: %w", err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, map[string]string{
		"Stylesheets": stylesheets,
		"Scripts":     scripts,
	}); err != nil {
		return fmt.Errorf("rendering viewer page: %w", err)
	}
	if _, err := f.Write(epilog); err != nil {
		return fmt.Errorf("writing viewer page: %w", err)
	}
	return nil
}

// writeIfChanged writes data to path unless the file already holds the
// same content.
func writeIfChanged(path string, data []byte) error {
	if existing, err := os.ReadFile(path); err == nil && string(existing) == string(data) {
		return nil
	}
	return os.WriteFile(path, data, 0644)
}
