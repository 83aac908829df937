package game

import (
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/dustin/go-humanize/english"
)

// logFuncs is what option log templates can call: sprig's text functions plus
// "quantity" ({{ quantity 3 "rat" "" }} gives "3 rats") and "pluralWord".
var logFuncs = func() template.FuncMap {
	fm := sprig.TxtFuncMap()
	fm["quantity"] = english.Plural
	fm["pluralWord"] = english.PluralWord
	return fm
}()

// parsed caches templates by source text. Definitions never change after
// loading, so entries are never evicted.
var parsed sync.Map

func parseTemplate(src string) (*template.Template, error) {
	if t, ok := parsed.Load(src); ok {
		return t.(*template.Template), nil
	}
	t, err := template.New("log").Funcs(logFuncs).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	parsed.Store(src, t)
	return t, nil
}

// ExpandTemplate renders src against data. Text without actions is returned
// unchanged.
func ExpandTemplate(src string, data any) (string, error) {
	if !strings.Contains(src, "{{") {
		return src, nil
	}

	t, err := parseTemplate(src)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return sb.String(), nil
}
