// Package i18n renders localized notification texts from embedded catalogs.
package i18n

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"text/template"
)

//go:embed catalogs/*.json
var catalogFS embed.FS

// DefaultLocale is used when a user's language has no catalog.
const DefaultLocale = "en"

// ErrMissingKey is returned when no catalog defines the key.
var ErrMissingKey = errors.New("missing translation key")

// Text is a rendered notification.
type Text struct {
	Title   string
	Message string
}

type entry struct {
	title   *template.Template
	message *template.Template
}

// Renderer holds the parsed catalogs, keyed by locale then message key.
type Renderer struct {
	catalogs map[string]map[string]entry
}

// NewRenderer parses every embedded catalog.
func NewRenderer() (*Renderer, error) {
	files, err := catalogFS.ReadDir("catalogs")
	if err != nil {
		return nil, err
	}
	r := &Renderer{catalogs: make(map[string]map[string]entry)}
	for _, f := range files {
		locale := strings.TrimSuffix(f.Name(), path.Ext(f.Name()))
		raw, err := catalogFS.ReadFile("catalogs/" + f.Name())
		if err != nil {
			return nil, err
		}
		var doc map[string]struct {
			Title   string `json:"title"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", locale, err)
		}
		cat := make(map[string]entry, len(doc))
		for key, e := range doc {
			title, err := parse(locale+"/"+key+".title", e.Title)
			if err != nil {
				return nil, err
			}
			msg, err := parse(locale+"/"+key+".message", e.Message)
			if err != nil {
				return nil, err
			}
			cat[key] = entry{title: title, message: msg}
		}
		r.catalogs[locale] = cat
	}
	return r, nil
}

func parse(name, text string) (*template.Template, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return t, nil
}

// Render fills the template for key in locale, falling back to the default
// locale when the locale or key is unknown there. A missing variable is an
// error.
func (r *Renderer) Render(key string, vars map[string]string, locale string) (Text, error) {
	e, ok := r.lookup(key, locale)
	if !ok {
		return Text{}, fmt.Errorf("%s: %w", key, ErrMissingKey)
	}
	title, err := execute(e.title, vars)
	if err != nil {
		return Text{}, err
	}
	msg, err := execute(e.message, vars)
	if err != nil {
		return Text{}, err
	}
	return Text{Title: title, Message: msg}, nil
}

func (r *Renderer) lookup(key, locale string) (entry, bool) {
	locale = strings.ToLower(locale)
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		locale = locale[:i]
	}
	if e, ok := r.catalogs[locale][key]; ok {
		return e, true
	}
	e, ok := r.catalogs[DefaultLocale][key]
	return e, ok
}

func execute(t *template.Template, vars map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
