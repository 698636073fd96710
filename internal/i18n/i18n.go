// Package i18n resuelve mensajes de error localizados desde catálogos YAML embebidos.
//
// Los catálogos viven en catalogs/<locale>.yaml como mapa plano clave -> texto.
// Si la clave no existe en el locale pedido se cae al locale por defecto ("en");
// si tampoco existe ahí, se devuelve la clave (visible en logs, nunca rompe).
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalogs/*.yaml
var catalogFS embed.FS

// DefaultLocale es el locale de fallback.
const DefaultLocale = "en"

// Catalog contiene los mensajes de todos los locales cargados.
type Catalog struct {
	messages map[string]map[string]string
}

// Load parsea todos los catálogos embebidos.
func Load() (*Catalog, error) {
	entries, err := fs.ReadDir(catalogFS, "catalogs")
	if err != nil {
		return nil, fmt.Errorf("i18n: read catalogs: %w", err)
	}

	c := &Catalog{messages: make(map[string]map[string]string, len(entries))}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		raw, err := catalogFS.ReadFile(path.Join("catalogs", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", e.Name(), err)
		}
		var m map[string]string
		if err := yaml.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", e.Name(), err)
		}
		locale := strings.TrimSuffix(e.Name(), ".yaml")
		c.messages[locale] = m
	}

	if _, ok := c.messages[DefaultLocale]; !ok {
		return nil, fmt.Errorf("i18n: default catalog %q missing", DefaultLocale)
	}
	return c, nil
}

// Message resuelve una clave en el locale dado, con fallback al default.
func (c *Catalog) Message(locale, key string) string {
	if m, ok := c.messages[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if v, ok := c.messages[DefaultLocale][key]; ok {
		return v
	}
	return key
}

// Messagef resuelve una clave y aplica fmt.Sprintf con los args dados.
func (c *Catalog) Messagef(locale, key string, args ...any) string {
	return fmt.Sprintf(c.Message(locale, key), args...)
}

// Locales devuelve los locales cargados.
func (c *Catalog) Locales() []string {
	out := make([]string, 0, len(c.messages))
	for l := range c.messages {
		out = append(out, l)
	}
	return out
}

// MatchLocale elige el mejor locale soportado según el header Accept-Language.
// Matching simple por prefijo (pt, pt-BR -> pt-BR); sin q-values elaborados.
func (c *Catalog) MatchLocale(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		lang := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if lang == "" || lang == "*" {
			continue
		}
		if _, ok := c.messages[lang]; ok {
			return lang
		}
		// Prefijo de idioma: "pt" matchea "pt-BR"
		base := strings.SplitN(lang, "-", 2)[0]
		for supported := range c.messages {
			if strings.EqualFold(strings.SplitN(supported, "-", 2)[0], base) {
				return supported
			}
		}
	}
	return DefaultLocale
}
