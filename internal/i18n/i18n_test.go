package i18n

import "testing"

func mustLoad(t *testing.T) *Catalog {
	t.Helper()
	c, err := Load()
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return c
}

func TestMessageFallbacks(t *testing.T) {
	c := mustLoad(t)

	if got := c.Message("en", "auth.token.expired"); got != "Authentication token has expired" {
		t.Fatalf("en message: %q", got)
	}
	if got := c.Message("pt-BR", "auth.token.expired"); got != "Token de autenticação expirado" {
		t.Fatalf("pt-BR message: %q", got)
	}
	// Locale desconocido -> default
	if got := c.Message("fr", "auth.token.expired"); got != "Authentication token has expired" {
		t.Fatalf("fallback message: %q", got)
	}
	// Clave desconocida -> la clave misma
	if got := c.Message("en", "no.such.key"); got != "no.such.key" {
		t.Fatalf("missing key: %q", got)
	}
}

func TestMatchLocale(t *testing.T) {
	c := mustLoad(t)

	cases := map[string]string{
		"pt-BR,pt;q=0.9,en;q=0.8": "pt-BR",
		"pt":                      "pt-BR",
		"en-US,en;q=0.5":          "en",
		"de-DE":                   DefaultLocale,
		"":                        DefaultLocale,
		"*":                       DefaultLocale,
	}
	for accept, want := range cases {
		if got := c.MatchLocale(accept); got != want {
			t.Errorf("MatchLocale(%q) = %q, want %q", accept, got, want)
		}
	}
}

func TestMessagef(t *testing.T) {
	c := mustLoad(t)
	got := c.Messagef("en", "cleanup.completed", 3, 10)
	if got != "Blacklist cleanup finished: 3 removed, 10 still active" {
		t.Fatalf("messagef: %q", got)
	}
}
