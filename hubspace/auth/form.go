package auth

import (
	"bytes"
	"html"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

// Package-level compiled regexes for the form action URL
var (
	sessionCodeRegex = regexp.MustCompile(`session_code=([^&]+)`)
	executionRegex   = regexp.MustCompile(`execution=([^&]+)`)
	tabIDRegex       = regexp.MustCompile(`tab_id=([^&]+)`)
)

// LoginForm carries the transient correlation parameters Keycloak embeds in
// its login page. They are only valid for the one credential submission that
// follows.
type LoginForm struct {
	SessionCode string
	Execution   string
	TabID       string
}

// FormParser extracts the login form parameters from an authorization page
// body. The HTML library behind it is an implementation detail; the login
// flow only depends on this interface.
type FormParser interface {
	ParseLoginForm(body []byte) (LoginForm, error)
}

// KeycloakFormParser parses the stock Keycloak login page. The form is
// identified by id kc-form-login; parameters come from the entity-escaped
// action URL, with hidden inputs as fallback.
type KeycloakFormParser struct{}

func (KeycloakFormParser) ParseLoginForm(body []byte) (LoginForm, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return LoginForm{}, err
	}

	form := doc.Find("form#kc-form-login")
	if form.Length() == 0 {
		return LoginForm{}, ErrLoginFormNotFound
	}

	action := html.UnescapeString(form.AttrOr("action", ""))

	pick := func(re *regexp.Regexp, inputName string) string {
		if m := re.FindStringSubmatch(action); len(m) > 1 {
			return m[1]
		}
		return doc.Find(`input[name="` + inputName + `"]`).AttrOr("value", "")
	}

	f := LoginForm{
		SessionCode: pick(sessionCodeRegex, "session_code"),
		Execution:   pick(executionRegex, "execution"),
		TabID:       pick(tabIDRegex, "tab_id"),
	}
	if f.SessionCode == "" || f.Execution == "" || f.TabID == "" {
		return LoginForm{}, ErrMissingSessionParameters
	}

	return f, nil
}
