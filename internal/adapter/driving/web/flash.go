package web

import (
	"encoding/base64"
	"net/http"
	"strings"

	vm "github.com/ericfisherdev/tiendapanel/internal/adapter/driving/web/viewmodel"
)

const (
	flashCookieName = "flash"
	flashOK         = "ok"
	flashError      = "error"
)

// setFlash stores a one-shot message shown by the next rendered page.
func setFlash(w http.ResponseWriter, kind, message string) {
	value := base64.RawURLEncoding.EncodeToString([]byte(kind + "|" + message))
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the pending flash message.
func popFlash(w http.ResponseWriter, r *http.Request) vm.Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return vm.Flash{}
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookieName, Path: "/", MaxAge: -1})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return vm.Flash{}
	}
	kind, message, ok := strings.Cut(string(raw), "|")
	if !ok || (kind != flashOK && kind != flashError) {
		return vm.Flash{}
	}
	return vm.Flash{Kind: kind, Message: message}
}
