package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func chiRouterWith(pattern, method string, handler http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Method(method, pattern, handler)
	return r
}
