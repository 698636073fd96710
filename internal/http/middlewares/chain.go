package middlewares

import "net/http"

// Middleware decora un http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain envuelve h con los middlewares dados: el primero de la lista queda
// más afuera (intercepta primero el request, ve último la respuesta).
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	wrapped := h
	for i := range mws {
		wrapped = mws[len(mws)-1-i](wrapped)
	}
	return wrapped
}

// ChainFunc es Chain para un http.HandlerFunc.
func ChainFunc(hf http.HandlerFunc, mws ...Middleware) http.Handler {
	return Chain(hf, mws...)
}
