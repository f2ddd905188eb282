package main

// middleware module provides various middleware modules for the server
//
// Copyright (c) 2023 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"log"
	"net/http"
	"strconv"
	"time"

	limiter "github.com/ulule/limiter/v3"
	stdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memory "github.com/ulule/limiter/v3/drivers/store/memory"
	"github.com/uptrace/bunrouter"
)

// limiter middleware pointer
var limiterMiddleware *stdlib.Middleware

// initialize Limiter middleware pointer
func initLimiter(period string) error {
	log.Printf("limiter rate='%s'", period)
	rate, err := limiter.NewRateFromFormatted(period)
	if err != nil {
		return err
	}
	store := memory.NewStore()
	instance := limiter.New(store, rate)
	limiterMiddleware = stdlib.NewMiddleware(instance)
	return nil
}

// responseWriter is a minimal wrapper for http.ResponseWriter that allows the
// written HTTP status code and number of bytes to be captured for logging.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

// wrapper for response writer
// based on https://blog.questionable.services/article/guide-logging-middleware-go/
func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w}
}

func (rw *responseWriter) Status() int {
	if rw.status == 0 { // the status code was not set, i.e. everything is fine
		return http.StatusOK
	}
	return rw.status
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
	rw.wroteHeader = true
}

func (rw *responseWriter) Write(data []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(data)
	rw.bytes += int64(n)
	return n, err
}

/*
 * bunrouter middlewares based on bunrouter.HandlerFunc (http.HandlerFunc)
 */

// bunrouter logging middleware implementation
func bunrouterLoggingMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, r bunrouter.Request) error {
		start := time.Now()
		wrapped := wrapResponseWriter(w)
		err := next(wrapped, r)
		logRequest(w, r.Request, start, wrapped.Status(), wrapped.bytes)
		return err
	}
}

// bunrouter limiter middleware implementation, based on
// https://github.com/ulule/limiter/blob/master/drivers/middleware/stdlib/middleware.go#L36
func bunrouterLimitMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		r := req.Request
		key := limiterMiddleware.KeyGetter(r)
		if limiterMiddleware.ExcludedKey != nil && limiterMiddleware.ExcludedKey(key) {
			return next(w, req)
		}

		context, err := limiterMiddleware.Limiter.Get(r.Context(), key)
		if err != nil {
			limiterMiddleware.OnError(w, r, err)
			return err
		}

		w.Header().Add("X-RateLimit-Limit", strconv.FormatInt(context.Limit, 10))
		w.Header().Add("X-RateLimit-Remaining", strconv.FormatInt(context.Remaining, 10))
		w.Header().Add("X-RateLimit-Reset", strconv.FormatInt(context.Reset, 10))

		if context.Reached {
			limiterMiddleware.OnLimitReached(w, r)
			return nil
		}
		// execute next ServeHTTP middleware/step
		return next(w, req)
	}
}
