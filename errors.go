/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Seednode/codenames/games/codenames"
)

var (
	errBadRequest   = errors.New("bad request")
	errUnauthorized = errors.New("missing or invalid player token")
	errAdminOnly    = errors.New("admin endpoints are disabled")
)

func newLogger(cfg *Config) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.verbose {
		level = zerolog.DebugLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: logDate,
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(getFavicon())
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, errAdminOnly):
		return http.StatusForbidden, "admin_only"
	}

	code := codenames.CodeOf(err)
	switch code {
	case codenames.CodeRoomNotFound, codenames.CodeWordBankNotFound:
		return http.StatusNotFound, string(code)
	case codenames.CodeRoomExists, codenames.CodeWordBankExists,
		codenames.CodeAlreadyRevealed, codenames.CodeWrongTurn,
		codenames.CodeGameFinished, codenames.CodeConflict:
		return http.StatusConflict, string(code)
	case codenames.CodeForbiddenRole:
		return http.StatusForbidden, string(code)
	case codenames.CodeInvalidPlayerData, codenames.CodeInvalidCard,
		codenames.CodeInvalidRoomID, codenames.CodeInvalidWordBank,
		codenames.CodeInsufficientWords:
		return http.StatusUnprocessableEntity, string(code)
	case codenames.CodeMalformedState:
		return http.StatusInternalServerError, string(code)
	}
	return http.StatusInternalServerError, "internal"
}

// serveError reports err as JSON. Internal failures are logged and their
// details kept from the client.
func serveError(cfg *Config, logger zerolog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Str("ip", realIP(r)).Msg("SERVE: Request failed")
		message = http.StatusText(status)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(apiError{Error: code, Message: message})
}
