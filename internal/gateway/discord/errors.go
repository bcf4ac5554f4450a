package discord

import (
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"

	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

// JSON error codes the adapter cares about.
const (
	CodeUnknownChannel = 10003
	CodeUnknownMember  = 10007
	CodeUnknownUser    = 10013
	CodeMissingAccess  = 50001
	CodeMissingPerms   = 50013
)

func restError(err error) *discordgo.RESTError {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) {
		return rest
	}
	return nil
}

func statusOf(err error) int {
	if rest := restError(err); rest != nil && rest.Response != nil {
		return rest.Response.StatusCode
	}
	return 0
}

func codeOf(err error) int {
	if rest := restError(err); rest != nil && rest.Message != nil {
		return rest.Message.Code
	}
	return 0
}

// IsStatus reports whether err is a REST error with the given HTTP status.
func IsStatus(err error, status int) bool {
	return statusOf(err) == status
}

// IsCode reports whether err is a REST error with the given JSON code.
func IsCode(err error, code int) bool {
	return code != 0 && codeOf(err) == code
}

// classify maps a REST failure onto the engine's gateway error kinds.
// Exhausted rate-limit retries count as unavailable.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusForbidden) {
		return apperrors.NewPermissionDenied(op, err)
	}
	return apperrors.NewGatewayUnavailable(op, err)
}
