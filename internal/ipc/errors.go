package ipc

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/rpc"
	"strings"

	"auditdesk/internal/api"
	"auditdesk/internal/services"
)

// encodeError flattens err into the "[kind] message" form carried by
// net/rpc. Not-found IO failures use the kind "io:not_found".
func encodeError(err error) error {
	if err == nil {
		return nil
	}
	kind := services.Kind(err)
	if kind == "io" && errors.Is(err, fs.ErrNotExist) {
		kind = "io:not_found"
	}
	return fmt.Errorf("[%s] %s", kind, api.ErrorMessage(err))
}

// decodeError turns an rpc.ServerError back into an *api.RemoteError.
// Transport errors are returned unchanged.
func decodeError(err error) error {
	var serverErr rpc.ServerError
	if !errors.As(err, &serverErr) {
		return err
	}
	msg := string(serverErr)
	remote := &api.RemoteError{Status: http.StatusInternalServerError, Message: msg}
	if !strings.HasPrefix(msg, "[") {
		return remote
	}
	end := strings.Index(msg, "] ")
	if end < 0 {
		return remote
	}
	kind := msg[1:end]
	remote.Message = msg[end+2:]
	if kind == "io:not_found" {
		kind = "io"
		remote.Status = http.StatusNotFound
	}
	remote.Kind = kind
	if status := statusForKind(kind); status != 0 && remote.Status != http.StatusNotFound {
		remote.Status = status
	}
	return remote
}

func statusForKind(kind string) int {
	switch kind {
	case "validation":
		return http.StatusBadRequest
	case "decode":
		return http.StatusUnprocessableEntity
	case "io", "encoding", "internal":
		return http.StatusInternalServerError
	default:
		return 0
	}
}
