package api

import (
	"errors"
	"net/http"

	"github.com/marmos91/dittofs/pkg/svf"
	"github.com/marmos91/dittofs/pkg/svfs"
)

// writeCoreError maps a core svf/svfs error to the HTTP status the
// teacher's NFS/SMB status-mapping tables use for the equivalent
// protocol, translated to HTTP (§11.2): Diff failures become 409
// Conflict, Read range failures become 416, Erase failures and NotFound
// become 404, AlreadyExists becomes 409.
func writeCoreError(w http.ResponseWriter, err error) {
	var diffErr *svf.DiffError
	var readErr *svf.ReadError
	var eraseErr *svf.EraseError
	var notFoundErr *svfs.NotFoundError
	var existsErr *svfs.AlreadyExistsError

	switch {
	case errors.As(err, &diffErr):
		conflictProblem(w, diffErr.Error())
	case errors.As(err, &readErr):
		rangeNotSatisfiable(w, readErr.Error())
	case errors.As(err, &eraseErr):
		notFoundProblem(w, eraseErr.Error())
	case errors.As(err, &notFoundErr):
		notFoundProblem(w, notFoundErr.Error())
	case errors.As(err, &existsErr):
		conflictProblem(w, existsErr.Error())
	default:
		internalProblem(w, err.Error())
	}
}
