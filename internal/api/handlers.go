// Package api exposes SVFS over HTTP: the in-scope "external
// collaborator" that plays the role the core spec assigns to an
// out-of-scope host-language binding, just over HTTP instead of FFI
// (§11.2 of SPEC_FULL.md).
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/dittofs/internal/logger"
	"github.com/marmos91/dittofs/pkg/bufpool"
	"github.com/marmos91/dittofs/pkg/svfs"
)

// Handler holds the shared SVFS the HTTP routes delegate to.
type Handler struct {
	system           *svfs.SVFS
	defaultGreedyLen uint64
}

// NewHandler creates a Handler delegating to system. defaultGreedyLen is
// used by Need when the caller omits the greedy query parameter.
func NewHandler(system *svfs.SVFS, defaultGreedyLen uint64) *Handler {
	return &Handler{system: system, defaultGreedyLen: defaultGreedyLen}
}

func parseUint(r *http.Request, name string, def uint64) (uint64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	return v, err == nil
}

func idParam(r *http.Request) string { return chi.URLParam(r, "id") }

// --- SVFS container routes ---

type insertRequest struct {
	ModTime float64 `json:"mod_time"`
}

// Insert handles POST /v1/svfs/{id}.
func (h *Handler) Insert(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	var req insertRequest
	_ = readJSONBody(r, &req) // a missing/empty body means mod_time defaults to 0

	if err := h.system.Insert(id, req.ModTime); err != nil {
		writeCoreError(w, err)
		return
	}
	logger.Info("svfs insert", logger.SVFID(id))
	w.WriteHeader(http.StatusCreated)
}

// Remove handles DELETE /v1/svfs/{id}.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if err := h.system.Remove(id); err != nil {
		writeCoreError(w, err)
		return
	}
	logger.Info("svfs remove", logger.SVFID(id))
	w.WriteHeader(http.StatusNoContent)
}

// Keys handles GET /v1/svfs.
func (h *Handler) Keys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"keys": h.system.Keys()})
}

// Stats handles GET /v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"size_of":    h.system.TotalSizeOf(),
		"num_bytes":  h.system.TotalBytes(),
		"num_blocks": h.system.TotalBlocks(),
	})
}

// PuntAll handles POST /v1/svfs/punt?budget=.
func (h *Handler) PuntAll(w http.ResponseWriter, r *http.Request) {
	budget, ok := parseUint(r, "budget", 0)
	if !ok {
		badRequest(w, "budget must be a non-negative integer")
		return
	}
	removed := h.system.LRUPuntAll(budget)
	writeJSON(w, http.StatusOK, map[string]any{"bytes_removed": removed})
}

// --- Per-SVF routes ---

// Has handles GET /v1/svfs/{id}/has?fpos=&len=.
func (h *Handler) Has(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	fpos, ok1 := parseUint(r, "fpos", 0)
	length, ok2 := parseUint(r, "len", 0)
	if !ok1 || !ok2 {
		badRequest(w, "fpos and len must be non-negative integers")
		return
	}

	has, err := h.system.Has(id, fpos, length)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"has": has})
}

// Write handles PUT /v1/svfs/{id}/blocks?fpos= with the raw bytes as body.
func (h *Handler) Write(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	fpos, ok := parseUint(r, "fpos", 0)
	if !ok {
		badRequest(w, "fpos must be a non-negative integer")
		return
	}

	staging := bufpool.Get(int(r.ContentLength))
	defer bufpool.Put(staging)

	n, err := io.ReadFull(r.Body, staging)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		badRequest(w, "failed to read request body: "+err.Error())
		return
	}

	// The payload a block keeps for its lifetime must be owned by the
	// block, never a pooled slice that could be reused out from under it.
	owned := make([]byte, n)
	copy(owned, staging[:n])

	if err := h.system.Write(id, fpos, owned); err != nil {
		writeCoreError(w, err)
		return
	}
	logger.Debug("svfs write", logger.SVFID(id), logger.FPos(fpos), logger.Count(uint32(n)))
	w.WriteHeader(http.StatusNoContent)
}

// Read handles GET /v1/svfs/{id}/blocks?fpos=&len=.
func (h *Handler) Read(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	fpos, ok1 := parseUint(r, "fpos", 0)
	length, ok2 := parseUint(r, "len", 0)
	if !ok1 || !ok2 {
		badRequest(w, "fpos and len must be non-negative integers")
		return
	}

	data, err := h.system.Read(id, fpos, length)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	staging := bufpool.Get(len(data))
	defer bufpool.Put(staging)
	copy(staging, data)

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(staging[:len(data)])
}

// Need handles GET /v1/svfs/{id}/need?fpos=&len=&greedy=.
func (h *Handler) Need(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	fpos, ok1 := parseUint(r, "fpos", 0)
	length, ok2 := parseUint(r, "len", 0)
	greedy, ok3 := parseUint(r, "greedy", h.defaultGreedyLen)
	if !ok1 || !ok2 || !ok3 {
		badRequest(w, "fpos, len and greedy must be non-negative integers")
		return
	}

	instrs, err := h.system.Need(id, fpos, length, greedy)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	logger.Debug("svfs need", logger.SVFID(id), logger.FPos(fpos), logger.GreedyLen(greedy))

	out := make([]map[string]uint64, len(instrs))
	for i, ins := range instrs {
		out[i] = map[string]uint64{"fpos": ins.FPos, "len": ins.Len}
	}
	writeJSON(w, http.StatusOK, map[string]any{"need": out})
}

// Erase handles DELETE /v1/svfs/{id}/blocks?fpos=.
func (h *Handler) Erase(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	fpos, ok := parseUint(r, "fpos", 0)
	if !ok {
		badRequest(w, "fpos must be a non-negative integer")
		return
	}

	if err := h.system.Erase(id, fpos); err != nil {
		writeCoreError(w, err)
		return
	}
	logger.Debug("svfs erase", logger.SVFID(id), logger.FPos(fpos))
	w.WriteHeader(http.StatusNoContent)
}

// Blocks handles GET /v1/svfs/{id}/blocks/list.
func (h *Handler) Blocks(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	blocks, err := h.system.Blocks(id)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	logger.Debug("svfs blocks", logger.SVFID(id), logger.BlockCount(len(blocks)))

	out := make([]map[string]uint64, len(blocks))
	for i, b := range blocks {
		out[i] = map[string]uint64{"fpos": b.FPos, "size": b.Size}
	}
	writeJSON(w, http.StatusOK, map[string]any{"blocks": out})
}

// Touches handles GET /v1/svfs/{id}/touches.
func (h *Handler) Touches(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	touches, err := h.system.BlockTouches(id)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"touches": touches})
}

// Punt handles POST /v1/svfs/{id}/punt?budget=.
func (h *Handler) Punt(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	budget, ok := parseUint(r, "budget", 0)
	if !ok {
		badRequest(w, "budget must be a non-negative integer")
		return
	}

	removed, err := h.system.LRUPunt(id, budget)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	logger.Debug("svfs punt", logger.SVFID(id), logger.ByteBudget(budget), logger.BytesEvicted(removed))
	writeJSON(w, http.StatusOK, map[string]any{"bytes_removed": removed})
}

// Stat handles GET /v1/svfs/{id}/stat.
func (h *Handler) Stat(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	st, err := h.system.Stat(id)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func readJSONBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}
