package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/livetemplate/studio/internal/builder"
	"github.com/livetemplate/studio/internal/export"
	"github.com/livetemplate/studio/internal/importer"
	"github.com/livetemplate/studio/internal/preview"
	"github.com/livetemplate/studio/internal/store"
	"github.com/livetemplate/studio/internal/workspace"
)

// autoTarget lets the import endpoint infer the target from the file name.
const autoTarget = "auto"

func (s *Server) handleGetBuffers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buffersPayload{Project: s.workspace.Project(), Snapshot: s.workspace.Snapshot()})
}

func (s *Server) handlePutBuffer(w http.ResponseWriter, r *http.Request) {
	key, ok := workspace.ParseKey(r.PathValue("key"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, fmt.Sprintf("unknown buffer %q", r.PathValue("key")))
		return
	}

	var req bufferRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.Import.GetMaxSize())).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "value is required")
		return
	}
	if key == workspace.Background && !builder.ValidColor(*req.Value) {
		writeJSONError(w, http.StatusBadRequest, "background must be a hex colour")
		return
	}

	if err := s.workspace.Set(r.Context(), key, *req.Value); err != nil {
		s.apiLog.Error("buffer write failed", zap.String("key", string(key)), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to save buffer")
		return
	}
	s.handleGetBuffers(w, r)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.GetMaxSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "expected multipart form with a file field")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	name := r.PathValue("target")
	var target workspace.Key
	var ok bool
	if name == autoTarget {
		target, ok = importer.TargetForFile(header.Filename)
	} else {
		target, ok = importer.ParseTarget(name)
	}
	if !ok {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("cannot import %q into %q", header.Filename, name))
		return
	}

	text, err := s.importer.Read(target, header.Filename, file)
	switch {
	case errors.Is(err, importer.ErrTooLarge):
		writeJSONError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	case err != nil:
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.workspace.Set(r.Context(), target, text); err != nil {
		s.apiLog.Error("import write failed", zap.String("target", string(target)), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to save import")
		return
	}
	s.apiLog.Info("imported", zap.String("file", header.Filename), zap.String("target", string(target)))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"target": target,
		"file":   header.Filename,
		"size":   len(text),
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	snap := s.workspace.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", preview.CSP)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(preview.Compose(snap.HTML, snap.CSS, snap.JS)))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := export.WriteZip(&buf, s.workspace.Snapshot()); err != nil {
		s.apiLog.Error("export failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(s.workspace.Project())))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	pub, err := s.publisher.Publish(r.Context(), s.workspace.Project())
	if err != nil {
		s.apiLog.Error("publish failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "publish failed")
		return
	}
	s.apiLog.Info("published", zap.String("id", pub.ID), zap.String("url", pub.URL))
	writeJSON(w, http.StatusCreated, pub)
}

func (s *Server) handlePublications(w http.ResponseWriter, r *http.Request) {
	pubs, err := s.publisher.List(r.Context(), s.workspace.Project())
	if err != nil {
		s.apiLog.Error("list publications failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to list publications")
		return
	}
	if pubs == nil {
		pubs = []store.Publication{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"publications": pubs})
}

// handleFavicon serves the workspace favicon decoded from its data URL.
func (s *Server) handleFavicon(w http.ResponseWriter, r *http.Request) {
	mime, data, ok := decodeDataURL(s.workspace.Get(workspace.Favicon))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", mime)
	_, _ = w.Write(data)
}

func decodeDataURL(u string) (string, []byte, bool) {
	rest, ok := strings.CutPrefix(u, "data:")
	if !ok {
		return "", nil, false
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, false
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, false
	}
	return mime, data, true
}
