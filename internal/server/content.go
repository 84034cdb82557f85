package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"curio/internal/store"
)

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) handleListPractices(w http.ResponseWriter, r *http.Request) {
	practices, err := s.db.ListPractices(r.Context())
	if err != nil {
		s.log.Error("list practices", zap.Error(err))
		s.fail(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	s.respond(w, r, http.StatusOK, practices)
}

func (s *Server) handleCreatePractice(w http.ResponseWriter, r *http.Request) {
	var p store.Practice
	if err := decodeBody(r, &p); err != nil || p.Title == "" {
		s.fail(w, r, http.StatusBadRequest, "missing parameter: title")
		return
	}
	created, err := s.db.CreatePractice(r.Context(), p)
	if err != nil {
		s.log.Error("create practice", zap.Error(err))
		s.fail(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	s.respond(w, r, http.StatusCreated, created)
}

func (s *Server) handleUpdatePractice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var p store.Practice
	if err := decodeBody(r, &p); err != nil || p.Title == "" {
		s.fail(w, r, http.StatusBadRequest, "missing parameter: title")
		return
	}
	if err := s.db.UpdatePractice(r.Context(), id, p.Title, p.Subtitle, p.Description); err != nil {
		s.log.Error("update practice", zap.Int64("id", id), zap.Error(err))
		s.fail(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	s.respond(w, r, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeletePractice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.db.DeletePractice(r.Context(), id); err != nil {
		s.log.Error("delete practice", zap.Int64("id", id), zap.Error(err))
		s.fail(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	s.respond(w, r, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	images, err := s.db.ListImages(r.Context())
	if err != nil {
		s.log.Error("list images", zap.Error(err))
		s.fail(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	s.respond(w, r, http.StatusOK, images)
}

func (s *Server) handleCreateImage(w http.ResponseWriter, r *http.Request) {
	var img store.Image
	if err := decodeBody(r, &img); err != nil || img.Title == "" {
		s.fail(w, r, http.StatusBadRequest, "missing parameter: title")
		return
	}
	created, err := s.db.CreateImage(r.Context(), img)
	if err != nil {
		s.log.Error("create image", zap.Error(err))
		s.fail(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	s.respond(w, r, http.StatusCreated, created)
}

func (s *Server) handleUpdateImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var img store.Image
	if err := decodeBody(r, &img); err != nil || img.Title == "" {
		s.fail(w, r, http.StatusBadRequest, "missing parameter: title")
		return
	}
	if err := s.db.UpdateImage(r.Context(), id, img.Title, img.Prompt, img.ImageURL, img.Description); err != nil {
		s.log.Error("update image", zap.Int64("id", id), zap.Error(err))
		s.fail(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	s.respond(w, r, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.db.DeleteImage(r.Context(), id); err != nil {
		s.log.Error("delete image", zap.Int64("id", id), zap.Error(err))
		s.fail(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	s.respond(w, r, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.db.ListPosts(r.Context())
	if err != nil {
		s.log.Error("list posts", zap.Error(err))
		s.fail(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	s.respond(w, r, http.StatusOK, posts)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var p store.Post
	if err := decodeBody(r, &p); err != nil || p.Title == "" {
		s.fail(w, r, http.StatusBadRequest, "missing parameter: title")
		return
	}
	created, err := s.db.CreatePost(r.Context(), p)
	if err != nil {
		s.log.Error("create post", zap.Error(err))
		s.fail(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	s.respond(w, r, http.StatusCreated, created)
}
