package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gurkanbulca/kanban/internal/service"
)

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.board.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]any, 0, len(users))
	for i := range users {
		out = append(out, users[i].JSON())
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.tags.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tags)
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTagRequest
	readJSON(r, &req)

	tag, err := s.tags.Create(r.Context(), &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, tag)
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	patch := map[string]any{}
	readJSON(r, &patch)

	tag, err := s.tags.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tag)
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := s.tags.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCardRequest
	readJSON(r, &req)

	card, err := s.cards.Create(r.Context(), &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, card)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	patch := map[string]any{}
	readJSON(r, &patch)

	card, err := s.cards.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleMoveCard(w http.ResponseWriter, r *http.Request) {
	var req service.MoveCardRequest
	readJSON(r, &req)

	result, err := s.cards.Move(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleArchiveCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.cards.Archive(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleUnarchiveCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.cards.Unarchive(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleArchivedCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.cards.Archived(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleAddSubtask(w http.ResponseWriter, r *http.Request) {
	var req service.SubtaskRequest
	readJSON(r, &req)

	subtask, err := s.cards.AddSubtask(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, subtask)
}

func (s *Server) handleUpdateSubtask(w http.ResponseWriter, r *http.Request) {
	patch := map[string]any{}
	readJSON(r, &patch)

	subtask, err := s.cards.UpdateSubtask(r.Context(), r.PathValue("id"), r.PathValue("subId"), patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, subtask)
}

func (s *Server) handleDeleteSubtask(w http.ResponseWriter, r *http.Request) {
	if err := s.cards.DeleteSubtask(r.Context(), r.PathValue("id"), r.PathValue("subId")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readJSON decodes the request body into dst. Missing or malformed bodies
// leave dst at its zero value; validation downstream produces the client
// error, matching the lenient body handling clients already rely on.
func readJSON(r *http.Request, dst any) {
	if r.Body == nil {
		return
	}
	defer r.Body.Close()
	_ = json.NewDecoder(r.Body).Decode(dst)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Message})
		return
	}

	var nerr *service.NotFoundError
	if errors.As(err, &nerr) {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": nerr.Error()})
		return
	}

	s.logger.Error("request failed", "err", err)
	s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
