package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"kanban-board/logging"
	"kanban-board/models"
	"kanban-board/repositories"
	"kanban-board/services"
	"kanban-board/utils"

	"github.com/gorilla/mux"
)

type TaskHandler struct {
	service *services.TaskService
	board   *services.BoardService
}

func NewTaskHandler(service *services.TaskService, board *services.BoardService) *TaskHandler {
	return &TaskHandler{service: service, board: board}
}

// filterFromRequest čita aktivni filter iz query parametra, podrazumevano "all".
func filterFromRequest(r *http.Request) (services.FilterSelector, error) {
	raw := r.URL.Query().Get("filter")
	if raw == "" {
		return services.FilterAll, nil
	}
	filter := services.FilterSelector(raw)
	if !filter.IsValid() {
		return "", fmt.Errorf("unknown filter: %s", raw)
	}
	return filter, nil
}

func userIDFromRequest(r *http.Request) string {
	tokenStr := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	userID, err := utils.GetUserIDFromToken(tokenStr)
	if err != nil {
		return ""
	}
	return userID
}

// GetBoard vraća tablu podeljenu po kolonama, kroz aktivni filter.
func (h *TaskHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tasks, err := h.service.GetAllTasks(r.Context())
	if err != nil {
		logging.Logger.Errorf("Event ID: BOARD_READ_FAILED, Description: Failed to read board: %v", err)
		http.Error(w, "Failed to read board", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(services.BuildBoardView(tasks, filter))
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	task, err := h.service.CreateTask(r.Context(), payload.Content)
	if err != nil {
		if errors.Is(err, services.ErrEmptyContent) {
			http.Error(w, "Task content must not be empty", http.StatusBadRequest)
			return
		}
		logging.Logger.Errorf("Event ID: TASK_CREATE_FAILED, Description: Failed to create task: %v", err)
		http.Error(w, "Failed to create task", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	taskID := vars["id"]

	if err := h.service.DeleteTask(r.Context(), taskID); err != nil {
		if errors.Is(err, services.ErrInvalidTaskID) || errors.Is(err, repositories.ErrTaskNotFound) {
			http.Error(w, "Task not found", http.StatusNotFound)
			return
		}
		logging.Logger.Errorf("Event ID: TASK_DELETE_FAILED, Description: Failed to delete task %s: %v", taskID, err)
		http.Error(w, "Failed to delete task", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ChangeTaskStatus prebacuje zadatak u ciljnu kolonu (drop na kolonu).
func (h *TaskHandler) ChangeTaskStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	taskID := vars["id"]

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	task, moved, err := h.service.MoveTask(r.Context(), taskID, models.TaskStatus(payload.Status))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			http.Error(w, "Unknown task status", http.StatusBadRequest)
		case errors.Is(err, services.ErrInvalidTaskID), errors.Is(err, repositories.ErrTaskNotFound):
			http.Error(w, "Task not found", http.StatusNotFound)
		default:
			logging.Logger.Errorf("Event ID: TASK_MOVE_FAILED, Description: Failed to move task %s: %v", taskID, err)
			http.Error(w, "Failed to move task", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"task":  task,
		"moved": moved,
	})
}

// StreamBoard drži otvoren SSE kanal i šalje kompletan snapshot table na
// svaku promenu u skladištu. Pretplata se gasi sa prekidom zahteva.
func (h *TaskHandler) StreamBoard(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	filter, err := filterFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	session, err := h.board.Subscribe(r.Context(), userIDFromRequest(r), filter)
	if err != nil {
		logging.Logger.Errorf("Event ID: SUBSCRIBE_FAILED, Description: Failed to open board subscription: %v", err)
		http.Error(w, "Failed to open board subscription", http.StatusInternalServerError)
		return
	}
	defer h.board.Unsubscribe(session.ID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: session\ndata: {\"sessionId\":%q}\n\n", session.ID)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot, open := <-session.Snapshots():
			if !open {
				return
			}
			view := services.BuildBoardView(snapshot, session.Filter())
			data, err := json.Marshal(view)
			if err != nil {
				logging.Logger.Errorf("Event ID: SNAPSHOT_ENCODE_FAILED, Description: Failed to encode snapshot: %v", err)
				continue
			}
			fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// OpenDetail otvara detaljni prikaz zadatka za datu sesiju.
func (h *TaskHandler) OpenDetail(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		TaskID    string `json:"taskId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := h.board.OpenDetail(payload.SessionID, payload.TaskID); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetFilter menja aktivni filter sesije (dugmad za filtriranje kolona).
func (h *TaskHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Filter    string `json:"filter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	filter := services.FilterSelector(payload.Filter)
	if !filter.IsValid() {
		http.Error(w, "Unknown filter", http.StatusBadRequest)
		return
	}

	if err := h.board.SetSessionFilter(payload.SessionID, filter); err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) CloseDetail(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "sessionId is required", http.StatusBadRequest)
		return
	}

	h.board.CloseDetail(sessionID)
	w.WriteHeader(http.StatusNoContent)
}
