package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kanban-board/middleware"
	"kanban-board/models"
	"kanban-board/repositories"
	"kanban-board/services"
	"kanban-board/utils"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/suite"
)

type TaskHandlerTestSuite struct {
	suite.Suite
	repo    *repositories.InMemoryTaskRepository
	service *services.TaskService
	board   *services.BoardService
	router  *mux.Router
	token   string
}

func (suite *TaskHandlerTestSuite) SetupTest() {
	suite.T().Setenv("JWT_SECRET", "test-secret")

	suite.repo = repositories.NewInMemoryTaskRepository()
	suite.service = services.NewTaskService(suite.repo)
	suite.board = services.NewBoardService(suite.repo)

	handler := NewTaskHandler(suite.service, suite.board)

	// Rute kao u main.go
	suite.router = mux.NewRouter()
	board := suite.router.PathPrefix("/api").Subrouter()
	board.Use(middleware.JWTAuthMiddleware)
	board.HandleFunc("/tasks", handler.GetBoard).Methods(http.MethodGet)
	board.HandleFunc("/tasks", handler.CreateTask).Methods(http.MethodPost)
	board.HandleFunc("/tasks/stream", handler.StreamBoard).Methods(http.MethodGet)
	board.HandleFunc("/tasks/{id}", handler.DeleteTask).Methods(http.MethodDelete)
	board.HandleFunc("/tasks/{id}/status", handler.ChangeTaskStatus).Methods(http.MethodPatch)
	board.HandleFunc("/session/detail", handler.OpenDetail).Methods(http.MethodPut)
	board.HandleFunc("/session/detail", handler.CloseDetail).Methods(http.MethodDelete)
	board.HandleFunc("/session/filter", handler.SetFilter).Methods(http.MethodPut)

	token, err := utils.GenerateToken("user-1", true)
	suite.Require().NoError(err)
	suite.token = token
}

func (suite *TaskHandlerTestSuite) TearDownTest() {
	suite.board.Close()
}

func (suite *TaskHandlerTestSuite) doRequest(method, target string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.token)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *TaskHandlerTestSuite) boardView(target string) services.BoardView {
	w := suite.doRequest(http.MethodGet, target, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var view services.BoardView
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &view))
	return view
}

func (suite *TaskHandlerTestSuite) TestCreateTask() {
	w := suite.doRequest(http.MethodPost, "/api/tasks", map[string]string{"content": "Write tests"})
	suite.Equal(http.StatusCreated, w.Code)

	var task models.Task
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &task))
	suite.Equal("Write tests", task.Content)
	suite.Equal(models.StatusTodo, task.Status)

	view := suite.boardView("/api/tasks")
	suite.Len(view.Todo, 1)
	suite.Empty(view.InProgress)
	suite.Empty(view.Done)
}

func (suite *TaskHandlerTestSuite) TestCreateTaskWhitespaceRejected() {
	w := suite.doRequest(http.MethodPost, "/api/tasks", map[string]string{"content": "   "})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(0, suite.repo.WriteCount)
}

func (suite *TaskHandlerTestSuite) TestRequestWithoutTokenRejected() {
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *TaskHandlerTestSuite) TestChangeTaskStatus() {
	task, err := suite.service.CreateTask(context.Background(), "Write tests")
	suite.Require().NoError(err)

	w := suite.doRequest(http.MethodPatch, "/api/tasks/"+task.ID.Hex()+"/status", map[string]string{"status": "done"})
	suite.Equal(http.StatusOK, w.Code)

	var result struct {
		Task  models.Task `json:"task"`
		Moved bool        `json:"moved"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &result))
	suite.True(result.Moved)
	suite.Equal(models.StatusDone, result.Task.Status)
	suite.Equal("Write tests", result.Task.Content)

	view := suite.boardView("/api/tasks")
	suite.Empty(view.Todo)
	suite.Len(view.Done, 1)
}

func (suite *TaskHandlerTestSuite) TestChangeTaskStatusSameColumnIsNoOp() {
	task, err := suite.service.CreateTask(context.Background(), "Write tests")
	suite.Require().NoError(err)
	writesAfterCreate := suite.repo.WriteCount

	w := suite.doRequest(http.MethodPatch, "/api/tasks/"+task.ID.Hex()+"/status", map[string]string{"status": "todo"})
	suite.Equal(http.StatusOK, w.Code)

	var result struct {
		Moved bool `json:"moved"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &result))
	suite.False(result.Moved)
	suite.Equal(writesAfterCreate, suite.repo.WriteCount)
}

func (suite *TaskHandlerTestSuite) TestChangeTaskStatusUnknownStatusRejected() {
	task, err := suite.service.CreateTask(context.Background(), "Write tests")
	suite.Require().NoError(err)

	w := suite.doRequest(http.MethodPatch, "/api/tasks/"+task.ID.Hex()+"/status", map[string]string{"status": "archived"})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestDeleteTask() {
	task, err := suite.service.CreateTask(context.Background(), "Write tests")
	suite.Require().NoError(err)

	w := suite.doRequest(http.MethodDelete, "/api/tasks/"+task.ID.Hex(), nil)
	suite.Equal(http.StatusNoContent, w.Code)

	// Ponovljeno brisanje: zadatak više ne postoji
	w = suite.doRequest(http.MethodDelete, "/api/tasks/"+task.ID.Hex(), nil)
	suite.Equal(http.StatusNotFound, w.Code)

	view := suite.boardView("/api/tasks")
	suite.Empty(view.Todo)
	suite.Empty(view.InProgress)
	suite.Empty(view.Done)
}

func (suite *TaskHandlerTestSuite) TestBoardFilter() {
	task, err := suite.service.CreateTask(context.Background(), "Write tests")
	suite.Require().NoError(err)
	_, _, err = suite.service.MoveTask(context.Background(), task.ID.Hex(), models.StatusDone)
	suite.Require().NoError(err)
	_, err = suite.service.CreateTask(context.Background(), "Plan team meeting agenda")
	suite.Require().NoError(err)

	view := suite.boardView("/api/tasks?filter=done")
	suite.Empty(view.Todo)
	suite.Empty(view.InProgress)
	suite.Len(view.Done, 1)

	w := suite.doRequest(http.MethodGet, "/api/tasks?filter=archived", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestStreamBoardDeliversSnapshots() {
	_, err := suite.service.CreateTask(context.Background(), "Write tests")
	suite.Require().NoError(err)

	server := httptest.NewServer(suite.router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/tasks/stream", nil)
	suite.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+suite.token)

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	suite.Equal("text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	sawSession := false
	sawSnapshot := false
	for !sawSession || !sawSnapshot {
		line, err := reader.ReadString('\n')
		suite.Require().NoError(err)
		if strings.HasPrefix(line, "event: session") {
			sawSession = true
		}
		if strings.HasPrefix(line, "event: snapshot") {
			sawSnapshot = true
			data, err := reader.ReadString('\n')
			suite.Require().NoError(err)
			suite.Contains(data, "Write tests")
		}
	}
}

func (suite *TaskHandlerTestSuite) TestSetFilter() {
	session, err := suite.board.Subscribe(context.Background(), "user-1", services.FilterAll)
	suite.Require().NoError(err)

	w := suite.doRequest(http.MethodPut, "/api/session/filter", map[string]string{"sessionId": session.ID, "filter": "done"})
	suite.Equal(http.StatusNoContent, w.Code)
	suite.Equal(services.FilterSelector(models.StatusDone), session.Filter())

	w = suite.doRequest(http.MethodPut, "/api/session/filter", map[string]string{"sessionId": session.ID, "filter": "archived"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.doRequest(http.MethodPut, "/api/session/filter", map[string]string{"sessionId": "no-such-session", "filter": "all"})
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestOpenDetailUnknownSessionRejected() {
	w := suite.doRequest(http.MethodPut, "/api/session/detail", map[string]string{
		"sessionId": "no-such-session",
		"taskId":    "whatever",
	})
	suite.Equal(http.StatusNotFound, w.Code)
}

func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
