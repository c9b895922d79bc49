package services

import (
	"context"
	"errors"
	"sync"

	"kanban-board/logging"
	"kanban-board/models"
	"kanban-board/repositories"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// BoardService je menadžer pretplata: drži tačno jednu živu pretplatu na
// kolekciju zadataka i na svaku promenu isporučuje KOMPLETAN snapshot svim
// prijavljenim sesijama, nikad delte.
type BoardService struct {
	repo repositories.TaskRepository

	mu          sync.Mutex
	sessions    map[string]*BoardSession
	watchCancel context.CancelFunc
	lastTasks   []models.Task
	hasLast     bool
}

// BoardSession je lokalni keš jednog klijenta: lista zadataka koja se na
// svaki snapshot zamenjuje u celosti, plus pokazivač na otvoren detaljni
// prikaz i aktivni filter.
type BoardSession struct {
	ID     string
	UserID string

	mu         sync.Mutex
	filter     FilterSelector
	tasks      []models.Task
	openTaskID string

	snapshots chan []models.Task
}

func NewBoardService(repo repositories.TaskRepository) *BoardService {
	return &BoardService{
		repo:     repo,
		sessions: make(map[string]*BoardSession),
	}
}

// Subscribe registruje novu sesiju i odmah joj isporučuje početni snapshot.
// Prva sesija pokreće posmatranje skladišta.
func (b *BoardService) Subscribe(ctx context.Context, userID string, filter FilterSelector) (*BoardSession, error) {
	tasks, err := b.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	session := &BoardSession{
		ID:        uuid.New().String(),
		UserID:    userID,
		filter:    filter,
		snapshots: make(chan []models.Task, 1),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.sessions[session.ID] = session
	if b.watchCancel == nil {
		watchCtx, cancel := context.WithCancel(context.Background())
		b.watchCancel = cancel
		// Pretplata na promene se otvara odmah, pre povratka iz Subscribe,
		// da se promena upisana odmah posle prijave ne izgubi.
		changes := b.repo.Changes(watchCtx)
		go b.run(watchCtx, changes)
	}

	b.deliver(session, tasks)
	logging.Logger.Infof("Event ID: SESSION_SUBSCRIBED, Description: Session %s subscribed for user %s.", session.ID, userID)
	return session, nil
}

// Unsubscribe gasi sesiju; poslednja sesija gasi i posmatranje skladišta.
func (b *BoardService) Unsubscribe(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	session, ok := b.sessions[sessionID]
	if !ok {
		return
	}
	delete(b.sessions, sessionID)
	close(session.snapshots)

	if len(b.sessions) == 0 && b.watchCancel != nil {
		b.watchCancel()
		b.watchCancel = nil
	}
	logging.Logger.Infof("Event ID: SESSION_UNSUBSCRIBED, Description: Session %s unsubscribed.", sessionID)
}

// Close gasi sve sesije i posmatranje skladišta.
func (b *BoardService) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, session := range b.sessions {
		close(session.snapshots)
		delete(b.sessions, id)
	}
	if b.watchCancel != nil {
		b.watchCancel()
		b.watchCancel = nil
	}
}

// OpenDetail otvara detaljni prikaz zadatka u okviru sesije. Zadatak mora
// postojati u trenutnom lokalnom kešu sesije.
func (b *BoardService) OpenDetail(sessionID, taskID string) error {
	b.mu.Lock()
	session, ok := b.sessions[sessionID]
	b.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	for _, task := range session.tasks {
		if task.ID.Hex() == taskID {
			session.openTaskID = taskID
			return nil
		}
	}
	return repositories.ErrTaskNotFound
}

// SetSessionFilter menja aktivni filter sesije; naredni snapshot-i i View
// se seku kroz novi filter.
func (b *BoardService) SetSessionFilter(sessionID string, filter FilterSelector) error {
	b.mu.Lock()
	session, ok := b.sessions[sessionID]
	b.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	session.SetFilter(filter)
	return nil
}

func (b *BoardService) CloseDetail(sessionID string) {
	b.mu.Lock()
	session, ok := b.sessions[sessionID]
	b.mu.Unlock()
	if !ok {
		return
	}

	session.mu.Lock()
	session.openTaskID = ""
	session.mu.Unlock()
}

// run čita signale promena i na svaki ponovo učitava celu kolekciju.
func (b *BoardService) run(ctx context.Context, changes <-chan struct{}) {
	for range changes {
		b.broadcast(ctx)
	}
}

func (b *BoardService) broadcast(ctx context.Context) {
	tasks, err := b.repo.GetAll(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logging.Logger.Errorf("Event ID: SNAPSHOT_READ_FAILED, Description: Failed to read task collection for broadcast: %v", err)
		}
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Polling režim javlja promene i kad ih nema; identičan uzastopni
	// snapshot se ne isporučuje ponovo.
	if b.hasLast && equalTaskLists(b.lastTasks, tasks) {
		return
	}
	b.lastTasks = tasks
	b.hasLast = true

	for _, session := range b.sessions {
		b.deliver(session, tasks)
	}
}

// deliver zamenjuje lokalni keš sesije u celosti i gura snapshot u kanal.
// Ako sesija kasni, stari neisporučeni snapshot se odbacuje (važi poslednji).
// Poziva se isključivo pod b.mu.
func (b *BoardService) deliver(session *BoardSession, tasks []models.Task) {
	session.apply(tasks)

	select {
	case <-session.snapshots:
	default:
	}
	session.snapshots <- tasks
}

// apply postavlja novi keš i zatvara detaljni prikaz ako je zadatak nestao.
func (s *BoardSession) apply(tasks []models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = tasks
	if s.openTaskID == "" {
		return
	}
	for _, task := range tasks {
		if task.ID.Hex() == s.openTaskID {
			return
		}
	}
	s.openTaskID = ""
}

// Snapshots je kanal kompletnih snapshot-a za ovu sesiju.
func (s *BoardSession) Snapshots() <-chan []models.Task {
	return s.snapshots
}

// View vraća trenutni lokalni keš podeljen po kolonama, kroz aktivni filter.
func (s *BoardSession) View() BoardView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BuildBoardView(s.tasks, s.filter)
}

func (s *BoardSession) Filter() FilterSelector {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

func (s *BoardSession) SetFilter(filter FilterSelector) {
	s.mu.Lock()
	s.filter = filter
	s.mu.Unlock()
}

// OpenTaskID vraća id zadatka u otvorenom detaljnom prikazu, ili "".
func (s *BoardSession) OpenTaskID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openTaskID
}

func equalTaskLists(a, b []models.Task) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
