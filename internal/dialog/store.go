package dialog

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Сколько чатов одновременно могут держать админ-сессию.
const authSessions = 1024

// Store хранит состояния диалогов по chat_id. Транспорт не гарантирует
// порядок апдейтов одного чата, поэтому помимо внутреннего мьютекса
// Store выдаёт пер-чатовые блокировки: диспетчер держит Lock(chatID)
// на всё время обработки события.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	locks    map[int64]*sync.Mutex

	// Чаты, подтвердившие админ-пароль в текущем запуске процесса.
	auth *lru.Cache[int64, time.Time]
}

func NewStore() *Store {
	auth, _ := lru.New[int64, time.Time](authSessions)
	return &Store{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*sync.Mutex),
		auth:     auth,
	}
}

// Lock захватывает блокировку чата и возвращает функцию освобождения.
func (s *Store) Lock(chatID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[chatID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (s *Store) session(chatID int64) *Session {
	sess, ok := s.sessions[chatID]
	if !ok {
		sess = &Session{State: StateIdle}
		s.sessions[chatID] = sess
	}
	return sess
}

// Get возвращает копию сессии чата.
func (s *Store) Get(chatID int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[chatID]; ok {
		return *sess
	}
	return Session{State: StateIdle}
}

func (s *Store) SetState(chatID int64, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session(chatID).State = st
}

// ClearState сбрасывает только именованное состояние: якорь и цель
// назначения переживают смену шага (например, переход от выбора роли
// к выбору склада для того же пользователя).
func (s *Store) ClearState(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[chatID]; ok {
		sess.State = StateIdle
	}
}

func (s *Store) SetPendingTarget(chatID, target int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session(chatID).PendingTarget = target
}

func (s *Store) ClearPendingTarget(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[chatID]; ok {
		sess.PendingTarget = 0
	}
}

func (s *Store) SetStagedName(chatID int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session(chatID).StagedName = name
}

func (s *Store) ClearStagedName(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[chatID]; ok {
		sess.StagedName = ""
	}
}

func (s *Store) SetAnchor(chatID int64, messageID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session(chatID).AnchorID = messageID
}

func (s *Store) Anchor(chatID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[chatID]; ok {
		return sess.AnchorID
	}
	return 0
}

// Reset полностью забывает сессию чата (явная отмена или завершение).
func (s *Store) Reset(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
}

func (s *Store) MarkAuthenticated(chatID int64) {
	s.auth.Add(chatID, time.Now())
}

func (s *Store) IsAuthenticated(chatID int64) bool {
	return s.auth.Contains(chatID)
}

func (s *Store) DropAuthenticated(chatID int64) {
	s.auth.Remove(chatID)
}
