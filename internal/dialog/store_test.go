package dialog

import (
	"sync"
	"testing"
)

func TestStoreDefaultsToIdle(t *testing.T) {
	s := NewStore()
	if got := s.Get(1).State; got != StateIdle {
		t.Fatalf("state = %s, expected idle", got)
	}
}

func TestClearStateKeepsAnchorAndTarget(t *testing.T) {
	s := NewStore()
	s.SetAnchor(1, 100)
	s.SetPendingTarget(1, 55)
	s.SetState(1, StatePickRole)

	s.ClearState(1)

	sess := s.Get(1)
	if sess.State != StateIdle {
		t.Fatalf("state = %s", sess.State)
	}
	if sess.AnchorID != 100 || sess.PendingTarget != 55 {
		t.Fatalf("anchor/target lost: %+v", sess)
	}
}

func TestResetForgetsEverything(t *testing.T) {
	s := NewStore()
	s.SetAnchor(1, 100)
	s.SetStagedName(1, "Сахар")
	s.Reset(1)

	sess := s.Get(1)
	if sess.AnchorID != 0 || sess.StagedName != "" || sess.State != StateIdle {
		t.Fatalf("session survived reset: %+v", sess)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewStore()
	s.SetState(1, StateAwaitNewPassword)

	sess := s.Get(1)
	sess.State = StateIdle

	if got := s.Get(1).State; got != StateAwaitNewPassword {
		t.Fatalf("mutation leaked into store: %s", got)
	}
}

func TestPerChatLockSerializes(t *testing.T) {
	s := NewStore()
	var counter int

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := s.Lock(7)
			counter++
			unlock()
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Fatalf("counter = %d, lock did not serialize", counter)
	}
}

func TestAuthenticatedSessions(t *testing.T) {
	s := NewStore()
	if s.IsAuthenticated(9) {
		t.Fatal("fresh chat must not be authenticated")
	}
	s.MarkAuthenticated(9)
	if !s.IsAuthenticated(9) {
		t.Fatal("mark did not stick")
	}
	s.DropAuthenticated(9)
	if s.IsAuthenticated(9) {
		t.Fatal("drop did not clear")
	}
}
