package mirror

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"editor/internal/api"
	"editor/internal/session"
	"editor/internal/utils"
)

func newEditorServer(t *testing.T) string {
	t.Helper()
	hub := session.NewHub()
	h := api.NewHandlers(utils.NewLogger(), hub, nil)

	router := chi.NewRouter()
	router.Get("/editor-socket", h.EditorWS)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/editor-socket"
}

func dialClient(t *testing.T, url string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, url)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// waitFor polls until cond holds or the deadline passes. Inbound frames
// land on the read pump goroutine, so assertions on mirror state after a
// peer's edit have to wait for delivery.
func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// join sends join-room and blocks until the session snapshot has been
// applied. The snapshot lists the joiner among the members, which is the
// signal that later local edits cannot be clobbered by a late snapshot.
func join(t *testing.T, c *Client, roomID, username string) {
	t.Helper()
	if err := c.Join(roomID, username, "u-"+username); err != nil {
		t.Fatalf("join %s: %v", username, err)
	}
	waitFor(t, func() bool {
		id := c.Mirror().ConnectionID()
		if id == "" {
			return false
		}
		_, ok := c.Mirror().Users()[id]
		return ok
	}, username+"'s session snapshot")
}

func TestClientJoinPopulatesMirror(t *testing.T) {
	url := newEditorServer(t)

	alice := dialClient(t, url)
	join(t, alice, "room-1", "alice")

	if err := alice.CreateFile("room-1", "main.py", "print('hi')", ""); err != nil {
		t.Fatalf("create file: %v", err)
	}
	if rec, ok := alice.Mirror().File("main.py"); !ok || rec.Language != "python" {
		t.Fatalf("optimistic create with extension language, got %#v ok=%v", rec, ok)
	}
	if alice.Mirror().ActiveFile() != "main.py" {
		t.Fatalf("created file should become active, got %q", alice.Mirror().ActiveFile())
	}

	// A later joiner's snapshot has to include alice's file and presence.
	bob := dialClient(t, url)
	join(t, bob, "room-1", "bob")
	waitFor(t, func() bool {
		_, ok := bob.Mirror().File("main.py")
		return ok
	}, "bob's snapshot with alice's file")

	member, ok := bob.Mirror().Users()[alice.Mirror().ConnectionID()]
	if !ok || member.Username != "alice" {
		t.Fatalf("expected alice in bob's member list, got %#v (members %v)", member, bob.Mirror().Users())
	}
	if len(bob.Mirror().Users()) != 2 {
		t.Fatalf("expected alice and bob in the member list, got %v", bob.Mirror().Users())
	}
}

func TestClientsConvergeThroughBroadcasts(t *testing.T) {
	url := newEditorServer(t)

	alice := dialClient(t, url)
	bob := dialClient(t, url)
	join(t, alice, "room-2", "alice")
	join(t, bob, "room-2", "bob")
	waitFor(t, func() bool { return len(alice.Mirror().Users()) == 2 }, "alice to see bob join")

	if err := alice.CreateFolder("room-2", "src"); err != nil {
		t.Fatalf("create folder: %v", err)
	}
	if err := alice.CreateFile("room-2", "src/app.js", "let x = 1", ""); err != nil {
		t.Fatalf("create file: %v", err)
	}
	waitFor(t, func() bool {
		rec, ok := bob.Mirror().File("src/app.js")
		return ok && rec.Content == "let x = 1" && bob.Mirror().HasFolder("src")
	}, "bob to receive alice's edits")

	if err := bob.UpdateFile("room-2", "src/app.js", "let x = 2"); err != nil {
		t.Fatalf("update: %v", err)
	}
	waitFor(t, func() bool {
		rec, _ := alice.Mirror().File("src/app.js")
		return rec.Content == "let x = 2"
	}, "alice to receive bob's update")

	if err := alice.RenameFile("room-2", "src/app.js", "src/index.js"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	waitFor(t, func() bool {
		_, ok := bob.Mirror().File("src/index.js")
		return ok
	}, "bob to receive the rename")

	if err := bob.DeleteFolder("room-2", "src"); err != nil {
		t.Fatalf("delete folder: %v", err)
	}
	waitFor(t, func() bool {
		_, ok := alice.Mirror().File("src/index.js")
		return !ok && !alice.Mirror().HasFolder("src")
	}, "alice to receive the folder delete")
}

func TestClientPresencePropagation(t *testing.T) {
	url := newEditorServer(t)

	alice := dialClient(t, url)
	bob := dialClient(t, url)
	join(t, alice, "room-3", "alice")
	join(t, bob, "room-3", "bob")
	waitFor(t, func() bool { return len(alice.Mirror().Users()) == 2 }, "alice to see bob")

	if err := bob.StartTyping("room-3", "main.py"); err != nil {
		t.Fatalf("typing-start: %v", err)
	}
	waitFor(t, func() bool { return len(alice.Mirror().TypingUsers()) == 1 }, "typing indicator")
	if len(bob.Mirror().TypingUsers()) != 0 {
		t.Fatalf("typing must not echo back to the originator")
	}

	if err := bob.StopTyping("room-3"); err != nil {
		t.Fatalf("typing-stop: %v", err)
	}
	waitFor(t, func() bool { return len(alice.Mirror().TypingUsers()) == 0 }, "typing indicator to clear")

	if err := bob.UpdateCursor("room-3", "main.py", []byte(`{"line":2,"column":7}`), nil); err != nil {
		t.Fatalf("cursor-update: %v", err)
	}
	waitFor(t, func() bool {
		cur, ok := alice.Mirror().Cursors()[bob.Mirror().ConnectionID()]
		return ok && cur.Username == "bob" && cur.FilePath == "main.py"
	}, "cursor broadcast with identity")

	bob.Close()
	waitFor(t, func() bool {
		return len(alice.Mirror().Users()) == 1 && len(alice.Mirror().Cursors()) == 0
	}, "alice to see bob leave")
}
