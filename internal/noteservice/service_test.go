package noteservice

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/starford/notepad/internal/apperr"
	"github.com/starford/notepad/internal/index"
	"github.com/starford/notepad/internal/notepad"
	"github.com/starford/notepad/internal/testutil"
)

type scriptedPrompt struct {
	answers []string // "" entries mean the prompt was dismissed
	asked   []string
}

func (p *scriptedPrompt) Prompt(_ context.Context, message, initial string) (string, bool, error) {
	p.asked = append(p.asked, message+"|"+initial)
	if len(p.answers) == 0 {
		return "", false, nil
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, a != "", nil
}

type messages struct {
	infos  []string
	errors []string
}

func (m *messages) Info(msg string)  { m.infos = append(m.infos, msg) }
func (m *messages) Error(msg string) { m.errors = append(m.errors, msg) }

type fixture struct {
	svc    *Service
	store  *notepad.Store
	ws     *index.Workspace
	prompt *scriptedPrompt
	msgs   *messages
	opened []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{prompt: &scriptedPrompt{}, msgs: &messages{}}
	opener := notepad.OpenerFunc(func(_ context.Context, loc string) error {
		f.opened = append(f.opened, loc)
		return nil
	})
	f.store, _, f.ws = testutil.TestStore(t, notepad.WithOpener(opener))
	f.svc = NewService(f.store, f.ws, f.prompt, f.msgs, testutil.Logger())
	return f
}

func TestNewNote_PromptsCreatesAndOpens(t *testing.T) {
	f := newFixture(t)
	f.prompt.answers = []string{"todo"}

	if err := f.svc.NewNote(context.Background(), ""); err != nil {
		t.Fatalf("NewNote: %v", err)
	}
	n := f.store.Find("todo")
	if n == nil {
		t.Fatal("note not created")
	}
	if len(f.opened) != 1 || f.opened[0] != n.Location() {
		t.Errorf("opened = %v", f.opened)
	}
	if len(f.msgs.errors) != 0 {
		t.Errorf("errors = %v", f.msgs.errors)
	}
}

func TestNewNote_CancelledPromptChangesNothing(t *testing.T) {
	f := newFixture(t)

	err := f.svc.NewNote(context.Background(), "")
	if !errors.Is(err, apperr.ErrCancelled) {
		t.Fatalf("NewNote = %v, want ErrCancelled", err)
	}
	if len(f.store.Roots()) != 0 {
		t.Error("store changed after cancel")
	}
	if len(f.msgs.errors)+len(f.msgs.infos) != 0 {
		t.Error("cancel should be silent")
	}
}

func TestNewNote_InvalidLabelReported(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.NewNote(context.Background(), "a/b"); err != nil {
		t.Fatalf("NewNote = %v, want nil", err)
	}
	if len(f.msgs.errors) != 1 || !strings.Contains(f.msgs.errors[0], "a/b") {
		t.Errorf("errors = %v", f.msgs.errors)
	}
}

func TestRenameNote_PromptsWithCurrentLabel(t *testing.T) {
	f := newFixture(t)
	_ = f.svc.NewNote(context.Background(), "a")
	f.prompt.answers = []string{"b"}

	if err := f.svc.RenameNote(context.Background(), "a", ""); err != nil {
		t.Fatalf("RenameNote: %v", err)
	}
	if f.store.Find("b") == nil || f.store.Find("a") != nil {
		t.Errorf("roots after rename: %v", f.store.Roots())
	}
	if got := f.prompt.asked[len(f.prompt.asked)-1]; !strings.HasSuffix(got, "|a") {
		t.Errorf("prompt = %q, want initial value a", got)
	}
}

func TestRenameNote_CollisionReported(t *testing.T) {
	f := newFixture(t)
	_ = f.svc.NewNote(context.Background(), "a")
	_ = f.svc.NewNote(context.Background(), "b")

	if err := f.svc.RenameNote(context.Background(), "a", "b"); err != nil {
		t.Fatalf("RenameNote = %v", err)
	}
	if len(f.msgs.errors) != 1 {
		t.Fatalf("errors = %v", f.msgs.errors)
	}
	if f.store.Find("a") == nil {
		t.Error("a disappeared after failed rename")
	}
}

func TestRenameNote_Cancelled(t *testing.T) {
	f := newFixture(t)
	_ = f.svc.NewNote(context.Background(), "a")
	if err := f.svc.RenameNote(context.Background(), "a", ""); !errors.Is(err, apperr.ErrCancelled) {
		t.Errorf("RenameNote = %v, want ErrCancelled", err)
	}
	if f.store.Find("a") == nil {
		t.Error("note changed after cancel")
	}
}

func TestDeleteNote(t *testing.T) {
	f := newFixture(t)
	_ = f.svc.NewNote(context.Background(), "a")
	if err := f.svc.DeleteNote(context.Background(), "a"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if len(f.store.Roots()) != 0 {
		t.Error("note not deleted")
	}
}

func TestUnknownNoteReported(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.svc.DeleteNote(ctx, "ghost")
	_ = f.svc.OpenNote(ctx, "ghost")
	_ = f.svc.RenameNote(ctx, "ghost", "x")
	if len(f.msgs.errors) != 3 {
		t.Errorf("errors = %v", f.msgs.errors)
	}
}

func TestSearchFollowsStoreChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.svc.NewNote(ctx, "groceries")
	n := f.store.Find("groceries")
	if err := f.store.WriteItem(ctx, n, "buy oatmilk"); err != nil {
		t.Fatalf("WriteItem: %v", err)
	}

	results, err := f.svc.Search(ctx, "oatmilk", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Label != "groceries" {
		t.Fatalf("results = %+v", results)
	}

	_ = f.svc.RenameNote(ctx, "groceries", "shopping")
	results, _ = f.svc.Search(ctx, "oatmilk", 10)
	if len(results) != 1 || results[0].Label != "shopping" {
		t.Errorf("results after rename = %+v", results)
	}

	_ = f.svc.DeleteNote(ctx, "shopping")
	results, _ = f.svc.Search(ctx, "oatmilk", 10)
	if len(results) != 0 {
		t.Errorf("results after delete = %+v", results)
	}
}

func TestSubscribeReceivesChanges(t *testing.T) {
	f := newFixture(t)
	var got []string
	f.svc.Subscribe(func(n *notepad.Note) {
		if n == nil {
			got = append(got, "<root>")
			return
		}
		got = append(got, n.Label())
	})
	ctx := context.Background()
	_ = f.svc.NewNote(ctx, "a")
	_ = f.svc.RenameNote(ctx, "a", "b")
	if len(got) < 2 || got[0] != "<root>" || got[len(got)-1] != "b" {
		t.Errorf("changes = %v", got)
	}
}

func TestTree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.svc.NewNote(ctx, "work-a")
	_ = f.svc.NewNote(ctx, "home")

	all, err := f.svc.Tree("")
	if err != nil || len(all) != 2 {
		t.Fatalf("Tree = %v, %v", all, err)
	}
	work, err := f.svc.Tree("work-*")
	if err != nil || len(work) != 1 || work[0].Label != "work-a" {
		t.Errorf("Tree(work-*) = %v, %v", work, err)
	}
}
