package sqldb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/99minutos/blog/internal/core/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "blog.db")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedUser(t *testing.T, db *DB, email string) *domain.User {
	t.Helper()
	u, err := NewUserRepository(db).Create(context.Background(), &domain.User{Email: email, PasswordHash: "h", Name: "n-" + email})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	if got := pg.rebind(`SELECT a FROM t WHERE x = ? AND y = ?`); got != `SELECT a FROM t WHERE x = $1 AND y = $2` {
		t.Fatalf("unexpected rebind: %s", got)
	}
	lite := &DB{driver: DriverSQLite}
	if got := lite.rebind(`x = ?`); got != `x = ?` {
		t.Fatalf("sqlite query must be left alone, got %s", got)
	}
}

func TestSQLiteDSN(t *testing.T) {
	cases := map[string]string{
		"":                       "blog.db?_foreign_keys=on",
		"blog.db":                "blog.db?_foreign_keys=on",
		"file:x.db?cache=shared": "file:x.db?cache=shared&_foreign_keys=on",
		"x.db?_foreign_keys=off": "x.db?_foreign_keys=off",
	}
	for in, want := range cases {
		if got := sqliteDSN(in); got != want {
			t.Fatalf("sqliteDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "oracle"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestOpen_MigrationIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog.db")
	for i := 0; i < 2; i++ {
		db, err := Open(context.Background(), Config{DSN: path})
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		_ = db.Close()
	}
}

func TestUserRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first := seedUser(t, db, "admin@example.com")
	if first.ID != domain.AdministratorID {
		t.Fatalf("expected first user id 1, got %d", first.ID)
	}
	second := seedUser(t, db, "bob@example.com")
	if second.ID != 2 {
		t.Fatalf("expected second user id 2, got %d", second.ID)
	}

	if _, err := repo.Create(ctx, &domain.User{Email: "bob@example.com", PasswordHash: "x", Name: "dup"}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	got, err := repo.FindByEmail(ctx, "bob@example.com")
	if err != nil || got.ID != second.ID || got.Authenticated {
		t.Fatalf("FindByEmail = %+v, %v", got, err)
	}

	if err := repo.SetAuthenticated(ctx, second.ID, true); err != nil {
		t.Fatalf("SetAuthenticated: %v", err)
	}
	got, _ = repo.FindByID(ctx, second.ID)
	if !got.Authenticated {
		t.Fatalf("expected authenticated flag to be stored")
	}

	if _, err := repo.FindByID(ctx, 99); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := repo.SetAuthenticated(ctx, 99, true); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestPostRepository_CRUD(t *testing.T) {
	db := openTestDB(t)
	admin := seedUser(t, db, "admin@example.com")
	other := seedUser(t, db, "bob@example.com")
	repo := NewPostRepository(db)
	ctx := context.Background()

	post, err := repo.Create(ctx, &domain.Post{
		Title: "Hello", Subtitle: "Sub", Date: "April 02, 2024", Body: "<p>b</p>",
		ImgURL: "https://example.com/a.png", AuthorID: admin.ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if post.AuthorName != admin.Name {
		t.Fatalf("expected author name %q, got %q", admin.Name, post.AuthorName)
	}

	if _, err := repo.Create(ctx, &domain.Post{Title: "Hello", Subtitle: "s", Date: "d", Body: "b", ImgURL: "u", AuthorID: admin.ID}); !errors.Is(err, domain.ErrTitleTaken) {
		t.Fatalf("expected ErrTitleTaken, got %v", err)
	}
	if _, err := repo.Create(ctx, &domain.Post{Title: "Orphan", Subtitle: "s", Date: "d", Body: "b", ImgURL: "u", AuthorID: 42}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for unknown author, got %v", err)
	}

	post.Subtitle = "Sub2"
	post.AuthorID = other.ID
	if err := repo.Update(ctx, post); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := repo.FindByTitle(ctx, "Hello")
	if err != nil {
		t.Fatalf("FindByTitle: %v", err)
	}
	if got.Subtitle != "Sub2" || got.AuthorID != other.ID || got.Date != "April 02, 2024" {
		t.Fatalf("unexpected post after update: %+v", got)
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}

	if err := repo.Update(ctx, &domain.Post{ID: 77, Title: "x", AuthorID: admin.ID}); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, post.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, post.ID); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound on second delete, got %v", err)
	}
	if _, err := repo.FindByID(ctx, post.ID); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestCommentRepository_CascadeOnPostDelete(t *testing.T) {
	db := openTestDB(t)
	admin := seedUser(t, db, "admin@example.com")
	reader := seedUser(t, db, "reader@example.com")
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	post, err := posts.Create(ctx, &domain.Post{Title: "T", Subtitle: "s", Date: "d", Body: "b", ImgURL: "u", AuthorID: admin.ID})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	for _, body := range []string{"first", "<b>second</b>"} {
		if _, err := comments.Create(ctx, &domain.Comment{Body: body, AuthorID: reader.ID, PostID: post.ID}); err != nil {
			t.Fatalf("create comment: %v", err)
		}
	}
	if _, err := comments.Create(ctx, &domain.Comment{Body: "x", AuthorID: reader.ID, PostID: 999}); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound for missing post, got %v", err)
	}

	list, err := comments.ListByPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("ListByPost: %v", err)
	}
	if len(list) != 2 || list[0].Body != "first" || list[1].Body != "<b>second</b>" {
		t.Fatalf("unexpected comments: %+v", list)
	}
	if list[0].AuthorName != reader.Name || list[0].AuthorEmail != reader.Email {
		t.Fatalf("expected author joined, got %+v", list[0])
	}

	if err := posts.Delete(ctx, post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	list, err = comments.ListByPost(ctx, post.ID)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected comments removed with their post, got %v %v", list, err)
	}
}
