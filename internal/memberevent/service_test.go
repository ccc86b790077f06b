package memberevent

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/anglerclub/internal/model"
	"github.com/hitoshi/anglerclub/internal/repository"
	"github.com/hitoshi/anglerclub/internal/security"
)

type mockRepo struct {
	createFn   func(ctx context.Context, ev *model.MemberEvent) error
	findByIDFn func(ctx context.Context, id string) (*model.MemberEvent, error)
	listFn     func(ctx context.Context) ([]*model.MemberEvent, error)
	deleted    []string
}

func (m *mockRepo) Create(ctx context.Context, ev *model.MemberEvent) error {
	if m.createFn != nil {
		return m.createFn(ctx, ev)
	}
	return nil
}

func (m *mockRepo) FindByID(ctx context.Context, id string) (*model.MemberEvent, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockRepo) ListRecent(ctx context.Context) ([]*model.MemberEvent, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []*model.MemberEvent{}, nil
}

func (m *mockRepo) DeleteByID(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockNotifier struct{ published []string }

func (m *mockNotifier) Publish(collection string) { m.published = append(m.published, collection) }

var _ repository.MemberEventRepository = (*mockRepo)(nil)

func validInput() Input {
	return Input{
		Title:       "Ночная рыбалка",
		Date:        "2024-07-20",
		Time:        "21:00",
		Location:    "Озеро Светлое",
		Description: "Ловим сома",
	}
}

func errCode(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

func TestCreate_Success(t *testing.T) {
	var stored *model.MemberEvent
	repo := &mockRepo{createFn: func(ctx context.Context, ev *model.MemberEvent) error {
		stored = ev
		return nil
	}}
	n := &mockNotifier{}
	svc := NewService(repo, security.NewSanitizer(), n, nil)

	ev, err := svc.Create(context.Background(), &model.AuthUser{ID: "u1", Email: "ivan@example.com"}, validInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if stored != ev {
		t.Fatal("created event should be stored")
	}
	if ev.Organizer != "ivan@example.com" || ev.OrganizerID != "u1" {
		t.Errorf("organizer = %q/%q", ev.Organizer, ev.OrganizerID)
	}
	if ev.Date.Format(model.DateLayout) != "2024-07-20" {
		t.Errorf("Date = %v", ev.Date)
	}
	if len(n.published) != 1 || n.published[0] != Collection {
		t.Errorf("published = %v", n.published)
	}
}

func TestCreate_AllFieldsRequired(t *testing.T) {
	svc := NewService(&mockRepo{}, security.NewSanitizer(), &mockNotifier{}, nil)
	user := &model.AuthUser{ID: "u1"}

	clearers := map[string]func(*Input){
		"title":       func(in *Input) { in.Title = " " },
		"date":        func(in *Input) { in.Date = "" },
		"time":        func(in *Input) { in.Time = "" },
		"location":    func(in *Input) { in.Location = "\t" },
		"description": func(in *Input) { in.Description = "<br>" },
	}
	for name, clear := range clearers {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			clear(&in)
			_, err := svc.Create(context.Background(), user, in)
			if errCode(err) != model.ErrCodeValidation {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreate_InvalidDate(t *testing.T) {
	svc := NewService(&mockRepo{}, security.NewSanitizer(), &mockNotifier{}, nil)
	in := validInput()
	in.Date = "20.07.2024"

	_, err := svc.Create(context.Background(), &model.AuthUser{ID: "u1"}, in)
	if errCode(err) != model.ErrCodeValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreate_Unauthenticated(t *testing.T) {
	svc := NewService(&mockRepo{}, security.NewSanitizer(), &mockNotifier{}, nil)

	_, err := svc.Create(context.Background(), nil, validInput())
	if errCode(err) != model.ErrCodeUnauthorized {
		t.Errorf("expected unauthorized, got %v", err)
	}
}

const eventID = "0e6a4b52-9c1d-4f3b-8d2e-7a5c9b1e4f60"

func TestDelete_OwnerOnly(t *testing.T) {
	repo := &mockRepo{findByIDFn: func(ctx context.Context, id string) (*model.MemberEvent, error) {
		return &model.MemberEvent{ID: id, OrganizerID: "owner"}, nil
	}}
	svc := NewService(repo, security.NewSanitizer(), &mockNotifier{}, nil)

	if err := svc.Delete(context.Background(), &model.AuthUser{ID: "other"}, eventID); errCode(err) != model.ErrCodeForbidden {
		t.Errorf("expected forbidden, got %v", err)
	}
	if len(repo.deleted) != 0 {
		t.Fatal("non-owner delete must not reach the store")
	}
	if err := svc.Delete(context.Background(), &model.AuthUser{ID: "owner"}, eventID); err != nil {
		t.Fatalf("owner delete error = %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Errorf("deleted = %v", repo.deleted)
	}
}

func TestDelete_MalformedIDIsNotFound(t *testing.T) {
	repo := &mockRepo{findByIDFn: func(ctx context.Context, id string) (*model.MemberEvent, error) {
		return nil, errors.New(`pq: invalid input syntax for type uuid: "` + id + `"`)
	}}
	svc := NewService(repo, security.NewSanitizer(), &mockNotifier{}, nil)

	if err := svc.Delete(context.Background(), &model.AuthUser{ID: "owner"}, "abc"); errCode(err) != model.ErrCodeRecordNotFound {
		t.Errorf("expected RECORD_NOT_FOUND, got %v", err)
	}
	if len(repo.deleted) != 0 {
		t.Errorf("deleted = %v", repo.deleted)
	}
}

func TestList_PropagatesStoreError(t *testing.T) {
	repo := &mockRepo{listFn: func(ctx context.Context) ([]*model.MemberEvent, error) {
		return nil, errors.New("db down")
	}}
	svc := NewService(repo, security.NewSanitizer(), &mockNotifier{}, nil)

	if _, err := svc.List(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestCanDelete(t *testing.T) {
	ev := &model.MemberEvent{OrganizerID: "u1"}
	if CanDelete(nil, ev) || CanDelete(&model.AuthUser{ID: "u2"}, ev) || !CanDelete(&model.AuthUser{ID: "u1"}, ev) {
		t.Error("only the organizer can delete")
	}
}
