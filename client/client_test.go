package client_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"tagblog/client"
	"tagblog/models"
)

// fakeAPI is an in-memory stand-in for the blog backend. Login state is
// tracked server-side so the tests don't need real cookies, and every
// request is recorded so tests can assert that a call did (or did not)
// happen.
type fakeAPI struct {
	mu       sync.Mutex
	users    map[string]string
	posts    map[int]models.Post
	tags     []models.Tag
	loggedIn *models.User
	expired  bool
	requests []string

	lastPostForm map[string]string
	lastHadImage bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		users: map[string]string{},
		posts: map[int]models.Post{},
		tags:  []models.Tag{},
	}
}

func (f *fakeAPI) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
}

func (f *fakeAPI) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeAPI) handler() http.Handler {
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			f.record(req)
			next.ServeHTTP(w, req)
		})
	})

	r.HandleFunc("/api/user", func(w http.ResponseWriter, req *http.Request) {
		if f.loggedIn == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(f.loggedIn)
	}).Methods("GET")

	r.HandleFunc("/api/login", func(w http.ResponseWriter, req *http.Request) {
		username := req.FormValue("username")
		if pw, ok := f.users[username]; !ok || pw != req.FormValue("password") {
			http.Error(w, "Incorrect username or password", http.StatusNotFound)
			return
		}
		f.loggedIn = &models.User{ID: 1, Username: username}
		json.NewEncoder(w).Encode(map[string]string{"message": "Login successful"})
	}).Methods("POST")

	r.HandleFunc("/api/logout", func(w http.ResponseWriter, req *http.Request) {
		f.loggedIn = nil
		json.NewEncoder(w).Encode(map[string]string{"message": "Logged out"})
	}).Methods("POST")

	r.HandleFunc("/api/session-expired", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(f.expired)
	}).Methods("GET")

	r.HandleFunc("/api/signup", func(w http.ResponseWriter, req *http.Request) {
		var u models.User
		json.NewDecoder(req.Body).Decode(&u)
		if _, exists := f.users[u.Username]; exists {
			http.Error(w, "Username already exists", http.StatusConflict)
			return
		}
		f.users[u.Username] = u.Password
		u.ID = len(f.users)
		u.Password = ""
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(u)
	}).Methods("POST")

	r.HandleFunc("/api/post", func(w http.ResponseWriter, req *http.Request) {
		list := []models.Post{}
		for id := len(f.posts) + 10; id >= 0; id-- {
			if p, ok := f.posts[id]; ok {
				list = append(list, p)
			}
		}
		json.NewEncoder(w).Encode(models.NewPage(list, len(list), 1, 4))
	}).Methods("GET")

	r.HandleFunc("/api/post/{id}", func(w http.ResponseWriter, req *http.Request) {
		id, _ := strconv.Atoi(mux.Vars(req)["id"])
		p, ok := f.posts[id]
		if !ok {
			http.Error(w, "Post not found", http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(p)
	}).Methods("GET")

	r.HandleFunc("/api/post", func(w http.ResponseWriter, req *http.Request) {
		f.capturePostForm(req)
		p := models.Post{ID: 99, Title: req.FormValue("title"), Content: req.FormValue("content")}
		if f.loggedIn != nil {
			p.User = *f.loggedIn
		}
		f.posts[p.ID] = p
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(p)
	}).Methods("POST")

	r.HandleFunc("/api/post/{id}", func(w http.ResponseWriter, req *http.Request) {
		id, _ := strconv.Atoi(mux.Vars(req)["id"])
		p, ok := f.posts[id]
		if !ok {
			http.Error(w, "Post not found", http.StatusNotFound)
			return
		}
		f.capturePostForm(req)
		p.Title = req.FormValue("title")
		p.Content = req.FormValue("content")
		f.posts[id] = p
		json.NewEncoder(w).Encode(p)
	}).Methods("PUT")

	r.HandleFunc("/api/post/{id}", func(w http.ResponseWriter, req *http.Request) {
		id, _ := strconv.Atoi(mux.Vars(req)["id"])
		p, ok := f.posts[id]
		if !ok {
			http.Error(w, "Post not found", http.StatusNotFound)
			return
		}
		if f.loggedIn == nil || f.loggedIn.ID != p.User.ID {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		delete(f.posts, id)
		json.NewEncoder(w).Encode(map[string]string{"message": "Post deleted successfully"})
	}).Methods("DELETE")

	r.HandleFunc("/api/tag", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(f.tags)
	}).Methods("GET")

	r.HandleFunc("/api/user/username", func(w http.ResponseWriter, req *http.Request) {
		var u models.User
		json.NewDecoder(req.Body).Decode(&u)
		if _, taken := f.users[u.Username]; taken {
			http.Error(w, "Username already exists", http.StatusConflict)
			return
		}
		f.users[u.Username] = f.users[f.loggedIn.Username]
		delete(f.users, f.loggedIn.Username)
		f.loggedIn.Username = u.Username
		w.WriteHeader(http.StatusNoContent)
	}).Methods("PUT")

	r.HandleFunc("/api/user/password", func(w http.ResponseWriter, req *http.Request) {
		var u models.User
		json.NewDecoder(req.Body).Decode(&u)
		current := f.users[f.loggedIn.Username]
		if u.CurrentPassword != current {
			http.Error(w, "Current password is incorrect", http.StatusNotFound)
			return
		}
		if u.Password == current {
			http.Error(w, "New password matches the current password", http.StatusConflict)
			return
		}
		f.users[f.loggedIn.Username] = u.Password
		w.WriteHeader(http.StatusNoContent)
	}).Methods("PUT")

	return r
}

func (f *fakeAPI) capturePostForm(req *http.Request) {
	req.ParseMultipartForm(32 << 20)
	f.lastPostForm = map[string]string{
		"title":   req.FormValue("title"),
		"content": req.FormValue("content"),
		"tags":    req.FormValue("tags"),
	}
	_, _, err := req.FormFile("image")
	f.lastHadImage = err == nil
}

func newTestApp(t *testing.T, f *fakeAPI) (*client.Client, *client.Session) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	api, err := client.New(srv.URL)
	require.NoError(t, err)
	return api, client.NewSession(api)
}

func loggedInSession(t *testing.T, f *fakeAPI, api *client.Client, session *client.Session, username string) {
	t.Helper()
	f.loggedIn = &models.User{ID: 1, Username: username}
	require.NoError(t, session.Refresh())
	_, ok := session.CurrentUser()
	require.True(t, ok)
}

func TestEditorRedirectsUnauthenticatedToLogin(t *testing.T) {
	f := newFakeAPI()
	api, session := newTestApp(t, f)

	editor := client.NewEditorView(api, session, &client.History{})
	res := editor.Load(0)

	target, ok := res.RedirectTarget()
	require.True(t, ok)
	require.Equal(t, "/login", target)
	require.Zero(t, f.requestCount(), "no data may load before the redirect")
}

func TestEditorExpiredSessionForcesLogout(t *testing.T) {
	f := newFakeAPI()
	f.expired = true
	api, session := newTestApp(t, f)
	loggedInSession(t, f, api, session, "alice")

	editor := client.NewEditorView(api, session, &client.History{})
	res := editor.Load(0)

	target, ok := res.RedirectTarget()
	require.True(t, ok)
	require.Equal(t, "/login", target)

	_, stillIn := session.CurrentUser()
	require.False(t, stillIn, "expired session must be cleared")
	require.Nil(t, f.loggedIn, "backend logout must have been called")
}

func TestSignupConfirmMismatchNeverHitsNetwork(t *testing.T) {
	f := newFakeAPI()
	api, session := newTestApp(t, f)

	view := client.NewSignUpView(api, session, &client.History{})
	res := view.Submit("alice", "secret1", "secret2")

	field, _, ok := res.Field()
	require.True(t, ok)
	require.Equal(t, "confirmPassword", field)
	require.Zero(t, f.requestCount())
}

func TestSignupTakenUsernameMarksField(t *testing.T) {
	f := newFakeAPI()
	f.users["alice"] = "secret"
	api, session := newTestApp(t, f)

	view := client.NewSignUpView(api, session, &client.History{})
	res := view.Submit("alice", "secret", "secret")

	field, _, ok := res.Field()
	require.True(t, ok)
	require.Equal(t, "username", field)
	_, redirected := res.RedirectTarget()
	require.False(t, redirected, "a conflict must not navigate away")
}

func TestEditorRejectsGifClientSide(t *testing.T) {
	f := newFakeAPI()
	api, session := newTestApp(t, f)
	loggedInSession(t, f, api, session, "alice")

	editor := client.NewEditorView(api, session, &client.History{})
	require.True(t, editor.Load(0).IsSuccess())
	before := f.requestCount()

	res := editor.Submit(client.PostForm{
		Title:   "t",
		Content: "c",
		Image: &client.ImageUpload{
			Filename:    "anim.gif",
			ContentType: "image/gif",
			Size:        100,
			Data:        strings.NewReader("gif"),
		},
	})

	field, _, ok := res.Field()
	require.True(t, ok)
	require.Equal(t, "image", field)
	require.Equal(t, before, f.requestCount(), "a rejected image must not be submitted")
}

func TestEditorAcceptsPngAndSubmits(t *testing.T) {
	f := newFakeAPI()
	api, session := newTestApp(t, f)
	loggedInSession(t, f, api, session, "alice")

	history := &client.History{}
	history.Push("/somewhere")
	editor := client.NewEditorView(api, session, history)
	require.True(t, editor.Load(0).IsSuccess())

	res := editor.Submit(client.PostForm{
		Title:   "hello",
		Content: "world",
		Tags:    "go web",
		Image: &client.ImageUpload{
			Filename:    "pic.png",
			ContentType: "image/png",
			Size:        2048,
			Data:        strings.NewReader("png bytes"),
		},
	})

	target, ok := res.RedirectTarget()
	require.True(t, ok)
	require.Equal(t, "/somewhere", target)
	require.True(t, f.lastHadImage)
	require.Equal(t, "hello", f.lastPostForm["title"])
	require.Equal(t, "go web", f.lastPostForm["tags"])
}

func TestEditorOwnershipMismatchRedirectsHome(t *testing.T) {
	f := newFakeAPI()
	f.posts[7] = models.Post{ID: 7, Title: "theirs", User: models.User{ID: 2, Username: "bob"}}
	api, session := newTestApp(t, f)
	loggedInSession(t, f, api, session, "alice")

	editor := client.NewEditorView(api, session, &client.History{})
	res := editor.Load(7)

	target, ok := res.RedirectTarget()
	require.True(t, ok)
	require.Equal(t, "/", target)
}

func TestViewPostDeleteForbiddenIsNonFatal(t *testing.T) {
	f := newFakeAPI()
	f.posts[7] = models.Post{ID: 7, Title: "theirs", User: models.User{ID: 2, Username: "bob"}}
	api, session := newTestApp(t, f)
	loggedInSession(t, f, api, session, "alice")

	view := client.NewViewPostView(api, session, &client.History{})
	require.True(t, view.Load(7).IsSuccess())
	require.False(t, view.CanModify())

	res := view.Delete()
	target, ok := res.RedirectTarget()
	require.True(t, ok)
	require.Equal(t, "/", target)
}

func TestViewPostMissingRedirectsHome(t *testing.T) {
	f := newFakeAPI()
	api, session := newTestApp(t, f)

	view := client.NewViewPostView(api, session, &client.History{})
	res := view.Load(404)

	target, ok := res.RedirectTarget()
	require.True(t, ok)
	require.Equal(t, "/", target)
}

func TestHomeNextPageNoopOnLastPage(t *testing.T) {
	f := newFakeAPI()
	f.posts[1] = models.Post{ID: 1, Title: "only", User: models.User{ID: 2}}
	api, session := newTestApp(t, f)

	home := client.NewHomeView(api, session)
	require.True(t, home.Load().IsSuccess())
	require.False(t, home.Page.HasNextPage)

	before := f.requestCount()
	require.True(t, home.NextPage().IsSuccess())
	require.Equal(t, before, f.requestCount(), "next on the last page must not refetch")
}

func TestHomeUnauthenticatedHidesControls(t *testing.T) {
	f := newFakeAPI()
	f.tags = []models.Tag{{ID: 1, Name: "go"}}
	f.posts[1] = models.Post{ID: 1, Title: "a post", User: models.User{ID: 2, Username: "bob"}}
	api, session := newTestApp(t, f)

	home := client.NewHomeView(api, session)
	require.True(t, home.Load().IsSuccess())

	require.Len(t, home.Tags, 1)
	require.Len(t, home.Page.List, 1)
	for _, p := range home.Page.List {
		require.False(t, home.CanModify(p))
	}
}

func TestHomeDeleteRefetchesAfterResponse(t *testing.T) {
	f := newFakeAPI()
	f.posts[1] = models.Post{ID: 1, Title: "mine", User: models.User{ID: 1, Username: "alice"}}
	api, session := newTestApp(t, f)
	loggedInSession(t, f, api, session, "alice")

	home := client.NewHomeView(api, session)
	require.True(t, home.Load().IsSuccess())
	require.Len(t, home.Page.List, 1)

	require.True(t, home.Delete(1).IsSuccess())
	require.Empty(t, home.Page.List, "the refetched page must reflect the delete")
}

func TestLoginNavigatesBackAndPopulatesSession(t *testing.T) {
	f := newFakeAPI()
	f.users["alice"] = "secret"
	api, session := newTestApp(t, f)

	history := &client.History{}
	history.Push("/post/3")
	view := client.NewLoginView(api, session, history)
	require.True(t, view.Load().IsSuccess())

	res := view.Submit("alice", "secret")
	target, ok := res.RedirectTarget()
	require.True(t, ok)
	require.Equal(t, "/post/3", target)

	user, loggedIn := session.CurrentUser()
	require.True(t, loggedIn)
	require.Equal(t, "alice", user.Username)
}

func TestLoginBadCredentialsMarksField(t *testing.T) {
	f := newFakeAPI()
	f.users["alice"] = "secret"
	api, session := newTestApp(t, f)

	view := client.NewLoginView(api, session, &client.History{})
	res := view.Submit("alice", "wrong")

	field, _, ok := res.Field()
	require.True(t, ok)
	require.Equal(t, "password", field)

	_, loggedIn := session.CurrentUser()
	require.False(t, loggedIn)
}

func TestLoginAlreadyAuthenticatedRedirectsHome(t *testing.T) {
	f := newFakeAPI()
	api, session := newTestApp(t, f)
	loggedInSession(t, f, api, session, "alice")

	view := client.NewLoginView(api, session, &client.History{})
	res := view.Load()

	target, ok := res.RedirectTarget()
	require.True(t, ok)
	require.Equal(t, "/", target)
}
