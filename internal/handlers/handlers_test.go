package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/its-pratyushpandey/NextHire-backend/internal/api/middleware"
	"github.com/its-pratyushpandey/NextHire-backend/internal/blob"
	"github.com/its-pratyushpandey/NextHire-backend/internal/directory"
	"github.com/its-pratyushpandey/NextHire-backend/internal/hub"
	"github.com/its-pratyushpandey/NextHire-backend/internal/models"
	"github.com/its-pratyushpandey/NextHire-backend/internal/room"
	"github.com/its-pratyushpandey/NextHire-backend/internal/store"
)

// fakeBlob stands in for the external object store.
type fakeBlob struct {
	fail  bool
	calls int
}

func (f *fakeBlob) Store(_ context.Context, data []byte, mediaType, name, _ string) (*blob.Ref, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("object store unreachable")
	}
	return &blob.Ref{URL: "https://cdn.example.com/" + name, Type: mediaType, Name: name}, nil
}

func newTestHandler(t *testing.T, blobs blob.Store) (*Handler, *store.MemoryStore) {
	t.Helper()
	ms := store.NewMemoryStore()
	h := NewHandler(ms, hub.New(zerolog.Nop()), directory.Static{}, blobs, nil, zerolog.Nop())
	return h, ms
}

func testRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/chat/rooms/{roomID}/messages", h.GetRoomMessages)
	r.Post("/api/chat/rooms/{roomID}/messages", h.PostMessage)
	r.Post("/api/chat/rooms/{roomID}/read", h.MarkRoomRead)
	r.Get("/api/chat/conversations", h.ListConversations)
	r.Get("/api/chat/applicants", h.ListApplicants)
	r.Post("/api/chat/groups", h.CreateGroup)
	r.Post("/api/chat/upload", h.UploadAttachment)
	return r
}

// do issues a request through the router with the given caller baked
// into the context, the way the auth middleware would.
func do(t *testing.T, r *chi.Mux, method, path, contentType string, body []byte, ident *middleware.Identity) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if ident != nil {
		req = req.WithContext(context.WithValue(req.Context(), middleware.IdentityContextKey, ident))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func directRoomID(t *testing.T) (roomID, a, b string) {
	t.Helper()
	a = uuid.NewString()
	b = uuid.NewString()
	rid, err := room.ResolveDirect(a, b)
	if err != nil {
		t.Fatalf("ResolveDirect: %v", err)
	}
	return rid.String(), a, b
}

// reversedRoomID returns the non-canonical spelling of a direct pair.
func reversedRoomID(t *testing.T, roomID, a, b string) string {
	t.Helper()
	if roomID == a+"_"+b {
		return b + "_" + a
	}
	return a + "_" + b
}

func TestDirectRoomSpellingsShareConversation(t *testing.T) {
	h, ms := newTestHandler(t, &fakeBlob{})
	r := testRouter(h)
	roomID, a, b := directRoomID(t)
	reversed := reversedRoomID(t, roomID, a, b)

	first := &middleware.Identity{ID: a, Role: models.RoleRecruiter}
	second := &middleware.Identity{ID: b, Role: models.RoleCandidate}

	rec := do(t, r, "POST", "/api/chat/rooms/"+roomID+"/messages", "application/json",
		[]byte(`{"message":"from one spelling"}`), first)
	if rec.Code != http.StatusCreated {
		t.Fatalf("canonical post status = %d", rec.Code)
	}
	rec = do(t, r, "POST", "/api/chat/rooms/"+reversed+"/messages", "application/json",
		[]byte(`{"message":"from the other"}`), second)
	if rec.Code != http.StatusCreated {
		t.Fatalf("reversed post status = %d", rec.Code)
	}

	rooms, err := ms.ListRoomIDs(context.Background(), a)
	if err != nil {
		t.Fatalf("ListRoomIDs: %v", err)
	}
	if len(rooms) != 1 || rooms[0] != roomID {
		t.Fatalf("rooms for participant = %v, want just %q", rooms, roomID)
	}

	// Opening under either spelling sees the whole history and marks
	// the one shared room read.
	rec = do(t, r, "GET", "/api/chat/rooms/"+reversed+"/messages", "", nil, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var resp RoomMessagesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(resp.Messages) != 2 {
		t.Fatalf("history length = %d, want 2", len(resp.Messages))
	}

	unread, err := ms.UnreadCount(context.Background(), roomID, a)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if unread != 0 {
		t.Errorf("unread after reversed-spelling open = %d, want 0", unread)
	}
}

func TestSocketPostCanonicalizesRoom(t *testing.T) {
	h, ms := newTestHandler(t, &fakeBlob{})
	roomID, a, b := directRoomID(t)
	reversed := reversedRoomID(t, roomID, a, b)

	ident := &middleware.Identity{ID: a, Role: models.RoleRecruiter}
	h.postFromSocket("conn-1", ident, reversed, json.RawMessage(`{"message":"hi"}`))

	messages, err := ms.ListByRoom(context.Background(), roomID)
	if err != nil {
		t.Fatalf("ListByRoom: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("canonical room history = %d messages, want 1", len(messages))
	}
	if messages[0].RoomID != roomID {
		t.Errorf("stored room id = %q, want %q", messages[0].RoomID, roomID)
	}
}

func TestPostMessageThenHistory(t *testing.T) {
	h, ms := newTestHandler(t, &fakeBlob{})
	r := testRouter(h)
	roomID, a, b := directRoomID(t)

	sender := &middleware.Identity{ID: a, Role: models.RoleRecruiter}
	rec := do(t, r, "POST", "/api/chat/rooms/"+roomID+"/messages", "application/json",
		[]byte(`{"message":"Hello"}`), sender)
	if rec.Code != http.StatusCreated {
		t.Fatalf("post status = %d, body %s", rec.Code, rec.Body.String())
	}

	var posted models.ChatMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &posted); err != nil {
		t.Fatalf("unmarshal posted: %v", err)
	}
	if posted.ID == "" || posted.SenderID != a || posted.Text != "Hello" {
		t.Errorf("posted = %+v", posted)
	}

	// The counterpart opening the room marks it read.
	viewer := &middleware.Identity{ID: b, Role: models.RoleCandidate}
	rec = do(t, r, "GET", "/api/chat/rooms/"+roomID+"/messages", "", nil, viewer)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	var resp RoomMessagesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(resp.Messages) != 1 {
		t.Fatalf("history length = %d, want 1", len(resp.Messages))
	}
	if !resp.Messages[0].ReadByUser(b) {
		t.Error("opening the room did not mark the message read")
	}

	unread, err := ms.UnreadCount(context.Background(), roomID, b)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if unread != 0 {
		t.Errorf("unread after open = %d, want 0", unread)
	}
}

func TestPostMessageRejectsMultiplePayloads(t *testing.T) {
	h, ms := newTestHandler(t, &fakeBlob{})
	r := testRouter(h)
	roomID, a, _ := directRoomID(t)

	ident := &middleware.Identity{ID: a, Role: models.RoleRecruiter}
	rec := do(t, r, "POST", "/api/chat/rooms/"+roomID+"/messages", "application/json",
		[]byte(`{"message":"hi","gif":"https://giphy.example/x.gif"}`), ident)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	messages, err := ms.ListByRoom(context.Background(), roomID)
	if err != nil {
		t.Fatalf("ListByRoom: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("rejected post persisted %d messages", len(messages))
	}
}

func TestPostMessageRejectsUnparseableRoom(t *testing.T) {
	h, _ := newTestHandler(t, &fakeBlob{})
	r := testRouter(h)

	ident := &middleware.Identity{ID: uuid.NewString(), Role: models.RoleRecruiter}
	rec := do(t, r, "POST", "/api/chat/rooms/not-a-room/messages", "application/json",
		[]byte(`{"message":"hi"}`), ident)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateGroupSeedsFoundingMessage(t *testing.T) {
	h, ms := newTestHandler(t, &fakeBlob{})
	r := testRouter(h)

	creator := uuid.NewString()
	member := uuid.NewString()
	ident := &middleware.Identity{ID: creator, Role: models.RoleRecruiter}

	body, _ := json.Marshal(CreateGroupRequest{
		GroupName: "Backend Hiring",
		MemberIDs: []string{member},
	})
	rec := do(t, r, "POST", "/api/chat/groups", "application/json", body, ident)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp CreateGroupResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !strings.HasPrefix(resp.RoomID, "group_") {
		t.Errorf("room id %q does not carry the group prefix", resp.RoomID)
	}

	founding, err := ms.First(context.Background(), resp.RoomID)
	if err != nil || founding == nil {
		t.Fatalf("First: %v, %v", founding, err)
	}
	if founding.SenderRole != models.RoleSystem {
		t.Errorf("founding role = %q, want system", founding.SenderRole)
	}
	if founding.GroupName != "Backend Hiring" {
		t.Errorf("founding group name = %q", founding.GroupName)
	}
	found := false
	for _, m := range founding.Members {
		if m == creator {
			found = true
		}
	}
	if !found {
		t.Error("creator missing from founding member list")
	}
}

func TestCreateGroupRequiresNameAndMembers(t *testing.T) {
	h, _ := newTestHandler(t, &fakeBlob{})
	r := testRouter(h)

	ident := &middleware.Identity{ID: uuid.NewString(), Role: models.RoleRecruiter}
	rec := do(t, r, "POST", "/api/chat/groups", "application/json",
		[]byte(`{"groupName":"","memberIds":[]}`), ident)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func multipartBody(t *testing.T, filename string, content []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf.Bytes(), mw.FormDataContentType()
}

func TestUploadReturnsReference(t *testing.T) {
	h, _ := newTestHandler(t, &fakeBlob{})
	r := testRouter(h)

	body, contentType := multipartBody(t, "resume.pdf", []byte("%PDF-1.4"))
	ident := &middleware.Identity{ID: uuid.NewString(), Role: models.RoleCandidate}
	rec := do(t, r, "POST", "/api/chat/upload", contentType, body, ident)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp UploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.URL == "" || resp.Name != "resume.pdf" {
		t.Errorf("upload response = %+v", resp)
	}
}

func TestUploadFailurePersistsNothing(t *testing.T) {
	blobs := &fakeBlob{fail: true}
	h, ms := newTestHandler(t, blobs)
	r := testRouter(h)

	userID := uuid.NewString()
	body, contentType := multipartBody(t, "resume.pdf", []byte("%PDF-1.4"))
	ident := &middleware.Identity{ID: userID, Role: models.RoleCandidate}
	rec := do(t, r, "POST", "/api/chat/upload", contentType, body, ident)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if blobs.calls != 1 {
		t.Errorf("blob calls = %d, want 1", blobs.calls)
	}

	rooms, err := ms.ListRoomIDs(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListRoomIDs: %v", err)
	}
	if len(rooms) != 0 {
		t.Errorf("failed upload left %d rooms behind", len(rooms))
	}
}

func TestApplicantsRequiresRecruiter(t *testing.T) {
	h, _ := newTestHandler(t, &fakeBlob{})
	r := testRouter(h)

	ident := &middleware.Identity{ID: uuid.NewString(), Role: models.RoleCandidate}
	rec := do(t, r, "GET", "/api/chat/applicants", "", nil, ident)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestExplicitMarkReadClearsUnread(t *testing.T) {
	h, ms := newTestHandler(t, &fakeBlob{})
	r := testRouter(h)
	roomID, a, b := directRoomID(t)

	sender := &middleware.Identity{ID: a, Role: models.RoleRecruiter}
	rec := do(t, r, "POST", "/api/chat/rooms/"+roomID+"/messages", "application/json",
		[]byte(`{"message":"ping"}`), sender)
	if rec.Code != http.StatusCreated {
		t.Fatalf("post status = %d", rec.Code)
	}

	unread, err := ms.UnreadCount(context.Background(), roomID, b)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if unread != 1 {
		t.Fatalf("unread before mark = %d, want 1", unread)
	}

	viewer := &middleware.Identity{ID: b, Role: models.RoleCandidate}
	rec = do(t, r, "POST", "/api/chat/rooms/"+roomID+"/read", "application/json", []byte("{}"), viewer)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark status = %d", rec.Code)
	}

	unread, err = ms.UnreadCount(context.Background(), roomID, b)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if unread != 0 {
		t.Errorf("unread after mark = %d, want 0", unread)
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	h, _ := newTestHandler(t, &fakeBlob{})
	r := testRouter(h)
	roomID, _, _ := directRoomID(t)

	rec := do(t, r, "GET", "/api/chat/rooms/"+roomID+"/messages", "", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
