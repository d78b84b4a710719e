package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"finchat/auth"
	"finchat/domain"
	"finchat/errors"
	"finchat/mocks"
	"finchat/observability"
	"finchat/realtime"
	"finchat/runtime"
	"finchat/services"
)

type apiFixture struct {
	app    *fiber.App
	auth   *mocks.MockIAuthService
	rooms  *mocks.MockIRoomService
	chat   *mocks.MockIChatService
	tokens *auth.TokenManager
}

func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	f := apiFixture{
		auth:   mocks.NewMockIAuthService(ctrl),
		rooms:  mocks.NewMockIRoomService(ctrl),
		chat:   mocks.NewMockIChatService(ctrl),
		tokens: auth.NewTokenManager("test-secret", time.Hour),
	}

	stats := &observability.PipelineStats{}
	monitoring := observability.NewMonitoring(log, stats)
	handlers := NewHandlers(f.auth, f.rooms, f.chat, monitoring, log)
	ws := realtime.NewHandler(
		runtime.NewRegistry(), f.tokens,
		mocks.NewMockIRoomRepository(gomock.NewController(t)),
		stats, 4, log,
	)
	f.app = NewApp(handlers, ws, f.tokens, log)
	return f
}

func (f apiFixture) request(t *testing.T, method, target, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	if body != nil {
		httpReq.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		httpReq.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := f.app.Test(httpReq, -1)
	require.NoError(t, err)
	return resp
}

func (f apiFixture) userToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := f.tokens.Generate(userID.String(), "alice", []string{"user"})
	require.NoError(t, err)
	return token
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestAPI_Register(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	f.auth.EXPECT().Register("alice42", "Sup3r$ecretPass!").Return(services.Token("signed-token"), nil)

	resp := f.request(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		UserName: "alice42",
		Password: "Sup3r$ecretPass!",
	})
	req.Equal(http.StatusCreated, resp.StatusCode)
	req.Equal("signed-token", decode[TokenResponse](t, resp).Token)
}

func TestAPI_Register_Conflict(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	f.auth.EXPECT().Register(gomock.Any(), gomock.Any()).Return(services.Token(""), errors.ErrUserAlreadyExists)

	resp := f.request(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		UserName: "alice42",
		Password: "Sup3r$ecretPass!",
	})
	req.Equal(http.StatusConflict, resp.StatusCode)
}

func TestAPI_Login_InvalidCredentials(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	f.auth.EXPECT().Login("alice42", "wrong").Return(services.Token(""), errors.ErrInvalidCredentials)

	resp := f.request(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		UserName: "alice42",
		Password: "wrong",
	})
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_ProtectedRoutesRequireToken(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	resp := f.request(t, http.MethodGet, "/api/rooms", "", nil)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp = f.request(t, http.MethodGet, "/api/rooms", "garbage-token", nil)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_SendMessage_OrdinaryMessage(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	userID := uuid.New()
	roomID := uuid.New()
	view := domain.MessageView{ID: uuid.New(), RoomID: roomID, UserID: userID, UserName: "alice", Text: "hello"}

	f.chat.EXPECT().
		SendMessage(gomock.Any(), userID, roomID, "hello").
		Return(&view, nil)

	resp := f.request(t, http.MethodPost, "/api/chat/send", f.userToken(t, userID), SendMessageRequest{
		RoomID: roomID,
		Text:   "hello",
	})
	req.Equal(http.StatusCreated, resp.StatusCode)
	req.Equal("hello", decode[domain.MessageView](t, resp).Text)
}

// A stock command is only queued: 202, no message body.
func TestAPI_SendMessage_StockCommand(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	userID := uuid.New()
	roomID := uuid.New()

	f.chat.EXPECT().
		SendMessage(gomock.Any(), userID, roomID, "/stock=aapl.us").
		Return(nil, nil)

	resp := f.request(t, http.MethodPost, "/api/chat/send", f.userToken(t, userID), SendMessageRequest{
		RoomID: roomID,
		Text:   "/stock=aapl.us",
	})
	req.Equal(http.StatusAccepted, resp.StatusCode)
	req.True(decode[QueuedResponse](t, resp).Queued)
}

func TestAPI_History_UnknownRoom(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	roomID := uuid.New()
	f.chat.EXPECT().GetHistory(roomID, nil).Return(nil, errors.ErrRoomNotFound)

	target := fmt.Sprintf("/api/chat/history/%s", roomID)
	resp := f.request(t, http.MethodGet, target, f.userToken(t, uuid.New()), nil)
	req.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestAPI_CreateRoom_EmptyName(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	resp := f.request(t, http.MethodPost, "/api/rooms", f.userToken(t, uuid.New()), CreateRoomRequest{Name: "   "})
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Search_RequiresQuery(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	target := fmt.Sprintf("/api/chat/search/%s", uuid.New())
	resp := f.request(t, http.MethodGet, target, f.userToken(t, uuid.New()), nil)
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Stats(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	resp := f.request(t, http.MethodGet, "/api/stats", f.userToken(t, uuid.New()), nil)
	req.Equal(http.StatusOK, resp.StatusCode)

	snap := decode[observability.Snapshot](t, resp)
	req.GreaterOrEqual(snap.Goroutines, 1)
}
