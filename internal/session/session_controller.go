package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/romashorodok/sketching-platform/internal/room"
	"github.com/romashorodok/sketching-platform/pkg/protocol"
	"github.com/romashorodok/sketching-platform/pkg/service"
	"github.com/romashorodok/sketching-platform/pkg/wsutils"
)

type sessionController struct {
	registry *room.Registry
	notifier *room.Notifier
	settings *service.Settings
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func (ctrl *sessionController) wsError(w *wsutils.ThreadSafeWriter, err error) error {
	ctrl.logger.Error(fmt.Sprintf("%s | Err: %s", w.Conn.RemoteAddr(), err))
	w.Send(protocol.EventError, protocol.Error{Message: "wrong data format"})
	return err
}

// signalRejection maps protocol-sequence errors onto their rejection events.
// Anything else is a malformed-traffic error.
func (ctrl *sessionController) signalRejection(w *wsutils.ThreadSafeWriter, roomID protocol.RoomID, err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyInRoom), errors.Is(err, room.ErrAlreadyMember):
		w.Send(protocol.EventAlreadyInRoom, nil)
	case errors.Is(err, ErrNotInRoom):
		w.Send(protocol.EventNotInRoom, nil)
	case errors.Is(err, room.ErrRoomNotExist):
		w.Send(protocol.EventRoomNotFound, protocol.RoomNotFound{RoomID: roomID})
	default:
		ctrl.wsError(w, err)
	}
}

// SessionControllerServe upgrades the connection and runs its command loop.
// One Session lives exactly as long as the loop.
func (ctrl *sessionController) SessionControllerServe(ctx echo.Context) error {
	conn, err := ctrl.upgrader.Upgrade(ctx.Response().Writer, ctx.Request(), nil)
	if err != nil {
		ctrl.logger.Error(fmt.Sprintf("Unable upgrade request %+v", ctx.Request()))
		return err
	}

	w := wsutils.NewThreadSafeWriter(conn)
	defer w.Close()

	sess := NewSession(NewSession_Params{
		ID:       uuid.NewString(),
		Sender:   w,
		Registry: ctrl.registry,
		Settings: ctrl.settings,
		Logger:   ctrl.logger,
	})
	defer sess.Disconnect()

	ctrl.logger.Info("session connected", slog.String("session_id", sess.ID()))

	for {
		// Fresh envelope per frame, a frame without a data field must not
		// inherit the previous frame's payload.
		message := &protocol.Envelope{}
		if err := w.ReadJSON(message); err != nil {
			// Read failure is the disconnect signal, the deferred teardown
			// releases membership and the movement batcher.
			return nil
		}

		switch message.Event {
		case protocol.EventCreateAndJoin:
			var request protocol.CreateAndJoinRequest
			if err := json.Unmarshal(message.Data, &request); err != nil {
				ctrl.wsError(w, err)
				continue
			}
			ctrl.signalRejection(w, "", sess.CreateAndJoin(request.Username))

		case protocol.EventJoin:
			var request protocol.JoinRequest
			if err := json.Unmarshal(message.Data, &request); err != nil {
				ctrl.wsError(w, err)
				continue
			}
			ctrl.signalRejection(w, request.RoomID, sess.Join(request.RoomID, request.Username))

		case protocol.EventLeave:
			ctrl.signalRejection(w, "", sess.Leave())

		case protocol.EventSetColor:
			var request protocol.SetColorRequest
			if err := json.Unmarshal(message.Data, &request); err != nil {
				ctrl.wsError(w, err)
				continue
			}
			sess.SetColor(request.Color)

		case protocol.EventClearCanvas:
			sess.ClearCanvas()

		case protocol.EventPathStart:
			var request protocol.PathPointRequest
			if err := json.Unmarshal(message.Data, &request); err != nil {
				ctrl.wsError(w, err)
				continue
			}
			sess.PathStart(request.X, request.Y)

		case protocol.EventPathMove:
			var request protocol.PathPointRequest
			if err := json.Unmarshal(message.Data, &request); err != nil {
				ctrl.wsError(w, err)
				continue
			}
			sess.PathMove(request.X, request.Y)

		case protocol.EventPathEnd:
			sess.PathEnd()

		default:
			ctrl.wsError(w, fmt.Errorf("wrong message event %q", message.Event))
		}
	}
}

// SessionControllerRoomNotifier feeds a lobby connection room-set updates.
func (ctrl *sessionController) SessionControllerRoomNotifier(ctx echo.Context) error {
	conn, err := ctrl.upgrader.Upgrade(ctx.Response().Writer, ctx.Request(), nil)
	if err != nil {
		ctrl.logger.Error(fmt.Sprintf("Unable upgrade request %+v", ctx.Request()))
		return err
	}

	w := wsutils.NewThreadSafeWriter(conn)
	defer w.Close()

	id := uuid.NewString()
	ctrl.notifier.Listen(id, w)
	defer ctrl.notifier.Stop(id)

	<-ctx.Request().Context().Done()
	return nil
}

func (ctrl *sessionController) SessionControllerRoomCreate(ctx echo.Context) error {
	r := ctrl.registry.CreateRoom()
	return ctx.JSON(http.StatusCreated, protocol.RoomCreateResponse{RoomID: r.ID()})
}

func (ctrl *sessionController) SessionControllerRoomList(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, protocol.RoomListResponse{
		Rooms: ctrl.registry.ListRooms(),
	})
}

func (ctrl *sessionController) Resolve(router *echo.Echo) error {
	go ctrl.notifier.OnUpdateRooms(context.Background(), func(s protocol.Sender) {
		s.Send(protocol.EventUpdateRooms, nil)
	})

	router.GET("/ws", ctrl.SessionControllerServe)
	router.GET("/rooms/notifier", ctrl.SessionControllerRoomNotifier)
	router.GET("/rooms", ctrl.SessionControllerRoomList)
	router.POST("/rooms", ctrl.SessionControllerRoomCreate)
	return nil
}

var _ protocol.HttpResolvable = (*sessionController)(nil)

type newSessionController_Params struct {
	fx.In

	Registry *room.Registry
	Notifier *room.Notifier
	Settings *service.Settings
	Logger   *slog.Logger
}

func NewSessionController(params newSessionController_Params) *sessionController {
	return &sessionController{
		registry: params.Registry,
		notifier: params.Notifier,
		settings: params.Settings,
		logger:   params.Logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}
