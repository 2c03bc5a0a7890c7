package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/chat"
	"github.com/sigenerus/sigenerus/services/realtime"
)

var errRealtimeUnavailable = echo.NewHTTPError(http.StatusServiceUnavailable, "realtime service unavailable")

type chatApi struct {
	svc    *chat.Service
	hub    *realtime.Hub
	logger core.Logger
}

func registerChatAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth authConfig, deps ServerDeps) {
	api := chatApi{svc: deps.ChatSvc, hub: deps.Hub, logger: deps.Logger}

	cg := g.Group("/chat", jwt, generusMiddleware)
	cg.GET("/list", api.chatList)
	cg.GET("/online", api.online)
	cg.POST("/private", api.createPrivate)

	cg.POST("/groups", api.createGroup)
	cg.GET("/groups/:conversationId", api.groupDetail)
	cg.PUT("/groups/:conversationId", api.updateGroup)
	cg.DELETE("/groups/:conversationId", api.deleteGroup)
	cg.POST("/groups/:conversationId/leave", api.leaveGroup)
	cg.POST("/groups/:conversationId/members", api.addMember)
	cg.DELETE("/groups/:conversationId/members/:mumiId", api.removeMember)

	cg.GET("/conversations/:conversationId", api.conversation)
	cg.DELETE("/conversations/:conversationId", api.deleteConversation)
	cg.GET("/conversations/:conversationId/messages", api.messages)

	cg.POST("/messages", api.sendMessage)
	cg.POST("/messages/read", api.markRead)

	g.GET("/ws", api.serveWS, queryTokenMiddleware, middleware.JWTWithConfig(auth.jwt), generusMiddleware)
}

type (
	CreatePrivateRequest struct {
		TargetUserID int64 `json:"targetUserId"`
	}

	AddMemberRequest struct {
		MumiID int64 `json:"mumiId"`
	}

	MarkReadRequest struct {
		ConversationID string `json:"conversationId"`
	}

	OnlineResponse struct {
		Users []int64 `json:"users"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}
)

func (api *chatApi) chatList(ctx echo.Context) error {
	uid, err := getContextGenerusID(ctx)
	if err != nil {
		return err
	}
	items, err := api.svc.ChatList(ctx.Request().Context(), uid)
	if err != nil {
		return errors.Wrap(err, "building chat list")
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *chatApi) online(ctx echo.Context) error {
	if api.hub == nil {
		return errRealtimeUnavailable
	}
	return ctx.JSON(http.StatusOK, OnlineResponse{Users: api.hub.OnlineUsers()})
}

func (api *chatApi) createPrivate(ctx echo.Context) error {
	uid, err := getContextGenerusID(ctx)
	if err != nil {
		return err
	}
	var data CreatePrivateRequest
	if err = bindBody(ctx, &data, "CreatePrivateRequest"); err != nil {
		return err
	}

	conv, created, err := api.svc.CreatePrivate(ctx.Request().Context(), uid, data.TargetUserID)
	if err != nil {
		return errors.Wrap(err, "creating private conversation")
	}
	if created {
		return ctx.JSON(http.StatusCreated, conv)
	}
	return ctx.JSON(http.StatusOK, conv)
}

// Groups

func (api *chatApi) createGroup(ctx echo.Context) error {
	uid, err := getContextGenerusID(ctx)
	if err != nil {
		return err
	}
	var data chat.NewGroup
	if err = bindBody(ctx, &data, "NewGroup"); err != nil {
		return err
	}
	conv, err := api.svc.CreateGroup(ctx.Request().Context(), uid, data)
	if err != nil {
		return errors.Wrap(err, "creating group")
	}
	return ctx.JSON(http.StatusCreated, conv)
}

func (api *chatApi) groupDetail(ctx echo.Context) error {
	conv, err := api.svc.GroupDetail(ctx.Request().Context(), ctx.Param("conversationId"))
	if err != nil {
		return errors.Wrap(err, "finding group")
	}
	return ctx.JSON(http.StatusOK, conv)
}

func (api *chatApi) updateGroup(ctx echo.Context) error {
	uid, err := getContextGenerusID(ctx)
	if err != nil {
		return err
	}
	var data chat.UpdateGroup
	if err = bindBody(ctx, &data, "UpdateGroup"); err != nil {
		return err
	}
	conv, err := api.svc.UpdateGroup(ctx.Request().Context(), uid, ctx.Param("conversationId"), data)
	if err != nil {
		return errors.Wrap(err, "updating group")
	}
	return ctx.JSON(http.StatusOK, conv)
}

func (api *chatApi) deleteGroup(ctx echo.Context) error {
	uid, err := getContextGenerusID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteGroup(ctx.Request().Context(), uid, ctx.Param("conversationId")); err != nil {
		return errors.Wrap(err, "deleting group")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *chatApi) leaveGroup(ctx echo.Context) error {
	uid, err := getContextGenerusID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.LeaveGroup(ctx.Request().Context(), uid, ctx.Param("conversationId")); err != nil {
		return errors.Wrap(err, "leaving group")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "left the group"})
}

func (api *chatApi) addMember(ctx echo.Context) error {
	uid, err := getContextGenerusID(ctx)
	if err != nil {
		return err
	}
	var data AddMemberRequest
	if err = bindBody(ctx, &data, "AddMemberRequest"); err != nil {
		return err
	}
	if data.MumiID <= 0 {
		return core.NewFieldError("mumiId", "this field is required")
	}
	conv, err := api.svc.AddMember(ctx.Request().Context(), uid, ctx.Param("conversationId"), data.MumiID)
	if err != nil {
		return errors.Wrap(err, "adding group member")
	}
	return ctx.JSON(http.StatusOK, conv)
}

func (api *chatApi) removeMember(ctx echo.Context) error {
	uid, err := getContextGenerusID(ctx)
	if err != nil {
		return err
	}
	mumiID, err := paramID(ctx, "mumiId")
	if err != nil {
		return err
	}
	if err = api.svc.RemoveMember(ctx.Request().Context(), uid, ctx.Param("conversationId"), mumiID); err != nil {
		return errors.Wrap(err, "removing group member")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Conversations

func (api *chatApi) conversation(ctx echo.Context) error {
	uid, err := getContextGenerusID(ctx)
	if err != nil {
		return err
	}
	conv, err := api.svc.Get(ctx.Request().Context(), uid, ctx.Param("conversationId"))
	if err != nil {
		return errors.Wrap(err, "finding conversation")
	}
	return ctx.JSON(http.StatusOK, conv)
}

func (api *chatApi) deleteConversation(ctx echo.Context) error {
	uid, err := getContextGenerusID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteConversation(ctx.Request().Context(), uid, ctx.Param("conversationId")); err != nil {
		return errors.Wrap(err, "deleting conversation")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *chatApi) messages(ctx echo.Context) error {
	uid, err := getContextGenerusID(ctx)
	if err != nil {
		return err
	}
	msgs, err := api.svc.Messages(ctx.Request().Context(), uid, ctx.Param("conversationId"))
	if err != nil {
		return errors.Wrap(err, "listing messages")
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *chatApi) sendMessage(ctx echo.Context) error {
	uid, err := getContextGenerusID(ctx)
	if err != nil {
		return err
	}
	var data chat.NewMessage
	if err = bindBody(ctx, &data, "NewMessage"); err != nil {
		return err
	}
	msg, err := api.svc.SendMessage(ctx.Request().Context(), uid, data)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusCreated, msg)
}

func (api *chatApi) markRead(ctx echo.Context) error {
	uid, err := getContextGenerusID(ctx)
	if err != nil {
		return err
	}
	var data MarkReadRequest
	if err = bindBody(ctx, &data, "MarkReadRequest"); err != nil {
		return err
	}
	read, err := api.svc.MarkRead(ctx.Request().Context(), uid, data.ConversationID)
	if err != nil {
		return errors.Wrap(err, "marking messages read")
	}
	return ctx.JSON(http.StatusOK, read)
}

// serveWS upgrades to the realtime websocket of the authenticated generus.
func (api *chatApi) serveWS(ctx echo.Context) error {
	if api.hub == nil {
		return errRealtimeUnavailable
	}
	uid, err := getContextGenerusID(ctx)
	if err != nil {
		return err
	}

	err = api.hub.Serve(ctx.Response(), ctx.Request(), uid)
	if err == realtime.ErrHubClosed {
		return errRealtimeUnavailable
	}
	if err != nil {
		// the upgrader has already answered the handshake
		api.logger.Warn("websocket upgrade", err, core.Actor{ID: strconv.FormatInt(uid, 10), Kind: KindGenerus})
	}
	return nil
}
