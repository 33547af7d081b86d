package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
	"github.com/alainledesmablanco-dev/interestelar2/server/gateway/middleware"
)

// HandleListRooms lists every room in the directory.
func (h *API) HandleListRooms(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), rpcTimeout)
	defer cancel()

	resp, err := h.Games.ListRooms(ctx, &pb.ListRoomsReq{})
	if err != nil {
		h.Log.WithError(err).Error("list rooms failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "List rooms failed"})
		return
	}
	rooms := resp.Rooms
	if rooms == nil {
		rooms = []pb.RoomInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// HandleStartRoom starts a room on behalf of the caller, who must host it.
func (h *API) HandleStartRoom(c *gin.Context) {
	var req struct {
		RoomID string `json:"room_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room_id is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), rpcTimeout)
	defer cancel()

	resp, err := h.Games.StartRoom(ctx, &pb.StartRoomReq{
		RoomID:   req.RoomID,
		PlayerID: c.GetString(middleware.CtxPlayerID),
	})
	if err != nil {
		h.Log.WithError(err).WithField("room", req.RoomID).Error("start room failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Start room failed"})
		return
	}
	if !resp.OK {
		c.JSON(statusFor(resp.Error), gin.H{"ok": false, "error": resp.Error})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "room_id": req.RoomID})
}

// statusFor maps a room outcome code to an HTTP status.
func statusFor(code string) int {
	switch code {
	case "NOT_FOUND", "NO_GAME":
		return http.StatusNotFound
	case "NOT_HOST":
		return http.StatusForbidden
	case "UNAVAILABLE":
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
