package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
	"github.com/alainledesmablanco-dev/interestelar2/server/gateway/middleware"
)

const rpcTimeout = 5 * time.Second

// API serves the public REST surface over the backend gRPC clients.
type API struct {
	Users pb.UserServiceClient
	Games pb.GameServiceClient
	Log   *logrus.Entry
}

// HandleAuth issues a playable identity for a display name.
func (h *API) HandleAuth(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	// 名字可以为空, 由 user-service 生成默认名
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	// 调用 User Service
	ctx, cancel := context.WithTimeout(c.Request.Context(), rpcTimeout)
	defer cancel()

	resp, err := h.Users.IssueIdentity(ctx, &pb.IssueIdentityReq{Name: req.Name})
	if err != nil {
		h.Log.WithError(err).Error("issue identity failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "AUTH_UNAVAILABLE"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    resp.Token,
		"playerId": resp.PlayerID,
		"name":     resp.Name,
	})
}

// HandleGetHistory lists the caller's recent rooms.
func (h *API) HandleGetHistory(c *gin.Context) {
	playerID := c.GetString(middleware.CtxPlayerID) // 从 Auth Middleware 获取
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), rpcTimeout)
	defer cancel()

	resp, err := h.Users.GetHistory(ctx, &pb.GetHistoryReq{
		PlayerID: playerID,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		h.Log.WithError(err).WithField("player", playerID).Error("fetch history failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Fetch history failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": resp.History})
}
