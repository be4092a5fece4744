package handlers

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/gramv/onboardingsoftware/internal/apperr"
	"github.com/gramv/onboardingsoftware/internal/authz"
	"github.com/gramv/onboardingsoftware/internal/models"
	"github.com/gramv/onboardingsoftware/internal/realtime"
)

type MessageHandler struct {
	DB  *gorm.DB
	Hub *realtime.Hub
	RDB *redis.Client
}

func NewMessageHandler(db *gorm.DB, hub *realtime.Hub, rdb *redis.Client) *MessageHandler {
	return &MessageHandler{DB: db, Hub: hub, RDB: rdb}
}

type sendMessageReq struct {
	ReceiverID string `json:"receiver_id"`
	Subject    string `json:"subject"`
	Content    string `json:"content"`
}

// Send delivers a direct message, subject to the role matrix: hr_admin may
// message anyone, managers their own-org employees or any hr_admin, employees
// their own-org managers or any hr_admin.
func (h *MessageHandler) Send(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	var req sendMessageReq
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid body", nil)
	}

	receiverID, err := uuid.Parse(strings.TrimSpace(req.ReceiverID))
	if err != nil {
		return apperr.Validation("receiver_id is required", nil)
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return apperr.Validation("content is required", nil)
	}

	var receiver models.User
	if err := h.DB.First(&receiver, "id = ?", receiverID).Error; err != nil {
		return apperr.NotFound("receiver not found")
	}

	if err := authz.CanMessage(actor, receiver.Role, receiver.OrganizationID); err != nil {
		return err
	}

	msg := models.Message{
		SenderID:   actor.UserID,
		ReceiverID: receiverID,
		Subject:    strings.TrimSpace(req.Subject),
		Content:    content,
	}
	if err := h.DB.Create(&msg).Error; err != nil {
		return err
	}

	// realtime delivery to both ends on this instance
	h.Hub.SendToPair(actor.UserID, receiverID, fiber.Map{
		"type":    "new_message",
		"message": msg,
	})

	// cross-instance fan-out
	notif := map[string]interface{}{
		"type":        "direct_message",
		"message_id":  msg.ID.String(),
		"sender_id":   actor.UserID.String(),
		"receiver_id": receiverID.String(),
		"subject":     msg.Subject,
	}
	payload, _ := json.Marshal(notif)
	if err := h.RDB.Publish(context.Background(), "notifications:"+receiverID.String(), payload).Err(); err != nil {
		log.Println("Error publishing message notification:", err)
	}

	return created(c, msg)
}

// Inbox lists the caller's received messages, newest first.
func (h *MessageHandler) Inbox(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	q := h.DB.Preload("Sender").Where("receiver_id = ?", actor.UserID)
	if c.Query("unread") == "true" {
		q = q.Where("is_read = false")
	}

	var messages []models.Message
	if err := q.Order("created_at DESC").Limit(100).Find(&messages).Error; err != nil {
		return err
	}
	return ok(c, messages)
}

// Sent lists what the caller has sent.
func (h *MessageHandler) Sent(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	var messages []models.Message
	if err := h.DB.Preload("Receiver").
		Where("sender_id = ?", actor.UserID).
		Order("created_at DESC").
		Limit(100).
		Find(&messages).Error; err != nil {
		return err
	}
	return ok(c, messages)
}

// Conversation returns the two-way thread between the caller and another user.
func (h *MessageHandler) Conversation(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	otherID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var messages []models.Message
	if err := h.DB.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			actor.UserID, otherID, otherID, actor.UserID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return err
	}

	// mark the incoming half as read, best effort
	if err := h.DB.Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = false", otherID, actor.UserID).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		}).Error; err != nil {
		log.Println("Error marking messages as read:", err)
	}

	return ok(c, messages)
}

// MarkRead marks a single received message as read.
func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var msg models.Message
	if err := h.DB.First(&msg, "id = ?", id).Error; err != nil {
		return apperr.NotFound("message not found")
	}
	if msg.ReceiverID != actor.UserID {
		return apperr.Forbidden("you may only mark your own messages as read")
	}

	now := time.Now()
	msg.IsRead = true
	msg.ReadAt = &now
	if err := h.DB.Save(&msg).Error; err != nil {
		return err
	}
	return ok(c, msg)
}

// WebSocketHandler keeps a socket open for realtime message events. Identity
// comes from the verified JWT locals set during the upgrade, never from the
// client.
func (h *MessageHandler) WebSocketHandler(c *websocket.Conn) {
	userID, _ := c.Locals("userId").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		log.Println("WebSocket: missing or invalid identity, closing")
		c.Close()
		return
	}

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: userUUID,
		Conn:   realtime.NewWebSocketConn(c),
		Send:   make(chan []byte, 256),
	}

	h.Hub.RegisterClient(client)
	defer func() {
		h.Hub.UnregisterClient(client)
		log.Printf("WebSocket: user %s disconnected\n", userID)
	}()

	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Println("WebSocket write error:", err)
				return
			}
		}
	}()

	// read loop keeps the connection alive
	for {
		var payload map[string]interface{}
		if err := c.ReadJSON(&payload); err != nil {
			break
		}
		if msgType, ok := payload["type"].(string); ok && msgType == "pong" {
			continue
		}
	}
}
