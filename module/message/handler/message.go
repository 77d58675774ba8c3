package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	midsec "PingUp/middleware/security"
	"PingUp/module/message/service"
	"PingUp/service/media"
	"PingUp/tools/errs"
)

const defaultMaxUpload = 8 << 20

// MessageHandler exposes the controller over JSON/multipart endpoints.
type MessageHandler struct {
	ctrl      *service.Controller
	maxUpload int64
}

func NewMessageHandler(ctrl *service.Controller, maxUpload int64) *MessageHandler {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &MessageHandler{ctrl: ctrl, maxUpload: maxUpload}
}

type sendReq struct {
	ToUserID string `json:"to_user_id" form:"to_user_id"`
	Text     string `json:"text" form:"text"`
}

type getReq struct {
	ToUserID string `json:"to_user_id"`
}

type deleteReq struct {
	MessageID string `json:"message_id"`
}

// Send accepts multipart (to_user_id, text, file) or a JSON text message.
func (h *MessageHandler) Send(c *gin.Context) {
	var req sendReq
	if err := c.ShouldBind(&req); err != nil {
		fail(c, errs.ErrArgs.WrapMsg("bad request body"))
		return
	}

	in := service.SendInput{
		SenderID:   midsec.UserID(c),
		ReceiverID: strings.TrimSpace(req.ToUserID),
		Text:       req.Text,
	}

	if strings.HasPrefix(c.ContentType(), gin.MIMEMultipartPOSTForm) {
		file, err := h.readFile(c)
		if err != nil {
			fail(c, err)
			return
		}
		in.File = file
	}

	msg, err := h.ctrl.SendMessage(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"message": msg})
}

// readFile returns nil when the form carries no file part.
func (h *MessageHandler) readFile(c *gin.Context) (*media.File, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, errs.ErrArgs.WrapMsg("bad multipart body")
	}
	if fh.Size > h.maxUpload {
		return nil, errs.ErrArgs.WrapMsg("file too large", "limit", h.maxUpload)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errs.WrapMsg(err, "open upload")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
	if err != nil {
		return nil, errs.WrapMsg(err, "read upload")
	}
	if int64(len(data)) > h.maxUpload {
		return nil, errs.ErrArgs.WrapMsg("file too large", "limit", h.maxUpload)
	}
	return &media.File{Name: fh.Filename, Data: data}, nil
}

func (h *MessageHandler) Get(c *gin.Context) {
	var req getReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrArgs.WrapMsg("bad request body"))
		return
	}
	other := strings.TrimSpace(req.ToUserID)
	if other == "" {
		fail(c, errs.ErrArgs.WrapMsg("to_user_id is required"))
		return
	}
	msgs, err := h.ctrl.GetConversation(c.Request.Context(), midsec.UserID(c), other)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"messages": msgs})
}

func (h *MessageHandler) Delete(c *gin.Context) {
	var req deleteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrArgs.WrapMsg("bad request body"))
		return
	}
	h.delete(c, req.MessageID)
}

// DeleteByID handles DELETE /api/message/:id.
func (h *MessageHandler) DeleteByID(c *gin.Context) {
	h.delete(c, c.Param("id"))
}

func (h *MessageHandler) delete(c *gin.Context, id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		fail(c, errs.ErrArgs.WrapMsg("message_id is required"))
		return
	}
	if err := h.ctrl.DeleteMessage(c.Request.Context(), midsec.UserID(c), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"message_id": id})
}

// Recent lists the latest message per counterpart with both sides populated.
func (h *MessageHandler) Recent(c *gin.Context) {
	entries, err := h.ctrl.Inbox(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"messages": entries})
}
