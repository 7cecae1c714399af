package handlers

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/statusdeck/statusdeck-backend/internal/http/response"
	pkgerr "github.com/statusdeck/statusdeck-backend/internal/pkg/errors"
	"github.com/statusdeck/statusdeck-backend/internal/platform/logger"
	"github.com/statusdeck/statusdeck-backend/internal/services"
)

// maxUploadBytes bounds how much of an upload is read into memory.
const maxUploadBytes = 20 << 20

type ImportHandler struct {
	log     *logger.Logger
	imports *services.ImportService
}

func NewImportHandler(log *logger.Logger, imports *services.ImportService) *ImportHandler {
	return &ImportHandler{
		log:     log.With("handler", "ImportHandler"),
		imports: imports,
	}
}

type importEnvelope struct {
	*services.ImportOutcome
	ReportBase64 string `json:"report_base64,omitempty"`
}

// POST /api/imports
//
// Accepts either a multipart upload with a "file" workbook or a JSON body in
// domain or view shape. ?commit=true persists; the default is preview-only.
func (h *ImportHandler) Import(c *gin.Context) {
	opts := services.ImportOptions{
		Commit: c.Query("commit") == "true",
		Actor:  c.GetHeader("X-Actor"),
		Notes:  c.Query("notes"),
	}

	raw, isWorkbook, err := readUpload(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_upload", err)
		return
	}

	var outcome *services.ImportOutcome
	if isWorkbook {
		outcome, err = h.imports.ImportWorkbook(c.Request.Context(), raw, opts)
	} else {
		outcome, err = h.imports.ImportJSON(c.Request.Context(), raw, opts)
	}
	if err != nil {
		if errors.Is(err, pkgerr.ErrStructural) {
			response.RespondError(c, http.StatusBadRequest, "structural_error", err)
			return
		}
		h.log.Error("import failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "import_failed", err)
		return
	}

	envelope := importEnvelope{ImportOutcome: outcome}
	if !outcome.OK {
		envelope.ReportBase64 = base64.StdEncoding.EncodeToString(outcome.Report)
		c.JSON(http.StatusUnprocessableEntity, envelope)
		return
	}
	response.RespondOK(c, envelope)
}

func readUpload(c *gin.Context) (raw []byte, isWorkbook bool, err error) {
	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/") {
		file, _, err := c.Request.FormFile("file")
		if err != nil {
			return nil, false, err
		}
		defer file.Close()
		raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		return raw, true, err
	}
	raw, err = io.ReadAll(io.LimitReader(c.Request.Body, maxUploadBytes))
	return raw, false, err
}
