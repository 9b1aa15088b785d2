package handlers

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arzan03/storefront/internal/apperror"
	"github.com/arzan03/storefront/internal/middleware"
	"github.com/arzan03/storefront/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ProofField is the multipart field carrying the payment proof.
const ProofField = "proof"

type FileHandler struct {
	payments *services.PaymentService
	tempDir  string
}

func NewFileHandler(payments *services.PaymentService, uploadDir string) *FileHandler {
	return &FileHandler{payments: payments, tempDir: filepath.Join(uploadDir, "tmp")}
}

// UploadPaymentProof handles POST /orders/:id/payment-proof.
func (h *FileHandler) UploadPaymentProof(c *fiber.Ctx) error {
	actor, _ := middleware.ActorFrom(c)

	form, err := c.MultipartForm()
	if err != nil {
		return apperror.BadRequest("expected a multipart form")
	}
	files := form.File[ProofField]
	if len(files) != 1 {
		return apperror.BadRequest("exactly one file must be sent in the \"proof\" field")
	}
	fileHeader := files[0]

	contentType := fileHeader.Header.Get(fiber.HeaderContentType)
	if err := services.ValidateProof(fileHeader.Size, contentType); err != nil {
		return err
	}

	if err := os.MkdirAll(h.tempDir, 0o755); err != nil {
		return apperror.Internal(err, "failed to prepare upload directory")
	}
	tempPath := filepath.Join(h.tempDir, uuid.NewString()+strings.ToLower(filepath.Ext(fileHeader.Filename)))
	if err := c.SaveFile(fileHeader, tempPath); err != nil {
		return apperror.Internal(err, "failed to save upload")
	}

	order, err := h.payments.UploadProof(c.UserContext(), actor, c.Params("id"), services.TempFile{
		Path:        tempPath,
		Filename:    filepath.Base(fileHeader.Filename),
		ContentType: contentType,
		Size:        fileHeader.Size,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, order)
}
