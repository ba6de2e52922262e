package asset

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"figureit/internal/domain/session"
	"figureit/internal/pkg/response"
	"figureit/internal/pkg/validator"
)

// multipart overhead allowed on top of the file limit
const formSlack = 1 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List GET /assets?type=all|image|video
func (h *Handler) List(c *gin.Context) {
	s, ok := owner(c)
	if !ok {
		return
	}
	kind, ok := ParseKindFilter(c.DefaultQuery("type", "all"))
	if !ok {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "type must be all, image or video")
		return
	}

	assets, err := h.service.List(c.Request.Context(), s.UserID(), kind)
	if err != nil {
		response.FromError(c, err, msgLoadFailed)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assets": assets})
}

func (h *Handler) Get(c *gin.Context) {
	s, ok := owner(c)
	if !ok {
		return
	}
	id, ok := assetID(c)
	if !ok {
		return
	}

	a, err := h.service.Get(c.Request.Context(), s.UserID(), id)
	if err != nil {
		response.FromError(c, err, msgLoadFailed)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"asset": a})
}

func (h *Handler) UploadImage(c *gin.Context) { h.upload(c, KindImage) }

func (h *Handler) UploadVideo(c *gin.Context) { h.upload(c, KindVideo) }

func (h *Handler) upload(c *gin.Context, kind Kind) {
	s, ok := owner(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, kind.MaxSize()+formSlack)
	form, closeFile, err := parseUploadForm(c, kind)
	if closeFile != nil {
		defer closeFile()
	}
	if err != nil {
		response.FromError(c, err, "Invalid upload form")
		return
	}

	res, err := h.service.Create(c.Request.Context(), s.UserID(), *form)
	if err != nil {
		response.FromError(c, err, msgUploadFailed)
		return
	}
	if res.Warning != "" {
		response.SuccessWithWarning(c, http.StatusCreated, gin.H{"asset": res.Asset}, res.Warning)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"asset": res.Asset})
}

// UpdateMetadata PATCH /assets/:id
func (h *Handler) UpdateMetadata(c *gin.Context) {
	s, ok := owner(c)
	if !ok {
		return
	}
	id, ok := assetID(c)
	if !ok {
		return
	}
	var form MetadataForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", msgInvalidPrice)
		return
	}

	a, err := h.service.UpdateMetadata(c.Request.Context(), s.UserID(), id, form)
	if err != nil {
		response.FromError(c, err, msgUpdateFailed)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"asset": a})
}

// Edit PUT /assets/:id
func (h *Handler) Edit(c *gin.Context) {
	s, ok := owner(c)
	if !ok {
		return
	}
	id, ok := assetID(c)
	if !ok {
		return
	}
	var form EditForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	a, err := h.service.Edit(c.Request.Context(), s.UserID(), id, form)
	if err != nil {
		response.FromError(c, err, msgUpdateFailed)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"asset": a})
}

type setCategoriesRequest struct {
	CategoryIDs []int64 `json:"category_ids"`
}

// SetCategories PUT /assets/:id/categories
func (h *Handler) SetCategories(c *gin.Context) {
	s, ok := owner(c)
	if !ok {
		return
	}
	id, ok := assetID(c)
	if !ok {
		return
	}
	var req setCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	a, delta, err := h.service.SetCategories(c.Request.Context(), s.UserID(), id, req.CategoryIDs)
	if err != nil {
		response.FromError(c, err, "Failed to update categories")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"asset": a, "delta": delta})
}

func (h *Handler) Delete(c *gin.Context) {
	s, ok := owner(c)
	if !ok {
		return
	}
	id, ok := assetID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), s.UserID(), id); err != nil {
		response.FromError(c, err, msgDeleteFailed)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

func owner(c *gin.Context) (*session.Session, bool) {
	s, ok := session.FromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return nil, false
	}
	return s, true
}

func assetID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid asset ID")
		return 0, false
	}
	return id, true
}

// parseUploadForm reads the multipart form. The returned close function is
// non-nil whenever a file was opened.
func parseUploadForm(c *gin.Context, kind Kind) (*UploadForm, func(), error) {
	fh, err := c.FormFile("file")
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, nil, validator.Errors{{Field: "file", Message: msgTooLarge(kind)}}
	}

	form := &UploadForm{
		Kind:        kind,
		Filename:    c.PostForm("filename"),
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Status:      Status(c.PostForm("status")),
	}

	var errs validator.Errors
	if form.Price, err = ParsePrice(c.PostForm("price")); err != nil {
		errs.Add("price", msgInvalidPrice)
	}
	if form.DiscountedPrice, err = ParsePrice(c.PostForm("discounted_price")); err != nil {
		errs.Add("discounted_price", msgInvalidPrice)
	}
	ids, ok := parseIDs(c.PostFormArray("category_ids"))
	if !ok {
		errs.Add("category_ids", msgUnknownCategory)
	}
	form.CategoryIDs = ids
	if len(errs) > 0 {
		return nil, nil, errs
	}

	// a missing file is left for Validate so messages keep form order
	if fh == nil {
		return form, nil, nil
	}
	in, closeFile, err := openFile(fh)
	if err != nil {
		return nil, nil, err
	}
	form.File = in
	return form, closeFile, nil
}

// openFile opens an uploaded file and detects its content type.
func openFile(fh *multipart.FileHeader) (*FileInput, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, nil, err
	}
	return &FileInput{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: detectContentType(head[:n], fh.Header.Get("Content-Type"), fh.Filename),
		Body:        f,
	}, func() { f.Close() }, nil
}

// parseIDs accepts repeated fields and comma separated values.
func parseIDs(values []string) ([]int64, bool) {
	var out []int64
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, false
			}
			out = append(out, id)
		}
	}
	return out, true
}
