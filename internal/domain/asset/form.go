package asset

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"figureit/internal/pkg/validator"
)

// FileInput is an uploaded file with its sniffed content type.
type FileInput struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// UploadForm is the typed create form for one media kind.
// Field order is the order failures are reported in.
type UploadForm struct {
	Kind            Kind
	File            *FileInput `validate:"-"`
	Filename        string
	Title           string  `form:"title" validate:"notblank"`
	Description     string  `form:"description"`
	CategoryIDs     []int64 `form:"category_ids" validate:"min=1"`
	Status          Status  `form:"status" validate:"oneof=inventory sold"`
	Price           *float64
	DiscountedPrice *float64
}

var formMessages = validator.Messages{
	"title":        msgTitleRequired,
	"category_ids": msgCategoriesRequired,
	"status":       msgInvalidStatus,
	"asset_status": msgInvalidStatus,
}

// Validate checks the form in the order the admin UI reports problems.
// It makes no remote calls.
func (f *UploadForm) Validate() validator.Errors {
	var errs validator.Errors
	switch {
	case f.File == nil || f.File.Size == 0:
		errs.Add("file", msgSelectFile(f.Kind))
	case !strings.HasPrefix(f.File.ContentType, string(f.Kind)+"/"):
		errs.Add("file", msgSelectFile(f.Kind))
	case f.File.Size > f.Kind.MaxSize():
		errs.Add("file", msgTooLarge(f.Kind))
	}
	if f.Status == "" {
		f.Status = StatusInventory
	}
	return append(errs, validator.Check(f, formMessages)...)
}

// ObjectName is the name the stored object is derived from: the filename
// field, or the uploaded file's name when that is empty.
func (f *UploadForm) ObjectName() string {
	if name := strings.TrimSpace(f.Filename); name != "" {
		if !strings.Contains(name, ".") && f.File != nil {
			if i := strings.LastIndex(f.File.Name, "."); i >= 0 {
				name += f.File.Name[i:]
			}
		}
		return name
	}
	if f.File != nil {
		return f.File.Name
	}
	return ""
}

// Price is an optional price field that remembers whether it was sent.
// Numbers and numeric strings set a value; "" and null clear it.
type Price struct {
	Set   bool
	Value *float64
}

func (p *Price) UnmarshalJSON(b []byte) error {
	p.Set = true
	p.Value = nil
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := ParsePrice(s)
		if err != nil {
			return err
		}
		p.Value = v
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	p.Value = &v
	return nil
}

// ParsePrice converts a form value. Blank input means no price.
func ParsePrice(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// MetadataForm is a partial update; nil and unset fields are left alone.
type MetadataForm struct {
	Title           *string `json:"title" validate:"omitnil,notblank"`
	Description     *string `json:"description"`
	Status          *Status `json:"asset_status" validate:"omitnil,oneof=inventory sold"`
	Price           Price   `json:"price"`
	DiscountedPrice Price   `json:"discounted_price"`
}

func (f *MetadataForm) Validate() validator.Errors {
	return validator.Check(f, formMessages)
}

// Updates returns the column changes of the form.
func (f *MetadataForm) Updates() map[string]interface{} {
	m := make(map[string]interface{})
	if f.Title != nil {
		m["title"] = strings.TrimSpace(*f.Title)
	}
	if f.Description != nil {
		m["description"] = *f.Description
	}
	if f.Status != nil {
		m["asset_status"] = string(*f.Status)
	}
	if f.Price.Set {
		m["price"] = f.Price.Value
	}
	if f.DiscountedPrice.Set {
		m["discounted_price"] = f.DiscountedPrice.Value
	}
	return m
}

// EditForm is the save action of the edit dialog: metadata plus the full
// desired category set.
type EditForm struct {
	MetadataForm
	CategoryIDs []int64 `json:"category_ids" validate:"min=1"`
}

func (f *EditForm) Validate() validator.Errors {
	return validator.Check(f, formMessages)
}
