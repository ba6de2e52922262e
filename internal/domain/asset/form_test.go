package asset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadForm_ValidateOrder(t *testing.T) {
	cases := []struct {
		name string
		form UploadForm
		want string
	}{
		{
			name: "missing file",
			form: UploadForm{Kind: KindImage, Title: "x", CategoryIDs: []int64{1}},
			want: "Please select an image file",
		},
		{
			name: "wrong kind",
			form: UploadForm{Kind: KindVideo, File: &FileInput{Size: 10, ContentType: "image/png"}, Title: "x", CategoryIDs: []int64{1}},
			want: "Please select a video file",
		},
		{
			name: "image too large",
			form: UploadForm{Kind: KindImage, File: &FileInput{Size: 10<<20 + 1, ContentType: "image/jpeg"}, Title: "x", CategoryIDs: []int64{1}},
			want: "File size must be less than 10MB",
		},
		{
			name: "video too large",
			form: UploadForm{Kind: KindVideo, File: &FileInput{Size: 50<<20 + 1, ContentType: "video/mp4"}, Title: "x", CategoryIDs: []int64{1}},
			want: "File size must be less than 50MB",
		},
		{
			name: "blank title",
			form: UploadForm{Kind: KindImage, File: &FileInput{Size: 10, ContentType: "image/png"}, Title: "  ", CategoryIDs: []int64{1}},
			want: "Please enter a display title",
		},
		{
			name: "no categories",
			form: UploadForm{Kind: KindImage, File: &FileInput{Size: 10, ContentType: "image/png"}, Title: "x"},
			want: "please select at least one category",
		},
		{
			name: "bad status",
			form: UploadForm{Kind: KindImage, File: &FileInput{Size: 10, ContentType: "image/png"}, Title: "x", CategoryIDs: []int64{1}, Status: "gone"},
			want: "Status must be inventory or sold",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := tc.form.Validate()
			require.NotEmpty(t, errs)
			assert.Equal(t, tc.want, errs.First())
		})
	}
}

func TestUploadForm_DefaultsStatus(t *testing.T) {
	f := UploadForm{Kind: KindImage, File: &FileInput{Size: 10, ContentType: "image/png"}, Title: "x", CategoryIDs: []int64{1}}
	assert.Empty(t, f.Validate())
	assert.Equal(t, StatusInventory, f.Status)
}

func TestUploadForm_ObjectName(t *testing.T) {
	f := UploadForm{File: &FileInput{Name: "IMG_0042.JPG"}}
	assert.Equal(t, "IMG_0042.JPG", f.ObjectName())

	f.Filename = "blue vase"
	assert.Equal(t, "blue vase.JPG", f.ObjectName())

	f.Filename = "blue vase.jpeg"
	assert.Equal(t, "blue vase.jpeg", f.ObjectName())
}

func TestPrice_UnmarshalJSON(t *testing.T) {
	var form MetadataForm
	require.NoError(t, json.Unmarshal([]byte(`{"price": "12.50", "discounted_price": ""}`), &form))
	assert.True(t, form.Price.Set)
	require.NotNil(t, form.Price.Value)
	assert.Equal(t, 12.5, *form.Price.Value)
	assert.True(t, form.DiscountedPrice.Set)
	assert.Nil(t, form.DiscountedPrice.Value)

	form = MetadataForm{}
	require.NoError(t, json.Unmarshal([]byte(`{"price": 8, "discounted_price": null}`), &form))
	assert.Equal(t, 8.0, *form.Price.Value)
	assert.True(t, form.DiscountedPrice.Set)

	form = MetadataForm{}
	require.NoError(t, json.Unmarshal([]byte(`{"title": "x"}`), &form))
	assert.False(t, form.Price.Set)
	assert.NotContains(t, form.Updates(), "price")

	assert.Error(t, json.Unmarshal([]byte(`{"price": "twelve"}`), &form))
}

func TestMetadataForm_Updates(t *testing.T) {
	title := "  Vase  "
	status := StatusSold
	form := MetadataForm{Title: &title, Status: &status, Price: Price{Set: true}}

	updates := form.Updates()
	assert.Equal(t, "Vase", updates["title"])
	assert.Equal(t, "sold", updates["asset_status"])
	assert.Contains(t, updates, "price")
	assert.Nil(t, updates["price"])
	assert.NotContains(t, updates, "description")
}

func TestEditForm_Validate(t *testing.T) {
	blank := "   "
	lost := Status("lost")
	form := EditForm{MetadataForm: MetadataForm{Title: &blank, Status: &lost}}

	errs := form.Validate()
	require.Len(t, errs, 3)
	assert.Equal(t, "title", errs[0].Field)
	assert.Equal(t, "Please enter a display title", errs[0].Message)
	assert.Equal(t, "Status must be inventory or sold", errs[1].Message)
	assert.Equal(t, "please select at least one category", errs[2].Message)

	title := "Vase"
	ok := EditForm{MetadataForm: MetadataForm{Title: &title}, CategoryIDs: []int64{2}}
	assert.Empty(t, ok.Validate())
}

func TestParseKindFilter(t *testing.T) {
	k, ok := ParseKindFilter("all")
	assert.True(t, ok)
	assert.Equal(t, Kind(""), k)

	k, ok = ParseKindFilter("video")
	assert.True(t, ok)
	assert.Equal(t, KindVideo, k)

	_, ok = ParseKindFilter("audio")
	assert.False(t, ok)
}
